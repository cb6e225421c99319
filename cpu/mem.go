package cpu

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Mem is a fixed-size flat byte store created once at VM construction.
// codeEnd marks the end of the loaded image and is immutable after load;
// brk is the heap top, moved only by the brk/mmap/munmap handlers and
// never below codeEnd.
type Mem struct {
	data    []byte
	codeEnd uint32
	brk     uint32
}

func NewMem(size uint32) *Mem {
	return &Mem{data: make([]byte, size)}
}

func (m *Mem) Len() uint32 {
	return uint32(len(m.data))
}

func (m *Mem) check(addr, size uint32) error {
	end := uint64(addr) + uint64(size)
	if end > uint64(len(m.data)) {
		return errors.Errorf("memory access out of bounds: addr=%#x size=%d mem=%d",
			addr, size, len(m.data))
	}
	return nil
}

func (m *Mem) ReadInto(p []byte, addr uint32) error {
	if err := m.check(addr, uint32(len(p))); err != nil {
		return err
	}
	copy(p, m.data[addr:])
	return nil
}

func (m *Mem) Read(addr, size uint32) ([]byte, error) {
	p := make([]byte, size)
	if err := m.ReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Mem) Write(addr uint32, p []byte) error {
	if err := m.check(addr, uint32(len(p))); err != nil {
		return err
	}
	copy(m.data[addr:], p)
	return nil
}

// ReadUint reads a 1/2/4 byte little-endian value.
func (m *Mem) ReadUint(addr uint32, size int) (uint32, error) {
	if err := m.check(addr, uint32(size)); err != nil {
		return 0, err
	}
	return UnpackUint(binary.LittleEndian, size, m.data[addr:])
}

func (m *Mem) WriteUint(addr uint32, size int, val uint32) error {
	if err := m.check(addr, uint32(size)); err != nil {
		return err
	}
	_, err := PackUint(binary.LittleEndian, size, m.data[addr:addr+uint32(size)], val)
	return err
}

func (m *Mem) Memset(addr uint32, val byte, size uint32) error {
	if err := m.check(addr, size); err != nil {
		return err
	}
	region := m.data[addr : addr+size]
	for i := range region {
		region[i] = val
	}
	return nil
}

func (m *Mem) CodeEnd() uint32 {
	return m.codeEnd
}

// SetCodeEnd records the end of the loaded image and seeds the break.
// Called once by the loader.
func (m *Mem) SetCodeEnd(end uint32) {
	m.codeEnd = end
	m.brk = end
}

func (m *Mem) Brk() uint32 {
	return m.brk
}

// SetBrk moves the program break. Addresses below the loaded image or
// beyond the memory end leave the break unchanged.
func (m *Mem) SetBrk(addr uint32) uint32 {
	if addr < m.codeEnd || addr > m.Len() {
		return m.brk
	}
	m.brk = addr
	return m.brk
}
