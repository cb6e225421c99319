package models

import "fmt"

// VM is the guest-state surface the kernel and tooling operate on. The
// concrete implementation owns the register file, flat memory and the
// program-break watermarks, and is mutated by a single thread only.
type VM interface {
	// RegRead reads a general purpose register at 1/2/4 byte granularity.
	RegRead(reg, size int) uint32
	RegWrite(reg, size int, val uint32)

	MemRead(addr, size uint32) ([]byte, error)
	MemWrite(addr uint32, p []byte) error
	MemSet(addr uint32, val byte, size uint32) error

	// StrucAt returns a little-endian struct packer positioned at addr.
	StrucAt(addr uint32) *StrucStream

	// Brk returns the current program break.
	Brk() uint32
	// SetBrk moves the program break and returns the resulting break,
	// which is unchanged if addr is below the end of the loaded image.
	SetBrk(addr uint32) uint32
	CodeEnd() uint32
	MemLen() uint32

	// Exit halts the run loop at the next instruction boundary.
	Exit(code int32)
}

type ExitStatus int

func (e ExitStatus) Error() string {
	return fmt.Sprintf("exit %d", e)
}
