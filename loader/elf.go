package loader

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/WooZoo86/PyVM/models"
)

type ElfLoader struct {
	LoaderHeader
	file *elf.File
}

var elfMagic = []byte{0x7f, 0x45, 0x4c, 0x46}

func MatchElf(r io.ReaderAt) bool {
	return bytes.Equal(getMagic(r), elfMagic)
}

func NewElfLoader(r io.ReaderAt) (models.Loader, error) {
	file, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	if file.Class != elf.ELFCLASS32 {
		return nil, errors.Errorf("unsupported ELF class: %s", file.Class)
	}
	if file.Machine != elf.EM_386 {
		return nil, errors.Errorf("unsupported machine: %s", file.Machine)
	}
	if file.ByteOrder != binary.LittleEndian {
		return nil, errors.Errorf("unsupported byte order: %s", file.ByteOrder)
	}
	if file.Type != elf.ET_EXEC {
		return nil, errors.Errorf("unsupported ELF type: %s", file.Type)
	}
	return &ElfLoader{
		LoaderHeader: LoaderHeader{
			arch:  "x86",
			bits:  32,
			os:    "linux",
			entry: file.Entry,
		},
		file: file,
	}, nil
}

func (e *ElfLoader) Segments() ([]models.Segment, error) {
	ret := make([]models.Segment, 0, len(e.file.Progs))
	for _, prog := range e.file.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		// Memsz can exceed Filesz (.bss); the tail stays zeroed.
		data := make([]byte, prog.Memsz)
		if _, err := io.ReadFull(prog.Open(), data[:prog.Filesz]); err != nil {
			return nil, errors.Wrap(err, "short segment read")
		}
		ret = append(ret, models.Segment{
			Addr: prog.Vaddr,
			Data: data,
		})
	}
	return ret, nil
}

func (e *ElfLoader) Symbolicate(addr uint64) (string, error) {
	syms, err := e.file.Symbols()
	if err != nil {
		return "", err
	}
	var best *elf.Symbol
	var min uint64
	for i, sym := range syms {
		if sym.Value > addr || sym.Value+sym.Size <= addr {
			continue
		}
		dist := addr - sym.Value
		if best == nil || dist < min {
			best = &syms[i]
			min = dist
		}
	}
	if best != nil {
		return fmt.Sprintf("%s+0x%x", best.Name, min), nil
	}
	return "", nil
}
