package loader

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/WooZoo86/PyVM/models"
)

type LoaderHeader struct {
	arch  string
	bits  int
	os    string
	entry uint64
}

func (l *LoaderHeader) Arch() string {
	return l.arch
}

func (l *LoaderHeader) Bits() int {
	return l.bits
}

func (l *LoaderHeader) OS() string {
	return l.os
}

func (l *LoaderHeader) Entry() uint64 {
	return l.entry
}

func getMagic(r io.ReaderAt) []byte {
	var magic [4]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return nil
	}
	return magic[:]
}

// Load opens the executable at path and returns a loader for it.
func Load(path string) (models.Loader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %q failed", path)
	}
	l, err := LoadReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "load %q failed", path)
	}
	return l, nil
}

// LoadReader identifies the binary format of r and returns a loader for it.
func LoadReader(r io.ReaderAt) (models.Loader, error) {
	if MatchElf(r) {
		return NewElfLoader(r)
	}
	return nil, errors.New("unrecognized binary format")
}
