package posix

import (
	"os"

	"github.com/pkg/errors"
)

// FdTable maps small integer descriptors to host streams. Each slot is
// either open or free; slots 0-2 are seeded with the standard streams at
// construction and are never returned to the free state. Allocation picks
// the lowest free slot before growing the table, so descriptors are
// reused the way the guest expects.
type FdTable struct {
	slots []slot
}

type slot struct {
	f    *os.File
	open bool
}

func NewFdTable() *FdTable {
	return &FdTable{slots: []slot{
		{os.Stdin, true},
		{os.Stdout, true},
		{os.Stderr, true},
	}}
}

func (t *FdTable) Get(fd int32) (*os.File, error) {
	if fd < 0 || int(fd) >= len(t.slots) || !t.slots[fd].open {
		return nil, errors.Errorf("bad file descriptor: %d", fd)
	}
	return t.slots[fd].f, nil
}

// Alloc places f in the lowest free slot, growing the table if every slot
// is occupied.
func (t *FdTable) Alloc(f *os.File) int32 {
	for fd, s := range t.slots {
		if !s.open {
			t.slots[fd] = slot{f, true}
			return int32(fd)
		}
	}
	t.slots = append(t.slots, slot{f, true})
	return int32(len(t.slots) - 1)
}

// Close closes the host stream and frees the slot. The standard streams
// report success but stay open.
func (t *FdTable) Close(fd int32) error {
	if _, err := t.Get(fd); err != nil {
		return err
	}
	if fd <= 2 {
		return nil
	}
	err := t.slots[fd].f.Close()
	t.slots[fd] = slot{}
	return err
}

// Replace swaps the host stream behind an open descriptor. Used by tests
// to capture guest stdio.
func (t *FdTable) Replace(fd int32, f *os.File) error {
	if _, err := t.Get(fd); err != nil {
		return err
	}
	t.slots[fd] = slot{f, true}
	return nil
}
