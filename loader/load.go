package loader

import (
	"github.com/pkg/errors"

	"github.com/WooZoo86/PyVM/cpu"
	"github.com/WooZoo86/PyVM/models"
)

// Materialize copies the loadable segments of l into mem and marks the
// end of the loaded image, which becomes the initial program break.
func Materialize(l models.Loader, mem *cpu.Mem) error {
	segments, err := l.Segments()
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return errors.New("binary has no loadable segments")
	}
	var end uint64
	for _, seg := range segments {
		top := seg.Addr + uint64(len(seg.Data))
		if top > uint64(mem.Len()) {
			return errors.Errorf("segment [%#x, %#x) exceeds memory size %#x", seg.Addr, top, mem.Len())
		}
		if err := mem.Write(uint32(seg.Addr), seg.Data); err != nil {
			return errors.Wrapf(err, "mapping segment at %#x failed", seg.Addr)
		}
		if top > end {
			end = top
		}
	}
	mem.SetCodeEnd(uint32(end))
	return nil
}
