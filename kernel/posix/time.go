package posix

import (
	"time"

	"github.com/WooZoo86/PyVM/kernel/common"
)

// Timespec32 is the guest timespec: two 32-bit little-endian fields.
type Timespec32 struct {
	Sec  uint32
	Nsec uint32
}

func (k *PosixKernel) ClockGettime(args []uint32) uint32 {
	tpAddr := args[1]
	now := time.Now()
	ts := Timespec32{
		Sec:  uint32(now.Unix()),
		Nsec: uint32(now.Nanosecond()),
	}
	if err := common.NewObuf(k, tpAddr).Pack(&ts); err != nil {
		return common.MaxRet
	}
	return 0
}
