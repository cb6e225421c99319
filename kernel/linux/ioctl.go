package linux

import "github.com/WooZoo86/PyVM/kernel/common"

const TIOCGWINSZ = 0x5413

// Winsize is the terminal window size record; the guest always sees a
// fixed fake geometry.
type Winsize struct {
	Row    uint16
	Col    uint16
	Xpixel uint16
	Ypixel uint16
}

var fakeWinsize = Winsize{Row: 256, Col: 256}

// Ioctl answers only the terminal window size request; every other
// request fails.
func (k *LinuxKernel) Ioctl(args []uint32) uint32 {
	fd, request, argAddr := int32(args[0]), args[1], args[2]
	if request != TIOCGWINSZ {
		k.Log.Debug("sys_ioctl: unsupported request", "fd", fd, "request", request)
		return common.MaxRet
	}
	if _, err := k.Files.Get(fd); err != nil {
		return common.MaxRet
	}
	ws := fakeWinsize
	if err := common.NewObuf(k, argAddr).Pack(&ws); err != nil {
		return common.MaxRet
	}
	return 0
}
