package posix

import "os"

// Identity calls pass straight through to the host process.

func (k *PosixKernel) Getuid(args []uint32) uint32 {
	return uint32(os.Getuid())
}

func (k *PosixKernel) Geteuid(args []uint32) uint32 {
	return uint32(os.Geteuid())
}

func (k *PosixKernel) Getgid(args []uint32) uint32 {
	return uint32(os.Getgid())
}

func (k *PosixKernel) Getegid(args []uint32) uint32 {
	return uint32(os.Getegid())
}
