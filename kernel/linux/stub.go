package linux

import "github.com/WooZoo86/PyVM/kernel/common"

// Sigaction is deliberately unimplemented and always reports failure.
func (k *LinuxKernel) Sigaction(args []uint32) uint32 {
	return common.MaxRet
}

// RtSigprocmask reports success without doing anything.
func (k *LinuxKernel) RtSigprocmask(args []uint32) uint32 {
	return 0
}
