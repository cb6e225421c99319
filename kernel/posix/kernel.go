// Package posix implements the host-bridging syscall handlers shared by
// unix-like kernel personalities. Every handler collapses host failures
// into a uniform -1 return; host errors never propagate past the syscall
// boundary.
package posix

import (
	"github.com/WooZoo86/PyVM/kernel/common"
)

type PosixKernel struct {
	common.KernelBase
	Files *FdTable
}

func NewPosixKernel() *PosixKernel {
	return &PosixKernel{Files: NewFdTable()}
}
