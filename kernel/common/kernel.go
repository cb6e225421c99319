// Package common holds the syscall plumbing shared by kernel
// personalities: the dispatch descriptor, the guest-buffer types, and the
// argument-register convention.
package common

import (
	"log/slog"

	"github.com/WooZoo86/PyVM/models"
)

type KernelBase struct {
	VM  models.VM
	Log *slog.Logger
}

func (k *KernelBase) Kernel() *KernelBase {
	return k
}

type Kernel interface {
	Kernel() *KernelBase
}
