// Package linux is the IA-32 Linux syscall personality: the static
// syscall-number table and the handlers that are Linux-specific rather
// than generic posix bridging.
package linux

import (
	"log/slog"

	sysnum "github.com/lunixbochs/ghostrace/ghost/sys/num"
	"github.com/pkg/errors"

	"github.com/WooZoo86/PyVM/kernel/common"
	"github.com/WooZoo86/PyVM/kernel/posix"
	"github.com/WooZoo86/PyVM/models"
)

type LinuxKernel struct {
	*posix.PosixKernel

	Gdt   *Gdt
	table map[int]common.Syscall
}

func NewKernel(vm models.VM, log *slog.Logger) *LinuxKernel {
	k := &LinuxKernel{
		PosixKernel: posix.NewPosixKernel(),
		Gdt:         NewGdt(),
	}
	k.VM = vm
	k.Log = log
	k.initTable()
	return k
}

// Interrupt services a software interrupt raised by the guest. Only
// vector 0x80 maps to the syscall table; anything else is fatal.
func (k *LinuxKernel) Interrupt(vector byte) error {
	if vector != 0x80 {
		return errors.Errorf("invalid interrupt: %#02x", vector)
	}
	num := int(k.VM.RegRead(0, 4))
	sys, ok := k.table[num]
	if !ok {
		return errors.Errorf("unsupported syscall: %d (%s)", num, sysnum.Linux_x86[num])
	}
	args := common.ReadArgs(k.VM, sys.Sig)
	k.Log.Debug("syscall", "name", sys.Name, "sig", sys.Sig, "args", args)
	ret := sys.Fn(args)
	if !sys.NoRet {
		k.VM.RegWrite(0, 4, ret)
	}
	return nil
}
