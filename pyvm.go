// Package pyvm assembles a 32-bit x86 user-space virtual machine: an ELF
// loader, a flat memory image, the IA-32 interpreter, and a Linux syscall
// personality wired to the INT 0x80 gate.
package pyvm

import (
	"encoding/binary"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/WooZoo86/PyVM/cpu"
	"github.com/WooZoo86/PyVM/cpu/x86"
	"github.com/WooZoo86/PyVM/kernel/linux"
	"github.com/WooZoo86/PyVM/loader"
	"github.com/WooZoo86/PyVM/models"
)

type VM struct {
	*x86.CPU

	config *models.Config
	loader models.Loader
	kernel *linux.LinuxKernel
	log    *slog.Logger
	entry  uint32
}

// NewVM loads the executable at exe into a fresh guest and returns a VM
// ready to Run.
func NewVM(exe string, conf *models.Config) (*VM, error) {
	l, err := loader.Load(exe)
	if err != nil {
		return nil, err
	}
	return newVM(l, conf)
}

func newVM(l models.Loader, conf *models.Config) (*VM, error) {
	if l.Arch() != "x86" || l.Bits() != 32 || l.OS() != "linux" {
		return nil, errors.Errorf("unsupported binary: %s/%d-bit/%s",
			l.Arch(), l.Bits(), l.OS())
	}
	conf = conf.Init()
	mem := cpu.NewMem(conf.MemSize)
	if err := loader.Materialize(l, mem); err != nil {
		return nil, err
	}
	log := models.NewLogger(conf.Verbose)
	vm := &VM{
		CPU:    x86.New(mem, conf, log),
		config: conf,
		loader: l,
		log:    log,
		entry:  uint32(l.Entry()),
	}
	klog := log
	if conf.TraceSys && !conf.Verbose {
		klog = models.NewLogger(true)
	}
	vm.kernel = linux.NewKernel(vm, klog)
	vm.CPU.SetInterrupt(vm.kernel.Interrupt)

	// The stack grows down from the top of guest memory.
	vm.Regs.Set(cpu.ESP, 4, mem.Len())
	return vm, nil
}

// Run executes the guest from its entry point until it exits. A clean
// guest exit is reported as models.ExitStatus; any other error is a
// decode or memory fault.
func (vm *VM) Run() error {
	return vm.CPU.Run(vm.entry)
}

// Entry is the guest entry point taken from the executable header.
func (vm *VM) Entry() uint32 {
	return vm.entry
}

// Kernel exposes the syscall personality, mainly for tests and tooling.
func (vm *VM) Kernel() *linux.LinuxKernel {
	return vm.kernel
}

// Symbolicate maps a guest address to the nearest symbol, if the
// executable carries a symbol table.
func (vm *VM) Symbolicate(addr uint32) (string, error) {
	return vm.loader.Symbolicate(uint64(addr))
}

// models.VM implementation. Brk, SetBrk and CodeEnd are promoted from the
// embedded memory.

func (vm *VM) RegRead(reg, size int) uint32 {
	return vm.Regs.Get(reg, size)
}

func (vm *VM) RegWrite(reg, size int, val uint32) {
	vm.Regs.Set(reg, size, val)
}

func (vm *VM) MemRead(addr, size uint32) ([]byte, error) {
	return vm.Mem.Read(addr, size)
}

func (vm *VM) MemWrite(addr uint32, p []byte) error {
	return vm.Mem.Write(addr, p)
}

func (vm *VM) MemSet(addr uint32, val byte, size uint32) error {
	return vm.Mem.Memset(addr, val, size)
}

func (vm *VM) MemLen() uint32 {
	return vm.Mem.Len()
}

func (vm *VM) StrucAt(addr uint32) *models.StrucStream {
	return &models.StrucStream{
		Stream: &models.MemReadWriter{M: vm, Addr: addr},
		Order:  binary.LittleEndian,
	}
}

func (vm *VM) Exit(code int32) {
	vm.CPU.Stop(code)
}

var _ models.VM = (*VM)(nil)
