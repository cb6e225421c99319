package common

import "github.com/WooZoo86/PyVM/models"

// ArgRegs is the fixed IA-32 Linux argument register order:
// ebx, ecx, edx, esi, edi. The syscall number and return value live in
// eax, which never carries an argument.
var ArgRegs = []int{3, 1, 2, 6, 7}

// Handler performs one syscall given its raw argument registers and
// returns the 32-bit value destined for the accumulator. Failures of any
// kind surface as ^uint32(0) (-1); host errors never escape a handler.
type Handler func(args []uint32) uint32

// Syscall is one entry of the statically-built dispatch table.
type Syscall struct {
	Num  int
	Name string
	// Sig declares the handler's fixed argument arity and signedness,
	// one 'u' or 's' per argument register consumed.
	Sig string
	// NoRet marks handlers that halt the VM instead of returning a value
	// in the accumulator.
	NoRet bool
	Fn    Handler
}

// ReadArgs marshals a syscall's arguments out of guest registers.
func ReadArgs(vm models.VM, sig string) []uint32 {
	args := make([]uint32, len(sig))
	for i := range args {
		args[i] = vm.RegRead(ArgRegs[i], 4)
	}
	return args
}

const MaxRet = ^uint32(0) // uniform -1 failure return
