package linux

import "github.com/WooZoo86/PyVM/kernel/common"

const (
	MAP_SHARED    = 0x01
	MAP_PRIVATE   = 0x02
	MAP_FIXED     = 0x10
	MAP_ANONYMOUS = 0x20

	PROT_NONE  = 0x0
	PROT_READ  = 0x1
	PROT_WRITE = 0x2
	PROT_EXEC  = 0x4
)

// Brk queries (addr==0) or moves the program break. Addresses below the
// loaded image leave the break untouched; either way the resulting break
// is returned.
func (k *LinuxKernel) Brk(args []uint32) uint32 {
	addr := args[0]
	old := k.VM.Brk()
	ret := k.VM.SetBrk(addr)
	if ret != old {
		k.Log.Debug("sys_brk", "old", old, "new", ret)
	}
	return ret
}

// MmapPgoff supports only anonymous mappings, served by growing the
// break: the region is zero-filled and the old break returned as the
// mapping address.
func (k *LinuxKernel) MmapPgoff(args []uint32) uint32 {
	length, flags := args[1], args[3]
	if flags&MAP_ANONYMOUS == 0 {
		k.Log.Debug("sys_mmap: unsupported call", "flags", flags)
		return common.MaxRet
	}
	old := k.VM.Brk()
	if err := k.VM.MemSet(old, 0, length); err != nil {
		return common.MaxRet
	}
	k.VM.SetBrk(old + length)
	k.Log.Debug("sys_mmap", "addr", old, "length", length)
	return old
}

// Munmap retracts the break when the region is exactly its top; any other
// region leaks, which is reported but still counts as success.
func (k *LinuxKernel) Munmap(args []uint32) uint32 {
	addr, length := args[0], args[1]
	if addr+length == k.VM.Brk() {
		k.VM.SetBrk(addr)
	} else {
		k.Log.Warn("sys_munmap: leaking region not at the break top",
			"addr", addr, "length", length, "brk", k.VM.Brk())
	}
	return 0
}
