package linux

import (
	"encoding/binary"

	"github.com/WooZoo86/PyVM/kernel/common"
)

// UserDesc is the guest thread-area descriptor: three 32-bit fields
// followed by a packed flags word (seg_32bit:1, contents:2,
// read_exec_only:1, limit_in_pages:1, seg_not_present:1, useable:1).
type UserDesc struct {
	EntryNumber uint32
	BaseAddr    uint32
	Limit       uint32
	Flags       uint32
}

const freeEntry = 0xFFFFFFFF

func (u *UserDesc) Seg32bit() bool      { return u.Flags&1 != 0 }
func (u *UserDesc) Contents() uint32    { return u.Flags >> 1 & 3 }
func (u *UserDesc) ReadExecOnly() bool  { return u.Flags>>3&1 != 0 }
func (u *UserDesc) LimitInPages() bool  { return u.Flags>>4&1 != 0 }
func (u *UserDesc) SegNotPresent() bool { return u.Flags>>5&1 != 0 }
func (u *UserDesc) Useable() bool       { return u.Flags>>6&1 != 0 }

// SetThreadArea allocates a thread-local-storage slot. An entry number of
// -1 asks for the first non-present GDT slot; the chosen slot index is
// written back into the guest descriptor.
func (k *LinuxKernel) SetThreadArea(args []uint32) uint32 {
	uaddr := args[0]
	var ud UserDesc
	if err := common.NewBuf(k, uaddr).Unpack(&ud); err != nil {
		return common.MaxRet
	}
	k.Log.Debug("sys_set_thread_area",
		"entry", ud.EntryNumber, "base", ud.BaseAddr, "limit", ud.Limit)

	selector := 0
	if ud.EntryNumber == freeEntry {
		for slot := 1; slot < k.Gdt.Len(); slot++ {
			if k.Gdt.Present(slot) {
				continue
			}
			k.Gdt.SetEntry(slot, ud.BaseAddr, ud.Limit)
			selector = slot
			break
		}
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(selector))
	if err := k.VM.MemWrite(uaddr, buf[:]); err != nil {
		return common.MaxRet
	}
	return 0
}

// SetTidAddress returns the value already stored at tidptr, with no side
// effect.
func (k *LinuxKernel) SetTidAddress(args []uint32) uint32 {
	p, err := k.VM.MemRead(args[0], 4)
	if err != nil {
		return common.MaxRet
	}
	return binary.LittleEndian.Uint32(p)
}

func (k *LinuxKernel) Tgkill(args []uint32) uint32 {
	return 0
}

func (k *LinuxKernel) ModifyLdt(args []uint32) uint32 {
	return common.MaxRet
}
