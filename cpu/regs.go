package cpu

import "fmt"

// General purpose register indexes. The numbering is the IA-32 encoding
// order, so ModRM reg/rm fields index Regs directly.
const (
	EAX = iota
	ECX
	EDX
	EBX
	ESP
	EBP
	ESI
	EDI
)

var regNames = [8]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi"}

func RegName(reg int) string {
	if reg >= 0 && reg < len(regNames) {
		return regNames[reg]
	}
	return fmt.Sprintf("r%d", reg)
}

// Regs is the 8-slot register file. Each slot is a 32-bit cell addressable
// at 1/2/4 byte granularity: 1 byte aliases the low byte, 2 bytes the low
// half, 4 bytes the full cell.
type Regs struct {
	vals [8]uint32
}

func NewRegs() *Regs {
	return &Regs{}
}

func (r *Regs) Get(reg, size int) uint32 {
	v := r.vals[reg&7]
	switch size {
	case 4:
		return v
	case 2:
		return v & 0xFFFF
	case 1:
		return v & 0xFF
	}
	panic(fmt.Sprintf("invalid register access size: %d", size))
}

func (r *Regs) Set(reg, size int, val uint32) {
	i := reg & 7
	switch size {
	case 4:
		r.vals[i] = val
	case 2:
		r.vals[i] = r.vals[i]&^uint32(0xFFFF) | val&0xFFFF
	case 1:
		r.vals[i] = r.vals[i]&^uint32(0xFF) | val&0xFF
	default:
		panic(fmt.Sprintf("invalid register access size: %d", size))
	}
}
