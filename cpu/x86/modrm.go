package x86

import (
	"github.com/pkg/errors"

	"github.com/WooZoo86/PyVM/cpu"
)

// RM describes the register-or-memory operand selected by the mod/rm
// fields. When Mem is false, Loc is a register index; otherwise it is a
// computed effective address.
type RM struct {
	Mem  bool
	Loc  uint32
	Size int
}

// R is the ModRM reg field. For two-operand instructions Num names the
// second register operand; for group opcodes it is the sub-opcode
// discriminator.
type R struct {
	Num  int
	Size int
}

func (c *CPU) readOp(rm RM) (uint32, error) {
	if rm.Mem {
		return c.Mem.ReadUint(rm.Loc, rm.Size)
	}
	return c.Get(int(rm.Loc), rm.Size), nil
}

func (c *CPU) writeOp(rm RM, val uint32) error {
	if rm.Mem {
		return c.Mem.WriteUint(rm.Loc, rm.Size, val)
	}
	c.Set(int(rm.Loc), rm.Size, val)
	return nil
}

// modRM consumes one ModRM byte (plus SIB/displacement as encoded) at EIP
// and resolves the two operand descriptors. mod==3 selects the
// register-direct form and touches no memory; other mod values compute an
// effective address. Exactly the bytes that belong to the addressing form
// are consumed.
func (c *CPU) modRM(rmSize, rSize int) (RM, R, error) {
	b, err := c.imm(1)
	if err != nil {
		return RM{}, R{}, errors.Wrap(err, "ModRM fetch failed")
	}
	mod := int(b >> 6)
	reg := R{Num: int(b>>3) & 7, Size: rSize}
	rm := int(b) & 7

	if mod == 3 {
		return RM{Mem: false, Loc: uint32(rm), Size: rmSize}, reg, nil
	}

	var addr uint32
	if c.mode16 {
		addr, err = c.effectiveAddr16(mod, rm)
	} else {
		addr, err = c.effectiveAddr32(mod, rm)
	}
	if err != nil {
		return RM{}, R{}, err
	}
	return RM{Mem: true, Loc: addr, Size: rmSize}, reg, nil
}

func (c *CPU) effectiveAddr32(mod, rm int) (uint32, error) {
	var addr uint32
	switch {
	case rm == 4:
		sib, err := c.imm(1)
		if err != nil {
			return 0, err
		}
		scale := sib >> 6
		index := int(sib>>3) & 7
		base := int(sib) & 7
		if base == 5 && mod == 0 {
			disp, err := c.imm(4)
			if err != nil {
				return 0, err
			}
			addr = disp
		} else {
			addr = c.Get(base, 4)
		}
		if index != 4 {
			addr += c.Get(index, 4) << scale
		}
	case rm == 5 && mod == 0:
		// reserved rm pattern: pure displacement
		disp, err := c.imm(4)
		if err != nil {
			return 0, err
		}
		return disp, nil
	default:
		addr = c.Get(rm, 4)
	}
	switch mod {
	case 1:
		d, err := c.simm(1)
		if err != nil {
			return 0, err
		}
		addr += uint32(d)
	case 2:
		d, err := c.imm(4)
		if err != nil {
			return 0, err
		}
		addr += d
	}
	return addr, nil
}

// effectiveAddr16 implements the classic 16-bit base/index table.
func (c *CPU) effectiveAddr16(mod, rm int) (uint32, error) {
	var addr uint32
	if mod == 0 && rm == 6 {
		disp, err := c.imm(2)
		if err != nil {
			return 0, err
		}
		return disp, nil
	}
	switch rm {
	case 0:
		addr = c.Get(cpu.EBX, 2) + c.Get(cpu.ESI, 2)
	case 1:
		addr = c.Get(cpu.EBX, 2) + c.Get(cpu.EDI, 2)
	case 2:
		addr = c.Get(cpu.EBP, 2) + c.Get(cpu.ESI, 2)
	case 3:
		addr = c.Get(cpu.EBP, 2) + c.Get(cpu.EDI, 2)
	case 4:
		addr = c.Get(cpu.ESI, 2)
	case 5:
		addr = c.Get(cpu.EDI, 2)
	case 6:
		addr = c.Get(cpu.EBP, 2)
	case 7:
		addr = c.Get(cpu.EBX, 2)
	}
	switch mod {
	case 1:
		d, err := c.simm(1)
		if err != nil {
			return 0, err
		}
		addr += uint32(d)
	case 2:
		d, err := c.imm(2)
		if err != nil {
			return 0, err
		}
		addr += d
	}
	return addr & 0xFFFF, nil
}
