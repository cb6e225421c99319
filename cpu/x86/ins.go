package x86

import (
	"github.com/pkg/errors"

	"github.com/WooZoo86/PyVM/cpu"
)

// Instruction semantics: pure state transformations over already-resolved
// operands and inline immediates. Group-opcode forms return matched=false
// with EIP rolled back to its value at entry when the ModRM sub-opcode
// selects a different mnemonic.

////////////////////////////////////////
// MOV
////////////////////////////////////////

func (c *CPU) movRImm(size int, op byte) error {
	imm, err := c.imm(size)
	if err != nil {
		return err
	}
	r := int(op) & 7
	c.Set(r, size, imm)
	c.debug("mov r%d(%d),imm%d(%#x)", size*8, r, size*8, imm)
	return nil
}

func (c *CPU) movRMImm(size int) (bool, error) {
	entry := c.EIP
	rm, r, err := c.modRM(size, size)
	if err != nil {
		return false, err
	}
	if r.Num != 0 {
		c.EIP = entry
		return false, nil
	}
	imm, err := c.imm(size)
	if err != nil {
		return false, err
	}
	c.debug("mov rm%d(%#x),imm%d(%#x)", size*8, rm.Loc, size*8, imm)
	return true, c.writeOp(rm, imm)
}

func (c *CPU) movRMR(size int) error {
	rm, r, err := c.modRM(size, size)
	if err != nil {
		return err
	}
	data := c.Get(r.Num, r.Size)
	c.debug("mov rm%d(%#x),r%d(%d)", size*8, rm.Loc, size*8, r.Num)
	return c.writeOp(rm, data)
}

func (c *CPU) movRRM(size int) error {
	rm, r, err := c.modRM(size, size)
	if err != nil {
		return err
	}
	data, err := c.readOp(rm)
	if err != nil {
		return err
	}
	c.Set(r.Num, size, data)
	c.debug("mov r%d(%d),rm%d(%#x)", size*8, r.Num, size*8, rm.Loc)
	return nil
}

// movAccMoffs loads the accumulator from an absolute offset. The offset
// is read at the operand width, not the address width; programs built for
// this machine depend on it, see the regression test before changing
// anything here.
func (c *CPU) movAccMoffs(size int) error {
	loc, err := c.imm(size)
	if err != nil {
		return err
	}
	data, err := c.Mem.ReadUint(loc, size)
	if err != nil {
		return err
	}
	c.Set(cpu.EAX, size, data)
	c.debug("mov acc%d,moffs%d(%#x)", size*8, size*8, loc)
	return nil
}

func (c *CPU) movMoffsAcc(size int) error {
	loc, err := c.imm(size)
	if err != nil {
		return err
	}
	data := c.Get(cpu.EAX, size)
	c.debug("mov moffs%d(%#x),acc%d", size*8, loc, size*8)
	return c.Mem.WriteUint(loc, size, data)
}

////////////////////////////////////////
// JMP
////////////////////////////////////////

func (c *CPU) jmpRel(size int) error {
	d, err := c.simm(size)
	if err != nil {
		return err
	}
	c.EIP += uint32(d)
	c.debug("jmp rel%d(%#x)", size*8, c.EIP)
	return nil
}

func (c *CPU) jmpRM(size int) (bool, error) {
	entry := c.EIP
	rm, r, err := c.modRM(size, size)
	if err != nil {
		return false, err
	}
	switch r.Num {
	case 4: // target in r/m
		dest, err := c.readOp(rm)
		if err != nil {
			return false, err
		}
		c.EIP = dest & sizeMask(size)
		c.debug("jmp rm%d(%#x)", size*8, c.EIP)
	case 5: // pointer to target in memory
		ptr, err := c.readOp(rm)
		if err != nil {
			return false, err
		}
		dest, err := c.Mem.ReadUint(ptr, size)
		if err != nil {
			return false, err
		}
		c.EIP = dest & sizeMask(size)
		c.debug("jmp m%d(%#x)", size*8, c.EIP)
	default:
		c.EIP = entry
		return false, nil
	}
	return true, nil
}

////////////////////////////////////////
// ADD/SUB
////////////////////////////////////////

// addsub is the single arithmetic primitive: a masked modular sum, with
// subtraction as addition of the two's complement. No flags exist to
// update.
func addsub(a, b uint32, size int, sub bool) uint32 {
	max := uint64(1)<<(uint(size)*8) - 1
	bb := uint64(b) & max
	if sub {
		bb = max + 1 - bb
	}
	return uint32((uint64(a)&max + bb) & max)
}

func (c *CPU) addsubAccImm(size int, sub bool) error {
	imm, err := c.imm(size)
	if err != nil {
		return err
	}
	a := c.Get(cpu.EAX, size)
	c.Set(cpu.EAX, size, addsub(a, imm, size, sub))
	c.debug("%s acc%d,imm%d(%#x)", subName(sub), size*8, size*8, imm)
	return nil
}

// addsubRMImm covers the 0x80/0x81/0x83 group, where the ModRM sub-opcode
// decides between ADD (0) and SUB (5). The immediate width comes from the
// opcode table and is sign-extended against the operand width.
func (c *CPU) addsubRMImm(size, immSize int, sub bool) (bool, error) {
	entry := c.EIP
	rm, r, err := c.modRM(size, size)
	if err != nil {
		return false, err
	}
	want := 0
	if sub {
		want = 5
	}
	if r.Num != want {
		c.EIP = entry
		return false, nil
	}
	simm, err := c.simm(immSize)
	if err != nil {
		return false, err
	}
	a, err := c.readOp(rm)
	if err != nil {
		return false, err
	}
	c.debug("%s rm%d(%#x),imm%d(%#x)", subName(sub), size*8, rm.Loc, immSize*8, uint32(simm))
	return true, c.writeOp(rm, addsub(a, uint32(simm), size, sub))
}

func (c *CPU) addsubRMR(size int, sub bool) error {
	rm, r, err := c.modRM(size, size)
	if err != nil {
		return err
	}
	a, err := c.readOp(rm)
	if err != nil {
		return err
	}
	b := c.Get(r.Num, r.Size)
	c.debug("%s rm%d(%#x),r%d(%d)", subName(sub), size*8, rm.Loc, size*8, r.Num)
	return c.writeOp(rm, addsub(a, b, size, sub))
}

func (c *CPU) addsubRRM(size int, sub bool) error {
	rm, r, err := c.modRM(size, size)
	if err != nil {
		return err
	}
	a, err := c.readOp(rm)
	if err != nil {
		return err
	}
	b := c.Get(r.Num, r.Size)
	c.Set(r.Num, size, addsub(a, b, size, sub))
	c.debug("%s r%d(%d),rm%d(%#x)", subName(sub), size*8, r.Num, size*8, rm.Loc)
	return nil
}

func subName(sub bool) string {
	if sub {
		return "sub"
	}
	return "add"
}

////////////////////////////////////////
// PUSH/POP
////////////////////////////////////////

func (c *CPU) pushVal(val uint32, size int) error {
	sp := c.Get(cpu.ESP, 4) - uint32(size)
	if err := c.Mem.WriteUint(sp, size, val); err != nil {
		return err
	}
	c.Set(cpu.ESP, 4, sp)
	return nil
}

func (c *CPU) popVal(size int) (uint32, error) {
	sp := c.Get(cpu.ESP, 4)
	v, err := c.Mem.ReadUint(sp, size)
	if err != nil {
		return 0, err
	}
	c.Set(cpu.ESP, 4, sp+uint32(size))
	return v, nil
}

////////////////////////////////////////
// CALL/RET
////////////////////////////////////////

func (c *CPU) callRel(size int) error {
	d, err := c.simm(size)
	if err != nil {
		return err
	}
	target := c.EIP + uint32(d)&sizeMask(size)
	if err := c.pushVal(c.EIP, size); err != nil {
		return err
	}
	c.EIP = target
	c.debug("call rel%d(%#x)", size*8, c.EIP)
	return nil
}

func (c *CPU) callRM(size int) (bool, error) {
	entry := c.EIP
	rm, r, err := c.modRM(size, size)
	if err != nil {
		return false, err
	}
	switch r.Num {
	case 2: // near, absolute indirect
		dest, err := c.readOp(rm)
		if err != nil {
			return false, err
		}
		if err := c.pushVal(c.EIP, size); err != nil {
			return false, err
		}
		c.EIP = dest & sizeMask(size)
		c.debug("call rm%d(%#x)", size*8, c.EIP)
		return true, nil
	case 3:
		return false, errors.Errorf("far calls (mem) not implemented (eip=%#x)", entry-1)
	default:
		c.EIP = entry
		return false, nil
	}
}

func (c *CPU) retNear(size int) error {
	v, err := c.popVal(size)
	if err != nil {
		return err
	}
	c.EIP = v & sizeMask(size)
	c.debug("ret (%#x)", c.EIP)
	return nil
}

// retNearImm restores EIP from the stack, then reads the pop count as an
// immediate at the now-current EIP before discarding that many bytes.
func (c *CPU) retNearImm(size int) error {
	v, err := c.popVal(size)
	if err != nil {
		return err
	}
	c.EIP = v & sizeMask(size)
	n, err := c.imm(size)
	if err != nil {
		return err
	}
	c.Set(cpu.ESP, 4, c.Get(cpu.ESP, 4)+n)
	c.debug("ret %d (%#x)", n, c.EIP)
	return nil
}
