package x86

import (
	"github.com/pkg/errors"
)

// dispatch is one mnemonic's attempt at an opcode byte. It reports
// matched=true only when the whole instruction was decoded and executed;
// otherwise EIP must be back at its value on entry so the next candidate
// can try the same byte. Several mnemonics share a leading byte and are
// told apart only by the ModRM sub-opcode, which is why candidates are
// tried in order.
type dispatch struct {
	name string
	fn   func(op byte) (bool, error)
}

// initOpcodes builds the opcode table once at construction: a static map
// from opcode byte to the ordered candidate dispatchers.
func (c *CPU) initOpcodes() {
	reg := func(d dispatch, ops ...byte) {
		for _, op := range ops {
			c.opcodes[op] = append(c.opcodes[op], d)
		}
	}
	rng := func(d dispatch, lo, hi byte) {
		for op := int(lo); op <= int(hi); op++ {
			c.opcodes[op] = append(c.opcodes[op], d)
		}
	}

	mov := dispatch{"mov", c.mov}
	rng(mov, 0xB0, 0xBF)
	reg(mov, 0x88, 0x89, 0x8A, 0x8B, 0x8C, 0x8E, 0xA0, 0xA1, 0xA2, 0xA3, 0xC6, 0xC7)

	jmp := dispatch{"jmp", c.jmp}
	reg(jmp, 0xE9, 0xEA, 0xEB, 0xFF)

	intd := dispatch{"int", c.intOp}
	reg(intd, 0xCC, 0xCD)

	push := dispatch{"push", c.push}
	rng(push, 0x50, 0x57)
	reg(push, 0x68, 0x6A, 0xFF)

	pop := dispatch{"pop", c.pop}
	rng(pop, 0x58, 0x5F)
	reg(pop, 0x8F)

	call := dispatch{"call", c.call}
	reg(call, 0x9A, 0xE8, 0xFF)

	ret := dispatch{"ret", c.ret}
	reg(ret, 0xC2, 0xC3, 0xCA, 0xCB)

	add := dispatch{"add", c.add}
	rng(add, 0x00, 0x03)
	reg(add, 0x04, 0x05, 0x80, 0x81, 0x83)

	sub := dispatch{"sub", c.sub}
	rng(sub, 0x28, 0x2B)
	reg(sub, 0x2C, 0x2D, 0x80, 0x81, 0x83)
}

func (c *CPU) mov(op byte) (bool, error) {
	sz := c.opSize()
	switch {
	case op >= 0xB0 && op < 0xB8:
		return true, c.movRImm(1, op)
	case op >= 0xB8 && op < 0xC0:
		return true, c.movRImm(sz, op)
	case op == 0xC6:
		return c.movRMImm(1)
	case op == 0xC7:
		return c.movRMImm(sz)
	case op == 0x88:
		return true, c.movRMR(1)
	case op == 0x89:
		return true, c.movRMR(sz)
	case op == 0x8A:
		return true, c.movRRM(1)
	case op == 0x8B:
		return true, c.movRRM(sz)
	case op == 0x8C || op == 0x8E:
		return false, errors.Errorf("segment register moves not implemented (op=%#02x eip=%#x)", op, c.EIP-1)
	case op == 0xA0:
		return true, c.movAccMoffs(1)
	case op == 0xA1:
		return true, c.movAccMoffs(sz)
	case op == 0xA2:
		return true, c.movMoffsAcc(1)
	case op == 0xA3:
		return true, c.movMoffsAcc(sz)
	}
	return false, nil
}

func (c *CPU) jmp(op byte) (bool, error) {
	sz := c.opSize()
	switch op {
	case 0xEB:
		return true, c.jmpRel(1)
	case 0xE9:
		return true, c.jmpRel(sz)
	case 0xFF:
		return c.jmpRM(sz)
	case 0xEA:
		return false, errors.Errorf("far jumps not implemented (eip=%#x)", c.EIP-1)
	}
	return false, nil
}

func (c *CPU) intOp(op byte) (bool, error) {
	switch op {
	case 0xCC:
		c.log.Warn("It's a trap! (literally)", "eip", c.EIP-1)
		return true, nil
	case 0xCD:
		vector, err := c.imm(1)
		if err != nil {
			return false, err
		}
		if c.interrupt == nil {
			return false, errors.Errorf("invalid interrupt: %#02x", vector)
		}
		return true, c.interrupt(byte(vector))
	}
	return false, nil
}

func (c *CPU) push(op byte) (bool, error) {
	sz := c.opSize()
	switch {
	case op == 0xFF:
		entry := c.EIP
		rm, r, err := c.modRM(sz, sz)
		if err != nil {
			return false, err
		}
		if r.Num != 6 {
			c.EIP = entry
			return false, nil
		}
		data, err := c.readOp(rm)
		if err != nil {
			return false, err
		}
		c.debug("push rm%d(%#x)", sz*8, data)
		return true, c.pushVal(data, sz)
	case op >= 0x50 && op < 0x58:
		loc := int(op) & 7
		data := c.Get(loc, sz)
		c.debug("push r%d(%d)", sz*8, loc)
		return true, c.pushVal(data, sz)
	case op == 0x6A:
		data, err := c.imm(1)
		if err != nil {
			return false, err
		}
		c.debug("push imm8(%#x)", data)
		return true, c.pushVal(data, 1)
	case op == 0x68:
		data, err := c.imm(sz)
		if err != nil {
			return false, err
		}
		c.debug("push imm%d(%#x)", sz*8, data)
		return true, c.pushVal(data, sz)
	}
	return false, nil
}

func (c *CPU) pop(op byte) (bool, error) {
	sz := c.opSize()
	switch {
	case op == 0x8F:
		entry := c.EIP
		rm, r, err := c.modRM(sz, sz)
		if err != nil {
			return false, err
		}
		if r.Num != 0 {
			c.EIP = entry
			return false, nil
		}
		data, err := c.popVal(sz)
		if err != nil {
			return false, err
		}
		c.debug("pop rm%d(%#x)", sz*8, data)
		return true, c.writeOp(rm, data)
	case op >= 0x58 && op < 0x60:
		loc := int(op) & 7
		data, err := c.popVal(sz)
		if err != nil {
			return false, err
		}
		c.Set(loc, sz, data)
		c.debug("pop r%d(%d)", sz*8, loc)
		return true, nil
	}
	return false, nil
}

func (c *CPU) call(op byte) (bool, error) {
	sz := c.opSize()
	switch op {
	case 0xE8:
		return true, c.callRel(sz)
	case 0xFF:
		return c.callRM(sz)
	case 0x9A:
		return false, errors.Errorf("far calls (ptr) not implemented (eip=%#x)", c.EIP-1)
	}
	return false, nil
}

func (c *CPU) ret(op byte) (bool, error) {
	sz := c.opSize()
	switch op {
	case 0xC3:
		return true, c.retNear(sz)
	case 0xC2:
		return true, c.retNearImm(sz)
	case 0xCB, 0xCA:
		return false, errors.Errorf("far returns not implemented (eip=%#x)", c.EIP-1)
	}
	return false, nil
}

func (c *CPU) add(op byte) (bool, error) {
	sz := c.opSize()
	switch op {
	case 0x04:
		return true, c.addsubAccImm(1, false)
	case 0x05:
		return true, c.addsubAccImm(sz, false)
	case 0x80:
		return c.addsubRMImm(1, 1, false)
	case 0x81:
		return c.addsubRMImm(sz, sz, false)
	case 0x83:
		return c.addsubRMImm(sz, 1, false)
	case 0x00:
		return true, c.addsubRMR(1, false)
	case 0x01:
		return true, c.addsubRMR(sz, false)
	case 0x02:
		return true, c.addsubRRM(1, false)
	case 0x03:
		return true, c.addsubRRM(sz, false)
	}
	return false, nil
}

func (c *CPU) sub(op byte) (bool, error) {
	sz := c.opSize()
	switch op {
	case 0x2C:
		return true, c.addsubAccImm(1, true)
	case 0x2D:
		return true, c.addsubAccImm(sz, true)
	case 0x80:
		return c.addsubRMImm(1, 1, true)
	case 0x81:
		return c.addsubRMImm(sz, sz, true)
	case 0x83:
		return c.addsubRMImm(sz, 1, true)
	case 0x28:
		return true, c.addsubRMR(1, true)
	case 0x29:
		return true, c.addsubRMR(sz, true)
	case 0x2A:
		return true, c.addsubRRM(1, true)
	case 0x2B:
		return true, c.addsubRRM(sz, true)
	}
	return false, nil
}
