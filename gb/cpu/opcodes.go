package cpu

// 8-bit operand access by the standard Z80/LR35902 register index used in
// LD r,r', ALU A,r8 and CB-prefixed opcodes: B C D E H L (HL) A.
func (c *CPU) get8(index uint8) uint8 {
	switch index {
	case 0:
		return c.b()
	case 1:
		return c.cReg()
	case 2:
		return c.d()
	case 3:
		return c.e()
	case 4:
		return c.h()
	case 5:
		return c.l()
	case 6:
		return c.bus.Read(c.hl.get())
	default:
		return c.a()
	}
}

func (c *CPU) set8(index uint8, value uint8) {
	switch index {
	case 0:
		c.setB(value)
	case 1:
		c.setC(value)
	case 2:
		c.setD(value)
	case 3:
		c.setE(value)
	case 4:
		c.setH(value)
	case 5:
		c.setL(value)
	case 6:
		c.bus.Write(c.hl.get(), value)
	default:
		c.setA(value)
	}
}

// 16-bit register pair access by index for LD rr,d16 / INC rr / DEC rr /
// ADD HL,rr, where 3 is SP.
func (c *CPU) pairGet(index uint8) uint16 {
	switch index {
	case 0:
		return c.bc.get()
	case 1:
		return c.de.get()
	case 2:
		return c.hl.get()
	default:
		return c.sp.get()
	}
}

func (c *CPU) pairSet(index uint8, value uint16) {
	switch index {
	case 0:
		c.bc.set(value)
	case 1:
		c.de.set(value)
	case 2:
		c.hl.set(value)
	default:
		c.sp.set(value)
	}
}

// stackPairGet/Set are the PUSH/POP variant of the pair index, where 3 is
// AF instead of SP.
func (c *CPU) stackPairGet(index uint8) uint16 {
	if index == 3 {
		return c.af.get()
	}
	return c.pairGet(index)
}

func (c *CPU) stackPairSet(index uint8, value uint16) {
	if index == 3 {
		c.af.set(value & 0xFFF0)
		return
	}
	c.pairSet(index, value)
}

func (c *CPU) condTrue(index uint8) bool {
	switch index {
	case 0:
		return !c.isSet(flagZ)
	case 1:
		return c.isSet(flagZ)
	case 2:
		return !c.isSet(flagC)
	default:
		return c.isSet(flagC)
	}
}

// Index-addressed wrappers around the pointer-based ALU/shift helpers in
// instructions.go, so the same helper serves both a plain register and
// the (HL) indirect operand.
func (c *CPU) incAt(i uint8) { v := c.get8(i); c.inc(&v); c.set8(i, v) }
func (c *CPU) decAt(i uint8) { v := c.get8(i); c.dec(&v); c.set8(i, v) }
func (c *CPU) rlcAt(i uint8) { v := c.get8(i); c.rlc(&v); c.set8(i, v) }
func (c *CPU) rlAt(i uint8)  { v := c.get8(i); c.rl(&v); c.set8(i, v) }
func (c *CPU) rrcAt(i uint8) { v := c.get8(i); c.rrc(&v); c.set8(i, v) }
func (c *CPU) rrAt(i uint8)  { v := c.get8(i); c.rr(&v); c.set8(i, v) }
func (c *CPU) slaAt(i uint8) { v := c.get8(i); c.sla(&v); c.set8(i, v) }
func (c *CPU) sraAt(i uint8) { v := c.get8(i); c.sra(&v); c.set8(i, v) }
func (c *CPU) srlAt(i uint8) { v := c.get8(i); c.srl(&v); c.set8(i, v) }
func (c *CPU) swapAt(i uint8) { v := c.get8(i); c.swap(&v); c.set8(i, v) }

func (c *CPU) bitAt(bitIndex, i uint8) { c.bitTest(bitIndex, c.get8(i)) }
func (c *CPU) setBitAt(bitIndex, i uint8) {
	v := c.get8(i)
	setBit(bitIndex, &v)
	c.set8(i, v)
}
func (c *CPU) resBitAt(bitIndex, i uint8) {
	v := c.get8(i)
	resetBit(bitIndex, &v)
	c.set8(i, v)
}

func (c *CPU) jrRelative(offset int8) {
	c.pc.set(uint16(int32(c.pc.get()) + int32(offset)))
}

// buildOpcodeTable wires the flat 256-entry main dispatch table: uniform
// register/immediate families are generated by looping over their operand
// indices, irregular opcodes are assigned individually.
func (c *CPU) buildOpcodeTable() {
	t := &c.opcodes

	for dst := uint8(0); dst < 8; dst++ {
		for src := uint8(0); src < 8; src++ {
			op := uint8(0x40) + dst*8 + src
			if op == 0x76 {
				continue
			}
			dst, src := dst, src
			cycles := 4
			if dst == 6 || src == 6 {
				cycles = 8
			}
			t[op] = func(c *CPU) int {
				c.set8(dst, c.get8(src))
				return cycles
			}
		}
	}

	aluOps := []func(c *CPU, v uint8){
		func(c *CPU, v uint8) { c.addToA(v, false) },
		func(c *CPU, v uint8) { c.addToA(v, true) },
		func(c *CPU, v uint8) { c.sub(v, false) },
		func(c *CPU, v uint8) { c.sub(v, true) },
		func(c *CPU, v uint8) { c.and(v) },
		func(c *CPU, v uint8) { c.xor(v) },
		func(c *CPU, v uint8) { c.or(v) },
		func(c *CPU, v uint8) { c.cp(v) },
	}
	for group := uint8(0); group < 8; group++ {
		for src := uint8(0); src < 8; src++ {
			op := uint8(0x80) + group*8 + src
			alu, src := aluOps[group], src
			cycles := 4
			if src == 6 {
				cycles = 8
			}
			t[op] = func(c *CPU) int {
				alu(c, c.get8(src))
				return cycles
			}
			immOp := uint8(0xC6) + group*8
			t[immOp] = func(c *CPU) int {
				alu(c, c.readImmediate())
				return 8
			}
		}
	}

	for r := uint8(0); r < 8; r++ {
		r := r
		cycles := 4
		if r == 6 {
			cycles = 12
		}
		t[0x04+r*8] = func(c *CPU) int { c.incAt(r); return cycles }
		t[0x05+r*8] = func(c *CPU) int { c.decAt(r); return cycles }
		ldCycles := 8
		if r == 6 {
			ldCycles = 12
		}
		t[0x06+r*8] = func(c *CPU) int { c.set8(r, c.readImmediate()); return ldCycles }
	}

	for p := uint8(0); p < 4; p++ {
		p := p
		t[0x01+p*0x10] = func(c *CPU) int { c.pairSet(p, c.readImmediate16()); return 12 }
		t[0x03+p*0x10] = func(c *CPU) int { c.pairSet(p, c.pairGet(p)+1); return 8 }
		t[0x0B+p*0x10] = func(c *CPU) int { c.pairSet(p, c.pairGet(p)-1); return 8 }
		t[0x09+p*0x10] = func(c *CPU) int { c.addToHL(c.pairGet(p)); return 8 }
		t[0xC1+p*0x10] = func(c *CPU) int { c.stackPairSet(p, c.popStack()); return 12 }
		t[0xC5+p*0x10] = func(c *CPU) int { c.pushStack(c.stackPairGet(p)); return 16 }
		t[0xC0+p*0x08] = func(c *CPU) int {
			if c.condTrue(p) {
				c.pc.set(c.popStack())
				return 20
			}
			return 8
		}
		t[0xC2+p*0x08] = func(c *CPU) int {
			target := c.readImmediate16()
			if c.condTrue(p) {
				c.pc.set(target)
				return 16
			}
			return 12
		}
		t[0xC4+p*0x08] = func(c *CPU) int {
			target := c.readImmediate16()
			if c.condTrue(p) {
				c.pushStack(c.pc.get())
				c.pc.set(target)
				return 24
			}
			return 12
		}
	}
	for p := uint8(0); p < 4; p++ {
		p := p
		t[0x20+p*0x08] = func(c *CPU) int {
			offset := int8(c.readImmediate())
			if c.condTrue(p) {
				c.jrRelative(offset)
				return 12
			}
			return 8
		}
	}

	for n := uint8(0); n < 8; n++ {
		n := n
		t[0xC7+n*8] = func(c *CPU) int {
			c.pushStack(c.pc.get())
			c.pc.set(uint16(n) * 8)
			return 16
		}
	}

	t[0x00] = func(c *CPU) int { return 4 }
	t[0x10] = func(c *CPU) int { c.fetch(); return 4 }
	t[0x76] = func(c *CPU) int {
		if !c.ime && c.pendingInterrupt() != 0 {
			c.haltBug = true
		} else {
			c.halted = true
		}
		return 4
	}

	t[0x02] = func(c *CPU) int { c.bus.Write(c.bc.get(), c.a()); return 8 }
	t[0x12] = func(c *CPU) int { c.bus.Write(c.de.get(), c.a()); return 8 }
	t[0x22] = func(c *CPU) int {
		c.bus.Write(c.hl.get(), c.a())
		c.hl.incr()
		return 8
	}
	t[0x32] = func(c *CPU) int {
		c.bus.Write(c.hl.get(), c.a())
		c.hl.decr()
		return 8
	}
	t[0x0A] = func(c *CPU) int { c.setA(c.bus.Read(c.bc.get())); return 8 }
	t[0x1A] = func(c *CPU) int { c.setA(c.bus.Read(c.de.get())); return 8 }
	t[0x2A] = func(c *CPU) int {
		c.setA(c.bus.Read(c.hl.get()))
		c.hl.incr()
		return 8
	}
	t[0x3A] = func(c *CPU) int {
		c.setA(c.bus.Read(c.hl.get()))
		c.hl.decr()
		return 8
	}

	t[0x08] = func(c *CPU) int {
		address := c.readImmediate16()
		c.bus.Write(address, uint8(c.sp.get()))
		c.bus.Write(address+1, uint8(c.sp.get()>>8))
		return 20
	}

	t[0x18] = func(c *CPU) int {
		offset := int8(c.readImmediate())
		c.jrRelative(offset)
		return 12
	}

	t[0x07] = func(c *CPU) int { v := c.a(); c.rlc(&v); c.setA(v); c.resetFlag(flagZ); return 4 }
	t[0x0F] = func(c *CPU) int { v := c.a(); c.rrc(&v); c.setA(v); c.resetFlag(flagZ); return 4 }
	t[0x17] = func(c *CPU) int { v := c.a(); c.rl(&v); c.setA(v); c.resetFlag(flagZ); return 4 }
	t[0x1F] = func(c *CPU) int { v := c.a(); c.rr(&v); c.setA(v); c.resetFlag(flagZ); return 4 }

	t[0x27] = func(c *CPU) int { c.daa(); return 4 }
	t[0x2F] = func(c *CPU) int { c.cpl(); return 4 }
	t[0x37] = func(c *CPU) int { c.scf(); return 4 }
	t[0x3F] = func(c *CPU) int { c.ccf(); return 4 }

	t[0xE0] = func(c *CPU) int {
		offset := c.readImmediate()
		c.bus.Write(0xFF00+uint16(offset), c.a())
		return 12
	}
	t[0xF0] = func(c *CPU) int {
		offset := c.readImmediate()
		c.setA(c.bus.Read(0xFF00 + uint16(offset)))
		return 12
	}
	t[0xE2] = func(c *CPU) int { c.bus.Write(0xFF00+uint16(c.cReg()), c.a()); return 8 }
	t[0xF2] = func(c *CPU) int { c.setA(c.bus.Read(0xFF00 + uint16(c.cReg()))); return 8 }

	t[0xEA] = func(c *CPU) int { c.bus.Write(c.readImmediate16(), c.a()); return 16 }
	t[0xFA] = func(c *CPU) int { c.setA(c.bus.Read(c.readImmediate16())); return 16 }

	t[0xE8] = func(c *CPU) int {
		offset := int8(c.readImmediate())
		c.sp.set(c.addToSP(offset))
		return 16
	}
	t[0xF8] = func(c *CPU) int {
		offset := int8(c.readImmediate())
		c.hl.set(c.addToSP(offset))
		return 12
	}
	t[0xF9] = func(c *CPU) int { c.sp.set(c.hl.get()); return 8 }

	t[0xC3] = func(c *CPU) int { c.pc.set(c.readImmediate16()); return 16 }
	t[0xE9] = func(c *CPU) int { c.pc.set(c.hl.get()); return 4 }
	t[0xCD] = func(c *CPU) int {
		target := c.readImmediate16()
		c.pushStack(c.pc.get())
		c.pc.set(target)
		return 24
	}
	t[0xC9] = func(c *CPU) int { c.pc.set(c.popStack()); return 16 }
	t[0xD9] = func(c *CPU) int {
		c.pc.set(c.popStack())
		c.ime = true
		return 16
	}

	t[0xF3] = func(c *CPU) int { c.ime = false; return 4 }
	t[0xFB] = func(c *CPU) int { c.pendingEI = true; return 4 }

	t[0xCB] = func(c *CPU) int {
		sub := c.fetch()
		return 4 + c.cbOpcodes[sub](c)
	}
}
