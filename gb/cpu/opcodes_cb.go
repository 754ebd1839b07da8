package cpu

// buildCBOpcodeTable wires the 256-entry CB-prefixed dispatch table. Each
// entry returns the T-cycle cost of the operation itself; the CB prefix
// byte's own fetch cost is charged separately by the main table.
func (c *CPU) buildCBOpcodeTable() {
	t := &c.cbOpcodes

	shiftOps := []func(c *CPU, i uint8){
		(*CPU).rlcAt,
		(*CPU).rrcAt,
		(*CPU).rlAt,
		(*CPU).rrAt,
		(*CPU).slaAt,
		(*CPU).sraAt,
		(*CPU).swapAt,
		(*CPU).srlAt,
	}

	for group := uint8(0); group < 8; group++ {
		for reg := uint8(0); reg < 8; reg++ {
			op := group*8 + reg
			shift, reg := shiftOps[group], reg
			cycles := 4
			if reg == 6 {
				cycles = 12
			}
			t[op] = func(c *CPU) int { shift(c, reg); return cycles }
		}
	}

	for bitIndex := uint8(0); bitIndex < 8; bitIndex++ {
		for reg := uint8(0); reg < 8; reg++ {
			bitIndex, reg := bitIndex, reg

			bitOp := 0x40 + bitIndex*8 + reg
			bitCycles := 4
			if reg == 6 {
				bitCycles = 8
			}
			t[bitOp] = func(c *CPU) int { c.bitAt(bitIndex, reg); return bitCycles }

			resOp := 0x80 + bitIndex*8 + reg
			resSetCycles := 4
			if reg == 6 {
				resSetCycles = 12
			}
			t[resOp] = func(c *CPU) int { c.resBitAt(bitIndex, reg); return resSetCycles }

			setOp := 0xC0 + bitIndex*8 + reg
			t[setOp] = func(c *CPU) int { c.setBitAt(bitIndex, reg); return resSetCycles }
		}
	}
}
