package cpu

import (
	"testing"

	"github.com/nkoval/dmgcore/gb/memory"
	"github.com/stretchr/testify/assert"
)

func newTestCPU() *CPU {
	return New(memory.New())
}

func TestCPU_stack(t *testing.T) {
	cpu := newTestCPU()

	cpu.sp.set(0xFFFF)
	cpu.pushStack(0x0102)

	assert.Equal(t, uint16(0xFFFD), cpu.sp.get())

	popped := cpu.popStack()

	assert.Equal(t, uint16(0x0102), popped)
	assert.Equal(t, uint16(0xFFFF), cpu.sp.get())
}

func TestCPU_inc(t *testing.T) {
	cpu := newTestCPU()

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "increases", arg: 0x0A, want: 0x0B},
		{desc: "sets zero and half carry flag on overflow", arg: 0xFF, want: 0, flags: flagZ | flagH},
		{desc: "sets half carry flag on nibble rollover", arg: 0x0F, want: 0x10, flags: flagH},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.af.setLow(0)
			v := tC.arg
			cpu.inc(&v)
			assert.Equal(t, tC.want, v)
			assert.Equal(t, uint8(tC.flags), cpu.af.getLow())
		})
	}
}

func TestCPU_dec(t *testing.T) {
	cpu := newTestCPU()

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "decreases", arg: 0x0A, want: 0x09, flags: flagN},
		{desc: "sets half carry on nibble borrow", arg: 0, want: 0xFF, flags: flagN | flagH},
		{desc: "sets zero flag", arg: 0x01, want: 0, flags: flagN | flagZ},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.af.setLow(0)
			v := tC.arg
			cpu.dec(&v)
			assert.Equal(t, tC.want, v)
			assert.Equal(t, uint8(tC.flags), cpu.af.getLow())
		})
	}
}

func TestCPU_rlc(t *testing.T) {
	cpu := newTestCPU()

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "rotates left", arg: 0x01, want: 0x02},
		{desc: "sets carry flag", arg: 0x80, want: 0x01, flags: flagC},
		{desc: "sets zero flag", arg: 0, want: 0, flags: flagZ},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.af.setLow(0)
			v := tC.arg
			cpu.rlc(&v)
			assert.Equal(t, tC.want, v)
			assert.Equal(t, uint8(tC.flags), cpu.af.getLow())
		})
	}
}

func TestCPU_addToA(t *testing.T) {
	cpu := newTestCPU()
	cpu.setA(0x0F)
	cpu.af.setLow(0)

	cpu.addToA(0x01, false)

	assert.Equal(t, uint8(0x10), cpu.a())
	assert.True(t, cpu.isSet(flagH))
	assert.False(t, cpu.isSet(flagZ))
	assert.False(t, cpu.isSet(flagC))
}

func TestCPU_addToA_withCarry(t *testing.T) {
	cpu := newTestCPU()
	cpu.setA(0xFF)
	cpu.af.setLow(0)
	cpu.setFlag(flagC)

	cpu.addToA(0x00, true)

	assert.Equal(t, uint8(0x00), cpu.a())
	assert.True(t, cpu.isSet(flagZ))
	assert.True(t, cpu.isSet(flagH))
	assert.True(t, cpu.isSet(flagC))
}

func TestCPU_sub(t *testing.T) {
	cpu := newTestCPU()
	cpu.setA(0x10)
	cpu.af.setLow(0)

	cpu.sub(0x01, false)

	assert.Equal(t, uint8(0x0F), cpu.a())
	assert.True(t, cpu.isSet(flagH))
	assert.True(t, cpu.isSet(flagN))
	assert.False(t, cpu.isSet(flagC))
}

func TestCPU_cp_leavesA(t *testing.T) {
	cpu := newTestCPU()
	cpu.setA(0x05)
	cpu.af.setLow(0)

	cpu.cp(0x05)

	assert.Equal(t, uint8(0x05), cpu.a())
	assert.True(t, cpu.isSet(flagZ))
}

func TestCPU_addToHL_overflow(t *testing.T) {
	cpu := newTestCPU()
	cpu.hl.set(0xFFFF)
	cpu.af.setLow(0)

	cpu.addToHL(0x0001)

	assert.Equal(t, uint16(0x0000), cpu.hl.get())
	assert.True(t, cpu.isSet(flagC))
	assert.True(t, cpu.isSet(flagH))
}

func TestCPU_daa_afterBCDAdd(t *testing.T) {
	cpu := newTestCPU()
	cpu.af.setLow(0)
	cpu.setA(0x09)

	cpu.addToA(0x01, false)
	cpu.daa()

	assert.Equal(t, uint8(0x10), cpu.a())
}

func TestCPU_cpl(t *testing.T) {
	cpu := newTestCPU()
	cpu.setA(0x0F)
	cpu.af.setLow(0)

	cpu.cpl()

	assert.Equal(t, uint8(0xF0), cpu.a())
	assert.True(t, cpu.isSet(flagN))
	assert.True(t, cpu.isSet(flagH))
}
