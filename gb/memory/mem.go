// Package memory implements the DMG address space: cartridge ROM/RAM
// behind an MBC, work RAM, OAM, the timer and joypad registers, and the
// prohibited region's read-0xFF/write-dropped behavior. It also stores
// VRAM and the LCD registers as plain memory; it does not own the PPU's
// pixel state, and the PPU (package video) reads those bytes from the MMU.
package memory

import (
	"fmt"
	"log/slog"

	"github.com/nkoval/dmgcore/gb/addr"
	"github.com/nkoval/dmgcore/gb/bit"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// JoypadKey represents a key on the Game Boy joypad.
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// MMU is the system bus: it owns work RAM, VRAM, OAM, HRAM, the timer and
// joypad state, and the cartridge's MBC, and it is the single point every
// other component reads and writes memory-mapped registers through.
type MMU struct {
	cart      *Cartridge
	mbc       MBC
	memory    []byte
	regionMap [256]memRegion

	joypadButtons uint8
	joypadDpad    uint8

	timer Timer
}

// New creates an MMU with no cartridge loaded, equivalent to turning on a
// Game Boy with an empty cartridge slot.
func New() *MMU {
	mmu := &MMU{
		memory:        make([]byte, 0x10000),
		cart:          NewCartridge(),
		mbc:           NewNoMBC(make([]uint8, 0x8000)),
		joypadButtons: 0x0F,
		joypadDpad:    0x0F,
	}
	mmu.timer.TimerInterruptHandler = func() { mmu.RequestInterrupt(addr.Timer) }
	initRegionMap(mmu)
	return mmu
}

// NewWithCartridge creates an MMU with the given cartridge's ROM mapped
// in behind its matching MBC.
func NewWithCartridge(cart *Cartridge) *MMU {
	mmu := New()
	mmu.cart = cart

	switch cart.mbcType {
	case NoMBCType:
		mmu.mbc = NewNoMBC(cart.data)
	case MBC1Type:
		mmu.mbc = NewMBC1(cart.data, cart.hasBattery, cart.ramBankCount)
	case MBC2Type:
		mmu.mbc = NewMBC2(cart.data, cart.hasBattery)
	default:
		panic(fmt.Sprintf("unsupported MBC type: %d", cart.mbcType))
	}

	return mmu
}

// Tick advances the timer by the given number of T-cycles. The PPU is
// ticked separately by the owning Emulator, since it renders into its own
// framebuffer rather than through the bus.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
}

// SetTimerSeed initializes the internal divider seed, used to reproduce a
// specific post-boot DIV value.
func (m *MMU) SetTimerSeed(seed uint16) {
	m.timer.SetSeed(seed)
}

func initRegionMap(m *MMU) {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	m.regionMap[0xFE] = regionOAM
	m.regionMap[0xFF] = regionIO
}

// RequestInterrupt sets the given interrupt's bit in the IF register.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	m.Write(addr.IF, m.Read(addr.IF)|uint8(interrupt))
}

func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, m.Read(address))
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		return m.mbc.Read(address)
	case regionVRAM, regionWRAM:
		return m.memory[address]
	case regionEcho:
		return m.memory[address-0x2000]
	case regionOAM:
		if address > addr.OAMEnd {
			return 0xFF
		}
		return m.memory[address]
	case regionIO:
		switch {
		case address == addr.DIV, address == addr.TIMA, address == addr.TMA, address == addr.TAC:
			return m.timer.Read(address)
		case address == addr.IF:
			return m.memory[address] | 0xE0
		default:
			return m.memory[address]
		}
	default:
		slog.Warn("read from unmapped address", "addr", fmt.Sprintf("0x%04X", address))
		return 0xFF
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		m.mbc.Write(address, value)
	case regionVRAM, regionWRAM:
		m.memory[address] = value
	case regionEcho:
		m.memory[address-0x2000] = value
	case regionOAM:
		if address <= addr.OAMEnd {
			m.memory[address] = value
		}
	case regionIO:
		switch {
		case address == addr.P1:
			m.writeJoypad(value)
		case address == addr.DIV, address == addr.TIMA, address == addr.TMA, address == addr.TAC:
			m.timer.Write(address, value)
		case address == addr.IF:
			m.memory[address] = value | 0xE0
		case address == addr.DMA:
			m.runDMA(value)
		default:
			m.memory[address] = value
		}
	default:
		slog.Warn("write to unmapped address", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
	}
}

// runDMA performs the instantaneous 160-byte OAM DMA transfer triggered by
// a write to FF46: source is value*0x100, destination is OAM. Real
// hardware takes 160 M-cycles and locks out CPU access to everything but
// HRAM during the transfer; this core applies the copy immediately since
// no ROM in its test corpus depends on observing it mid-flight.
func (m *MMU) runDMA(value uint8) {
	source := uint16(value) << 8
	for i := uint16(0); i < 160; i++ {
		m.memory[addr.OAMStart+i] = m.Read(source + i)
	}
	m.memory[addr.DMA] = value
}

// updateJoypadRegister recomputes P1's low nibble from the current button
// state and the selection bits last written to it. Bit 0 means released,
// consistent with the Game Boy's active-low button lines.
func (m *MMU) updateJoypadRegister() {
	p1 := m.memory[addr.P1]
	result := uint8(0b11000000)
	result |= p1 & 0b00110000

	selectDpad := !bit.IsSet(4, p1)
	selectButtons := !bit.IsSet(5, p1)

	switch {
	case selectButtons && !selectDpad:
		result |= m.joypadButtons & 0x0F
	case selectDpad && !selectButtons:
		result |= m.joypadDpad & 0x0F
	case selectButtons && selectDpad:
		result |= m.joypadButtons & m.joypadDpad & 0x0F
	default:
		result |= 0x0F
	}

	m.memory[addr.P1] = result
}

func (m *MMU) writeJoypad(value uint8) {
	m.memory[addr.P1] = value & 0b00110000
	m.updateJoypadRegister()
}

// HandleKeyPress updates the held-button state for key and fires the
// joypad interrupt on a 1->0 transition of a line, but only when that
// line's group (buttons or d-pad) is currently selected in P1 - a
// transition on a deselected group is invisible to the hardware and
// must not raise the interrupt.
func (m *MMU) HandleKeyPress(key JoypadKey) {
	p1 := m.memory[addr.P1]
	selectDpad := !bit.IsSet(4, p1)
	selectButtons := !bit.IsSet(5, p1)

	oldButtons, oldDpad := m.joypadButtons, m.joypadDpad
	m.setKeyLine(key, false)

	buttonsFell := selectButtons && oldButtons&^m.joypadButtons != 0
	dpadFell := selectDpad && oldDpad&^m.joypadDpad != 0
	if buttonsFell || dpadFell {
		m.RequestInterrupt(addr.Joypad)
	}
	m.updateJoypadRegister()
}

// HandleKeyRelease updates the held-button state for key.
func (m *MMU) HandleKeyRelease(key JoypadKey) {
	m.setKeyLine(key, true)
	m.updateJoypadRegister()
}

func (m *MMU) setKeyLine(key JoypadKey, released bool) {
	set := func(line *uint8, index uint8) {
		if released {
			*line = bit.Set(index, *line)
		} else {
			*line = bit.Reset(index, *line)
		}
	}

	switch key {
	case JoypadRight:
		set(&m.joypadDpad, 0)
	case JoypadLeft:
		set(&m.joypadDpad, 1)
	case JoypadUp:
		set(&m.joypadDpad, 2)
	case JoypadDown:
		set(&m.joypadDpad, 3)
	case JoypadA:
		set(&m.joypadButtons, 0)
	case JoypadB:
		set(&m.joypadButtons, 1)
	case JoypadSelect:
		set(&m.joypadButtons, 2)
	case JoypadStart:
		set(&m.joypadButtons, 3)
	}
}
