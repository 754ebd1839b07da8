// Package gb ties the CPU, bus and PPU together into a runnable DMG core
// and exposes the narrow surface a host (terminal renderer, headless
// driver, test harness) needs: load a ROM, step frames, read pixels, feed
// button input.
package gb

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nkoval/dmgcore/gb/cpu"
	"github.com/nkoval/dmgcore/gb/memory"
	"github.com/nkoval/dmgcore/gb/video"
)

// cyclesPerFrame is the number of T-cycles in one 59.7Hz DMG frame:
// 154 scanlines * 456 cycles.
const cyclesPerFrame = 70224

// Emulator is the root struct and entry point for running the emulation.
type Emulator struct {
	cpu *cpu.CPU
	gpu *video.GPU
	mem *memory.MMU

	frameCount uint64
}

func newEmulator(mem *memory.MMU) *Emulator {
	e := &Emulator{
		cpu: cpu.New(mem),
		gpu: video.NewGpu(mem),
		mem: mem,
	}
	mem.SetTimerSeed(0xABCC)
	return e
}

// New creates an emulator instance with no cartridge loaded.
func New() *Emulator {
	return newEmulator(memory.NewWithCartridge(memory.NewCartridge()))
}

// NewWithFile creates an emulator instance and loads the ROM at path into
// it. It returns *memory.UnsupportedCartridgeError if the ROM's header
// names a cartridge type this core does not implement.
func NewWithFile(path string) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ROM: %w", err)
	}

	cart, err := memory.NewCartridgeWithData(data)
	if err != nil {
		return nil, err
	}

	slog.Info("loaded ROM", "title", cart.Title(), "size", len(data), "rom_banks", cart.ROMBankCount())

	return newEmulator(memory.NewWithCartridge(cart)), nil
}

// StepInstruction executes a single CPU instruction (or interrupt
// dispatch, or HALT tick) and advances the PPU by the same number of
// cycles. It returns the number of T-cycles consumed.
func (e *Emulator) StepInstruction() int {
	cycles := e.cpu.Step()
	e.gpu.Tick(cycles)
	return cycles
}

// RunUntilFrame executes instructions until a full frame's worth of
// cycles (70224 T-cycles) has elapsed.
func (e *Emulator) RunUntilFrame() {
	total := 0
	for total < cyclesPerFrame {
		total += e.StepInstruction()
	}
	e.frameCount++
}

// FrameBuffer returns the PPU's current framebuffer.
func (e *Emulator) FrameBuffer() *video.FrameBuffer {
	return e.gpu.GetFrameBuffer()
}

// PressKey registers a button as held down.
func (e *Emulator) PressKey(key memory.JoypadKey) {
	e.mem.HandleKeyPress(key)
}

// ReleaseKey registers a button as released.
func (e *Emulator) ReleaseKey(key memory.JoypadKey) {
	e.mem.HandleKeyRelease(key)
}

// FrameCount returns the number of frames fully executed so far.
func (e *Emulator) FrameCount() uint64 {
	return e.frameCount
}
