// Package render hosts the emulator core against a terminal, using tcell
// for cell output in a single white-foreground style and a half-block
// trick to pack two Game Boy pixel rows into one terminal row.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/nkoval/dmgcore/gb"
	"github.com/nkoval/dmgcore/gb/memory"
)

const (
	screenWidth  = 160
	screenHeight = 144
	frameTime    = time.Second / 60
)

var keyBindings = map[rune]memory.JoypadKey{
	'a': memory.JoypadA,
	's': memory.JoypadB,
	'q': memory.JoypadSelect,
	'w': memory.JoypadStart,
}

var arrowBindings = map[tcell.Key]memory.JoypadKey{
	tcell.KeyRight: memory.JoypadRight,
	tcell.KeyLeft:  memory.JoypadLeft,
	tcell.KeyUp:    memory.JoypadUp,
	tcell.KeyDown:  memory.JoypadDown,
}

type inputEvent struct {
	key       memory.JoypadKey
	isRelease bool
}

// TerminalRenderer drives an Emulator against a tcell screen at 60Hz,
// polling keyboard input on its own goroutine and draining queued events
// once per frame on the render loop.
type TerminalRenderer struct {
	screen   tcell.Screen
	emulator *gb.Emulator

	mu      sync.Mutex
	pending []inputEvent

	quit chan struct{}
}

// NewTerminalRenderer initializes a tcell screen for emu.
func NewTerminalRenderer(emu *gb.Emulator) (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("initializing terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing terminal: %w", err)
	}

	return &TerminalRenderer{
		screen:   screen,
		emulator: emu,
		quit:     make(chan struct{}),
	}, nil
}

// Run drives the emulator at 60Hz until the user quits or the process
// receives a termination signal.
func (t *TerminalRenderer) Run() error {
	defer t.screen.Fini()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	go t.pollInput()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.drainInput()
			t.emulator.RunUntilFrame()
			t.render()
			t.screen.Show()
		case <-signals:
			slog.Info("received signal, stopping")
			return nil
		case <-t.quit:
			return nil
		}
	}
}

func (t *TerminalRenderer) pollInput() {
	for {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				close(t.quit)
				return
			}
			if key, ok := arrowBindings[ev.Key()]; ok {
				t.queue(key, false)
				continue
			}
			if ev.Key() == tcell.KeyRune {
				if key, ok := keyBindings[ev.Rune()]; ok {
					t.queue(key, false)
				}
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func (t *TerminalRenderer) queue(key memory.JoypadKey, release bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, inputEvent{key: key, isRelease: release})
}

// drainInput applies every queued key event to the emulator's joypad
// once per frame, on the render goroutine, so joypad state never races
// against the input-polling goroutine.
func (t *TerminalRenderer) drainInput() {
	t.mu.Lock()
	events := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, ev := range events {
		if ev.isRelease {
			t.emulator.ReleaseKey(ev.key)
		} else {
			t.emulator.PressKey(ev.key)
		}
	}
}

func (t *TerminalRenderer) render() {
	frame := t.emulator.FrameBuffer().ToSlice()
	lines := RenderFrameToHalfBlocks(frame, screenWidth, screenHeight)

	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for y, line := range lines {
		x := 0
		for _, ch := range line {
			t.screen.SetContent(x, y, ch, nil, style)
			x++
		}
	}
}
