// Command dmgcore runs the DMG core against a ROM file, either in a
// terminal UI or headless for a fixed number of frames.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nkoval/dmgcore/gb"
	"github.com/nkoval/dmgcore/gb/render"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "dmgcore"
	app.Usage = "dmgcore [options] <ROM file>"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "path to the ROM file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "run without a terminal UI",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "number of frames to run in headless mode",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "log level: debug, info, warn, error",
			Value: "info",
		},
	}
	app.Action = runGuarded

	if err := app.Run(os.Args); err != nil {
		slog.Error("dmgcore exited with an error", "error", err)
		os.Exit(1)
	}
}

// runGuarded wraps run in a recover so that an unimplemented-opcode (or
// any other) panic deep in the CPU becomes a logged error and a nonzero
// exit instead of a raw stack trace.
func runGuarded(c *cli.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("emulation panic: %v", r)
		}
	}()
	return run(c)
}

func run(c *cli.Context) error {
	if err := configureLogging(c.String("log-level")); err != nil {
		return err
	}

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	emu, err := gb.NewWithFile(romPath)
	if err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}

	if c.Bool("headless") {
		frames := c.Int("frames")
		if frames <= 0 {
			return errors.New("headless mode requires --frames with a positive value")
		}
		return runHeadless(emu, frames)
	}

	renderer, err := render.NewTerminalRenderer(emu)
	if err != nil {
		return fmt.Errorf("starting terminal renderer: %w", err)
	}
	return renderer.Run()
}

func runHeadless(emu *gb.Emulator, frames int) error {
	for i := 0; i < frames; i++ {
		emu.RunUntilFrame()
		if (i+1)%60 == 0 {
			slog.Info("frame progress", "completed", i+1, "total", frames)
		}
	}
	slog.Info("headless run complete", "frames", emu.FrameCount())
	return nil
}

func configureLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}
