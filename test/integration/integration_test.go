// Package integration runs the core against Blargg's hardware test ROMs
// and compares the hash of the resulting grayscale framebuffer against
// the hash of a checked-in golden dump, skipping automatically when the
// ROMs or golden dumps are not present.
package integration

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nkoval/dmgcore/gb"
)

type testCase struct {
	name      string
	romPath   string
	maxFrames int
}

func testCases() []testCase {
	baseDir := "../../test-roms/blargg/cpu_instrs/individual"
	return []testCase{
		{"01-special", filepath.Join(baseDir, "01-special.gb"), 500},
		{"02-interrupts", filepath.Join(baseDir, "02-interrupts.gb"), 500},
		{"03-op sp,hl", filepath.Join(baseDir, "03-op sp,hl.gb"), 500},
		{"04-op r,imm", filepath.Join(baseDir, "04-op r,imm.gb"), 500},
		{"05-op rp", filepath.Join(baseDir, "05-op rp.gb"), 500},
		{"06-ld r,r", filepath.Join(baseDir, "06-ld r,r.gb"), 500},
		{"07-jr,jp,call,ret,rst", filepath.Join(baseDir, "07-jr,jp,call,ret,rst.gb"), 500},
		{"08-misc instrs", filepath.Join(baseDir, "08-misc instrs.gb"), 500},
		{"09-op r,r", filepath.Join(baseDir, "09-op r,r.gb"), 1000},
		{"10-bit ops", filepath.Join(baseDir, "10-bit ops.gb"), 1000},
		{"11-op a,(hl)", filepath.Join(baseDir, "11-op a,(hl).gb"), 1500},
		{"halt_bug", "../../test-roms/blargg/halt_bug.gb", 500},
		{"instr_timing", "../../test-roms/blargg/instr_timing/instr_timing.gb", 1200},
	}
}

func runTestCase(t *testing.T, tc testCase) {
	if _, err := os.Stat(tc.romPath); os.IsNotExist(err) {
		t.Skipf("test ROM not found: %s", tc.romPath)
		return
	}

	emu, err := gb.NewWithFile(tc.romPath)
	if err != nil {
		t.Fatalf("creating emulator: %v", err)
	}

	for i := 0; i < tc.maxFrames; i++ {
		emu.RunUntilFrame()
	}

	goldenPath := filepath.Join("testdata", fmt.Sprintf("%s.bin", sanitizeName(tc.name)))
	actual := emu.FrameBuffer().ToGrayscale()
	actualHash := fmt.Sprintf("%x", md5.Sum(actual))

	if os.Getenv("DMGCORE_GENERATE_GOLDEN") == "true" {
		if err := os.MkdirAll("testdata", 0755); err != nil {
			t.Fatalf("creating testdata dir: %v", err)
		}
		if err := os.WriteFile(goldenPath, actual, 0644); err != nil {
			t.Fatalf("writing golden file: %v", err)
		}
		t.Logf("generated golden file for %s, hash %s", tc.name, actualHash)
		return
	}

	if _, err := os.Stat(goldenPath); os.IsNotExist(err) {
		t.Skipf("no golden file at %s; run with DMGCORE_GENERATE_GOLDEN=true to create one", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}
	expectedHash := fmt.Sprintf("%x", md5.Sum(expected))

	if actualHash != expectedHash {
		t.Errorf("%s: framebuffer hash mismatch\n  expected: %s\n  actual:   %s", tc.name, expectedHash, actualHash)
	}
}

func sanitizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ' ', ',', '(', ')':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func TestBlarggROMs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ROM-driven integration tests in short mode")
	}

	for _, tc := range testCases() {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			runTestCase(t, tc)
		})
	}
}
