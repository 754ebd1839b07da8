package memory

import (
	"testing"

	"github.com/nkoval/dmgcore/gb/addr"
)

func TestMMUWorkRAMReadWrite(t *testing.T) {
	mmu := New()
	mmu.Write(0xC010, 0x42)

	if got := mmu.Read(0xC010); got != 0x42 {
		t.Errorf("Read(0xC010) = 0x%02X; want 0x42", got)
	}
}

func TestMMUEchoRAMMirrorsWorkRAM(t *testing.T) {
	mmu := New()
	mmu.Write(0xC005, 0x7A)

	if got := mmu.Read(0xE005); got != 0x7A {
		t.Errorf("echo Read(0xE005) = 0x%02X; want 0x7A (mirrors 0xC005)", got)
	}

	mmu.Write(0xE006, 0x99)
	if got := mmu.Read(0xC006); got != 0x99 {
		t.Errorf("write through echo: Read(0xC006) = 0x%02X; want 0x99", got)
	}
}

func TestMMUOAMWriteIgnoredPastEnd(t *testing.T) {
	mmu := New()
	beyond := addr.OAMEnd + 1

	mmu.Write(beyond, 0x55)
	if got := mmu.Read(beyond); got != 0xFF {
		t.Errorf("Read past OAMEnd = 0x%02X; want 0xFF", got)
	}
}

func TestMMUInterruptFlagTopBitsForcedHigh(t *testing.T) {
	mmu := New()
	mmu.Write(addr.IF, 0x01)

	if got := mmu.Read(addr.IF); got != 0xE1 {
		t.Errorf("Read(IF) = 0x%02X; want 0xE1 (top 3 bits forced high)", got)
	}
}

func TestMMURequestInterruptSetsIFBit(t *testing.T) {
	mmu := New()
	mmu.RequestInterrupt(addr.Timer)
	mmu.RequestInterrupt(addr.VBlank)

	got := mmu.Read(addr.IF) &^ 0xE0
	want := uint8(addr.Timer) | uint8(addr.VBlank)
	if got != want {
		t.Errorf("IF low bits = 0x%02X; want 0x%02X", got, want)
	}
}

func TestMMUOAMDMACopiesFromSource(t *testing.T) {
	mmu := New()
	for i := uint16(0); i < 160; i++ {
		mmu.Write(0xC000+i, byte(i))
	}

	mmu.Write(addr.DMA, 0xC0)

	for i := uint16(0); i < 160; i++ {
		if got := mmu.Read(addr.OAMStart + i); got != byte(i) {
			t.Fatalf("OAM[%d] after DMA = 0x%02X; want 0x%02X", i, got, byte(i))
		}
	}
}

func TestMMUJoypadSelectsDpadGroup(t *testing.T) {
	mmu := New()
	mmu.HandleKeyPress(JoypadRight)

	// select d-pad (bit4=0), deselect buttons (bit5=1)
	mmu.Write(addr.P1, 0b00100000)

	got := mmu.Read(addr.P1) & 0x0F
	if got&0x01 != 0 {
		t.Errorf("d-pad right line = %d; want held (0)", got&0x01)
	}
}

func TestMMUJoypadANDsBothGroupsWhenBothSelected(t *testing.T) {
	mmu := New()
	mmu.HandleKeyPress(JoypadRight) // d-pad bit 0
	mmu.HandleKeyPress(JoypadA)     // button bit 0

	// select both groups (bit4=0, bit5=0)
	mmu.Write(addr.P1, 0b00000000)

	got := mmu.Read(addr.P1) & 0x0F
	if got&0x01 != 0 {
		t.Errorf("combined line 0 = %d; want 0 (both groups have it held)", got&0x01)
	}
	if got&0x02 == 0 {
		t.Errorf("combined line 1 = %d; want 1 (neither group holds it)", got&0x02)
	}
}

func TestMMUJoypadInterruptOnlyFiresForSelectedGroup(t *testing.T) {
	t.Run("fires when d-pad is selected and a d-pad line falls", func(t *testing.T) {
		mmu := New()
		mmu.Write(addr.P1, 0b00100000) // select d-pad, deselect buttons
		mmu.HandleKeyPress(JoypadRight)

		if mmu.Read(addr.IF)&uint8(addr.Joypad) == 0 {
			t.Error("expected joypad interrupt to be requested")
		}
	})

	t.Run("does not fire when only the deselected group falls", func(t *testing.T) {
		mmu := New()
		mmu.Write(addr.P1, 0b00100000) // select d-pad, deselect buttons
		mmu.HandleKeyPress(JoypadA)    // a button line falls, but buttons are deselected

		if mmu.Read(addr.IF)&uint8(addr.Joypad) != 0 {
			t.Error("joypad interrupt fired for a deselected group")
		}
	})
}
