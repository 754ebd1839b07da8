package memory

import "fmt"

const (
	titleAddress          = 0x134
	titleLength           = 16
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
)

// MBCType identifies which memory bank controller a cartridge uses.
type MBCType uint8

const (
	NoMBCType MBCType = iota
	MBC1Type
	MBC2Type
)

// Cartridge holds a ROM image and the header fields that decide which MBC
// it needs.
type Cartridge struct {
	data         []byte
	title        string
	mbcType      MBCType
	hasBattery   bool
	ramBankCount uint8
	romBankCount uint16
}

// UnsupportedCartridgeError is returned when a ROM's header names a
// cartridge type this core does not emulate.
type UnsupportedCartridgeError struct {
	CartridgeType uint8
}

func (e *UnsupportedCartridgeError) Error() string {
	return fmt.Sprintf("unsupported cartridge type: 0x%02X", e.CartridgeType)
}

// NewCartridge creates an empty cartridge with no ROM loaded, useful for
// tests that only exercise the bus around it.
func NewCartridge() *Cartridge {
	return &Cartridge{data: make([]byte, 0x8000), mbcType: NoMBCType}
}

// NewCartridgeWithData parses a ROM image's header and returns a
// Cartridge ready to be wrapped in the matching MBC. It returns
// *UnsupportedCartridgeError for any cartridge type byte this core does
// not implement (MBC3, MBC5, rumble, RTC, and anything GBC/SGC-only).
func NewCartridgeWithData(bytes []byte) (*Cartridge, error) {
	if len(bytes) < 0x150 {
		return nil, fmt.Errorf("ROM image too small to contain a header: %d bytes", len(bytes))
	}

	cartType := bytes[cartridgeTypeAddress]
	mbcType, hasBattery, err := decodeCartridgeType(cartType)
	if err != nil {
		return nil, err
	}

	cart := &Cartridge{
		data:         make([]byte, len(bytes)),
		title:        cleanGameboyTitle(bytes[titleAddress : titleAddress+titleLength]),
		mbcType:      mbcType,
		hasBattery:   hasBattery,
		ramBankCount: ramBankCountFromCode(bytes[ramSizeAddress]),
		romBankCount: romBankCountFromCode(bytes[romSizeAddress]),
	}
	copy(cart.data, bytes)

	return cart, nil
}

// decodeCartridgeType maps the byte at 0x0147 to an MBC kind this core
// supports, per the header values Nintendo documented for DMG carts.
func decodeCartridgeType(cartType uint8) (MBCType, bool, error) {
	switch cartType {
	case 0x00:
		return NoMBCType, false, nil
	case 0x01, 0x02:
		return MBC1Type, false, nil
	case 0x03:
		return MBC1Type, true, nil
	case 0x05:
		return MBC2Type, false, nil
	case 0x06:
		return MBC2Type, true, nil
	default:
		return MBCUnknownType, false, &UnsupportedCartridgeError{CartridgeType: cartType}
	}
}

// MBCUnknownType is never returned alongside a nil error; it exists so
// decodeCartridgeType has a zero value to hand back with its error.
const MBCUnknownType MBCType = 0xFF

// Title returns the cleaned-up game title from the cartridge header.
func (c *Cartridge) Title() string { return c.title }

// ROMBankCount returns the number of 16KB ROM banks declared by the
// cartridge header.
func (c *Cartridge) ROMBankCount() uint16 { return c.romBankCount }
