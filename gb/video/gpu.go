package video

import (
	"log/slog"

	"github.com/nkoval/dmgcore/gb/addr"
	"github.com/nkoval/dmgcore/gb/bit"
	"github.com/nkoval/dmgcore/gb/memory"
)

// scanMode is the PPU's current rendering stage. The two low bits of
// this value are mirrored into STAT bits 1-0.
type scanMode uint8

const (
	modeHBlank        scanMode = 0
	modeVBlank        scanMode = 1
	modeOAMScan       scanMode = 2
	modePixelTransfer scanMode = 3
)

// Scanline phase lengths, in T-cycles.
const (
	oamScanCycles       = 80
	pixelTransferCycles = 172
	hblankCycles        = 204
	lineCycles          = oamScanCycles + pixelTransferCycles + hblankCycles // 456
	frameCycles         = lineCycles * 154                                  // 70224

	// VBlank lasts 10 scanline-equivalents; it has no OAM/transfer/hblank
	// substructure of its own, so it's tracked as a flat cycle count
	// against these two checkpoints instead.
	vblankLastLineCycles = lineCycles * 9  // LY reaches 153 and holds
	vblankSpanCycles     = lineCycles * 10 // span before returning to OAM scan
)

// GPU drives the DMG picture generation: the STAT mode state machine,
// LY/LYC comparison, and per-scanline background/window/sprite
// rendering into a FrameBuffer.
type GPU struct {
	bus         *memory.MMU
	framebuffer *FrameBuffer
	oam         *OAM

	// bgPriority holds, per framebuffer pixel, the background/window
	// color index (0-3) drawn on the current frame so far. Sprites with
	// the behind-background attribute consult it to decide whether a
	// non-zero background pixel should occlude them.
	bgPriority []byte

	mode          scanMode
	line          int // LY, 0-153
	elapsed       int // cycles spent in the current mode/scanline
	vblankElapsed int // cycles spent within the current VBlank span
	scanlineDrawn bool
	windowLine    int // internal window line counter, independent of LY
}

// NewGpu returns a GPU wired to bus, starting in VBlank at line 144 as
// the DMG's PPU does immediately after boot.
func NewGpu(bus *memory.MMU) *GPU {
	g := &GPU{
		bus:         bus,
		framebuffer: NewFrameBuffer(),
		oam:         NewOAM(bus),
		bgPriority:  make([]byte, FramebufferSize),
		mode:        modeVBlank,
		line:        144,
	}
	slog.Debug("gpu initialized",
		"lcdc", bus.Read(addr.LCDC),
		"bgp", bus.Read(addr.BGP))
	return g
}

func (g *GPU) GetFrameBuffer() *FrameBuffer {
	return g.framebuffer
}

// Tick advances the PPU by cycles T-cycles, running the STAT mode
// state machine and rendering a scanline whenever pixel transfer
// begins.
func (g *GPU) Tick(cycles int) {
	g.elapsed += cycles

	switch g.mode {
	case modeOAMScan:
		g.tickOAMScan()
	case modePixelTransfer:
		g.tickPixelTransfer()
	case modeHBlank:
		g.tickHBlank()
	case modeVBlank:
		g.tickVBlank(cycles)
	}
}

func (g *GPU) tickOAMScan() {
	if g.elapsed < oamScanCycles {
		return
	}
	g.elapsed -= oamScanCycles
	g.scanlineDrawn = false
	g.setMode(modePixelTransfer)
}

func (g *GPU) tickPixelTransfer() {
	if !g.scanlineDrawn {
		if g.lcdcBit(lcdDisplayEnable) == 1 {
			g.drawScanline()
		}
		g.scanlineDrawn = true
	}

	if g.elapsed < pixelTransferCycles {
		return
	}
	g.elapsed -= pixelTransferCycles
	g.setMode(modeHBlank)
	g.requestStatInterruptIf(statHblankIrq)
}

func (g *GPU) tickHBlank() {
	if g.elapsed < hblankCycles {
		return
	}
	g.elapsed -= hblankCycles
	g.setLY(g.line + 1)

	if g.line == 144 {
		g.enterVBlank()
		return
	}

	g.setMode(modeOAMScan)
	g.requestStatInterruptIf(statOamIrq)
}

func (g *GPU) enterVBlank() {
	g.setMode(modeVBlank)
	g.vblankElapsed = g.elapsed
	g.windowLine = 0

	g.bus.RequestInterrupt(addr.VBlank)
	g.requestStatInterruptIf(statVblankIrq)
}

func (g *GPU) tickVBlank(cycles int) {
	g.vblankElapsed += cycles

	if g.vblankElapsed >= lineCycles {
		g.vblankElapsed -= lineCycles
		if g.line >= 144 && g.line < 153 {
			g.setLY(g.line + 1)
		}
	}

	// LY briefly returns to 0 a handful of cycles into the 10th VBlank
	// line, ahead of the mode switch back to OAM scan below.
	if g.line == 153 && g.elapsed >= vblankLastLineCycles && g.vblankElapsed >= 4 {
		g.setLY(0)
	}

	if g.elapsed >= vblankSpanCycles {
		g.elapsed -= vblankSpanCycles
		g.setMode(modeOAMScan)
		g.requestStatInterruptIf(statOamIrq)
	}

	if g.elapsed >= frameCycles {
		g.elapsed -= frameCycles
	}
}

func (g *GPU) requestStatInterruptIf(source statFlag) {
	if g.bus.ReadBit(uint8(source), addr.STAT) {
		g.bus.RequestInterrupt(addr.LCDSTAT)
	}
}

func (g *GPU) drawScanline() {
	if g.lcdcBit(lcdDisplayEnable) == 0 {
		lineOffset := g.line * FramebufferWidth
		for x := 0; x < FramebufferWidth; x++ {
			g.framebuffer.buffer[lineOffset+x] = uint32(WhiteColor)
		}
		return
	}

	g.drawBackground()
	g.drawWindow()
	g.drawSprites()
}

// bgTileSource resolves the tile-data base address and tile-map base
// address shared by background and window rendering, given which
// LCDC bit selects each.
func (g *GPU) bgTileSource(mapSelectBit lcdcFlag) (tilesBase uint16, mapBase uint16, signed bool) {
	signed = g.lcdcBit(bgWindowTileDataSelect) == 0
	tilesBase = addr.TileData0
	if signed {
		tilesBase = addr.TileDataSigned
	}

	mapBase = addr.TileMap1
	if g.lcdcBit(mapSelectBit) == 0 {
		mapBase = addr.TileMap0
	}
	return tilesBase, mapBase, signed
}

func (g *GPU) drawBackground() {
	lineOffset := g.line * FramebufferWidth
	bgp := g.bus.Read(addr.BGP)

	if g.lcdcBit(bgDisplay) == 0 {
		shade := bgp & 0x03
		color := uint32(ByteToColor(shade))
		for x := 0; x < FramebufferWidth; x++ {
			g.framebuffer.buffer[lineOffset+x] = color
			g.bgPriority[lineOffset+x] = 0
		}
		return
	}

	tilesBase, mapBase, signed := g.bgTileSource(bgTileMapDisplaySelect)

	scx := g.bus.Read(addr.SCX)
	scy := g.bus.Read(addr.SCY)
	bgY := (g.line + int(scy)) & 0xFF
	mapRow := (bgY / 8) * 32
	rowInTile := bgY % 8

	for x := 0; x < FramebufferWidth; x++ {
		bgX := (x + int(scx)) & 0xFF
		mapCol := bgX / 8

		tileValue := g.bus.Read(mapBase + uint16(mapRow+mapCol))
		row := FetchTileRow(g.bus, TileAddr(tilesBase, tileValue, signed), rowInTile)

		shade := row.GetPixel(bgX % 8)
		color := (bgp >> (shade * 2)) & 0x03

		pos := lineOffset + x
		g.framebuffer.buffer[pos] = uint32(ByteToColor(color))
		g.bgPriority[pos] = color
	}
}

func (g *GPU) drawWindow() {
	if g.windowLine > 143 || g.lcdcBit(windowDisplayEnable) == 0 {
		return
	}

	// WX is stored with a +7 offset; a raw value under 7 wraps past 159
	// and the bounds check below disables the window for the line, the
	// same way real hardware treats WX<7 as "not positioned on screen".
	wx := g.bus.Read(addr.WX) - 7
	wy := g.bus.Read(addr.WY)

	if wx > 159 || int(wy) > g.line {
		return
	}

	tilesBase, mapBase, signed := g.bgTileSource(windowTileMapSelect)

	mapRow := (g.windowLine / 8) * 32
	rowInTile := g.windowLine % 8
	bgp := g.bus.Read(addr.BGP)
	lineOffset := g.line * FramebufferWidth

	for winX := 0; int(wx)+winX < FramebufferWidth; winX++ {
		mapCol := winX / 8
		if mapCol >= 32 {
			break
		}

		tileValue := g.bus.Read(mapBase + uint16(mapRow+mapCol))
		row := FetchTileRow(g.bus, TileAddr(tilesBase, tileValue, signed), rowInTile)

		shade := row.GetPixel(winX % 8)
		color := (bgp >> (shade * 2)) & 0x03

		pos := lineOffset + int(wx) + winX
		g.framebuffer.buffer[pos] = uint32(ByteToColor(color))
		g.bgPriority[pos] = color
	}
	g.windowLine++
}

func (g *GPU) drawSprites() {
	if g.lcdcBit(spriteDisplayEnable) == 0 {
		return
	}

	lineOffset := g.line * FramebufferWidth
	sprites := g.oam.GetSpritesForScanline(g.line)

	for i := range sprites {
		sprite := &sprites[i]
		if !sprite.HasPriorityForAnyPixel() {
			continue
		}
		g.drawSprite(sprite, lineOffset)
	}
}

func (g *GPU) drawSprite(sprite *Sprite, lineOffset int) {
	// Sprite.Y is stored as an unsigned, hardware-offset byte and loses
	// its sign for sprites scrolled above the top of the screen; read
	// the raw OAM byte back out for the signed row calculation instead.
	rawY := addr.OAMStart + uint16(sprite.OAMIndex*4)
	spriteY := int(g.bus.Read(rawY)) - 16

	rowInTile := g.line - spriteY
	if sprite.FlipY {
		rowInTile = sprite.Height - 1 - rowInTile
	}

	tileIndex := int(sprite.TileIndex)
	if sprite.Height == 16 {
		tileIndex &^= 1
		if rowInTile >= 8 {
			tileIndex++
			rowInTile -= 8
		}
	}

	row := FetchTileRow(g.bus, addr.TileData0+uint16(tileIndex*16), rowInTile)

	paletteAddr := addr.OBP0
	if sprite.PaletteOBP1 {
		paletteAddr = addr.OBP1
	}
	palette := g.bus.Read(paletteAddr)

	for pixelX := 0; pixelX < 8; pixelX++ {
		if !sprite.HasPriorityForPixel(pixelX) {
			continue
		}

		shade := row.GetPixel(pixelX)
		if sprite.FlipX {
			shade = row.GetPixelFlipped(pixelX)
		}
		if shade == 0 {
			continue // color 0 is always transparent for sprites
		}

		bufferX := int(sprite.X) + pixelX
		if bufferX < 0 || bufferX >= FramebufferWidth {
			continue
		}
		pos := lineOffset + bufferX

		if sprite.BehindBG && g.bgPriority[pos] != 0 {
			continue
		}

		color := (palette >> (shade * 2)) & 0x03
		g.framebuffer.buffer[pos] = uint32(ByteToColor(color))
	}
}

// STAT register bit positions.
//
//	Bit 6 - LYC==LY interrupt enable
//	Bit 5 - Mode 2 (OAM scan) interrupt enable
//	Bit 4 - Mode 1 (VBlank) interrupt enable
//	Bit 3 - Mode 0 (HBlank) interrupt enable
//	Bit 2 - LYC==LY flag
//	Bit 1-0 - current mode
type statFlag uint8

const (
	statLycIrq       statFlag = 6
	statOamIrq       statFlag = 5
	statVblankIrq    statFlag = 4
	statHblankIrq    statFlag = 3
	statLycCondition statFlag = 2
)

// LCDC register bit positions.
//
//	Bit 7 - LCD/PPU enable
//	Bit 6 - window tile map select (0=9800, 1=9C00)
//	Bit 5 - window enable
//	Bit 4 - BG/window tile data select (0=8800 signed, 1=8000 unsigned)
//	Bit 3 - BG tile map select (0=9800, 1=9C00)
//	Bit 2 - sprite size (0=8x8, 1=8x16)
//	Bit 1 - sprite enable
//	Bit 0 - BG/window enable
type lcdcFlag uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect    lcdcFlag = 6
	windowDisplayEnable    lcdcFlag = 5
	bgWindowTileDataSelect lcdcFlag = 4
	bgTileMapDisplaySelect lcdcFlag = 3
	spriteDisplayEnable    lcdcFlag = 1
	bgDisplay              lcdcFlag = 0
)

func (g *GPU) lcdcBit(flag lcdcFlag) byte {
	if bit.IsSet(uint8(flag), g.bus.Read(addr.LCDC)) {
		return 1
	}
	return 0
}

func (g *GPU) compareLYToLYC() {
	ly := g.bus.Read(addr.LY)
	lyc := g.bus.Read(addr.LYC)
	stat := g.bus.Read(addr.STAT)

	if ly == lyc {
		stat = bit.Set(uint8(statLycCondition), stat)
		if bit.IsSet(uint8(statLycIrq), stat) {
			g.bus.RequestInterrupt(addr.LCDSTAT)
		}
	} else {
		stat = bit.Reset(uint8(statLycCondition), stat)
	}

	g.bus.Write(addr.STAT, stat)
}

// setMode updates the PPU's current mode and mirrors it into STAT bits 1-0.
func (g *GPU) setMode(mode scanMode) {
	g.mode = mode
	stat := g.bus.Read(addr.STAT)
	stat = stat&0xFC | byte(mode)
	g.bus.Write(addr.STAT, stat)
}

// setLY updates LY and re-runs the LYC comparison.
func (g *GPU) setLY(line int) {
	g.line = line
	g.bus.Write(addr.LY, byte(line))
	g.compareLYToLYC()
}
