package cache

import (
	"golang.org/x/image/math/fixed"
)

// GlyphIndex is a glyph's index within its font program.
type GlyphIndex uint16

// Vec is a 2-D vector in pixels.
type Vec struct {
	X, Y float64
}

// PayloadKind tells how to interpret a glyph's payload.
type PayloadKind uint8

const (
	PayloadNone    PayloadKind = iota // glyph has no visible shape, e.g. a space
	PayloadGray8                      // one byte of coverage per pixel
	PayloadMono                       // one bit per pixel, MSB first, rows padded to bytes
	PayloadOutline                    // encoded outline segments, see package raster
)

// GlyphRecord is a rendered glyph. Records are never changed after they
// have been stored in an entry.
type GlyphRecord struct {
	Index   GlyphIndex
	Kind    PayloadKind
	Payload []byte
	// Bounds is the glyph's bounding box relative to the pen position,
	// y axis pointing down. For bitmap payloads it is pixel aligned and
	// matches the bitmap's dimensions.
	Bounds         fixed.Rectangle26_6
	Advance        Vec     // quantized advance
	PreciseAdvance Vec     // unquantized advance
	LeftInset      float64 // distance from pen position to left edge of the ink
	RightInset     float64 // distance from right edge of the ink to the advance
	Fallback       bool    // produced by a fallback font
}

// Width returns the pixel width of a bitmap payload.
func (g *GlyphRecord) Width() int {
	return (g.Bounds.Max.X - g.Bounds.Min.X).Ceil()
}

// Height returns the pixel height of a bitmap payload.
func (g *GlyphRecord) Height() int {
	return (g.Bounds.Max.Y - g.Bounds.Min.Y).Ceil()
}

// Rasterizer creates glyph sources for font configurations.
type Rasterizer interface {
	NewSource(Font) (GlyphSource, error)
}

// GlyphSource renders glyphs of a single font configuration.
//
// CanRender and Kern may be called concurrently. Render is only called
// while the owning entry is locked exclusively. Release is called once,
// when the owning entry is destroyed.
type GlyphSource interface {
	CanRender(r rune) bool
	Render(r rune) (GlyphRecord, error)
	Kern(left, right GlyphIndex) float64
	Release()
}
