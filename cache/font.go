package cache

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/npillmayer/glyphcache/fontload"
	"golang.org/x/image/font"
)

// RenderMode selects the kind of payload a glyph source produces.
type RenderMode uint8

const (
	RenderGray    RenderMode = iota // 8-bit anti-aliased coverage
	RenderMono                      // 1-bit coverage, rows padded to bytes
	RenderOutline                   // encoded vector outline
)

func (m RenderMode) String() string {
	switch m {
	case RenderGray:
		return "gray"
	case RenderMono:
		return "mono"
	case RenderOutline:
		return "outline"
	}
	return fmt.Sprintf("RenderMode(%d)", m)
}

// ParseRenderMode parses "gray", "mono" or "outline".
func ParseRenderMode(s string) (RenderMode, error) {
	switch s {
	case "gray", "grey", "":
		return RenderGray, nil
	case "mono":
		return RenderMono, nil
	case "outline", "vector":
		return RenderOutline, nil
	}
	return RenderGray, fmt.Errorf("cache: unknown render mode %q", s)
}

// Font is a complete font configuration: a font program plus everything
// that influences how its glyphs are rendered. Two Fonts with equal
// signatures render identically.
type Font struct {
	Program  *fontload.Program
	Family   string
	Style    string
	Size     float64 // pixels per em
	Rotation float64 // radians, counter-clockwise
	Shear    float64 // horizontal slant factor, 0 is upright
	Hinting  font.Hinting
	Mode     RenderMode
	Subpixel bool // keep advances at 1/64 pixel instead of whole pixels
}

// ProgramID returns the identifier of the font program, or 0 if the
// font has none.
func (f Font) ProgramID() uint64 {
	if f.Program == nil {
		return 0
	}
	return f.Program.ID
}

func (f Font) String() string {
	return fmt.Sprintf("%s %s %.1fpx", f.Family, f.Style, f.Size)
}

// Signature identifies a font configuration. It is a comparable byte
// string and may be used as a map key.
type Signature string

const signatureVersion = 1

// Signature derives the signature of f. Equal configurations produce
// byte-equal signatures.
func (f Font) Signature() Signature {
	b := make([]byte, 0, 48+len(f.Family)+len(f.Style))
	b = append(b, signatureVersion)
	b = binary.BigEndian.AppendUint64(b, f.ProgramID())
	b = appendString(b, f.Family)
	b = appendString(b, f.Style)
	b = appendFloat(b, f.Size)
	b = appendFloat(b, f.Rotation)
	b = appendFloat(b, f.Shear)
	var subpixel byte
	if f.Subpixel {
		subpixel = 1
	}
	b = append(b, byte(f.Hinting), byte(f.Mode), subpixel)
	return Signature(b)
}

func (s Signature) String() string {
	if len(s) > 16 {
		return fmt.Sprintf("%x…", string(s[:16]))
	}
	return fmt.Sprintf("%x", string(s))
}

func appendString(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint16(b, uint16(len(s)))
	return append(b, s...)
}

func appendFloat(b []byte, v float64) []byte {
	if v == 0 { // -0 and +0 render identically
		v = 0
	}
	return binary.BigEndian.AppendUint64(b, math.Float64bits(v))
}
