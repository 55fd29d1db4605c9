package layout

import (
	"image"
	"math"

	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/glyphcache/raster"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

// Rect is an axis-aligned rectangle in pixels, y axis pointing down.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.MinX >= r.MaxX || r.MinY >= r.MaxY
}

func (r Rect) union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	return Rect{
		MinX: math.Min(r.MinX, s.MinX), MinY: math.Min(r.MinY, s.MinY),
		MaxX: math.Max(r.MaxX, s.MaxX), MaxY: math.Max(r.MaxY, s.MaxY),
	}
}

// --- Bounds ------------------------------------------------------------------

// Bounds measures a text: the union of its glyphs' boxes and the final pen
// position.
type Bounds struct {
	Ink    Rect      // union of glyph bounds, relative to the start position
	Pen    cache.Vec // pen position after the last glyph
	Glyphs int       // glyphs consumed
	Empty  int       // code points without glyph
}

func (b *Bounds) Start() {
	*b = Bounds{}
}

func (b *Bounds) ConsumeGlyph(index int, r rune, g *cache.GlyphRecord, owner *cache.Entry, x, y, advX, advY float64) bool {
	b.Glyphs++
	if g.Kind == cache.PayloadNone {
		return true
	}
	box := Rect{
		MinX: x + float64(g.Bounds.Min.X)/64, MinY: y + float64(g.Bounds.Min.Y)/64,
		MaxX: x + float64(g.Bounds.Max.X)/64, MaxY: y + float64(g.Bounds.Max.Y)/64,
	}
	b.Ink = b.Ink.union(box)
	return true
}

func (b *Bounds) ConsumeEmptyGlyph(index int, r rune, x, y float64) {
	b.Empty++
}

func (b *Bounds) Finish(x, y float64) {
	b.Pen = cache.Vec{X: x, Y: y}
}

// --- DrawList ----------------------------------------------------------------

// DrawCommand places a glyph. Glyph is nil for code points without glyph.
type DrawCommand struct {
	Index int
	Rune  rune
	Glyph *cache.GlyphRecord
	X, Y  float64
}

// DrawList collects draw commands for a text. If Limit is positive, it
// stops after Limit glyphs.
type DrawList struct {
	Limit    int
	Commands []DrawCommand
	Pen      cache.Vec
}

func (dl *DrawList) Start() {
	dl.Commands = dl.Commands[:0]
	dl.Pen = cache.Vec{}
}

func (dl *DrawList) ConsumeGlyph(index int, r rune, g *cache.GlyphRecord, owner *cache.Entry, x, y, advX, advY float64) bool {
	dl.Commands = append(dl.Commands, DrawCommand{Index: index, Rune: r, Glyph: g, X: x, Y: y})
	return dl.Limit <= 0 || len(dl.Commands) < dl.Limit
}

func (dl *DrawList) ConsumeEmptyGlyph(index int, r rune, x, y float64) {
	dl.Commands = append(dl.Commands, DrawCommand{Index: index, Rune: r, X: x, Y: y})
}

func (dl *DrawList) Finish(x, y float64) {
	dl.Pen = cache.Vec{X: x, Y: y}
}

// --- Mask --------------------------------------------------------------------

// Mask paints glyphs into an alpha mask. The pen starts at Origin, which
// is on the baseline.
type Mask struct {
	Dst    *image.Alpha
	Origin image.Point
	Drawn  int
}

// NewMask creates a mask of size w×h with the pen starting at origin.
func NewMask(w, h int, origin image.Point) *Mask {
	return &Mask{Dst: image.NewAlpha(image.Rect(0, 0, w, h)), Origin: origin}
}

func (m *Mask) Start() {
	m.Drawn = 0
}

func (m *Mask) ConsumeGlyph(index int, r rune, g *cache.GlyphRecord, owner *cache.Entry, x, y, advX, advY float64) bool {
	src, bounds := glyphMask(g)
	if src == nil {
		return true
	}
	dp := image.Pt(
		m.Origin.X+int(math.Round(x))+bounds.Min.X.Floor(),
		m.Origin.Y+int(math.Round(y))+bounds.Min.Y.Floor(),
	)
	dr := image.Rectangle{Min: dp, Max: dp.Add(src.Rect.Size())}
	draw.Draw(m.Dst, dr, src, src.Rect.Min, draw.Over)
	m.Drawn++
	return true
}

func (m *Mask) ConsumeEmptyGlyph(index int, r rune, x, y float64) {}

func (m *Mask) Finish(x, y float64) {}

// glyphMask turns a glyph's payload into a coverage mask.
func glyphMask(g *cache.GlyphRecord) (*image.Alpha, fixed.Rectangle26_6) {
	w, h := g.Width(), g.Height()
	switch g.Kind {
	case cache.PayloadGray8:
		if w <= 0 || h <= 0 || len(g.Payload) < w*h {
			return nil, g.Bounds
		}
		return &image.Alpha{Pix: g.Payload, Stride: w, Rect: image.Rect(0, 0, w, h)}, g.Bounds
	case cache.PayloadMono:
		if w <= 0 || h <= 0 {
			return nil, g.Bounds
		}
		return raster.UnpackMono(g.Payload, w, h), g.Bounds
	case cache.PayloadOutline:
		segs, err := raster.DecodeOutline(g.Payload)
		if err != nil {
			tracer().Errorf("glyph %d: %v", g.Index, err)
			return nil, g.Bounds
		}
		mask, bounds := raster.Rasterize(segs)
		if mask.Rect.Empty() {
			return nil, bounds
		}
		return mask, bounds
	}
	return nil, g.Bounds
}

// --- Helpers -----------------------------------------------------------------

// Measure lays out text and returns its bounds.
func Measure(env Env, font cache.Font, text string, opts Options) (*Bounds, error) {
	b := &Bounds{}
	if err := Layout(env, b, font, text, opts); err != nil {
		return nil, err
	}
	return b, nil
}

// Width returns the horizontal advance of text.
func Width(env Env, font cache.Font, text string, opts Options) (float64, error) {
	b, err := Measure(env, font, text, opts)
	if err != nil {
		return 0, err
	}
	return b.Pen.X, nil
}
