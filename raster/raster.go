package raster

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/npillmayer/glyphcache/cache"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Rasterizer creates glyph sources for OpenType font programs.
type Rasterizer struct{}

var _ cache.Rasterizer = (*Rasterizer)(nil)

// New creates a rasterizer for OpenType fonts.
func New() *Rasterizer {
	return &Rasterizer{}
}

// NewSource creates a glyph source for font f.
func (r *Rasterizer) NewSource(f cache.Font) (cache.GlyphSource, error) {
	if f.Program == nil || f.Program.SFNT == nil {
		return nil, ErrNoProgram
	}
	if !(f.Size > 0) || math.IsInf(f.Size, 0) {
		return nil, fmt.Errorf("%w: %g", ErrSize, f.Size)
	}
	xf := Transform(f.Rotation, f.Shear)
	src := &source{
		font:     f,
		sf:       f.Program.SFNT,
		ppem:     fixed.Int26_6(math.Round(f.Size * 64)),
		xf:       xf,
		identity: xf == identity,
	}
	tracer().Debugf("glyph source for %s, ppem=%v", f, src.ppem)
	return src, nil
}

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Transform returns the transformation for a rotation (radians,
// counter-clockwise) and a horizontal shear, in a coordinate system with
// the y axis pointing down.
func Transform(rotation, shear float64) f64.Aff3 {
	if rotation == 0 && shear == 0 {
		return identity
	}
	sin, cos := math.Sincos(rotation)
	return f64.Aff3{
		cos, sin - shear*cos, 0,
		-sin, cos + shear*sin, 0,
	}
}

// source renders glyphs of one font configuration. buf is used by Render
// only, which the cache calls under the entry's exclusive lock.
type source struct {
	font     cache.Font
	sf       *sfnt.Font
	ppem     fixed.Int26_6
	xf       f64.Aff3
	identity bool
	buf      sfnt.Buffer
}

func (s *source) CanRender(r rune) bool {
	return s.font.Program.Covers(r)
}

func (s *source) Render(r rune) (cache.GlyphRecord, error) {
	var g cache.GlyphRecord
	gid, err := s.sf.GlyphIndex(&s.buf, r)
	if err != nil {
		return g, err
	}
	if gid == 0 {
		return g, fmt.Errorf("%w: %#U", ErrNotMapped, r)
	}
	g.Index = cache.GlyphIndex(gid)
	hinted, err := s.sf.GlyphAdvance(&s.buf, gid, s.ppem, s.font.Hinting)
	if err != nil {
		return g, err
	}
	unhinted, err := s.sf.GlyphAdvance(&s.buf, gid, s.ppem, font.HintingNone)
	if err != nil {
		return g, err
	}
	segs, err := s.sf.LoadGlyph(&s.buf, gid, s.ppem, nil)
	if err != nil {
		return g, err
	}
	segs = s.transform(segs) // copies, segs from LoadGlyph are backed by buf
	g.Advance = s.quantize(s.apply(float64(hinted) / 64))
	g.PreciseAdvance = s.apply(float64(unhinted) / 64)
	if len(segs) == 0 {
		g.Kind = cache.PayloadNone
		return g, nil
	}
	g.Bounds = segs.Bounds()
	switch s.font.Mode {
	case cache.RenderOutline:
		g.Kind = cache.PayloadOutline
		g.Payload = EncodeOutline(segs)
	case cache.RenderMono:
		mask, bounds := Rasterize(segs)
		g.Kind, g.Bounds = cache.PayloadMono, bounds
		g.Payload = PackMono(mask)
	default:
		mask, bounds := Rasterize(segs)
		g.Kind, g.Bounds = cache.PayloadGray8, bounds
		g.Payload = mask.Pix
	}
	g.LeftInset = float64(g.Bounds.Min.X) / 64
	g.RightInset = g.PreciseAdvance.X - float64(g.Bounds.Max.X)/64
	return g, nil
}

// Kern may be called concurrently; a nil buffer makes sfnt allocate one.
func (s *source) Kern(left, right cache.GlyphIndex) float64 {
	k, err := s.sf.Kern(nil, sfnt.GlyphIndex(left), sfnt.GlyphIndex(right), s.ppem, s.font.Hinting)
	if err != nil { // sfnt.ErrNotFound for fonts without kerning
		return 0
	}
	return float64(k) / 64
}

func (s *source) Release() {
	s.buf = sfnt.Buffer{}
}

// apply transforms a horizontal advance.
func (s *source) apply(adv float64) cache.Vec {
	return cache.Vec{X: s.xf[0] * adv, Y: s.xf[3] * adv}
}

func (s *source) quantize(v cache.Vec) cache.Vec {
	unit := 1.0
	if s.font.Subpixel {
		unit = 1.0 / 64
	}
	return cache.Vec{
		X: math.Round(v.X/unit) * unit,
		Y: math.Round(v.Y/unit) * unit,
	}
}

func (s *source) transform(segs sfnt.Segments) sfnt.Segments {
	out := make(sfnt.Segments, len(segs))
	for i, seg := range segs {
		out[i] = seg
		if s.identity {
			continue
		}
		for j := range seg.Args {
			out[i].Args[j] = transformPoint(s.xf, seg.Args[j])
		}
	}
	return out
}

func transformPoint(m f64.Aff3, p fixed.Point26_6) fixed.Point26_6 {
	x, y := float64(p.X), float64(p.Y)
	return fixed.Point26_6{
		X: fixed.Int26_6(math.Round(m[0]*x + m[1]*y + m[2]*64)),
		Y: fixed.Int26_6(math.Round(m[3]*x + m[4]*y + m[5]*64)),
	}
}

// Rasterize renders outline segments into an anti-aliased coverage mask.
// The returned bounds are the pixel-aligned position of the mask relative
// to the pen position.
func Rasterize(segs sfnt.Segments) (*image.Alpha, fixed.Rectangle26_6) {
	b := segs.Bounds()
	minX, minY := b.Min.X.Floor(), b.Min.Y.Floor()
	maxX, maxY := b.Max.X.Ceil(), b.Max.Y.Ceil()
	w, h := maxX-minX, maxY-minY
	if w <= 0 || h <= 0 {
		return image.NewAlpha(image.Rectangle{}), fixed.Rectangle26_6{}
	}
	dx, dy := float32(-minX), float32(-minY)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return float32(p.X)/64 + dx, float32(p.Y)/64 + dy
	}
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	open := false
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(pt(seg.Args[0]))
			open = true
		case sfnt.SegmentOpLineTo:
			z.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			z.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			ex, ey := pt(seg.Args[2])
			z.CubeTo(bx, by, cx, cy, ex, ey)
		}
	}
	if open {
		z.ClosePath()
	}
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	bounds := fixed.Rectangle26_6{
		Min: fixed.P(minX, minY),
		Max: fixed.P(maxX, maxY),
	}
	return mask, bounds
}

// PackMono converts a coverage mask to one bit per pixel, most significant
// bit first, each row padded to a whole byte. Pixels with at least 50%
// coverage are set.
func PackMono(mask *image.Alpha) []byte {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	stride := (w + 7) / 8
	bits := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, a := range row {
			if a >= 0x80 {
				bits[y*stride+x/8] |= 0x80 >> (x % 8)
			}
		}
	}
	return bits
}

// UnpackMono expands a packed 1-bit bitmap of width w into a coverage mask.
func UnpackMono(bits []byte, w, h int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	stride := (w + 7) / 8
	if len(bits) < stride*h {
		return mask
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if bits[y*stride+x/8]&(0x80>>(x%8)) != 0 {
				mask.Pix[y*mask.Stride+x] = 0xff
			}
		}
	}
	return mask
}
