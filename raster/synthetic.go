package raster

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/npillmayer/glyphcache/cache"
	"golang.org/x/image/math/fixed"
)

// DefaultSyntheticWidth is the advance of a synthetic glyph at 10 px.
const DefaultSyntheticWidth = 7.25

// Synthetic is a rasterizer which fakes glyphs for families listed in
// Coverage. Glyph advances scale with the font size: a glyph is
// Widths[r] (or DefaultSyntheticWidth) pixels wide at 10 px. Its
// precise advance is that width, the quantized advance is rounded.
type Synthetic struct {
	Coverage map[string]string // family → covered code points
	Widths   map[rune]float64
	Kerning  map[[2]rune]float64 // kerning at 10 px
	Delay    time.Duration       // time taken per rendered glyph
	mu       sync.Mutex
	renders  map[string]int
	sources  int
}

var _ cache.Rasterizer = (*Synthetic)(nil)

// NewSource creates a synthetic glyph source for f.Family.
func (syn *Synthetic) NewSource(f cache.Font) (cache.GlyphSource, error) {
	covered, ok := syn.Coverage[f.Family]
	if !ok {
		return nil, fmt.Errorf("%w: no synthetic family %q", ErrNoProgram, f.Family)
	}
	if !(f.Size > 0) {
		return nil, fmt.Errorf("%w: %g", ErrSize, f.Size)
	}
	syn.mu.Lock()
	syn.sources++
	syn.mu.Unlock()
	return &syntheticSource{syn: syn, font: f, runes: []rune(covered)}, nil
}

// Renders returns how many glyphs have been rendered for a family.
func (syn *Synthetic) Renders(family string) int {
	syn.mu.Lock()
	defer syn.mu.Unlock()
	return syn.renders[family]
}

// Sources returns the number of glyph sources created.
func (syn *Synthetic) Sources() int {
	syn.mu.Lock()
	defer syn.mu.Unlock()
	return syn.sources
}

// Width returns the precise advance of r at font size size.
func (syn *Synthetic) Width(r rune, size float64) float64 {
	w, ok := syn.Widths[r]
	if !ok {
		w = DefaultSyntheticWidth
	}
	return w * size / 10
}

type syntheticSource struct {
	syn      *Synthetic
	font     cache.Font
	runes    []rune
	released bool
}

func (s *syntheticSource) index(r rune) cache.GlyphIndex {
	for i, c := range s.runes {
		if c == r {
			return cache.GlyphIndex(i + 1)
		}
	}
	return 0
}

func (s *syntheticSource) CanRender(r rune) bool {
	return s.index(r) != 0
}

func (s *syntheticSource) Render(r rune) (cache.GlyphRecord, error) {
	var g cache.GlyphRecord
	if s.released {
		return g, fmt.Errorf("raster: synthetic source of %s released", s.font)
	}
	if g.Index = s.index(r); g.Index == 0 {
		return g, fmt.Errorf("%w: %#U", ErrNotMapped, r)
	}
	if s.syn.Delay > 0 {
		time.Sleep(s.syn.Delay)
	}
	s.syn.mu.Lock()
	if s.syn.renders == nil {
		s.syn.renders = make(map[string]int)
	}
	s.syn.renders[s.font.Family]++
	s.syn.mu.Unlock()
	w := s.syn.Width(r, s.font.Size)
	g.PreciseAdvance = cache.Vec{X: w}
	g.Advance = cache.Vec{X: math.Round(w)}
	if unicode.IsSpace(r) {
		return g, nil
	}
	// a solid box, one pixel less than the advance, sitting on the baseline
	bw, bh := int(math.Max(1, math.Round(w)-1)), int(math.Max(1, math.Round(s.font.Size*0.7)))
	g.Kind = cache.PayloadGray8
	g.Payload = []byte(strings.Repeat("\xff", bw*bh))
	g.Bounds = fixed.Rectangle26_6{Min: fixed.P(0, -bh), Max: fixed.P(bw, 0)}
	g.RightInset = w - float64(bw)
	return g, nil
}

func (s *syntheticSource) Kern(left, right cache.GlyphIndex) float64 {
	if left == 0 || right == 0 || int(left) > len(s.runes) || int(right) > len(s.runes) {
		return 0
	}
	k := s.syn.Kerning[[2]rune{s.runes[left-1], s.runes[right-1]}]
	return k * s.font.Size / 10
}

func (s *syntheticSource) Release() {
	s.released = true
}
