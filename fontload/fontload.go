/*
Package fontload loads and parses OpenType font programs.

A Program is the immutable, parsed form of one font file: its raw bytes, an
SFNT view used for outlines, advances and kerning, and descriptive data
(names, style aspect, code point coverage) used to find the font by family
and style. Programs are safe for concurrent use; outline extraction needs a
per-caller sfnt.Buffer.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontload

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strings"

	gtfont "github.com/go-text/typesetting/font"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'glyphcache.fonts'
func tracer() tracing.Trace {
	return tracing.Select("glyphcache.fonts")
}

// ErrEmptyFontData is returned when a font program is parsed from empty data.
var ErrEmptyFontData = errors.New("fontload: empty font data")

// Program is a parsed scalable font (TTF or OTF).
type Program struct {
	ID       uint64     // FNV-64a hash of Binary
	Binary   []byte     // raw data, must not be changed after parsing
	SFNT     *sfnt.Font // outlines, metrics and kerning
	Family   string     // family name from the name table
	Style    string     // subfamily name, e.g. "Bold Italic"
	FullName string
	Aspect   gtfont.Aspect // style, weight and stretch
	face     *gtfont.Face  // cmap lookups; nil if go-text could not read the font
}

// Load loads an OpenType font program from a file.
func Load(fontfile string) (*Program, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	p, err := Parse(bytez)
	if err != nil {
		return nil, fmt.Errorf("fontload: %s: %w", fontfile, err)
	}
	return p, nil
}

// Parse parses an OpenType font program from memory.
func Parse(fbytes []byte) (p *Program, err error) {
	if len(fbytes) == 0 {
		return nil, ErrEmptyFontData
	}
	p = &Program{Binary: fbytes, ID: programID(fbytes)}
	if p.SFNT, err = sfnt.Parse(p.Binary); err != nil {
		return nil, err
	}
	p.Family = name(p.SFNT, sfnt.NameIDFamily)
	p.Style = name(p.SFNT, sfnt.NameIDSubfamily)
	p.FullName = name(p.SFNT, sfnt.NameIDFull)
	if p.FullName == "" {
		p.FullName = strings.TrimSpace(p.Family + " " + p.Style)
	}
	if face, gterr := gtfont.ParseTTF(bytes.NewReader(p.Binary)); gterr == nil {
		p.face = face
		p.Aspect = face.Describe().Aspect
		if p.Family == "" {
			p.Family = face.Describe().Family
		}
	} else {
		tracer().Infof("font %q: no go-text view (%v), deriving aspect from style name", p.FullName, gterr)
		p.Aspect = AspectFromStyle(p.Style)
	}
	tracer().Debugf("loaded and parsed SFNT %s", p.FullName)
	return p, nil
}

// Covers reports whether the font maps code point r to a glyph other than
// ".notdef". It is safe for concurrent use.
func (p *Program) Covers(r rune) bool {
	if p == nil {
		return false
	}
	if p.face != nil {
		gid, ok := p.face.NominalGlyph(r)
		return ok && gid != 0
	}
	gid, err := p.SFNT.GlyphIndex(nil, r)
	return err == nil && gid != 0
}

// UnitsPerEm returns the font's design units per em.
func (p *Program) UnitsPerEm() sfnt.Units {
	return p.SFNT.UnitsPerEm()
}

func (p *Program) String() string {
	if p == nil {
		return "<no font>"
	}
	return fmt.Sprintf("%s [%016x]", p.FullName, p.ID)
}

// AspectFromStyle guesses a font aspect from a subfamily name like
// "Bold Italic" or "Light".
func AspectFromStyle(style string) gtfont.Aspect {
	aspect := gtfont.Aspect{
		Style:   gtfont.StyleNormal,
		Weight:  gtfont.WeightNormal,
		Stretch: gtfont.StretchNormal,
	}
	s := strings.ToLower(style)
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		aspect.Style = gtfont.StyleItalic
	}
	switch {
	case strings.Contains(s, "extrabold"), strings.Contains(s, "heavy"), strings.Contains(s, "black"):
		aspect.Weight = gtfont.WeightExtraBold
	case strings.Contains(s, "semibold"):
		aspect.Weight = gtfont.WeightSemibold
	case strings.Contains(s, "bold"):
		aspect.Weight = gtfont.WeightBold
	case strings.Contains(s, "medium"):
		aspect.Weight = gtfont.WeightMedium
	case strings.Contains(s, "light"):
		aspect.Weight = gtfont.WeightLight
	case strings.Contains(s, "thin"):
		aspect.Weight = gtfont.WeightThin
	}
	return aspect
}

func name(f *sfnt.Font, id sfnt.NameID) string {
	n, err := f.Name(nil, id)
	if err != nil {
		return ""
	}
	return n
}

func programID(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data) // fnv.Write never returns an error
	return h.Sum64()
}
