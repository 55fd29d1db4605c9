/*
Package fontmgr keeps track of the font programs known to an application
and of the fallback fonts to use for code points a font cannot render.

Fonts are found by family name and style. A style is either a subfamily
name as given by the font ("Bold Italic") or, if no font carries this
name, an aspect (style, weight, stretch) which is matched as closely as
possible.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontmgr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	gtfont "github.com/go-text/typesetting/font"
	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/glyphcache/fontload"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// tracer writes to trace with key 'glyphcache.fonts'
func tracer() tracing.Trace {
	return tracing.Select("glyphcache.fonts")
}

// ErrNoSuchFont is returned when no font matches a family and style.
var ErrNoSuchFont = errors.New("fontmgr: no such font")

// Manager is a registry of font programs. It is safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	programs  []*fontload.Program // in order of registration
	byID      map[uint64]*fontload.Program
	fallbacks []FallbackSpec
}

// New creates an empty font manager.
func New() *Manager {
	return &Manager{byID: make(map[uint64]*fontload.Program)}
}

// Add registers a font program. It returns false if the same program has
// already been registered.
func (m *Manager) Add(p *fontload.Program) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; ok {
		return false
	}
	m.byID[p.ID] = p
	m.programs = append(m.programs, p)
	tracer().Debugf("registered font %s", p)
	return true
}

// AddBytes parses and registers a font program.
func (m *Manager) AddBytes(data []byte) (*fontload.Program, error) {
	p, err := fontload.Parse(data)
	if err != nil {
		return nil, err
	}
	m.Add(p)
	return p, nil
}

var fontExtensions = map[string]bool{".ttf": true, ".otf": true}

// LoadFS registers every TrueType and OpenType font found in fsys. Fonts
// which cannot be read are skipped; their errors are joined into the
// returned error.
func (m *Manager) LoadFS(fsys fs.FS) error {
	var errs []error
	err := fs.WalkDir(fsys, ".", func(fpath string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if d.IsDir() || !fontExtensions[strings.ToLower(path.Ext(fpath))] {
			return nil
		}
		data, err := fs.ReadFile(fsys, fpath)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if _, err = m.AddBytes(data); err != nil {
			errs = append(errs, fmt.Errorf("font %q: %w", fpath, err))
		}
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadDirs registers the fonts of a list of directories.
func (m *Manager) LoadDirs(dirs ...string) error {
	var errs []error
	for _, dir := range dirs {
		tracer().Infof("loading fonts from %s", dir)
		if err := m.LoadFS(os.DirFS(dir)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RegisterGoFonts registers the Go font family, which is compiled into
// the binary.
func (m *Manager) RegisterGoFonts() error {
	var errs []error
	for _, ttf := range [][]byte{
		goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF,
		gomono.TTF, gomonobold.TTF, gosmallcaps.TTF,
	} {
		if _, err := m.AddBytes(ttf); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Programs returns all registered font programs.
func (m *Manager) Programs() []*fontload.Program {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*fontload.Program(nil), m.programs...)
}

// Families returns the sorted names of all registered font families.
func (m *Manager) Families() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var families []string
	for _, p := range m.programs {
		if !seen[p.Family] {
			seen[p.Family] = true
			families = append(families, p.Family)
		}
	}
	sort.Strings(families)
	return families
}

// Face finds the font program of a family, matching style. Family names
// are compared case-insensitively. If style names no subfamily of the
// family, aspect decides; zero fields of aspect mean normal.
func (m *Manager) Face(family, style string, aspect gtfont.Aspect) (*fontload.Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var candidates []*fontload.Program
	for _, p := range m.programs {
		if strings.EqualFold(p.Family, family) {
			if style != "" && strings.EqualFold(p.Style, style) {
				return p, nil
			}
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNoSuchFont, family, style)
	}
	if style != "" && aspect == (gtfont.Aspect{}) {
		aspect = fontload.AspectFromStyle(style)
	}
	aspect = normalized(aspect)
	best, bestDist := candidates[0], distance(aspect, candidates[0].Aspect)
	for _, p := range candidates[1:] {
		if d := distance(aspect, p.Aspect); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, nil
}

func normalized(a gtfont.Aspect) gtfont.Aspect {
	if a.Style == 0 {
		a.Style = gtfont.StyleNormal
	}
	if a.Weight == 0 {
		a.Weight = gtfont.WeightNormal
	}
	if a.Stretch == 0 {
		a.Stretch = gtfont.StretchNormal
	}
	return a
}

// distance weighs a style mismatch heavier than any weight difference.
func distance(want, have gtfont.Aspect) float64 {
	have = normalized(have)
	d := 0.0
	if want.Style != have.Style {
		d += 10000
	}
	w := float64(want.Weight - have.Weight)
	if w < 0 {
		w = -w
	}
	s := float64(want.Stretch - have.Stretch)
	if s < 0 {
		s = -s
	}
	return d + w + 100*s
}

// --- Fallbacks -------------------------------------------------------------

// SetFallbacks sets the fallback fonts, in order of preference.
func (m *Manager) SetFallbacks(specs ...FallbackSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks = append([]FallbackSpec(nil), specs...)
}

// Fallbacks returns the configured fallback specifications.
func (m *Manager) Fallbacks() []FallbackSpec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]FallbackSpec(nil), m.fallbacks...)
}

// FallbackFonts returns the fallback fonts for primary, in order of
// preference. Each inherits the rendering parameters of primary.
// Fallbacks which resolve to no registered font or to the primary's own
// font program are left out.
func (m *Manager) FallbackFonts(primary cache.Font) []cache.Font {
	var fonts []cache.Font
	seen := map[uint64]bool{primary.ProgramID(): true}
	for _, spec := range m.Fallbacks() {
		p, err := m.Face(spec.Family, spec.Style, spec.Aspect)
		if err != nil {
			tracer().Debugf("fallback %s: %v", spec, err)
			continue
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		f := primary
		f.Program, f.Family, f.Style = p, p.Family, p.Style
		fonts = append(fonts, f)
	}
	return fonts
}
