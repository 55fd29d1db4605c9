package glyphcache

import (
	"fmt"
	"time"

	gtfont "github.com/go-text/typesetting/font"
	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/glyphcache/config"
	"github.com/npillmayer/glyphcache/fontmgr"
	"github.com/npillmayer/glyphcache/layout"
	"github.com/npillmayer/glyphcache/raster"
)

// Service is the glyph cache of an application.
type Service struct {
	settings   config.Settings
	fonts      *fontmgr.Manager
	rasterizer cache.Rasterizer
	now        func() time.Time
	cache      *cache.Cache
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRasterizer replaces the OpenType rasterizer.
func WithRasterizer(r cache.Rasterizer) ServiceOption {
	return func(s *Service) {
		s.rasterizer = r
	}
}

// WithFontManager uses fonts instead of a font manager holding the Go
// fonts and the fonts of the configured font directories.
func WithFontManager(fonts *fontmgr.Manager) ServiceOption {
	return func(s *Service) {
		s.fonts = fonts
	}
}

// WithClock replaces the time source of the cache's usage statistics.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a glyph cache service. Fonts which cannot be loaded from the
// configured font directories are logged and skipped.
func New(settings config.Settings, opts ...ServiceOption) (*Service, error) {
	s := &Service{settings: settings}
	for _, opt := range opts {
		opt(s)
	}
	if s.fonts == nil {
		s.fonts = fontmgr.New()
		if err := s.fonts.RegisterGoFonts(); err != nil {
			return nil, fmt.Errorf("glyphcache: %w", err)
		}
		if err := s.fonts.LoadDirs(settings.FontDirs...); err != nil {
			tracer().Errorf("some fonts could not be loaded: %v", err)
		}
	}
	if len(settings.Fallbacks) > 0 {
		s.fonts.SetFallbacks(settings.Fallbacks...)
	}
	if s.rasterizer == nil {
		s.rasterizer = raster.New()
	}
	s.cache = cache.New(s.rasterizer, cache.WithCapacity(settings.Capacity), cache.WithClock(s.now))
	tracer().Infof("glyph cache with capacity %d, %d font families",
		s.cache.Capacity(), len(s.fonts.Families()))
	return s, nil
}

// Font returns the font of a family and style at size pixels per em,
// rendered as configured.
func (s *Service) Font(family, style string, size float64) (cache.Font, error) {
	p, err := s.fonts.Face(family, style, gtfont.Aspect{})
	if err != nil {
		return cache.Font{}, err
	}
	return cache.Font{
		Program:  p,
		Family:   p.Family,
		Style:    p.Style,
		Size:     size,
		Hinting:  s.settings.Hinting,
		Mode:     s.settings.Mode,
		Subpixel: s.settings.Subpixel,
	}, nil
}

// Env returns the layout environment of s.
func (s *Service) Env() layout.Env {
	return layout.Env{Cache: s.cache, Fallbacks: s.fonts}
}

// Layout lays out text in font, see layout.Layout.
func (s *Service) Layout(consumer layout.Consumer, font cache.Font, text string, opts layout.Options) error {
	return layout.Layout(s.Env(), consumer, font, text, opts)
}

// Measure returns the bounds of text set in font.
func (s *Service) Measure(font cache.Font, text string, opts layout.Options) (*layout.Bounds, error) {
	return layout.Measure(s.Env(), font, text, opts)
}

// Cache returns the glyph cache.
func (s *Service) Cache() *cache.Cache { return s.cache }

// Fonts returns the font manager.
func (s *Service) Fonts() *fontmgr.Manager { return s.fonts }

// Settings returns the settings s has been created with.
func (s *Service) Settings() config.Settings { return s.settings }

// Close empties the glyph cache.
func (s *Service) Close() error {
	return s.cache.Close()
}
