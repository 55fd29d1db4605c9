/*
Package config reads glyph cache settings from a schuko configuration.

Recognized keys:

	glyphcache.capacity    maximum number of cached font configurations
	glyphcache.fallbacks   comma separated list of Family[:Style[:Weight]]
	glyphcache.hinting     none | vertical | full
	glyphcache.rendering   gray | mono | outline
	glyphcache.subpixel    true | false
	glyphcache.fontdirs    list of font directories, separated by the OS path list separator

Keys which are not set keep their defaults.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/glyphcache/fontmgr"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font"
)

// tracer writes to trace with key 'glyphcache'
func tracer() tracing.Trace {
	return tracing.Select("glyphcache")
}

// Configuration keys.
const (
	KeyCapacity  = "glyphcache.capacity"
	KeyFallbacks = "glyphcache.fallbacks"
	KeyHinting   = "glyphcache.hinting"
	KeyRendering = "glyphcache.rendering"
	KeySubpixel  = "glyphcache.subpixel"
	KeyFontDirs  = "glyphcache.fontdirs"
)

// Configuration is the part of a schuko configuration read by Load.
// schukonf/testconfig.Conf satisfies it.
type Configuration interface {
	IsSet(key string) bool
	GetString(key string) string
}

// Settings configure a glyph cache service.
type Settings struct {
	Capacity  int
	Fallbacks []fontmgr.FallbackSpec
	Hinting   font.Hinting
	Mode      cache.RenderMode
	Subpixel  bool
	FontDirs  []string
}

// Default returns the settings used for keys which are not configured.
func Default() Settings {
	return Settings{
		Capacity: cache.DefaultCapacity,
		Hinting:  font.HintingFull,
		Mode:     cache.RenderGray,
	}
}

// Load reads settings from conf. A nil conf yields the defaults.
func Load(conf Configuration) (Settings, error) {
	s := Default()
	if conf == nil {
		return s, nil
	}
	var err error
	if v, ok := value(conf, KeyCapacity); ok {
		if s.Capacity, err = strconv.Atoi(v); err != nil || s.Capacity < 1 {
			return s, fmt.Errorf("config: %s must be a positive number, is %q", KeyCapacity, v)
		}
	}
	if v, ok := value(conf, KeyFallbacks); ok {
		if s.Fallbacks, err = fontmgr.ParseFallbacks(v); err != nil {
			return s, fmt.Errorf("config: %s: %w", KeyFallbacks, err)
		}
	}
	if v, ok := value(conf, KeyHinting); ok {
		if s.Hinting, err = ParseHinting(v); err != nil {
			return s, err
		}
	}
	if v, ok := value(conf, KeyRendering); ok {
		if s.Mode, err = cache.ParseRenderMode(strings.ToLower(v)); err != nil {
			return s, fmt.Errorf("config: %s: %w", KeyRendering, err)
		}
	}
	if v, ok := value(conf, KeySubpixel); ok {
		if s.Subpixel, err = strconv.ParseBool(v); err != nil {
			return s, fmt.Errorf("config: %s must be true or false, is %q", KeySubpixel, v)
		}
	}
	if v, ok := value(conf, KeyFontDirs); ok {
		for _, dir := range filepath.SplitList(v) {
			if dir = strings.TrimSpace(dir); dir != "" {
				s.FontDirs = append(s.FontDirs, dir)
			}
		}
	}
	tracer().Debugf("settings: %+v", s)
	return s, nil
}

func value(conf Configuration, key string) (string, bool) {
	if !conf.IsSet(key) {
		return "", false
	}
	v := strings.TrimSpace(conf.GetString(key))
	return v, v != ""
}

// ParseHinting parses "none", "vertical" or "full".
func ParseHinting(s string) (font.Hinting, error) {
	switch strings.ToLower(s) {
	case "none":
		return font.HintingNone, nil
	case "vertical":
		return font.HintingVertical, nil
	case "full":
		return font.HintingFull, nil
	}
	return font.HintingNone, fmt.Errorf("config: unknown hinting %q", s)
}
