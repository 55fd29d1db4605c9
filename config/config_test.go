package config

import (
	"testing"

	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
)

func TestDefaults(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache")
	defer teardown()
	//
	s, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
	s, err = Load(testconfig.Conf{})
	require.NoError(t, err)
	assert.Equal(t, cache.DefaultCapacity, s.Capacity)
	assert.Equal(t, font.HintingFull, s.Hinting)
}

func TestLoad(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache")
	defer teardown()
	//
	conf := testconfig.Conf{
		KeyCapacity:  "12",
		KeyFallbacks: "Noto Sans Symbols, Go Mono:Bold",
		KeyHinting:   "none",
		KeyRendering: "Outline",
		KeySubpixel:  "true",
		KeyFontDirs:  "/usr/share/fonts",
	}
	s, err := Load(conf)
	require.NoError(t, err)
	assert.Equal(t, 12, s.Capacity)
	require.Len(t, s.Fallbacks, 2)
	assert.Equal(t, "Noto Sans Symbols", s.Fallbacks[0].Family)
	assert.Equal(t, "Bold", s.Fallbacks[1].Style)
	assert.Equal(t, font.HintingNone, s.Hinting)
	assert.Equal(t, cache.RenderOutline, s.Mode)
	assert.True(t, s.Subpixel)
	assert.Equal(t, []string{"/usr/share/fonts"}, s.FontDirs)
}

func TestLoadErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache")
	defer teardown()
	//
	for _, conf := range []testconfig.Conf{
		{KeyCapacity: "0"},
		{KeyCapacity: "many"},
		{KeyFallbacks: ":Bold"},
		{KeyHinting: "some"},
		{KeyRendering: "color"},
		{KeySubpixel: "perhaps"},
	} {
		_, err := Load(conf)
		assert.Error(t, err, "%v", conf)
	}
}
