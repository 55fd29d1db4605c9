package fontmgr

import (
	"testing"
	"testing/fstest"

	gtfont "github.com/go-text/typesetting/font"
	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

type ManagerTestEnviron struct {
	suite.Suite
	fonts *Manager
}

func TestManager(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.fonts")
	defer teardown()
	//
	suite.Run(t, new(ManagerTestEnviron))
}

func (env *ManagerTestEnviron) SetupSuite() {
	env.fonts = New()
	env.Require().NoError(env.fonts.RegisterGoFonts())
}

func (env *ManagerTestEnviron) TestFamilies() {
	families := env.fonts.Families()
	env.Contains(families, "Go")
	env.Contains(families, "Go Mono")
	env.Contains(families, "Go Smallcaps")
	env.Len(env.fonts.Programs(), 7)
}

func (env *ManagerTestEnviron) TestDuplicateProgram() {
	p := env.fonts.Programs()[0]
	env.False(env.fonts.Add(p))
	_, err := env.fonts.AddBytes(goregular.TTF)
	env.NoError(err)
	env.Len(env.fonts.Programs(), 7)
}

func (env *ManagerTestEnviron) TestFaceByStyleName() {
	p, err := env.fonts.Face("go", "bold", gtfont.Aspect{})
	env.Require().NoError(err)
	env.Equal("Bold", p.Style)
	p, err = env.fonts.Face("Go Mono", "Regular", gtfont.Aspect{})
	env.Require().NoError(err)
	env.Equal("Go Mono", p.Family)
}

func (env *ManagerTestEnviron) TestFaceByAspect() {
	p, err := env.fonts.Face("Go", "", gtfont.Aspect{Weight: gtfont.WeightBold})
	env.Require().NoError(err)
	env.Equal("Bold", p.Style)
	p, err = env.fonts.Face("Go", "", gtfont.Aspect{Style: gtfont.StyleItalic, Weight: gtfont.WeightBold})
	env.Require().NoError(err)
	env.Equal("Bold Italic", p.Style)
	p, err = env.fonts.Face("Go", "", gtfont.Aspect{})
	env.Require().NoError(err)
	env.Equal("Regular", p.Style)
	p, err = env.fonts.Face("Go", "Semibold Oblique", gtfont.Aspect{})
	env.Require().NoError(err)
	env.Equal("Bold Italic", p.Style, "closest match")
}

func (env *ManagerTestEnviron) TestNoSuchFace() {
	_, err := env.fonts.Face("Helvetica", "", gtfont.Aspect{})
	env.ErrorIs(err, ErrNoSuchFont)
}

func (env *ManagerTestEnviron) TestFallbackFonts() {
	regular, err := env.fonts.Face("Go", "Regular", gtfont.Aspect{})
	env.Require().NoError(err)
	specs, err := ParseFallbacks("Go Mono, Go:Regular, Nowhere, Go:Italic")
	env.Require().NoError(err)
	env.fonts.SetFallbacks(specs...)
	defer env.fonts.SetFallbacks()
	primary := cache.Font{Program: regular, Family: "Go", Style: "Regular", Size: 17, Mode: cache.RenderMono}
	fonts := env.fonts.FallbackFonts(primary)
	env.Require().Len(fonts, 2)
	env.Equal("Go Mono", fonts[0].Family)
	env.Equal("Italic", fonts[1].Style)
	for _, f := range fonts {
		env.Equal(17.0, f.Size)
		env.Equal(cache.RenderMono, f.Mode)
		env.NotEqual(primary.Signature(), f.Signature())
	}
}

func TestLoadFS(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.fonts")
	defer teardown()
	//
	fsys := fstest.MapFS{
		"fonts/Go-Regular.ttf":    {Data: goregular.TTF},
		"fonts/sub/Go-Italic.TTF": {Data: goitalic.TTF},
		"fonts/broken.otf":        {Data: []byte("not a font")},
		"fonts/README.md":         {Data: []byte("# fonts")},
	}
	m := New()
	err := m.LoadFS(fsys)
	assert.Error(t, err, "broken font is reported")
	assert.Contains(t, err.Error(), "broken.otf")
	require.Len(t, m.Programs(), 2)
	assert.Equal(t, []string{"Go"}, m.Families())
}

func TestParseFallback(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.fonts")
	defer teardown()
	//
	spec, err := ParseFallback("Noto Sans")
	require.NoError(t, err)
	assert.Equal(t, "Noto Sans", spec.Family)
	assert.Empty(t, spec.Style)
	spec, err = ParseFallback(" Noto Sans : Bold Italic ")
	require.NoError(t, err)
	assert.Equal(t, "Bold Italic", spec.Style)
	assert.Equal(t, gtfont.StyleItalic, spec.Aspect.Style)
	assert.Equal(t, gtfont.WeightBold, spec.Aspect.Weight)
	spec, err = ParseFallback("Go::300")
	require.NoError(t, err)
	assert.Equal(t, gtfont.Weight(300), spec.Aspect.Weight)
	assert.Equal(t, "Go::300", spec.String())
	for _, bad := range []string{"", ":Bold", "Go:Bold:heavy", "Go:Bold:0", "a:b:c:d"} {
		_, err = ParseFallback(bad)
		assert.Error(t, err, bad)
	}
	specs, err := ParseFallbacks("A, ,B:Italic")
	require.NoError(t, err)
	assert.Len(t, specs, 2)
}
