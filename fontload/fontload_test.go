package fontload

import (
	"testing"

	gtfont "github.com/go-text/typesetting/font"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goregular"
)

func TestParseGoRegular(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.fonts")
	defer teardown()
	//
	p, err := Parse(goregular.TTF)
	require.NoError(t, err)
	assert.Equal(t, "Go", p.Family)
	assert.Equal(t, "Regular", p.Style)
	assert.Equal(t, gtfont.StyleNormal, p.Aspect.Style)
	assert.NotZero(t, p.ID)
	assert.True(t, p.Covers('A'))
	assert.False(t, p.Covers('\U0001F600'))
	assert.Contains(t, p.String(), p.FullName)
	//
	q, err := Parse(goregular.TTF)
	require.NoError(t, err)
	assert.Equal(t, p.ID, q.ID, "identical font bytes must share an id")
	b, err := Parse(gobolditalic.TTF)
	require.NoError(t, err)
	assert.NotEqual(t, p.ID, b.ID)
	assert.Equal(t, gtfont.StyleItalic, b.Aspect.Style)
}

func TestParseErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.fonts")
	defer teardown()
	//
	_, err := Parse(nil)
	assert.ErrorIs(t, err, ErrEmptyFontData)
	_, err = Parse([]byte("not a font"))
	assert.Error(t, err)
	_, err = Load("/does/not/exist.ttf")
	assert.Error(t, err)
	var p *Program
	assert.False(t, p.Covers('A'))
	assert.Equal(t, "<no font>", p.String())
}

func TestAspectFromStyle(t *testing.T) {
	a := AspectFromStyle("Bold Italic")
	assert.Equal(t, gtfont.StyleItalic, a.Style)
	assert.Equal(t, gtfont.WeightBold, a.Weight)
	a = AspectFromStyle("Semibold")
	assert.Equal(t, gtfont.StyleNormal, a.Style)
	assert.Equal(t, gtfont.WeightSemibold, a.Weight)
	a = AspectFromStyle("Regular")
	assert.Equal(t, gtfont.WeightNormal, a.Weight)
	assert.Equal(t, gtfont.StretchNormal, a.Stretch)
}
