package layout

import (
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/glyphcache/raster"
	"github.com/npillmayer/glyphcache/rwlock"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ------------------------------------------------------------

type fallbackTable map[string][]string

func (ft fallbackTable) FallbackFonts(primary cache.Font) []cache.Font {
	var fonts []cache.Font
	for _, family := range ft[primary.Family] {
		f := primary
		f.Family = family
		fonts = append(fonts, f)
	}
	return fonts
}

type event struct {
	kind       string
	index      int
	r          rune
	x, y       float64
	advX, advY float64
	fallback   bool
	owner      *cache.Entry
}

type recorder struct {
	events    []event
	stopAfter int
}

func (rec *recorder) Start() {
	rec.events = append(rec.events, event{kind: "start"})
}

func (rec *recorder) ConsumeGlyph(index int, r rune, g *cache.GlyphRecord, owner *cache.Entry, x, y, advX, advY float64) bool {
	rec.events = append(rec.events, event{kind: "glyph", index: index, r: r, x: x, y: y,
		advX: advX, advY: advY, fallback: g.Fallback, owner: owner})
	return rec.stopAfter <= 0 || len(rec.glyphs()) < rec.stopAfter
}

func (rec *recorder) ConsumeEmptyGlyph(index int, r rune, x, y float64) {
	rec.events = append(rec.events, event{kind: "empty", index: index, r: r, x: x, y: y})
}

func (rec *recorder) Finish(x, y float64) {
	rec.events = append(rec.events, event{kind: "finish", x: x, y: y})
}

func (rec *recorder) glyphs() []event {
	var gs []event
	for _, e := range rec.events {
		if e.kind == "glyph" {
			gs = append(gs, e)
		}
	}
	return gs
}

func (rec *recorder) last() event {
	return rec.events[len(rec.events)-1]
}

func newEnv() (Env, *raster.Synthetic) {
	syn := &raster.Synthetic{
		Coverage: map[string]string{
			"Sans":    "ABV ",
			"Symbols": "€→",
			"Emoji":   "→★",
		},
		Widths:  map[rune]float64{'€': 9, '→': 12},
		Kerning: map[[2]rune]float64{{'A', 'V'}: -1},
	}
	env := Env{
		Cache:     cache.New(syn),
		Fallbacks: fallbackTable{"Sans": {"Symbols", "Emoji"}},
	}
	return env, syn
}

func sans() cache.Font {
	return cache.Font{Family: "Sans", Style: "Regular", Size: 10}
}

// --- Tests -------------------------------------------------------------------

func TestLayoutAdvances(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.layout")
	defer teardown()
	//
	env, syn := newEnv()
	for pass := 0; pass < 2; pass++ {
		rec := &recorder{}
		require.NoError(t, Layout(env, rec, sans(), "AB", Options{}))
		require.Len(t, rec.events, 4)
		assert.Equal(t, "start", rec.events[0].kind)
		gs := rec.glyphs()
		assert.Equal(t, [2]float64{0, 0}, [2]float64{gs[0].x, gs[0].y})
		assert.Equal(t, [2]float64{7, 0}, [2]float64{gs[1].x, gs[1].y})
		assert.Equal(t, 7.0, gs[0].advX)
		assert.Equal(t, event{kind: "finish", x: 14}, rec.last())
	}
	assert.Equal(t, 2, syn.Renders("Sans"), "second pass uses cached glyphs")
	e, ok := env.Cache.Lookup(sans().Signature())
	require.True(t, ok)
	assert.Equal(t, uint64(2), e.UseCount())
	assert.Equal(t, 2, e.References(), "layout gave back its reference")
	env.Cache.Recycle(e)
}

func TestLayoutOffsets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.layout")
	defer teardown()
	//
	env, _ := newEnv()
	rec := &recorder{}
	offsets := []cache.Vec{{X: 5, Y: 5}, {X: 20, Y: 5}}
	require.NoError(t, Layout(env, rec, sans(), "AV", Options{Offsets: offsets, Kerning: true}))
	gs := rec.glyphs()
	require.Len(t, gs, 2)
	assert.Equal(t, [2]float64{5, 5}, [2]float64{gs[0].x, gs[0].y})
	assert.Equal(t, [2]float64{20, 5}, [2]float64{gs[1].x, gs[1].y}, "no kerning with offsets")
	assert.Equal(t, event{kind: "finish", x: 20, y: 5}, rec.last())
	//
	rec = &recorder{}
	err := Layout(env, rec, sans(), "AVA", Options{Offsets: offsets})
	assert.ErrorIs(t, err, ErrOffsets)
	assert.Empty(t, rec.events, "consumer must not be started")
}

func TestLayoutEmptyGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.layout")
	defer teardown()
	//
	env, _ := newEnv()
	rec := &recorder{}
	require.NoError(t, Layout(env, rec, sans(), "A☃B", Options{}))
	require.Len(t, rec.events, 5)
	assert.Equal(t, event{kind: "empty", index: 1, r: '☃', x: 7}, rec.events[2])
	gs := rec.glyphs()
	assert.Equal(t, 2, gs[1].index)
	assert.Equal(t, 7.0, gs[1].x, "empty glyph has no advance")
	assert.Equal(t, 14.0, rec.last().x)
}

func TestLayoutFallback(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.layout")
	defer teardown()
	//
	env, syn := newEnv()
	rec := &recorder{}
	require.NoError(t, Layout(env, rec, sans(), "A€→★", Options{}))
	gs := rec.glyphs()
	require.Len(t, gs, 4)
	assert.False(t, gs[0].fallback)
	assert.True(t, gs[1].fallback)
	assert.Equal(t, 7.0, gs[1].x)
	assert.Equal(t, 9.0, gs[1].advX)
	assert.True(t, gs[2].fallback)
	assert.Equal(t, 16.0, gs[2].x)
	assert.True(t, gs[3].fallback)
	assert.Equal(t, 1, syn.Renders("Emoji"), "→ is taken from the first fallback")
	assert.Equal(t, 2, syn.Renders("Symbols"))
	for _, g := range gs {
		assert.Same(t, gs[0].owner, g.owner, "fallback glyphs live in the primary entry")
	}
	h := rwlock.NewHolder()
	g, ok := gs[0].owner.CachedGlyph(h, '€')
	require.True(t, ok)
	assert.True(t, g.Fallback)
	//
	rec = &recorder{}
	require.NoError(t, Layout(env, rec, sans(), "€", Options{}))
	assert.Equal(t, 2, syn.Renders("Symbols"))
	infos := env.Cache.Entries()
	require.Len(t, infos, 3)
	for _, info := range infos {
		assert.Equal(t, 1, info.References, "%s still referenced", info.Font)
	}
}

func TestLayoutKerning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.layout")
	defer teardown()
	//
	env, _ := newEnv()
	rec := &recorder{}
	require.NoError(t, Layout(env, rec, sans(), "AVA", Options{Kerning: true}))
	gs := rec.glyphs()
	assert.Equal(t, 6.0, gs[1].x)
	assert.Equal(t, 13.0, gs[2].x, "V-A is not kerned")
	assert.Equal(t, 20.0, rec.last().x)
	//
	rec = &recorder{}
	require.NoError(t, Layout(env, rec, sans(), "AV", Options{}))
	assert.Equal(t, 7.0, rec.glyphs()[1].x, "kerning is off by default")
	//
	rec = &recorder{}
	require.NoError(t, Layout(env, rec, sans(), "A€V", Options{Kerning: true}))
	assert.Equal(t, 16.0, rec.glyphs()[2].x, "no kerning across fallback glyphs")
}

func TestLayoutSpacing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.layout")
	defer teardown()
	//
	env, _ := newEnv()
	rec := &recorder{}
	require.NoError(t, Layout(env, rec, sans(), "AB", Options{Spacing: SpacingPrecise}))
	assert.Equal(t, 7.25, rec.glyphs()[1].x)
	assert.Equal(t, 14.5, rec.last().x)
	//
	rec = &recorder{}
	deltas := &Deltas{Space: 2, NonSpace: 1}
	require.NoError(t, Layout(env, rec, sans(), "A B", Options{Deltas: deltas}))
	gs := rec.glyphs()
	assert.Equal(t, 8.0, gs[0].advX)
	assert.Equal(t, 9.0, gs[1].advX)
	assert.Equal(t, 17.0, gs[2].x)
	assert.Equal(t, 25.0, rec.last().x)
}

func TestLayoutLimits(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.layout")
	defer teardown()
	//
	env, _ := newEnv()
	rec := &recorder{}
	require.NoError(t, Layout(env, rec, sans(), "ABAB", Options{MaxGlyphs: 3}))
	assert.Len(t, rec.glyphs(), 3)
	assert.Equal(t, 21.0, rec.last().x)
	//
	rec = &recorder{stopAfter: 1}
	require.NoError(t, Layout(env, rec, sans(), "ABAB", Options{}))
	assert.Len(t, rec.glyphs(), 1)
	assert.Equal(t, "finish", rec.last().kind, "Finish follows an early stop")
	//
	rec = &recorder{}
	require.NoError(t, Layout(env, rec, sans(), "", Options{}))
	assert.Equal(t, []event{{kind: "start"}, {kind: "finish"}}, rec.events)
}

func TestLayoutWithoutEntry(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.layout")
	defer teardown()
	//
	env, _ := newEnv()
	rec := &recorder{}
	err := Layout(env, rec, cache.Font{Family: "Unknown", Size: 10}, "AB", Options{})
	assert.ErrorIs(t, err, cache.ErrNoEntry)
	assert.Empty(t, rec.events)
	//
	e, err := env.Cache.EntryFor(sans())
	require.NoError(t, err)
	defer env.Cache.Recycle(e)
	err = Layout(env, rec, sans(), "AB", Options{Entry: e})
	assert.ErrorIs(t, err, ErrHolder)
}

func TestLayoutCallerLockedEntry(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.layout")
	defer teardown()
	//
	env, _ := newEnv()
	e, err := env.Cache.EntryFor(sans())
	require.NoError(t, err)
	defer env.Cache.Recycle(e)
	h := rwlock.NewHolder()
	e.WriteLock(h)
	e.WriteLock(h)
	opts := Options{Entry: e, Holder: h}
	width, err := Width(env, sans(), "A€B", opts)
	require.NoError(t, err)
	assert.Equal(t, 23.0, width)
	dl := &DrawList{}
	require.NoError(t, Layout(env, dl, sans(), "A€B", opts))
	require.Len(t, dl.Commands, 3)
	assert.True(t, dl.Commands[1].Glyph.Fallback)
	assert.True(t, e.IsWriteLocked(h), "caller's lock is kept")
	e.WriteUnlock(h)
	assert.True(t, e.IsWriteLocked(h), "nesting depth is restored")
	e.WriteUnlock(h)
	assert.False(t, e.IsWriteLocked(h))
	//
	e.ReadLock(h)
	rec := &recorder{}
	require.NoError(t, Layout(env, rec, sans(), "AV", Options{Entry: e, Holder: h}))
	e.ReadUnlock(h)
	assert.Len(t, rec.glyphs(), 1)
	assert.Equal(t, "empty", rec.events[2].kind, "V cannot be created under a read lock")
}

func TestConsumers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.layout")
	defer teardown()
	//
	env, _ := newEnv()
	b, err := Measure(env, sans(), "A B☃", Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, b.Glyphs)
	assert.Equal(t, 1, b.Empty)
	assert.Equal(t, 21.0, b.Pen.X)
	assert.Equal(t, Rect{MinX: 0, MinY: -7, MaxX: 20, MaxY: 0}, b.Ink)
	//
	dl := &DrawList{Limit: 2}
	require.NoError(t, Layout(env, dl, sans(), "ABAB", Options{}))
	assert.Len(t, dl.Commands, 2)
	assert.Equal(t, 7.0, dl.Pen.X)
	//
	m := NewMask(40, 20, image.Pt(2, 15))
	require.NoError(t, Layout(env, m, sans(), "AB", Options{}))
	assert.Equal(t, 2, m.Drawn)
	assert.Equal(t, uint8(0xff), m.Dst.AlphaAt(3, 10).A)
	assert.Equal(t, uint8(0), m.Dst.AlphaAt(8, 10).A, "gap between glyph boxes")
	assert.Equal(t, uint8(0), m.Dst.AlphaAt(3, 16).A, "below the baseline")
}

// Two fonts serve as each other's fallback. Concurrent layouts with
// swapped roles must not deadlock.
func TestLayoutSwappedFallbacksDoNotDeadlock(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "glyphcache.layout")
	defer teardown()
	tracer().SetTraceLevel(tracing.LevelError)
	//
	syn := &raster.Synthetic{
		Coverage: map[string]string{
			"Odd":  "acegikmoqsuwy",
			"Even": "bdfhjlnprtvxz",
		},
		Delay: 20 * time.Microsecond,
	}
	env := Env{
		Cache:     cache.New(syn, cache.WithCapacity(12)),
		Fallbacks: fallbackTable{"Odd": {"Even"}, "Even": {"Odd"}},
	}
	const workers, rounds = 8, 150
	done := make(chan struct{})
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			family, text := "Odd", "abcdefghijklmnopqrstuvwxyz"
			if w%2 == 1 {
				family, text = "Even", "zyxwvutsrqponmlkjihgfedcba"
			}
			for i := 0; i < rounds; i++ {
				font := cache.Font{Family: family, Size: float64(10 + i%20)}
				rec := &recorder{}
				if err := Layout(env, rec, font, text, Options{}); err != nil {
					errs <- err
					return
				}
				if n := len(rec.glyphs()); n != 26 {
					errs <- fmt.Errorf("worker %d: %d glyphs", w, n)
					return
				}
			}
		}(w)
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(60 * time.Second):
		t.Fatal("layouts did not complete, deadlock suspected")
	}
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.LessOrEqual(t, env.Cache.Len(), 12)
}
