package layout

import (
	"fmt"
	"iter"
	"unicode"
	"unicode/utf8"

	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/glyphcache/rwlock"
)

// Consumer receives the glyphs of a layout run.
//
// ConsumeGlyph gets the glyph for the code point at position index, the
// entry owning it, its pen position and its advance. Returning false ends
// the run. Code points no font can produce are reported with
// ConsumeEmptyGlyph. Finish is always called last, with the final pen
// position.
type Consumer interface {
	Start()
	ConsumeGlyph(index int, r rune, g *cache.GlyphRecord, owner *cache.Entry, x, y, advX, advY float64) bool
	ConsumeEmptyGlyph(index int, r rune, x, y float64)
	Finish(x, y float64)
}

// FallbackProvider lists fallback fonts for a primary font, in order of
// preference.
type FallbackProvider interface {
	FallbackFonts(primary cache.Font) []cache.Font
}

// Env bundles the collaborators of layout runs.
type Env struct {
	Cache     *cache.Cache
	Fallbacks FallbackProvider // may be nil
}

// Spacing selects which glyph advance to use.
type Spacing uint8

const (
	SpacingQuantized Spacing = iota // advances rounded for the device
	SpacingPrecise                  // unrounded advances
)

// Deltas are extra horizontal spacing added to each glyph's advance.
type Deltas struct {
	Space    float64 // for white space code points
	NonSpace float64 // for all other code points
}

// Options control a layout run. The zero value lays out the whole text
// with quantized advances and without kerning.
type Options struct {
	MaxGlyphs int // maximum number of code points, 0 for all
	Spacing   Spacing
	Kerning   bool
	Offsets   []cache.Vec // explicit glyph positions, one per code point
	Deltas    *Deltas
	// Entry is the primary font's cache entry, already locked by Holder,
	// for running several passes over a text under a single lock.
	// Layout neither unlocks nor recycles it.
	//
	// If Entry is write-locked and a glyph has to be taken from a fallback
	// font, Layout suspends the write lock (at any nesting depth) while it
	// locks the primary and the fallback entry in ID order, then resumes it
	// with the same depth. Other writers may modify Entry in that window, so
	// a multi-pass caller must not assume the entry's glyph set is unchanged
	// between passes. A read-locked Entry is never released.
	Entry  *cache.Entry
	Holder *rwlock.Holder
}

// Layout lays out text in font and reports the glyphs to consumer.
func Layout[C Consumer](env Env, consumer C, font cache.Font, text string, opts Options) error {
	text = truncate(text, opts.MaxGlyphs)
	if opts.Offsets != nil {
		if n := utf8.RuneCountInString(text); len(opts.Offsets) < n {
			return fmt.Errorf("%w: %d offsets for %d code points", ErrOffsets, len(opts.Offsets), n)
		}
	}
	lr := &layoutRun{env: env, entry: opts.Entry, holder: opts.Holder}
	if lr.entry == nil {
		if err := lr.acquire(font, text); err != nil {
			return err
		}
	} else if lr.holder == nil {
		return ErrHolder
	} else {
		lr.writing = lr.entry.IsWriteLocked(lr.holder)
	}
	defer lr.release()
	//
	consumer.Start()
	var x, y float64
	var prev *cache.GlyphRecord
	index := 0
	for r := range codePoints(text) {
		if opts.Offsets != nil {
			x, y = opts.Offsets[index].X, opts.Offsets[index].Y
		}
		g := lr.glyph(r)
		if g == nil {
			consumer.ConsumeEmptyGlyph(index, r, x, y)
			prev = nil
			index++
			continue
		}
		if opts.Kerning && opts.Offsets == nil && prev != nil && !prev.Fallback && !g.Fallback {
			x += lr.entry.Kerning(prev.Index, g.Index)
		}
		adv := g.Advance
		if opts.Spacing == SpacingPrecise {
			adv = g.PreciseAdvance
		}
		if opts.Deltas != nil {
			if unicode.IsSpace(r) {
				adv.X += opts.Deltas.Space
			} else {
				adv.X += opts.Deltas.NonSpace
			}
		}
		if !consumer.ConsumeGlyph(index, r, g, lr.entry, x, y, adv.X, adv.Y) {
			break
		}
		if opts.Offsets == nil {
			x += adv.X
			y += adv.Y
		}
		prev = g
		index++
	}
	consumer.Finish(x, y)
	return nil
}

// codePoints decodes text lazily. Invalid UTF-8 yields U+FFFD.
func codePoints(text string) iter.Seq[rune] {
	return func(yield func(rune) bool) {
		for i := 0; i < len(text); {
			r, size := utf8.DecodeRuneInString(text[i:])
			if !yield(r) {
				return
			}
			i += size
		}
	}
}

func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	i := 0
	for n := 0; n < max && i < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return text[:i]
}

// --- Layout run --------------------------------------------------------------

// layoutRun holds the locks and references of one layout call.
type layoutRun struct {
	env       Env
	entry     *cache.Entry // primary
	holder    *rwlock.Holder
	owned     bool // entry acquired (and locked) by this run
	writing   bool // holder has the entry locked exclusively
	fallbacks []*cache.Entry
	built     bool // fallbacks have been looked up
}

func (lr *layoutRun) acquire(font cache.Font, text string) error {
	entry, err := lr.env.Cache.EntryFor(font)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	lr.entry, lr.holder, lr.owned = entry, rwlock.NewHolder(), true
	if entry.HasGlyphs(lr.holder, text) {
		entry.ReadLock(lr.holder)
	} else {
		entry.WriteLock(lr.holder)
		lr.writing = true
	}
	return nil
}

// release gives back fallback entries, then the primary entry.
func (lr *layoutRun) release() {
	for i := len(lr.fallbacks) - 1; i >= 0; i-- {
		lr.env.Cache.Recycle(lr.fallbacks[i])
	}
	lr.fallbacks = nil
	if !lr.owned {
		return
	}
	if lr.writing {
		lr.entry.WriteUnlock(lr.holder)
	} else {
		lr.entry.ReadUnlock(lr.holder)
	}
	lr.env.Cache.Recycle(lr.entry)
}

// glyph returns the glyph for r, creating it if necessary, or nil if no
// font can produce it.
func (lr *layoutRun) glyph(r rune) *cache.GlyphRecord {
	if g, ok := lr.entry.Glyph(r); ok {
		return g
	}
	if !lr.writing {
		tracer().Infof("%#U missing in read-locked %s", r, lr.entry)
		return nil
	}
	if lr.entry.CanRender(r) {
		g, err := lr.entry.CreateGlyph(lr.holder, r, nil)
		if err != nil {
			tracer().Errorf("%v", err)
			return nil
		}
		return g
	}
	fallback := lr.fallbackFor(r)
	if fallback == nil {
		tracer().Debugf("no font for %#U", r)
		return nil
	}
	return lr.createFromFallback(r, fallback)
}

func (lr *layoutRun) fallbackFor(r rune) *cache.Entry {
	if !lr.built {
		lr.built = true
		lr.buildFallbacks()
	}
	for _, e := range lr.fallbacks {
		if e.CanRender(r) {
			return e
		}
	}
	return nil
}

// buildFallbacks looks up the cache entries of all fallback fonts.
// Fallbacks without an entry are skipped.
func (lr *layoutRun) buildFallbacks() {
	if lr.env.Fallbacks == nil {
		return
	}
	for _, font := range lr.env.Fallbacks.FallbackFonts(lr.entry.Font()) {
		e, err := lr.env.Cache.EntryFor(font)
		if err != nil {
			tracer().Errorf("fallback skipped: %v", err)
			continue
		}
		if e == lr.entry {
			lr.env.Cache.Recycle(e)
			continue
		}
		lr.fallbacks = append(lr.fallbacks, e)
	}
	tracer().Debugf("%d fallback fonts for %s", len(lr.fallbacks), lr.entry)
}

// createFromFallback creates the glyph for r in the primary entry, rendered
// by the fallback entry. Both entries are locked in ascending ID order, so
// the primary's lock is suspended first and resumed in its place in the
// order. On return the primary is write-locked as before.
func (lr *layoutRun) createFromFallback(r rune, fallback *cache.Entry) *cache.GlyphRecord {
	h := lr.holder
	suspended := lr.entry.Suspend(h)
	if lr.entry.ID() < fallback.ID() {
		lr.entry.Resume(h, suspended)
		fallback.WriteLock(h)
	} else {
		fallback.WriteLock(h)
		lr.entry.Resume(h, suspended)
	}
	g, err := lr.entry.CreateGlyph(h, r, fallback) // returns a glyph created meanwhile
	fallback.WriteUnlock(h)
	if err != nil {
		tracer().Errorf("%v", err)
		return nil
	}
	return g
}
