package cache

import (
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/npillmayer/glyphcache/rwlock"
)

// Entry holds the glyphs of one font configuration.
//
// The glyph map is guarded by the entry's lock; reference count and usage
// statistics are atomic and may be read without locking.
type Entry struct {
	id        uint64
	font      Font
	sig       Signature
	lock      *rwlock.RWLock
	source    GlyphSource
	glyphs    map[rune]*GlyphRecord
	refs      atomic.Int32
	uses      atomic.Uint64
	lastUsed  atomic.Int64 // unix nanoseconds
	destroyed atomic.Bool
	now       func() time.Time
	onDestroy func(*Entry)
}

func newEntry(id uint64, font Font, sig Signature, source GlyphSource, now func() time.Time) *Entry {
	e := &Entry{
		id:     id,
		font:   font,
		sig:    sig,
		lock:   rwlock.New(),
		source: source,
		glyphs: make(map[rune]*GlyphRecord),
		now:    now,
	}
	e.lastUsed.Store(now().UnixNano())
	return e
}

// ID returns the entry's serial number. Entries created later have
// higher IDs; multiple entries are always locked in ascending ID order.
func (e *Entry) ID() uint64 { return e.id }

// Font returns the font configuration of e.
func (e *Entry) Font() Font { return e.font }

// Signature returns the signature of e's font configuration.
func (e *Entry) Signature() Signature { return e.sig }

func (e *Entry) String() string {
	return fmt.Sprintf("entry#%d(%s)", e.id, e.font)
}

// --- Locking ---------------------------------------------------------------

func (e *Entry) ReadLock(h *rwlock.Holder)    { e.lock.ReadLock(h) }
func (e *Entry) ReadUnlock(h *rwlock.Holder)  { e.lock.ReadUnlock(h) }
func (e *Entry) WriteLock(h *rwlock.Holder)   { e.lock.WriteLock(h) }
func (e *Entry) WriteUnlock(h *rwlock.Holder) { e.lock.WriteUnlock(h) }

// IsWriteLocked reports whether h holds the exclusive lock of e.
func (e *Entry) IsWriteLocked(h *rwlock.Holder) bool { return e.lock.IsWriteLocked(h) }

// Suspend fully releases h's exclusive lock on e, remembering its depth.
func (e *Entry) Suspend(h *rwlock.Holder) rwlock.Suspension { return e.lock.Suspend(h) }

// Resume re-acquires a lock released by Suspend at its former depth.
func (e *Entry) Resume(h *rwlock.Holder, s rwlock.Suspension) { e.lock.Resume(h, s) }

// --- Glyphs ----------------------------------------------------------------

// HasGlyphs reports whether every code point of text already has a glyph
// in e. It takes the shared lock.
func (e *Entry) HasGlyphs(h *rwlock.Holder, text string) bool {
	e.lock.ReadLock(h)
	defer e.lock.ReadUnlock(h)
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if _, ok := e.glyphs[r]; !ok {
			return false
		}
	}
	return true
}

// CachedGlyph looks up the glyph for r under the shared lock.
func (e *Entry) CachedGlyph(h *rwlock.Holder, r rune) (*GlyphRecord, bool) {
	e.lock.ReadLock(h)
	defer e.lock.ReadUnlock(h)
	g, ok := e.glyphs[r]
	return g, ok
}

// Glyph looks up the glyph for r. The caller must hold the shared or the
// exclusive lock of e.
func (e *Entry) Glyph(r rune) (*GlyphRecord, bool) {
	g, ok := e.glyphs[r]
	return g, ok
}

// CreateGlyph produces the glyph for r and stores it in e. If fallback is
// not nil, the glyph is rendered by the fallback entry's source and marked
// as a fallback glyph; h must then hold the exclusive lock of fallback.
// CreateGlyph takes the exclusive lock of e (re-entrantly if h already
// holds it). If another writer stored a glyph for r first, that glyph is
// returned.
func (e *Entry) CreateGlyph(h *rwlock.Holder, r rune, fallback *Entry) (*GlyphRecord, error) {
	mustHold(!e.destroyed.Load(), "glyph creation in destroyed %s", e)
	e.lock.WriteLock(h)
	defer e.lock.WriteUnlock(h)
	if g, ok := e.glyphs[r]; ok {
		return g, nil
	}
	source := e.source
	if fallback != nil {
		mustHold(fallback.IsWriteLocked(h), "fallback %s not locked exclusively", fallback)
		source = fallback.source
	}
	rec, err := source.Render(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %#U in %s: %v", ErrNoGlyph, r, e, err)
	}
	rec.Fallback = fallback != nil
	g := &rec
	e.glyphs[r] = g
	tracer().Debugf("%s: created glyph for %#U (fallback=%v)", e, r, g.Fallback)
	return g, nil
}

// CanRender reports whether e's own font can produce a glyph for r.
func (e *Entry) CanRender(r rune) bool {
	return e.source.CanRender(r)
}

// Kerning returns the horizontal kerning adjustment in pixels between two
// glyphs of e's font.
func (e *Entry) Kerning(left, right GlyphIndex) float64 {
	return e.source.Kern(left, right)
}

// GlyphCount returns the number of glyphs stored in e.
func (e *Entry) GlyphCount(h *rwlock.Holder) int {
	e.lock.ReadLock(h)
	defer e.lock.ReadUnlock(h)
	return len(e.glyphs)
}

// --- Usage and references --------------------------------------------------

// UpdateUsage counts a use of e and sets its last-used time to now.
func (e *Entry) UpdateUsage() {
	e.uses.Add(1)
	e.lastUsed.Store(e.now().UnixNano())
}

// UseCount returns the number of completed uses of e.
func (e *Entry) UseCount() uint64 { return e.uses.Load() }

// LastUsed returns the time of the last completed use of e, or its
// creation time.
func (e *Entry) LastUsed() time.Time { return time.Unix(0, e.lastUsed.Load()) }

// UsageIndex returns uses per second since the last use. A zero or
// negative elapsed time is clamped to one nanosecond.
func (e *Entry) UsageIndex(now time.Time) float64 {
	elapsed := now.Sub(e.LastUsed())
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	return float64(e.UseCount()) / elapsed.Seconds()
}

// References returns the current reference count of e.
func (e *Entry) References() int { return int(e.refs.Load()) }

// Destroyed reports whether e has been destroyed.
func (e *Entry) Destroyed() bool { return e.destroyed.Load() }

// AcquireReference adds a reference to e. The caller must already own a
// reference or hold the registry lock.
func (e *Entry) AcquireReference() {
	n := e.refs.Add(1)
	mustHold(n > 1 && !e.destroyed.Load(), "reference acquired on released %s", e)
}

// ReleaseReference drops a reference to e and destroys e when it was the
// last one. It returns true if e has been destroyed.
func (e *Entry) ReleaseReference() bool {
	n := e.refs.Add(-1)
	mustHold(n >= 0, "reference count of %s below zero", e)
	if n > 0 {
		return false
	}
	e.destroy()
	return true
}

func (e *Entry) destroy() {
	if !e.destroyed.CompareAndSwap(false, true) {
		return
	}
	tracer().Debugf("destroying %s with %d glyphs", e, len(e.glyphs))
	e.glyphs = nil
	e.source.Release()
	if e.onDestroy != nil {
		e.onDestroy(e)
	}
}
