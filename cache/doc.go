/*
Package cache holds rendered glyphs, grouped by font configuration.

A Cache is a bounded registry of Entries, one per distinct font
configuration (identified by its Signature). An Entry owns the glyph
source for its font and an append-only map from code point to
GlyphRecord. Glyph records are immutable once created and stay valid for
as long as their entry lives.

Entries are reference counted. The registry holds one reference to every
entry it lists; each client obtaining an entry through EntryFor or Lookup
holds another one and gives it back with Recycle. When the registry runs
full, the entry with the lowest usage index (uses per second since last
use) is removed from the registry. Clients still holding it may go on using
it; the entry is destroyed when its last reference is dropped.

Locking: every Entry carries a recursive reader/writer lock
(see package rwlock). Glyph lookups need at least the shared lock,
glyph creation needs the exclusive lock. The registry has its own lock,
which is never held while waiting for an entry lock.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package cache

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glyphcache.cache'
func tracer() tracing.Trace {
	return tracing.Select("glyphcache.cache")
}

var (
	// ErrNoEntry is returned if no cache entry can be created for a font.
	ErrNoEntry = errors.New("cache: no entry for font")
	// ErrNoGlyph is returned if a glyph cannot be produced.
	ErrNoGlyph = errors.New("cache: cannot produce glyph")
)

func mustHold(condition bool, msg string, args ...any) {
	if !condition {
		panic(fmt.Sprintf("cache: "+msg, args...))
	}
}
