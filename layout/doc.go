/*
Package layout positions the glyphs of a text run.

Layout walks the code points of a text, fetches each glyph from the glyph
cache (creating it if necessary, possibly from a fallback font), computes
pen positions and hands everything to a Consumer. Consumers decide what to
do with the glyphs: measure them, collect draw commands, or paint them
into a mask.

Layout holds the primary font's cache entry locked for the whole run,
shared if all glyphs are present already, exclusively otherwise. Glyphs
missing from the primary font are taken from fallback fonts and stored in
the primary entry. Creating such a glyph needs both entries locked
exclusively; entries are always locked in ascending ID order, which keeps
concurrent layouts with swapped primary and fallback fonts from
deadlocking.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package layout

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glyphcache.layout'
func tracer() tracing.Trace {
	return tracing.Select("glyphcache.layout")
}

var (
	// ErrOffsets is returned if fewer explicit offsets than code points
	// are given.
	ErrOffsets = errors.New("layout: not enough glyph offsets for text")
	// ErrHolder is returned if a caller-locked entry comes without holder.
	ErrHolder = errors.New("layout: locked entry needs its lock holder")
)
