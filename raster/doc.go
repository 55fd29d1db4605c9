/*
Package raster produces glyph sources for the glyph cache.

Rasterizer renders glyphs of OpenType font programs, using the SFNT
outlines of golang.org/x/image/font/sfnt and the anti-aliasing rasterizer
of golang.org/x/image/vector. Depending on a font's render mode a glyph's
payload is an 8-bit coverage bitmap, a packed 1-bit bitmap, or an encoded
outline (see EncodeOutline).

Synthetic is a deterministic stand-in which needs no font data. It is
meant for tests and load experiments.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package raster

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glyphcache.raster'
func tracer() tracing.Trace {
	return tracing.Select("glyphcache.raster")
}

var (
	// ErrNoProgram is returned for a font without a usable font program.
	ErrNoProgram = errors.New("raster: font has no font program")
	// ErrSize is returned for font sizes which are not positive.
	ErrSize = errors.New("raster: font size must be positive")
	// ErrNotMapped is returned for code points the font does not cover.
	ErrNotMapped = errors.New("raster: code point not mapped")
	// ErrOutline is returned for malformed outline payloads.
	ErrOutline = errors.New("raster: malformed outline data")
)
