/*
Package glyphcache is a concurrent cache for rendered glyphs, together with
a layout engine which positions them.

There is a certain confusion with the nomenclature of typesetting. We will
stick to the following definitions:

▪︎ A "font program" is the data of a single font file, e.g.
"Go Bold". See package fontload.

▪︎ A "font" is a font program together with everything influencing how
its glyphs look on the device: size, rotation, shear, hinting, rendering
mode. Its signature identifies it in the cache. See package cache.

▪︎ A "glyph" is the rendered shape of a code point in a font.

A Service bundles a font manager, a rasterizer and a glyph cache. Many
goroutines may use a service concurrently. Clients lay out text with
Layout, handing in a consumer which receives the positioned glyphs.

	gc, err := glyphcache.New(config.Default())
	font, err := gc.Font("Go", "Regular", 16)
	bounds, err := gc.Measure(font, "Hello World", layout.Options{})

# Packages

rwlock implements the recursive reader/writer lock guarding cache entries.
cache holds the entries and glyphs, layout positions glyphs, raster renders
them, fontload and fontmgr find and load font programs, config reads
settings.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package glyphcache

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'glyphcache'
func tracer() tracing.Trace {
	return tracing.Select("glyphcache")
}
