package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg)
	return nil, false
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	t := strings.ToLower(strings.TrimSpace(topic))
	switch t {
	case "font", "fonts":
		pterm.Info.Println("font:<family>[:<style>]:<size>")
		pterm.Println(`
	Selects the font for subsequent commands, e.g.
	  font:Go:16
	  font:Go Mono:Bold:20
	Styles are matched by subfamily name first ("Bold Italic"),
	then by weight and slant.
	`)
	case "layout", "measure":
		pterm.Info.Println("layout:<text> / measure:<text>")
		pterm.Println(`
	layout prints one line per code point: its glyph index, pen position
	and advance, and whether the glyph came from a fallback font.
	Code points no font can render are shown as empty.
	measure prints the ink box and the final pen position.
	`)
	case "stats", "entries", "cache":
		pterm.Info.Println("stats / entries")
		pterm.Println(`
	stats shows hits, misses and evictions of the glyph cache.
	entries lists the cached fonts: references, uses, last use, glyphs.
	Fonts with the lowest uses per second since last use are evicted first.
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	font:<family>[:<style>]:<size>   select font
	layout:<text>                    lay out text, print glyph stream
	measure:<text>                   measure text
	glyph:<char>                     show a glyph's metrics
	stats                            cache statistics
	entries                          cached fonts
	help[:<topic>]                   help on font, layout, stats
	quit                             leave
	`)
	}
}
