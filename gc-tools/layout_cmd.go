package main

import (
	"fmt"
	"strings"

	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/glyphcache/layout"
	"github.com/thatisuday/commando"
	"golang.org/x/text/unicode/runenames"
)

func runLayoutCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	gc := newService(flags, "gray")
	defer gc.Close()
	font := mustFont(gc, args, flags)
	input, err := parseTextInput(args["text"], flags["codepoints"])
	if err != nil {
		fatalf("%v", err)
	}
	opts := layout.Options{Kerning: mustFlagBool(flags["kerning"], "kerning")}
	if mustFlagBool(flags["precise"], "precise") {
		opts.Spacing = layout.SpacingPrecise
	}
	printer := &glyphPrinter{}
	if err := gc.Layout(printer, font, input, opts); err != nil {
		fatalf("layout failed: %v", err)
	}
	fmt.Printf("%s, %d code points\n", font, len([]rune(input)))
	fmt.Print(printer.String())
}

// glyphPrinter formats the glyph stream of a layout run, one line per
// code point.
type glyphPrinter struct {
	b strings.Builder
}

func (p *glyphPrinter) Start() {
	p.b.Reset()
}

func (p *glyphPrinter) ConsumeGlyph(index int, r rune, g *cache.GlyphRecord, owner *cache.Entry, x, y, advX, advY float64) bool {
	origin := "primary"
	if g.Fallback {
		origin = "fallback"
	}
	fmt.Fprintf(&p.b, "%3d %-8U %-28s gid=%-5d at (%7.2f,%6.2f) adv (%6.2f,%5.2f) %s\n",
		index, r, runeName(r), g.Index, x, y, advX, advY, origin)
	return true
}

func (p *glyphPrinter) ConsumeEmptyGlyph(index int, r rune, x, y float64) {
	fmt.Fprintf(&p.b, "%3d %-8U %-28s empty     at (%7.2f,%6.2f)\n", index, r, runeName(r), x, y)
}

func (p *glyphPrinter) Finish(x, y float64) {
	fmt.Fprintf(&p.b, "end at (%.2f,%.2f)\n", x, y)
}

func (p *glyphPrinter) String() string {
	return p.b.String()
}

func runeName(r rune) string {
	name := runenames.Name(r)
	if name == "" {
		return "<unnamed>"
	}
	if len(name) > 28 {
		name = name[:27] + "…"
	}
	return name
}
