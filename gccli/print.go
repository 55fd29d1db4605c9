package main

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/glyphcache/layout"
	"github.com/npillmayer/glyphcache/rwlock"
	"github.com/pterm/pterm"
	"golang.org/x/text/unicode/runenames"
)

var errNoText = errors.New("no text given")

// tableConsumer collects the glyph stream of a layout run as table rows.
type tableConsumer struct {
	data [][]string
	end  cache.Vec
}

func (tc *tableConsumer) Start() {
	tc.data = [][]string{
		{"#", "Code point", "Name", "GID", "Position", "Advance", "Font"},
	}
}

func (tc *tableConsumer) ConsumeGlyph(index int, r rune, g *cache.GlyphRecord, owner *cache.Entry, x, y, advX, advY float64) bool {
	origin := "primary"
	if g.Fallback {
		origin = "fallback"
	}
	tc.data = append(tc.data, []string{
		fmt.Sprintf("%d", index),
		fmt.Sprintf("%U", r),
		runenames.Name(r),
		fmt.Sprintf("%d", g.Index),
		fmt.Sprintf("%.2f, %.2f", x, y),
		fmt.Sprintf("%.2f, %.2f", advX, advY),
		origin,
	})
	return true
}

func (tc *tableConsumer) ConsumeEmptyGlyph(index int, r rune, x, y float64) {
	tc.data = append(tc.data, []string{
		fmt.Sprintf("%d", index),
		fmt.Sprintf("%U", r),
		runenames.Name(r),
		"-",
		fmt.Sprintf("%.2f, %.2f", x, y),
		"-",
		"none",
	})
}

func (tc *tableConsumer) Finish(x, y float64) {
	tc.end = cache.Vec{X: x, Y: y}
}

func layoutOp(intp *Intp, op *Op) (error, bool) {
	if op.arg == "" {
		return errNoText, false
	}
	tc := &tableConsumer{}
	if err := intp.gc.Layout(tc, intp.font, op.arg, layout.Options{Kerning: true}); err != nil {
		return err, false
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(tc.data).Render(); err != nil {
		return err, false
	}
	pterm.Printf("pen ends at (%.2f, %.2f)\n", tc.end.X, tc.end.Y)
	return nil, false
}

func measureOp(intp *Intp, op *Op) (error, bool) {
	if op.arg == "" {
		return errNoText, false
	}
	b, err := intp.gc.Measure(intp.font, op.arg, layout.Options{Kerning: true})
	if err != nil {
		return err, false
	}
	pterm.Printf("glyphs: %d, empty: %d\n", b.Glyphs, b.Empty)
	pterm.Printf("ink: (%.2f, %.2f) – (%.2f, %.2f)\n", b.Ink.MinX, b.Ink.MinY, b.Ink.MaxX, b.Ink.MaxY)
	pterm.Printf("advance: %.2f, %.2f\n", b.Pen.X, b.Pen.Y)
	return nil, false
}

// glyphOp shows the cached glyph of a single character, creating it if
// necessary.
func glyphOp(intp *Intp, op *Op) (error, bool) {
	r, size := utf8.DecodeRuneInString(op.arg)
	if size == 0 || r == utf8.RuneError {
		return errNoText, false
	}
	entry, err := intp.gc.Cache().EntryFor(intp.font)
	if err != nil {
		return err, false
	}
	defer intp.gc.Cache().Recycle(entry)
	h := rwlock.NewHolder()
	g, ok := entry.CachedGlyph(h, r)
	if !ok {
		if !entry.CanRender(r) {
			return fmt.Errorf("%U is not covered by %s", r, intp.font), false
		}
		if g, err = entry.CreateGlyph(h, r, nil); err != nil {
			return err, false
		}
	}
	data := [][]string{
		{"Property", "Value"},
		{"Code point", fmt.Sprintf("%U %s", r, runenames.Name(r))},
		{"Glyph index", fmt.Sprintf("%d", g.Index)},
		{"Payload", fmt.Sprintf("%s, %d bytes", payloadName(g.Kind), len(g.Payload))},
		{"Bounds", fmt.Sprintf("%v", g.Bounds)},
		{"Advance", fmt.Sprintf("%.2f, %.2f", g.Advance.X, g.Advance.Y)},
		{"Precise advance", fmt.Sprintf("%.4f, %.4f", g.PreciseAdvance.X, g.PreciseAdvance.Y)},
		{"Insets", fmt.Sprintf("%.2f / %.2f", g.LeftInset, g.RightInset)},
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render(), false
}

func payloadName(k cache.PayloadKind) string {
	switch k {
	case cache.PayloadGray8:
		return "gray"
	case cache.PayloadMono:
		return "mono"
	case cache.PayloadOutline:
		return "outline"
	}
	return "none"
}

func statsOp(intp *Intp, op *Op) (error, bool) {
	st := intp.gc.Cache().Stats()
	data := [][]string{
		{"Entries", "Capacity", "Hits", "Misses", "Failures", "Evictions", "Destroyed"},
		{
			fmt.Sprintf("%d", st.Entries), fmt.Sprintf("%d", intp.gc.Cache().Capacity()),
			fmt.Sprintf("%d", st.Hits), fmt.Sprintf("%d", st.Misses),
			fmt.Sprintf("%d", st.Failures), fmt.Sprintf("%d", st.Evictions),
			fmt.Sprintf("%d", st.Destroyed),
		},
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render(), false
}

func entriesOp(intp *Intp, op *Op) (error, bool) {
	infos := intp.gc.Cache().Entries()
	if len(infos) == 0 {
		pterm.Println("cache is empty")
		return nil, false
	}
	data := [][]string{
		{"ID", "Font", "Refs", "Uses", "Last used", "Glyphs", "Signature"},
	}
	for _, info := range infos {
		data = append(data, []string{
			fmt.Sprintf("%d", info.ID),
			info.Font,
			fmt.Sprintf("%d", info.References),
			fmt.Sprintf("%d", info.Uses),
			time.Since(info.LastUsed).Round(time.Millisecond).String() + " ago",
			fmt.Sprintf("%d", info.Glyphs),
			info.Signature.String(),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render(), false
}
