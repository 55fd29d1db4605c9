package main

import (
	"fmt"
	"strings"

	"github.com/npillmayer/glyphcache/fontload"
	"github.com/thatisuday/commando"
)

func runFontCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	initTracing(verbose(flags))
	fontPath := strings.TrimSpace(args["font"].Value)
	if fontPath == "" {
		fatalf("font path is required")
	}
	p, err := fontload.Load(fontPath)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Path: %s\n", fontPath)
	fmt.Printf("Family: %s\n", p.Family)
	fmt.Printf("Subfamily: %s\n", p.Style)
	fmt.Printf("Full name: %s\n", p.FullName)
	fmt.Printf("Aspect: style=%v weight=%v stretch=%v\n", p.Aspect.Style, p.Aspect.Weight, p.Aspect.Stretch)
	fmt.Printf("Units per em: %d\n", p.UnitsPerEm())
	fmt.Printf("Glyphs: %d\n", p.SFNT.NumGlyphs())
	fmt.Printf("Program ID: %016x\n", p.ID)
	text := strings.ReplaceAll(args["text"].Value, ",", " ")
	if text == "" {
		return
	}
	var missing []string
	for _, r := range text {
		if !p.Covers(r) {
			missing = append(missing, fmt.Sprintf("%U %s", r, runeName(r)))
		}
	}
	if len(missing) == 0 {
		fmt.Println("Coverage: complete")
		return
	}
	fmt.Printf("Coverage: %d code points missing\n", len(missing))
	for _, m := range missing {
		fmt.Printf("  %s\n", m)
	}
}
