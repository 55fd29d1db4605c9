package main

import (
	"fmt"
	"image"
	"image/color"
	"golang.org/x/image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/npillmayer/glyphcache/layout"
	"github.com/thatisuday/commando"
)

func runViewCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	mode := mustFlagString(flags["mode"], "mode")
	gc := newService(flags, mode)
	defer gc.Close()
	font := mustFont(gc, args, flags)
	input, err := parseTextInput(args["text"], flags["codepoints"])
	if err != nil {
		fatalf("%v", err)
	}
	if input == "" {
		fatalf("input text is empty")
	}
	outPath := mustFlagString(flags["output"], "output")
	if outPath == "" {
		fatalf("output path is empty")
	}
	width := mustFlagInt(flags["width"], "width")
	height := mustFlagInt(flags["height"], "height")
	if width <= 0 || height <= 0 {
		fatalf("--width and --height must be > 0")
	}
	opts := layout.Options{Kerning: mustFlagBool(flags["kerning"], "kerning")}
	//
	// measure first, then center the line
	bounds, err := gc.Measure(font, input, opts)
	if err != nil {
		fatalf("layout failed: %v", err)
	}
	origin := image.Pt(
		int(math.Round((float64(width)-bounds.Pen.X)/2)),
		int(math.Round((float64(height)-bounds.Ink.MinY-bounds.Ink.MaxY)/2)),
	)
	mask := layout.NewMask(width, height, origin)
	if err := gc.Layout(mask, font, input, opts); err != nil {
		fatalf("layout failed: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{255, 255, 255, 255}), image.Point{}, draw.Src)
	draw.DrawMask(img, img.Bounds(), image.Black, image.Point{}, mask.Dst, image.Point{}, draw.Over)
	if mustFlagBool(flags["show-bboxes"], "show-bboxes") && !bounds.Ink.Empty() {
		drawRectOutline(img,
			origin.X+int(math.Floor(bounds.Ink.MinX)), origin.Y+int(math.Floor(bounds.Ink.MinY)),
			origin.X+int(math.Ceil(bounds.Ink.MaxX)), origin.Y+int(math.Ceil(bounds.Ink.MaxY)),
			color.RGBA{255, 0, 0, 255})
	}
	if err := writePNG(img, outPath); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("wrote %s (glyphs=%d, empty=%d, width=%.2f)\n", outPath, mask.Drawn, bounds.Empty, bounds.Pen.X)
}

func writePNG(img image.Image, outPath string) error {
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("cannot encode png: %w", err)
	}
	return nil
}

func drawRectOutline(img *image.RGBA, minX int, minY int, maxX int, maxY int, c color.RGBA) {
	r := image.Rect(minX, minY, maxX, maxY).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

