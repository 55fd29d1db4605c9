package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/glyphcache"
	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/glyphcache/config"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/thatisuday/commando"
)

func main() {
	commando.
		SetExecutableName("gc-tools").
		SetVersion("v0.1.0").
		SetDescription("CLI for glyph cache layout, rendering and load tests.")

	commando.
		Register(nil).
		AddFlag("verbose,V", "display additional output", commando.Bool, nil)

	commando.
		Register("layout").
		SetDescription("Lay out text with a font family and print the glyph stream.").
		SetShortDescription("lay out text").
		AddArgument("family", "font family, e.g. Go or \"Go Mono\"", "").
		AddArgument("text...", "text to lay out (variadic argument parts joined by comma by commando)", "").
		AddFlag("style,s", "font style, e.g. Bold", commando.String, "Regular").
		AddFlag("size,z", "font size in pixels per em", commando.Int, 16).
		AddFlag("codepoints,c", "codepoints instead of text (comma/space separated, e.g. U+0041,U+20AC)", commando.String, "-").
		AddFlag("kerning,k", "apply kerning", commando.Bool, nil).
		AddFlag("precise,p", "use precise instead of quantized advances", commando.Bool, nil).
		AddFlag("fallbacks,f", "fallback fonts, Family[:Style[:Weight]],...", commando.String, "-").
		AddFlag("fontdir,d", "additional font directories", commando.String, "-").
		SetAction(runLayoutCommand)

	commando.
		Register("view").
		SetDescription("Render a line of text to a PNG image.").
		SetShortDescription("text to image").
		AddArgument("family", "font family", "").
		AddArgument("text...", "text to render", "").
		AddFlag("style,s", "font style, e.g. Bold", commando.String, "Regular").
		AddFlag("size,z", "font size in pixels per em", commando.Int, 48).
		AddFlag("codepoints,c", "codepoints instead of text", commando.String, "-").
		AddFlag("kerning,k", "apply kerning", commando.Bool, nil).
		AddFlag("mode,m", "rendering: gray|mono|outline", commando.String, "gray").
		AddFlag("fallbacks,f", "fallback fonts, Family[:Style[:Weight]],...", commando.String, "-").
		AddFlag("fontdir,d", "additional font directories", commando.String, "-").
		AddFlag("output,o", "output PNG file", commando.String, "gc-tools-view.png").
		AddFlag("show-bboxes,B", "draw the ink bounding box", commando.Bool, nil).
		AddFlag("width,W", "image width in pixels", commando.Int, 640).
		AddFlag("height,H", "image height in pixels", commando.Int, 120).
		SetAction(runViewCommand)

	commando.
		Register("font").
		SetDescription("Print information about an OpenType font program.").
		SetShortDescription("font information").
		AddArgument("font", "OpenType font file path", "").
		AddArgument("text...", "optional text to check coverage for", "").
		SetAction(runFontCommand)

	commando.
		Register("stress").
		SetDescription("Run concurrent layouts with two fonts serving as each other's fallback.").
		SetShortDescription("locking stress test").
		AddFlag("workers,w", "number of concurrent layouts", commando.Int, 8).
		AddFlag("rounds,r", "layouts per worker", commando.Int, 500).
		AddFlag("capacity,n", "cache capacity", commando.Int, 12).
		AddFlag("delay,y", "microseconds per rendered glyph", commando.Int, 10).
		AddFlag("timeout,t", "seconds until a deadlock is assumed", commando.Int, 60).
		SetAction(runStressCommand)

	commando.Parse(nil)
}

func initTracing(verbose bool) {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	level := "Error"
	if verbose {
		level = "Info"
	}
	conf := testconfig.Conf{
		"tracing.adapter":         "go",
		"trace.glyphcache":        level,
		"trace.glyphcache.cache":  level,
		"trace.glyphcache.layout": level,
		"trace.glyphcache.fonts":  level,
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fatalf("error configuring tracing")
	}
	tracing.SetTraceSelector(trace2go.Selector())
}

// newService creates a glyph cache from the font related flags.
func newService(flags map[string]commando.FlagValue, mode string) *glyphcache.Service {
	initTracing(verbose(flags))
	conf := testconfig.Conf{
		config.KeyRendering: mode,
	}
	if fb := mustFlagString(flags["fallbacks"], "fallbacks"); fb != "" {
		conf[config.KeyFallbacks] = fb
	}
	if dirs := mustFlagString(flags["fontdir"], "fontdir"); dirs != "" {
		conf[config.KeyFontDirs] = dirs
	}
	settings, err := config.Load(conf)
	if err != nil {
		fatalf("%v", err)
	}
	gc, err := glyphcache.New(settings)
	if err != nil {
		fatalf("%v", err)
	}
	return gc
}

// verbose reports the global --verbose flag, if subcommand flags carry it.
func verbose(flags map[string]commando.FlagValue) bool {
	if v, ok := flags["verbose"]; ok {
		b, _ := v.GetBool()
		return b
	}
	return false
}

// mustFont resolves the family argument and the style and size flags.
func mustFont(gc *glyphcache.Service, args map[string]commando.ArgValue, flags map[string]commando.FlagValue) cache.Font {
	family := strings.TrimSpace(args["family"].Value)
	if family == "" {
		fatalf("font family is required")
	}
	size := mustFlagInt(flags["size"], "size")
	if size <= 0 {
		fatalf("--size must be > 0")
	}
	font, err := gc.Font(family, mustFlagString(flags["style"], "style"), float64(size))
	if err != nil {
		fatalf("%v (known families: %s)", err, strings.Join(gc.Fonts().Families(), ", "))
	}
	return font
}

func parseTextInput(textArg commando.ArgValue, cpFlag commando.FlagValue) (string, error) {
	cp, err := cpFlag.GetString()
	if err != nil {
		return "", fmt.Errorf("invalid --codepoints flag: %w", err)
	}
	if cp = strings.TrimSpace(cp); cp != "-" && cp != "" {
		runes, err := parseCodepoints(cp)
		if err != nil {
			return "", err
		}
		return string(runes), nil
	}
	return strings.ReplaceAll(textArg.Value, ",", " "), nil
}

func parseCodepoints(spec string) ([]rune, error) {
	parts := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]rune, 0, len(parts))
	for _, p := range parts {
		r, err := parseCodepointToken(p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func parseCodepointToken(token string) (rune, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, errors.New("empty codepoint token")
	}
	hex := token
	switch {
	case strings.HasPrefix(hex, "U+"), strings.HasPrefix(hex, "u+"):
		hex = hex[2:]
	case strings.HasPrefix(hex, "0x"), strings.HasPrefix(hex, "0X"):
		hex = hex[2:]
	}
	u, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || u > 0x10FFFF {
		return 0, fmt.Errorf("invalid codepoint %q", token)
	}
	return rune(u), nil
}

func mustFlagInt(flag commando.FlagValue, name string) int {
	n, err := flag.GetInt()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return n
}

func mustFlagBool(flag commando.FlagValue, name string) bool {
	b, err := flag.GetBool()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return b
}

// mustFlagString returns a string flag, with "-" meaning empty.
func mustFlagString(flag commando.FlagValue, name string) string {
	s, err := flag.GetString()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	if s = strings.TrimSpace(s); s == "-" {
		return ""
	}
	return s
}

func fatalf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, "gc-tools: "+format+"\n", args...)
	os.Exit(1)
}
