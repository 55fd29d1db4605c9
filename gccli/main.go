package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/glyphcache"
	"github.com/npillmayer/glyphcache/cache"
	"github.com/npillmayer/glyphcache/config"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'glyphcache'
func tracer() tracing.Trace {
	return tracing.Select("glyphcache")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":  "go",
		"trace.glyphcache": "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	family := flag.String("font", "Go", "Font family to start with")
	size := flag.Int("size", 16, "Font size in pixels per em")
	fallbacks := flag.String("fallbacks", "", "Fallback fonts, Family[:Style[:Weight]],...")
	fontdirs := flag.String("fontdirs", "", "Additional font directories")
	capacity := flag.Int("capacity", cache.DefaultCapacity, "Maximum number of cached fonts")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError) // will set the correct level later
	pterm.Info.Println("Welcome to the glyph cache CLI")
	//
	// set up the glyph cache
	conf[config.KeyCapacity] = strconv.Itoa(*capacity)
	conf[config.KeyFallbacks] = *fallbacks
	conf[config.KeyFontDirs] = *fontdirs
	settings, err := config.Load(conf)
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(2)
	}
	gc, err := glyphcache.New(settings)
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(2)
	}
	defer gc.Close()
	//
	// set up REPL
	repl, err := readline.New("gc > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl, gc: gc}
	if err := intp.selectFont(*family, "", float64(*size)); err != nil {
		tracer().Errorf(err.Error())
		os.Exit(4)
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	switch *tlevel {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Info":
		tracer().SetTraceLevel(tracing.LevelInfo)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().Errorf("Invalid trace level: %s", *tlevel)
		os.Exit(5)
	}
	tracer().Infof("Trace level is %s", *tlevel)
	intp.REPL() // go into interactive mode
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	gc   *glyphcache.Service
	font cache.Font
	repl *readline.Instance
}

func (intp *Intp) String() string {
	if intp == nil || intp.font.Program == nil {
		return "( no font )"
	}
	return fmt.Sprintf("( font=%s, %d cached fonts )", intp.font, intp.gc.Cache().Len())
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		op := parseCommand(line)
		err, quit := intp.execute(op)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

type Op struct {
	code int
	arg  string
}

const (
	QUIT int = iota
	HELP
	FONT
	LAYOUT
	MEASURE
	GLYPH
	STATS
	ENTRIES
)

var opMap = map[string]int{
	"quit":    QUIT,
	"help":    HELP,
	"font":    FONT,
	"layout":  LAYOUT,
	"measure": MEASURE,
	"glyph":   GLYPH,
	"stats":   STATS,
	"entries": ENTRIES,
}

var opNames = []string{
	"quit",
	"help",
	"font",
	"layout",
	"measure",
	"glyph",
	"stats",
	"entries",
}

// parseCommand splits a line like "layout:Hello World" into op-code and
// argument. Unknown commands show the help text.
func parseCommand(line string) *Op {
	name, arg, _ := strings.Cut(line, ":")
	code, ok := opMap[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return &Op{code: HELP}
	}
	tracer().Debugf("parsed command: %s '%s'", opNames[code], arg)
	return &Op{code: code, arg: arg}
}

var commandFn = map[int]func(*Intp, *Op) (error, bool){
	QUIT:    quitOp,
	HELP:    helpOp,
	FONT:    fontOp,
	LAYOUT:  layoutOp,
	MEASURE: measureOp,
	GLYPH:   glyphOp,
	STATS:   statsOp,
	ENTRIES: entriesOp,
}

func (intp *Intp) execute(op *Op) (err error, stop bool) {
	f, ok := commandFn[op.code]
	if !ok {
		return fmt.Errorf("unknown command code: %d", op.code), false
	}
	return f(intp, op)
}

func quitOp(intp *Intp, op *Op) (error, bool) {
	pterm.Println("Goodbye!")
	return nil, true
}

// --- Font Selection ---------------------------------------------------

var errFontArg = errors.New("usage: font:<family>[:<style>]:<size>")

// fontOp selects the current font, e.g. "font:Go Mono:Bold:18".
func fontOp(intp *Intp, op *Op) (error, bool) {
	parts := strings.Split(op.arg, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return errFontArg, false
	}
	size, err := strconv.ParseFloat(strings.TrimSpace(parts[len(parts)-1]), 64)
	if err != nil || size <= 0 {
		return errFontArg, false
	}
	style := ""
	if len(parts) == 3 {
		style = strings.TrimSpace(parts[1])
	}
	return intp.selectFont(strings.TrimSpace(parts[0]), style, size), false
}

func (intp *Intp) selectFont(family, style string, size float64) error {
	font, err := intp.gc.Font(family, style, size)
	if err != nil {
		return err
	}
	intp.font = font
	tracer().Infof("selected font %s (%s)", font, font.Program)
	return nil
}
