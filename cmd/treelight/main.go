// Package main is the entry point for the treelight demo viewer: it parses
// a Go file, highlights it across injected JSON layers, and displays the
// result in the terminal.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/treelight/internal/language"
	"github.com/dshills/treelight/internal/renderer/backend"
	"github.com/dshills/treelight/internal/renderer/core"
	"github.com/dshills/treelight/internal/renderer/highlight"
	"github.com/dshills/treelight/internal/syntax"
)

var version = "dev"

type options struct {
	themeName string
	themeFile string
	find      string
	path      string
}

func main() {
	os.Exit(runMain())
}

func runMain() int {
	opts, ok := parseFlags()
	if !ok {
		return 2
	}

	src, err := os.ReadFile(opts.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	theme, err := loadTheme(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	lines, err := highlightLines(src, theme, opts.find)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	screen, err := backend.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to init terminal: %v\n", err)
		return 1
	}
	defer screen.Fini()

	v := &viewer{
		screen: screen,
		lines:  lines,
		status: fmt.Sprintf(" %s | %s | %d lines | q quits ", opts.path, theme.Name, len(lines)),
		base:   core.NewStyle(theme.Foreground).WithBackground(theme.Background),
	}
	v.loop()
	return 0
}

func parseFlags() (options, bool) {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.themeName, "theme", "default-dark", "Theme name")
	flag.StringVar(&opts.themeFile, "theme-file", "", "Path to a JSON theme file")
	flag.StringVar(&opts.find, "find", "", "Highlight every occurrence of this text")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] file.go\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("treelight %s\n", version)
		return opts, false
	}
	if flag.NArg() != 1 {
		flag.Usage()
		return opts, false
	}
	opts.path = flag.Arg(0)
	return opts, true
}

func loadTheme(opts options) (*highlight.Theme, error) {
	registry := highlight.NewRegistry()
	name := opts.themeName
	if opts.themeFile != "" {
		data, err := os.ReadFile(opts.themeFile)
		if err != nil {
			return nil, err
		}
		theme, err := highlight.LoadTheme(data)
		if err != nil {
			return nil, err
		}
		registry.Register(theme)
		name = theme.Name
	}
	theme, ok := registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown theme %q (have %v)", name, registry.Names())
	}
	return theme, nil
}

// highlightLines runs the full pipeline: parse, query, highlight, overlay
// search matches, and fold the event stream into styled lines.
func highlightLines(src []byte, theme *highlight.Theme, find string) ([][]run, error) {
	forest, err := buildForest(src)
	if err != nil {
		return nil, err
	}
	defer closeForest(forest)

	queries, err := language.NewQuerySet()
	if err != nil {
		return nil, err
	}

	// The search scope is not a query capture; append it so the overlay can
	// share the theme-resolved highlight table.
	captures := append(append([]string(nil), queries.CaptureNames()...), "search")
	table := highlight.NewTable(captures, theme)
	searchHighlight := table.CaptureHighlights()[len(captures)-1]

	h := syntax.NewHighlighter(forest, src, queries, table.CaptureHighlights())
	defer h.Close()

	var events syntax.EventIterator = h
	if find != "" {
		events = syntax.NewOverlappingOverlay(events, syntax.Ranges(findRanges(src, find)), searchHighlight)
	}

	base := core.NewStyle(theme.Foreground).WithBackground(theme.Background)
	return layoutRuns(src, events, table, base), nil
}

// viewer is the scrolling display loop.
type viewer struct {
	screen *backend.Screen
	lines  [][]run
	status string
	base   core.Style
	top    int
}

func (v *viewer) loop() {
	v.screen.SetDefaultStyle(v.base)
	v.draw()
	for {
		switch ev := v.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if !v.handleKey(ev) {
				return
			}
			v.draw()
		case *tcell.EventResize:
			v.draw()
		}
	}
}

func (v *viewer) handleKey(ev *tcell.EventKey) bool {
	_, height := v.screen.Size()
	page := height - 1

	switch {
	case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC,
		ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
		return false
	case ev.Key() == tcell.KeyUp, ev.Key() == tcell.KeyRune && ev.Rune() == 'k':
		v.scroll(-1)
	case ev.Key() == tcell.KeyDown, ev.Key() == tcell.KeyRune && ev.Rune() == 'j':
		v.scroll(1)
	case ev.Key() == tcell.KeyPgUp:
		v.scroll(-page)
	case ev.Key() == tcell.KeyPgDn, ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
		v.scroll(page)
	case ev.Key() == tcell.KeyHome, ev.Key() == tcell.KeyRune && ev.Rune() == 'g':
		v.top = 0
	case ev.Key() == tcell.KeyEnd, ev.Key() == tcell.KeyRune && ev.Rune() == 'G':
		v.scroll(len(v.lines))
	}
	return true
}

func (v *viewer) scroll(delta int) {
	_, height := v.screen.Size()
	maxTop := len(v.lines) - (height - 1)
	if maxTop < 0 {
		maxTop = 0
	}
	v.top += delta
	if v.top > maxTop {
		v.top = maxTop
	}
	if v.top < 0 {
		v.top = 0
	}
}

func (v *viewer) draw() {
	width, height := v.screen.Size()
	v.screen.Clear()

	for row := 0; row < height-1; row++ {
		idx := v.top + row
		if idx >= len(v.lines) {
			break
		}
		x := 0
		for _, r := range v.lines[idx] {
			x = v.screen.SetText(x, row, r.text, r.style)
		}
	}

	status := v.status
	for len(status) < width {
		status += " "
	}
	v.screen.SetText(0, height-1, status, v.base.Reverse())
	v.screen.Show()
}
