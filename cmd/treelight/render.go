package main

import (
	"bytes"
	"strings"

	"github.com/dshills/treelight/internal/renderer/core"
	"github.com/dshills/treelight/internal/renderer/highlight"
	"github.com/dshills/treelight/internal/syntax"
)

// run is a piece of one display line drawn in a single style.
type run struct {
	text  string
	style core.Style
}

// layoutRuns folds a highlight-event stream into per-line styled runs. The
// style of a run is the base style with every open highlight merged over it,
// innermost last.
func layoutRuns(src []byte, events syntax.EventIterator, table *highlight.Table, base core.Style) [][]run {
	var (
		lines [][]run
		line  []run
		stack []syntax.Highlight
	)
	current := func() core.Style {
		s := base
		for _, h := range stack {
			s = s.Merge(table.Style(h))
		}
		return s
	}
	emit := func(text string) {
		for {
			nl := strings.IndexByte(text, '\n')
			if nl < 0 {
				break
			}
			if nl > 0 {
				line = append(line, run{text: expandTabs(text[:nl]), style: current()})
			}
			lines = append(lines, line)
			line = nil
			text = text[nl+1:]
		}
		if text != "" {
			line = append(line, run{text: expandTabs(text), style: current()})
		}
	}

	for {
		ev, ok := events.Next()
		if !ok {
			break
		}
		switch ev.Kind {
		case syntax.EventHighlightStart:
			stack = append(stack, ev.Highlight)
		case syntax.EventHighlightEnd:
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
		case syntax.EventSource:
			emit(string(src[ev.Start:ev.End]))
		}
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}
	return lines
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

// findRanges returns the byte range of every occurrence of term in src,
// overlapping ones included, sorted by start.
func findRanges(src []byte, term string) []syntax.Range {
	if term == "" {
		return nil
	}
	var out []syntax.Range
	for off := 0; ; {
		i := bytes.Index(src[off:], []byte(term))
		if i < 0 {
			return out
		}
		start := uint(off + i)
		out = append(out, syntax.Range{Start: start, End: start + uint(len(term))})
		off += i + 1
	}
}
