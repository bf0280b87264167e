package highlight

import (
	"github.com/dshills/treelight/internal/renderer/core"
	"github.com/dshills/treelight/internal/syntax"
)

// Table binds a query set's interned capture names to a theme. Captures the
// theme does not style map to HighlightNone, so the highlighter skips them
// entirely; the rest get compact Highlight values indexing into the style
// slice.
type Table struct {
	captures []syntax.Highlight
	styles   []core.Style
}

// NewTable resolves each capture name against the theme. captures is the
// interned name list from a QuerySet, indexed by Capture.
func NewTable(captures []string, theme *Theme) *Table {
	t := &Table{captures: make([]syntax.Highlight, len(captures))}
	for i, name := range captures {
		style, ok := theme.Style(name)
		if !ok {
			t.captures[i] = syntax.HighlightNone
			continue
		}
		t.captures[i] = syntax.Highlight(len(t.styles))
		t.styles = append(t.styles, style)
	}
	return t
}

// CaptureHighlights returns the Capture-indexed highlight mapping to hand to
// the highlighter.
func (t *Table) CaptureHighlights() []syntax.Highlight {
	return t.captures
}

// Style returns the style for a highlight. HighlightNone and out-of-range
// values resolve to the default style.
func (t *Table) Style(h syntax.Highlight) core.Style {
	if int(h) >= len(t.styles) {
		return core.DefaultStyle()
	}
	return t.styles[h]
}

// Len returns the number of styled highlights.
func (t *Table) Len() int {
	return len(t.styles)
}
