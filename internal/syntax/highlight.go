package syntax

// highlightedNode is one open highlight on the active stack.
type highlightedNode struct {
	end       uint
	highlight Highlight
}

// layerHighlights is the per-layer accumulator threaded through the query
// iterator. parentDepth records how many highlights were open when the layer
// was entered; dormant holds highlights closed early because a combined
// injection suspended the layer mid-range.
type layerHighlights struct {
	parentDepth int
	dormant     []highlightedNode
}

// Highlighter converts the query-event stream for a forest into a nested
// HighlightEvent stream: Source runs interleaved with HighlightStart and
// HighlightEnd pairs, in increasing byte order.
//
// Highlight queries produce properly nested captures; a capture that
// overlaps its enclosing capture without being contained in it keeps its
// start position but closes no earlier than the enclosing one.
type Highlighter struct {
	query     *QueryIter[layerHighlights]
	lookahead *QueryEvent[layerHighlights]

	active  []highlightedNode
	pending []HighlightEvent

	pos uint
	end uint

	// highlights maps Capture to Highlight; nil means the identity mapping.
	highlights []Highlight
}

// NewHighlighter starts a highlighting pass over the whole forest.
// captureHighlights maps each QuerySet capture to its Highlight, with
// HighlightNone for captures the theme does not style; pass nil to use
// capture indices directly.
func NewHighlighter(forest *Forest, src []byte, queries *QuerySet, captureHighlights []Highlight) *Highlighter {
	root := forest.Get(forest.Root()).Root()
	h := &Highlighter{
		query:      NewQueryIter[layerHighlights](forest, src, queries),
		pos:        root.StartByte(),
		end:        root.EndByte(),
		highlights: captureHighlights,
	}
	h.advance()
	return h
}

// newHighlighter is the engine-agnostic form used by tests.
func newHighlighter(query *QueryIter[layerHighlights], bounds Range, captureHighlights []Highlight) *Highlighter {
	h := &Highlighter{
		query:      query,
		pos:        bounds.Start,
		end:        bounds.End,
		highlights: captureHighlights,
	}
	h.advance()
	return h
}

// Close releases the underlying query pass.
func (h *Highlighter) Close() {
	h.query.Close()
}

func (h *Highlighter) advance() {
	if ev, ok := h.query.Next(); ok {
		h.lookahead = &ev
	} else {
		h.lookahead = nil
	}
}

func (h *Highlighter) resolve(c Capture) Highlight {
	if h.highlights == nil {
		return Highlight(c)
	}
	if int(c) < len(h.highlights) {
		return h.highlights[c]
	}
	return HighlightNone
}

// Next implements EventIterator.
func (h *Highlighter) Next() (HighlightEvent, bool) {
	for {
		if len(h.pending) > 0 {
			ev := h.pending[0]
			h.pending = h.pending[1:]
			return ev, true
		}

		// Everything consumed: close whatever is still open, then stop.
		if h.lookahead == nil && h.pos >= h.end {
			if n := len(h.active); n > 0 {
				h.active = h.active[:n-1]
				return EndEvent(), true
			}
			return HighlightEvent{}, false
		}

		boundary := h.end
		if h.lookahead != nil {
			if s := h.lookahead.Start(); s < boundary {
				boundary = s
			}
		}
		if n := len(h.active); n > 0 && h.active[n-1].end < boundary {
			boundary = h.active[n-1].end
		}

		if h.pos < boundary {
			ev := SourceEvent(h.pos, boundary)
			h.pos = boundary
			return ev, true
		}

		// Close highlights ending here before opening new ones.
		for n := len(h.active); n > 0 && h.active[n-1].end <= h.pos; n = len(h.active) {
			h.active = h.active[:n-1]
			h.pending = append(h.pending, EndEvent())
		}

		for h.lookahead != nil && h.lookahead.Start() <= h.pos {
			ev := *h.lookahead
			h.advance()
			switch ev.Kind {
			case EventMatch:
				h.startHighlight(ev.Match)
			case EventEnterInjection:
				h.enterLayer()
			case EventExitInjection:
				if ev.State == nil {
					h.suspendLayer(ev.Injection.Layer)
				}
			}
		}
	}
}

func (h *Highlighter) startHighlight(node MatchedNode) {
	if node.Range.IsEmpty() {
		return
	}
	hl := h.resolve(node.Capture)
	if hl == HighlightNone {
		return
	}
	h.active = append(h.active, highlightedNode{end: node.Range.End, highlight: hl})
	h.pending = append(h.pending, StartEvent(hl))
}

// enterLayer records the parent stack depth and, when resuming a parked
// combined injection, reopens the highlights that were closed at suspension.
func (h *Highlighter) enterLayer() {
	state := h.query.CurrentLayerState()
	state.parentDepth = len(h.active)
	for _, d := range state.dormant {
		if d.end <= h.pos {
			continue
		}
		h.active = append(h.active, d)
		h.pending = append(h.pending, StartEvent(d.highlight))
	}
	state.dormant = state.dormant[:0]
}

// suspendLayer closes the still-open highlights of a layer that was parked
// mid-range (a combined injection) and stashes them for the resume.
func (h *Highlighter) suspendLayer(layer LayerID) {
	state := h.query.LayerState(layer)
	if state == nil {
		return
	}
	depth := state.parentDepth
	if depth > len(h.active) {
		return
	}
	for i := len(h.active) - 1; i >= depth; i-- {
		if h.active[i].end > h.pos {
			state.dormant = append(state.dormant, h.active[i])
		}
		h.pending = append(h.pending, EndEvent())
	}
	h.active = h.active[:depth]
}
