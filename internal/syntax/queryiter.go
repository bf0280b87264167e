package syntax

import (
	"sort"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// MatchedNode is one step of a query match: the capture that fired and the
// layer-local byte range of the captured node.
type MatchedNode struct {
	Capture Capture
	Range   Range
}

// QueryEventKind discriminates QueryEvent.
type QueryEventKind uint8

const (
	// EventEnterInjection reports that iteration descended into a child
	// layer; matches that follow belong to that layer until the matching
	// EventExitInjection.
	EventEnterInjection QueryEventKind = iota

	// EventMatch reports one matched capture.
	EventMatch

	// EventExitInjection reports that a child layer's range has been left.
	EventExitInjection
)

// QueryEvent is one element of the byte-ordered event stream produced by
// QueryIter. Injection is set for enter/exit events, Match for match events.
// State is non-nil on exit only when the layer's matches were fully drained;
// a nil State means the layer was parked and may be resumed by a later
// injection of the same layer.
type QueryEvent[S any] struct {
	Kind      QueryEventKind
	Injection Injection
	Match     MatchedNode
	State     *S
}

// Start returns the byte offset the event is ordered by. Successive events
// from one iteration have non-decreasing Start values.
func (e QueryEvent[S]) Start() uint {
	if e.Kind == EventMatch {
		return e.Match.Range.Start
	}
	return e.Injection.Range.Start
}

// matchStream is a layer's native match source, already in byte order.
type matchStream interface {
	NextMatch() (MatchedNode, bool)
	Close()
}

// layerMatches adds the one-match lookahead the iterator needs on top of a
// matchStream.
type layerMatches struct {
	stream matchStream
	peeked MatchedNode
	ok     bool
	done   bool
}

func (m *layerMatches) peek() (MatchedNode, bool) {
	if !m.ok && !m.done {
		m.peeked, m.ok = m.stream.NextMatch()
		if !m.ok {
			m.done = true
		}
	}
	return m.peeked, m.ok
}

func (m *layerMatches) consume() MatchedNode {
	m.ok = false
	return m.peeked
}

// pending reports whether a peeked match is still buffered. Exiting a layer
// with a pending match parks the layer instead of finishing it.
func (m *layerMatches) pending() bool { return m.ok }

// activeLayer is the per-layer iteration state: the match lookahead, the
// remaining child injections, and the caller's accumulator.
type activeLayer[S any] struct {
	state      S
	matches    layerMatches
	injections []Injection
}

// QueryIter evaluates a query set over an injected layer subtree and yields
// one byte-ordered stream of enter/match/exit events. S is caller-defined
// per-layer accumulator state, default-constructed when a layer is first
// entered and preserved while the layer is parked.
//
// A QueryIter must be advanced from a single call site; it borrows the
// forest and the source for its lifetime.
type QueryIter[S any] struct {
	forest *Forest
	open   func(LayerID) matchStream

	// current is kept out of the suspended table for fast access.
	current          *activeLayer[S]
	currentInjection Injection
	suspended        map[LayerID]*activeLayer[S]
	parked           []Injection

	streams []matchStream
}

// NewQueryIter starts a pass over the whole forest, rooted at the root
// layer's root node.
func NewQueryIter[S any](forest *Forest, src []byte, queries *QuerySet) *QueryIter[S] {
	root := forest.Root()
	return NewQueryIterAt[S](forest, src, queries, forest.Get(root).Root(), root)
}

// NewQueryIterAt starts a pass at a specific node and layer. The node bounds
// the work: only matches and injections inside its byte range are visited.
func NewQueryIterAt[S any](forest *Forest, src []byte, queries *QuerySet, node *ts.Node, layer LayerID) *QueryIter[S] {
	var it *QueryIter[S]
	open := func(id LayerID) matchStream {
		lyr := forest.Get(id)
		n := node
		if id != layer {
			n = lyr.Root()
		}
		lq := queries.language(lyr.Language)
		if lq == nil {
			return emptyMatches{}
		}
		return newTSMatches(lq, n, src)
	}
	it = newQueryIter[S](forest, open, Injection{
		Range: Range{Start: node.StartByte(), End: node.EndByte()},
		Layer: layer,
	})
	return it
}

// newQueryIter is the engine-agnostic constructor; tests drive it with
// scripted match streams.
func newQueryIter[S any](forest *Forest, open func(LayerID) matchStream, root Injection) *QueryIter[S] {
	it := &QueryIter[S]{
		forest:    forest,
		suspended: make(map[LayerID]*activeLayer[S], 8),
	}
	it.open = func(id LayerID) matchStream {
		s := open(id)
		it.streams = append(it.streams, s)
		return s
	}
	it.current = it.initLayer(root)
	it.currentInjection = root
	return it
}

// Close releases every query cursor opened during the pass.
func (it *QueryIter[S]) Close() {
	for _, s := range it.streams {
		s.Close()
	}
	it.streams = nil
}

// CurrentLayerState returns the accumulator of the layer currently being
// matched.
func (it *QueryIter[S]) CurrentLayerState() *S {
	return &it.current.state
}

// LayerState returns the accumulator for an open (current or suspended)
// layer, or nil if the layer is not open.
func (it *QueryIter[S]) LayerState(layer LayerID) *S {
	if layer == it.currentInjection.Layer {
		return &it.current.state
	}
	if l, ok := it.suspended[layer]; ok {
		return &l.state
	}
	return nil
}

// initLayer resumes a parked layer or opens a fresh one positioned at the
// first child injection inside the entered range.
func (it *QueryIter[S]) initLayer(injection Injection) *activeLayer[S] {
	if layer, ok := it.suspended[injection.Layer]; ok {
		delete(it.suspended, injection.Layer)
		return layer
	}
	lyr := it.forest.Get(injection.Layer)
	start := sort.Search(len(lyr.Injections), func(i int) bool {
		return lyr.Injections[i].Range.Start >= injection.Range.Start
	})
	return &activeLayer[S]{
		matches:    layerMatches{stream: it.open(injection.Layer)},
		injections: lyr.Injections[start:],
	}
}

// Next advances the pass. Per step, restricted to offsets below the current
// injection's end: with nothing pending the injection is exited; a lone
// match is yielded; a match starting at or before the next injection's start
// takes priority; a match starting inside the injection is shadowed by the
// deeper layer and dropped; otherwise the injection is entered.
func (it *QueryIter[S]) Next() (QueryEvent[S], bool) {
	for {
		var nextInjection *Injection
		if len(it.current.injections) > 0 &&
			it.current.injections[0].Range.Start < it.currentInjection.Range.End {
			nextInjection = &it.current.injections[0]
		}
		var nextMatch *MatchedNode
		if m, ok := it.current.matches.peek(); ok && m.Range.Start < it.currentInjection.Range.End {
			nextMatch = &m
		}

		switch {
		case nextMatch == nil && nextInjection == nil:
			return it.exitInjection()

		case nextInjection == nil:
			return QueryEvent[S]{Kind: EventMatch, Match: it.current.matches.consume()}, true

		case nextMatch != nil && nextMatch.Range.Start <= nextInjection.Range.End:
			matched := it.current.matches.consume()
			if matched.Range.Start <= nextInjection.Range.Start {
				return QueryEvent[S]{Kind: EventMatch, Match: matched}, true
			}
			// The match starts inside the injection: the deeper layer owns
			// that region, so the match is dropped without being yielded.

		default:
			injection := it.current.injections[0]
			it.current.injections = it.current.injections[1:]
			it.enterInjection(injection)
			return QueryEvent[S]{Kind: EventEnterInjection, Injection: injection}, true
		}
	}
}

func (it *QueryIter[S]) enterInjection(injection Injection) {
	layer := it.initLayer(injection)
	it.suspended[it.currentInjection.Layer] = it.current
	it.parked = append(it.parked, it.currentInjection)
	it.currentInjection = injection
	it.current = layer
}

func (it *QueryIter[S]) exitInjection() (QueryEvent[S], bool) {
	if len(it.parked) == 0 {
		// Leaving the root range ends the pass.
		return QueryEvent[S]{}, false
	}
	injection := it.currentInjection
	layer := it.current

	it.currentInjection = it.parked[len(it.parked)-1]
	it.parked = it.parked[:len(it.parked)-1]
	parent, ok := it.suspended[it.currentInjection.Layer]
	if !ok {
		return QueryEvent[S]{}, false
	}
	delete(it.suspended, it.currentInjection.Layer)
	it.current = parent

	ev := QueryEvent[S]{Kind: EventExitInjection, Injection: injection}
	if layer.matches.pending() {
		// The layer has a buffered match past this injection's end; park it
		// so a later injection of the same layer resumes where it left off.
		it.suspended[injection.Layer] = layer
	} else {
		ev.State = &layer.state
	}
	return ev, true
}

// tsMatches adapts a tree-sitter query cursor to matchStream, translating
// query-local capture indices through the QuerySet's table.
type tsMatches struct {
	cursor *ts.QueryCursor
	next   func() (MatchedNode, bool)
}

func newTSMatches(lq *languageQuery, node *ts.Node, src []byte) *tsMatches {
	qc := ts.NewQueryCursor()
	captures := qc.Captures(lq.query, node, src)
	return &tsMatches{
		cursor: qc,
		next: func() (MatchedNode, bool) {
			for {
				match, idx := captures.Next()
				if match == nil {
					return MatchedNode{}, false
				}
				if int(idx) >= len(match.Captures) {
					continue
				}
				capture := match.Captures[idx]
				return MatchedNode{
					Capture: lq.remap[capture.Index],
					Range: Range{
						Start: capture.Node.StartByte(),
						End:   capture.Node.EndByte(),
					},
				}, true
			}
		},
	}
}

func (m *tsMatches) NextMatch() (MatchedNode, bool) { return m.next() }

func (m *tsMatches) Close() { m.cursor.Close() }

// emptyMatches is the stream for layers whose language has no query.
type emptyMatches struct{}

func (emptyMatches) NextMatch() (MatchedNode, bool) { return MatchedNode{}, false }

func (emptyMatches) Close() {}
