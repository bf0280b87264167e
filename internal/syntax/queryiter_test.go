package syntax

import (
	"bytes"
	"testing"
)

// scriptedMatches feeds a fixed byte-ordered match list to the iterator.
type scriptedMatches struct {
	matches []MatchedNode
	closed  bool
}

func (s *scriptedMatches) NextMatch() (MatchedNode, bool) {
	if len(s.matches) == 0 {
		return MatchedNode{}, false
	}
	m := s.matches[0]
	s.matches = s.matches[1:]
	return m, true
}

func (s *scriptedMatches) Close() { s.closed = true }

func match(start, end uint) MatchedNode {
	return MatchedNode{Range: Range{Start: start, End: end}}
}

// scriptedIter builds a QueryIter over a tree-less forest whose per-layer
// matches come from the script instead of a query engine.
func scriptedIter(f *Forest, script map[LayerID][]MatchedNode) (*QueryIter[int], map[LayerID]int) {
	opens := make(map[LayerID]int)
	open := func(id LayerID) matchStream {
		opens[id]++
		return &scriptedMatches{matches: script[id]}
	}
	root := f.Root()
	return newQueryIter[int](f, open, Injection{
		Range: f.Get(root).Ranges[0],
		Layer: root,
	}), opens
}

func collectQueryEvents[S any](t *testing.T, it *QueryIter[S]) []QueryEvent[S] {
	t.Helper()
	var out []QueryEvent[S]
	for {
		ev, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, ev)
		if len(out) > 100 {
			t.Fatal("iterator did not terminate")
		}
	}
}

func checkEventShape[S any](t *testing.T, got []QueryEvent[S], want []QueryEvent[S]) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Kind != want[i].Kind {
			t.Errorf("event %d kind = %d, want %d", i, got[i].Kind, want[i].Kind)
			continue
		}
		switch want[i].Kind {
		case EventMatch:
			if got[i].Match.Range != want[i].Match.Range {
				t.Errorf("event %d match range = %+v, want %+v", i, got[i].Match.Range, want[i].Match.Range)
			}
		default:
			if got[i].Injection.Range != want[i].Injection.Range {
				t.Errorf("event %d injection range = %+v, want %+v", i, got[i].Injection.Range, want[i].Injection.Range)
			}
		}
	}
}

// twoLayerForest is a root [0,100) with one child injection at the given
// range, built without parse trees for scripted iteration.
func twoLayerForest(injection Range) (*Forest, LayerID, LayerID) {
	f := NewForest()
	root := f.Insert(Layer{Language: "go", Ranges: []Range{{Start: 0, End: 100}}})
	child := f.Insert(Layer{
		Language: "json",
		Depth:    1,
		Parent:   root,
		Ranges:   []Range{injection},
	})
	f.Get(root).Injections = []Injection{{Range: injection, Layer: child}}
	f.SetRoot(root)
	return f, root, child
}

func TestQueryIterSingleLayer(t *testing.T) {
	f := NewForest()
	root := f.Insert(Layer{Language: "go", Ranges: []Range{{Start: 0, End: 50}}})
	f.SetRoot(root)

	it, _ := scriptedIter(f, map[LayerID][]MatchedNode{
		root: {match(5, 8), match(10, 20), match(12, 14)},
	})
	defer it.Close()

	// Without injections the stream is exactly the layer's matches.
	got := collectQueryEvents(t, it)
	checkEventShape(t, got, []QueryEvent[int]{
		{Kind: EventMatch, Match: match(5, 8)},
		{Kind: EventMatch, Match: match(10, 20)},
		{Kind: EventMatch, Match: match(12, 14)},
	})
}

func TestQueryIterEntersAndExitsInjection(t *testing.T) {
	f, root, child := twoLayerForest(Range{Start: 20, End: 40})

	it, _ := scriptedIter(f, map[LayerID][]MatchedNode{
		root:  {match(10, 15)},
		child: {match(25, 30)},
	})
	defer it.Close()

	got := collectQueryEvents(t, it)
	checkEventShape(t, got, []QueryEvent[int]{
		{Kind: EventMatch, Match: match(10, 15)},
		{Kind: EventEnterInjection, Injection: Injection{Range: Range{Start: 20, End: 40}}},
		{Kind: EventMatch, Match: match(25, 30)},
		{Kind: EventExitInjection, Injection: Injection{Range: Range{Start: 20, End: 40}}},
	})

	// The child drained completely, so the exit carries its final state.
	if got[3].State == nil {
		t.Error("exit of a drained layer has nil State")
	}
	if got[1].Injection.Layer != child || got[3].Injection.Layer != child {
		t.Error("enter/exit events name the wrong layer")
	}
}

func TestQueryIterEmptyInjection(t *testing.T) {
	f, root, _ := twoLayerForest(Range{Start: 20, End: 20})

	it, _ := scriptedIter(f, map[LayerID][]MatchedNode{
		root: {match(5, 10), match(50, 60)},
	})
	defer it.Close()

	// A zero-width injection still produces its enter/exit pair, between the
	// surrounding matches.
	got := collectQueryEvents(t, it)
	checkEventShape(t, got, []QueryEvent[int]{
		{Kind: EventMatch, Match: match(5, 10)},
		{Kind: EventEnterInjection, Injection: Injection{Range: Range{Start: 20, End: 20}}},
		{Kind: EventExitInjection, Injection: Injection{Range: Range{Start: 20, End: 20}}},
		{Kind: EventMatch, Match: match(50, 60)},
	})
}

func TestQueryIterMatchAtInjectionStartWins(t *testing.T) {
	f, root, _ := twoLayerForest(Range{Start: 20, End: 40})

	it, _ := scriptedIter(f, map[LayerID][]MatchedNode{
		root: {match(20, 40)},
	})
	defer it.Close()

	// A parent match starting exactly at the injection start is yielded
	// before the injection is entered.
	got := collectQueryEvents(t, it)
	checkEventShape(t, got, []QueryEvent[int]{
		{Kind: EventMatch, Match: match(20, 40)},
		{Kind: EventEnterInjection, Injection: Injection{Range: Range{Start: 20, End: 40}}},
		{Kind: EventExitInjection, Injection: Injection{Range: Range{Start: 20, End: 40}}},
	})
}

func TestQueryIterDropsShadowedMatch(t *testing.T) {
	f, root, _ := twoLayerForest(Range{Start: 20, End: 40})

	it, _ := scriptedIter(f, map[LayerID][]MatchedNode{
		root: {match(25, 30), match(50, 55)},
	})
	defer it.Close()

	// The parent match at [25,30) starts inside the injection; the child
	// layer owns that region and the match is silently discarded.
	got := collectQueryEvents(t, it)
	checkEventShape(t, got, []QueryEvent[int]{
		{Kind: EventEnterInjection, Injection: Injection{Range: Range{Start: 20, End: 40}}},
		{Kind: EventExitInjection, Injection: Injection{Range: Range{Start: 20, End: 40}}},
		{Kind: EventMatch, Match: match(50, 55)},
	})
}

func TestQueryIterNestedInjections(t *testing.T) {
	f := NewForest()
	root := f.Insert(Layer{Language: "go", Ranges: []Range{{Start: 0, End: 100}}})
	child := f.Insert(Layer{Language: "json", Depth: 1, Parent: root, Ranges: []Range{{Start: 20, End: 60}}})
	grand := f.Insert(Layer{Language: "yaml", Depth: 2, Parent: child, Ranges: []Range{{Start: 30, End: 40}}})
	f.Get(root).Injections = []Injection{{Range: Range{Start: 20, End: 60}, Layer: child}}
	f.Get(child).Injections = []Injection{{Range: Range{Start: 30, End: 40}, Layer: grand}}
	f.SetRoot(root)

	it, _ := scriptedIter(f, map[LayerID][]MatchedNode{
		child: {match(22, 25), match(45, 50)},
		grand: {match(32, 35)},
	})
	defer it.Close()

	got := collectQueryEvents(t, it)
	checkEventShape(t, got, []QueryEvent[int]{
		{Kind: EventEnterInjection, Injection: Injection{Range: Range{Start: 20, End: 60}}},
		{Kind: EventMatch, Match: match(22, 25)},
		{Kind: EventEnterInjection, Injection: Injection{Range: Range{Start: 30, End: 40}}},
		{Kind: EventMatch, Match: match(32, 35)},
		{Kind: EventExitInjection, Injection: Injection{Range: Range{Start: 30, End: 40}}},
		{Kind: EventMatch, Match: match(45, 50)},
		{Kind: EventExitInjection, Injection: Injection{Range: Range{Start: 20, End: 60}}},
	})
}

func TestQueryIterCombinedInjectionResume(t *testing.T) {
	// The same child layer appears at two disjoint ranges, as a combined
	// injection does. Its match stream is opened once and resumed.
	f := NewForest()
	root := f.Insert(Layer{Language: "go", Ranges: []Range{{Start: 0, End: 100}}})
	child := f.Insert(Layer{
		Language: "sql",
		Depth:    1,
		Parent:   root,
		Ranges:   []Range{{Start: 10, End: 20}, {Start: 30, End: 40}},
	})
	f.Get(root).Injections = []Injection{
		{Range: Range{Start: 10, End: 20}, Layer: child},
		{Range: Range{Start: 30, End: 40}, Layer: child},
	}
	f.SetRoot(root)

	it, opens := scriptedIter(f, map[LayerID][]MatchedNode{
		child: {match(12, 15), match(32, 35)},
	})
	defer it.Close()

	got := collectQueryEvents(t, it)
	checkEventShape(t, got, []QueryEvent[int]{
		{Kind: EventEnterInjection, Injection: Injection{Range: Range{Start: 10, End: 20}}},
		{Kind: EventMatch, Match: match(12, 15)},
		{Kind: EventExitInjection, Injection: Injection{Range: Range{Start: 10, End: 20}}},
		{Kind: EventEnterInjection, Injection: Injection{Range: Range{Start: 30, End: 40}}},
		{Kind: EventMatch, Match: match(32, 35)},
		{Kind: EventExitInjection, Injection: Injection{Range: Range{Start: 30, End: 40}}},
	})

	// The first exit parks the layer (a match past the range is buffered);
	// the second exit finishes it.
	if got[2].State != nil {
		t.Error("exit of a parked layer carries State, want nil")
	}
	if got[5].State == nil {
		t.Error("final exit of the layer has nil State")
	}
	if opens[child] != 1 {
		t.Errorf("child stream opened %d times, want 1", opens[child])
	}
}

func TestQueryIterLayerState(t *testing.T) {
	f, root, child := twoLayerForest(Range{Start: 20, End: 40})

	it, _ := scriptedIter(f, map[LayerID][]MatchedNode{
		child: {match(25, 30)},
	})
	defer it.Close()

	if it.LayerState(child) != nil {
		t.Error("LayerState for a not-yet-entered layer is non-nil")
	}

	ev, ok := it.Next()
	if !ok || ev.Kind != EventEnterInjection {
		t.Fatalf("first event = %+v, want enter", ev)
	}
	*it.CurrentLayerState() = 7
	if got := it.LayerState(child); got == nil || *got != 7 {
		t.Error("CurrentLayerState and LayerState disagree for the current layer")
	}
	// The parent is suspended but its state stays reachable.
	if it.LayerState(root) == nil {
		t.Error("LayerState for the suspended parent is nil")
	}
}

func TestQueryIterByteOrder(t *testing.T) {
	f, root, child := twoLayerForest(Range{Start: 20, End: 40})
	_ = child

	it, _ := scriptedIter(f, map[LayerID][]MatchedNode{
		root:  {match(5, 8), match(20, 40), match(70, 75)},
		child: {match(21, 24), match(30, 33)},
	})
	defer it.Close()

	// Starts are non-decreasing across the stream, exits aside: an exit is
	// ordered by its injection's start, which earlier inner matches may
	// exceed.
	var last uint
	for _, ev := range collectQueryEvents(t, it) {
		if ev.Kind == EventExitInjection {
			last = ev.Injection.Range.Start
			continue
		}
		if ev.Start() < last {
			t.Fatalf("event at %d follows event at %d", ev.Start(), last)
		}
		last = ev.Start()
	}
}

func TestQueryIterCloseReleasesStreams(t *testing.T) {
	f, root, child := twoLayerForest(Range{Start: 20, End: 40})

	streams := make(map[LayerID]*scriptedMatches)
	open := func(id LayerID) matchStream {
		s := &scriptedMatches{}
		streams[id] = s
		return s
	}
	it := newQueryIter[int](f, open, Injection{Range: Range{Start: 0, End: 100}, Layer: root})
	collectQueryEvents(t, it)
	it.Close()

	for id, s := range streams {
		if !s.closed {
			t.Errorf("stream for %v not closed", id)
		}
	}
	_ = child
}

// TestQueryIterRealGrammars runs the full engine path: a Go file with a JSON
// injection, one query per language, captures interned into one table.
func TestQueryIterRealGrammars(t *testing.T) {
	f, _, child, injection, src := buildInjectedForest(t)

	queries := NewQuerySet()
	if err := queries.Add("go", goLanguage(), `"var" @keyword`); err != nil {
		t.Fatal(err)
	}
	if err := queries.Add("json", jsonLanguage(), `(number) @number`); err != nil {
		t.Fatal(err)
	}
	keyword, _ := queries.CaptureIndex("keyword")
	number, _ := queries.CaptureIndex("number")

	it := NewQueryIter[struct{}](f, src, queries)
	defer it.Close()
	got := collectQueryEvents(t, it)

	varAt := uint(bytes.Index(src, []byte("var")))
	oneAt := uint(bytes.IndexByte(src, '1'))
	twoAt := uint(bytes.IndexByte(src, '2'))

	want := []QueryEvent[struct{}]{
		{Kind: EventMatch, Match: MatchedNode{Capture: keyword, Range: Range{Start: varAt, End: varAt + 3}}},
		{Kind: EventEnterInjection, Injection: Injection{Range: injection, Layer: child}},
		{Kind: EventMatch, Match: MatchedNode{Capture: number, Range: Range{Start: oneAt, End: oneAt + 1}}},
		{Kind: EventMatch, Match: MatchedNode{Capture: number, Range: Range{Start: twoAt, End: twoAt + 1}}},
		{Kind: EventExitInjection, Injection: Injection{Range: injection, Layer: child}},
	}
	checkEventShape(t, got, want)
	for i, ev := range want {
		if ev.Kind == EventMatch && got[i].Match.Capture != ev.Match.Capture {
			t.Errorf("event %d capture = %d, want %d", i, got[i].Match.Capture, ev.Match.Capture)
		}
	}
}
