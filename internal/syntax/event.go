package syntax

// Highlight identifies a visual style category ("keyword", "string"). The
// mapping from Highlight to a concrete style belongs to the theme, not to
// this package.
type Highlight uint32

// HighlightNone marks a capture with no style attached; the highlighter
// skips it.
const HighlightNone = ^Highlight(0)

// HighlightEventKind discriminates HighlightEvent.
type HighlightEventKind uint8

const (
	// EventSource covers a run of source bytes with the currently open
	// highlights applied.
	EventSource HighlightEventKind = iota

	// EventHighlightStart pushes a highlight onto the open stack.
	EventHighlightStart

	// EventHighlightEnd pops the most recent open highlight.
	EventHighlightEnd
)

// HighlightEvent is one element of a nested push/pop highlight stream over
// consecutive byte ranges in increasing order. Start/End are set for source
// events, Highlight for start events.
type HighlightEvent struct {
	Kind      HighlightEventKind
	Start     uint
	End       uint
	Highlight Highlight
}

// SourceEvent returns a source event covering [start, end).
func SourceEvent(start, end uint) HighlightEvent {
	return HighlightEvent{Kind: EventSource, Start: start, End: end}
}

// StartEvent returns a highlight-start event.
func StartEvent(h Highlight) HighlightEvent {
	return HighlightEvent{Kind: EventHighlightStart, Highlight: h}
}

// EndEvent returns a highlight-end event.
func EndEvent() HighlightEvent {
	return HighlightEvent{Kind: EventHighlightEnd}
}

// EventIterator is a pull-based highlight-event stream. Overlay both
// consumes and implements it, so stages chain freely.
type EventIterator interface {
	Next() (HighlightEvent, bool)
}

// Span is an externally supplied highlight to overlay onto an event stream.
type Span struct {
	Highlight Highlight
	Start     uint
	End       uint
}

// SpanIterator yields spans sorted ascending by start.
type SpanIterator interface {
	Next() (Span, bool)
}

// RangeIterator yields byte ranges sorted ascending by start.
type RangeIterator interface {
	Next() (Range, bool)
}

type eventSlice struct {
	events []HighlightEvent
}

// Events returns an iterator over a slice of events.
func Events(events []HighlightEvent) EventIterator {
	return &eventSlice{events: events}
}

func (s *eventSlice) Next() (HighlightEvent, bool) {
	if len(s.events) == 0 {
		return HighlightEvent{}, false
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, true
}

type spanSlice struct {
	spans []Span
}

// Spans returns an iterator over a slice of spans.
func Spans(spans []Span) SpanIterator {
	return &spanSlice{spans: spans}
}

func (s *spanSlice) Next() (Span, bool) {
	if len(s.spans) == 0 {
		return Span{}, false
	}
	sp := s.spans[0]
	s.spans = s.spans[1:]
	return sp, true
}

type rangeSlice struct {
	ranges []Range
}

// Ranges returns an iterator over a slice of ranges.
func Ranges(ranges []Range) RangeIterator {
	return &rangeSlice{ranges: ranges}
}

func (s *rangeSlice) Next() (Range, bool) {
	if len(s.ranges) == 0 {
		return Range{}, false
	}
	r := s.ranges[0]
	s.ranges = s.ranges[1:]
	return r, true
}

// CollectEvents drains an event stream into a slice.
func CollectEvents(it EventIterator) []HighlightEvent {
	var out []HighlightEvent
	for {
		ev, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}
