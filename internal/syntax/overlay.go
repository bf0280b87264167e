package syntax

// Overlay rewrites a highlight-event stream so that wherever a span covers
// part of a source event, that sub-range is wrapped in an additional
// HighlightStart/HighlightEnd pair. Everything else passes through
// unchanged, so overlays chain: the output of one is a valid input for the
// next.
//
// Spans must be sorted ascending by start. The monotonic variant requires
// them to be non-overlapping; the overlapping variant merges spans sharing
// its single scope.
type Overlay struct {
	events EventIterator
	spans  spanPeeker

	nextEvent HighlightEvent
	hasEvent  bool

	currentSpan Span
	hasSpan     bool

	queue eventStack
	merge bool
}

// NewMonotonicOverlay overlays non-overlapping, sorted spans onto the event
// stream. Overlapping or unsorted spans are a caller precondition violation
// and produce unspecified output.
func NewMonotonicOverlay(events EventIterator, spans SpanIterator) *Overlay {
	o := &Overlay{events: events, spans: spanPeeker{it: spans}}
	o.prime()
	return o
}

// NewOverlappingOverlay overlays the scope highlight onto the event stream
// at each of the sorted ranges. Ranges may overlap or touch; runs of
// overlapping ranges are coalesced into one maximal span before being
// applied.
func NewOverlappingOverlay(events EventIterator, ranges RangeIterator, scope Highlight) *Overlay {
	o := &Overlay{
		events: events,
		spans:  spanPeeker{it: rangeSpans{ranges: ranges, scope: scope}},
		merge:  true,
	}
	o.prime()
	return o
}

func (o *Overlay) prime() {
	o.nextEvent, o.hasEvent = o.events.Next()
	o.currentSpan, o.hasSpan = o.spans.next()
}

// Next implements EventIterator.
func (o *Overlay) Next() (HighlightEvent, bool) {
	if ev, ok := o.queue.pop(); ok {
		return ev, true
	}

	for o.hasEvent && o.nextEvent.Kind == EventSource {
		start, end := o.nextEvent.Start, o.nextEvent.End
		if start == end {
			o.nextEvent, o.hasEvent = o.events.Next()
			continue
		}

		// Skip empty spans and spans that end before this source event.
		for o.hasSpan && (o.currentSpan.End <= start || o.currentSpan.Start == o.currentSpan.End) {
			o.currentSpan, o.hasSpan = o.spans.next()
		}

		if o.hasSpan && o.currentSpan.Start < end {
			// The span starts inside the source event: split off and emit
			// the unhighlighted prefix first.
			if start < o.currentSpan.Start {
				return o.partitionSource(start, end, o.currentSpan.Start), true
			}

			if o.merge {
				o.mergeSpans()
			}
			span := o.currentSpan

			o.queue.push(EndEvent())

			// The span is fully processed once it ends within this event.
			if span.End <= end {
				o.currentSpan, o.hasSpan = o.spans.next()
			}

			var covered HighlightEvent
			if span.End < end {
				// Highlighted part now, remainder of the event later.
				covered = o.partitionSource(start, end, span.End)
			} else {
				// The event is fully contained in the span.
				o.nextEvent, o.hasEvent = o.events.Next()
				covered = SourceEvent(start, end)
			}
			o.queue.push(covered)
			return StartEvent(span.Highlight), true
		}

		break
	}

	if o.hasEvent {
		ev := o.nextEvent
		o.nextEvent, o.hasEvent = o.events.Next()
		return ev, true
	}

	// A span still open when the base stream ends flushes as one final
	// highlighted region.
	if o.hasSpan {
		span := o.currentSpan
		o.hasSpan = false
		o.queue.push(EndEvent())
		o.queue.push(SourceEvent(span.Start, span.End))
		return StartEvent(span.Highlight), true
	}
	return HighlightEvent{}, false
}

// partitionSource splits the pending source event at the partition point,
// re-buffering the tail and returning the head.
func (o *Overlay) partitionSource(start, end, partition uint) HighlightEvent {
	o.nextEvent = SourceEvent(partition, end)
	o.hasEvent = true
	return SourceEvent(start, partition)
}

// mergeSpans folds every upcoming span that overlaps or touches the current
// one into a single larger span. All spans share the overlay's scope, so
// coalescing loses nothing.
func (o *Overlay) mergeSpans() {
	for {
		next, ok := o.spans.peek()
		if !ok || next.Start > o.currentSpan.End {
			return
		}
		if next.End > o.currentSpan.End {
			o.currentSpan.End = next.End
		}
		o.spans.next()
	}
}

// spanPeeker adds single-span lookahead to a SpanIterator.
type spanPeeker struct {
	it     SpanIterator
	peeked Span
	ok     bool
}

func (p *spanPeeker) peek() (Span, bool) {
	if !p.ok {
		p.peeked, p.ok = p.it.Next()
	}
	return p.peeked, p.ok
}

func (p *spanPeeker) next() (Span, bool) {
	if p.ok {
		p.ok = false
		return p.peeked, true
	}
	return p.it.Next()
}

// rangeSpans turns a range iterator plus one scope into a span iterator.
type rangeSpans struct {
	ranges RangeIterator
	scope  Highlight
}

func (r rangeSpans) Next() (Span, bool) {
	rg, ok := r.ranges.Next()
	if !ok {
		return Span{}, false
	}
	return Span{Highlight: r.scope, Start: rg.Start, End: rg.End}, true
}

// eventStack is the fixed two-slot follow-up buffer. At most a trailing
// HighlightEnd plus one re-buffered event are ever pending, so depth never
// exceeds two.
type eventStack struct {
	data [2]HighlightEvent
	len  uint8
}

func (q *eventStack) push(ev HighlightEvent) {
	q.data[q.len] = ev
	q.len++
}

func (q *eventStack) pop() (HighlightEvent, bool) {
	if q.len == 0 {
		return HighlightEvent{}, false
	}
	q.len--
	return q.data[q.len], true
}
