package syntax

import (
	"fmt"
	"iter"
	"sort"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Range is a half-open byte range [Start, End) in document offsets.
type Range struct {
	Start uint
	End   uint
}

// IsEmpty returns true if the range covers no bytes.
func (r Range) IsEmpty() bool { return r.End <= r.Start }

// Contains returns true if the byte offset lies inside the range.
func (r Range) Contains(idx uint) bool { return r.Start <= idx && idx < r.End }

// LayerID is a stable, generation-checked handle to a layer in a Forest.
// The zero value is invalid and never refers to a live layer.
type LayerID struct {
	index      uint32
	generation uint32
}

// IsValid reports whether the handle was ever issued by a Forest.
func (id LayerID) IsValid() bool { return id.generation != 0 }

func (id LayerID) String() string {
	return fmt.Sprintf("layer(%d.%d)", id.index, id.generation)
}

// Injection records that a byte range inside a parent layer is parsed as a
// separate child layer. Injection ranges use document offsets, not offsets
// relative to the parent layer.
type Injection struct {
	Range Range
	Layer LayerID
}

// Layer is one parse tree for one grammar, covering one or more disjoint
// byte ranges of the document.
type Layer struct {
	// Language names the grammar this layer was parsed with.
	Language string

	// Tree is the concrete syntax tree. Injection layers are parsed with
	// included ranges, so node offsets are document offsets.
	Tree *ts.Tree

	// Depth is 0 for the document root and one more per injection level.
	Depth uint32

	// Parent is the invalid LayerID for the root layer.
	Parent LayerID

	// Ranges are the document byte ranges covered by this layer, sorted
	// and disjoint.
	Ranges []Range

	// Injections lists this layer's direct children, sorted by start.
	// Sibling injections never overlap; each is a subset of Ranges.
	Injections []Injection
}

// Root returns the root node of the layer's tree.
func (l *Layer) Root() *ts.Node {
	return l.Tree.RootNode()
}

// InjectionAt returns the direct child injection containing the byte
// offset, without descending into nested injections.
func (l *Layer) InjectionAt(idx uint) *Injection {
	i := sort.Search(len(l.Injections), func(k int) bool {
		return l.Injections[k].Range.Start > idx
	})
	if i > 0 && l.Injections[i-1].Range.End > idx {
		return &l.Injections[i-1]
	}
	return nil
}

type layerSlot struct {
	layer      Layer
	generation uint32
	live       bool
}

// Forest is an arena of layers keyed by stable LayerID handles. Slots are
// reused after removal, with a bumped generation so stale handles are
// detected rather than silently resolving to an unrelated layer.
type Forest struct {
	slots []layerSlot
	free  []uint32
	root  LayerID
	count int
}

// NewForest returns an empty forest.
func NewForest() *Forest {
	return &Forest{}
}

// Insert adds a layer and returns its handle.
func (f *Forest) Insert(layer Layer) LayerID {
	if n := len(f.free); n > 0 {
		idx := f.free[n-1]
		f.free = f.free[:n-1]
		slot := &f.slots[idx]
		slot.generation++
		slot.layer = layer
		slot.live = true
		f.count++
		return LayerID{index: idx, generation: slot.generation}
	}
	f.slots = append(f.slots, layerSlot{layer: layer, generation: 1, live: true})
	f.count++
	return LayerID{index: uint32(len(f.slots) - 1), generation: 1}
}

// Remove deletes the layer for the handle. Removing a layer invalidates
// every cursor and iterator constructed over the forest.
func (f *Forest) Remove(id LayerID) bool {
	if !f.contains(id) {
		return false
	}
	slot := &f.slots[id.index]
	slot.layer = Layer{}
	slot.live = false
	f.free = append(f.free, id.index)
	f.count--
	return true
}

func (f *Forest) contains(id LayerID) bool {
	return id.IsValid() &&
		int(id.index) < len(f.slots) &&
		f.slots[id.index].live &&
		f.slots[id.index].generation == id.generation
}

// Contains reports whether the handle refers to a live layer.
func (f *Forest) Contains(id LayerID) bool { return f.contains(id) }

// Get resolves a handle. A dead or stale handle is a lifetime violation by
// the caller (the forest changed under an outstanding cursor or iterator)
// and panics.
func (f *Forest) Get(id LayerID) *Layer {
	if !f.contains(id) {
		panic(fmt.Sprintf("syntax: %v is not in the forest; reparsed during a highlight pass?", id))
	}
	return &f.slots[id.index].layer
}

// Len returns the number of live layers.
func (f *Forest) Len() int { return f.count }

// SetRoot designates the outermost document layer.
func (f *Forest) SetRoot(id LayerID) { f.root = id }

// Root returns the outermost document layer.
func (f *Forest) Root() LayerID { return f.root }

// All iterates over every live layer in arena order.
func (f *Forest) All() iter.Seq2[LayerID, *Layer] {
	return func(yield func(LayerID, *Layer) bool) {
		for i := range f.slots {
			slot := &f.slots[i]
			if !slot.live {
				continue
			}
			id := LayerID{index: uint32(i), generation: slot.generation}
			if !yield(id, &slot.layer) {
				return
			}
		}
	}
}

// LayerForByteRange returns the deepest layer whose single injection chain
// contains both start and end. It descends from the root one injection at a
// time and stops as soon as start and end fall into different children.
func (f *Forest) LayerForByteRange(start, end uint) LayerID {
	cursor := f.root
	for {
		layer := f.Get(cursor)
		startInj := layer.InjectionAt(start)
		if startInj == nil {
			break
		}
		endInj := layer.InjectionAt(end)
		if endInj == nil || startInj.Layer != endInj.Layer {
			break
		}
		cursor = startInj.Layer
	}
	return cursor
}
