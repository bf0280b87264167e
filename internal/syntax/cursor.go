package syntax

import (
	"iter"
	"sort"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// injectionRange is one flattened injection entry. Injection ranges may
// overlap across depths, but every overlapping part is a subset of its
// parent's range, so sorting by (end, depth descending) lets the cursor find
// the deepest range containing a point with a binary search and a short
// forward scan.
type injectionRange struct {
	start uint
	end   uint
	layer LayerID
	depth uint32
}

// TreeCursor walks the forest depth-first as if it were a single tree,
// crossing transparently into and out of injection layers.
//
// The cursor borrows the forest; it must not outlive a reparse.
type TreeCursor struct {
	forest  *Forest
	root    LayerID
	current LayerID
	ranges  []injectionRange
	node    *ts.Node
}

// NewTreeCursor returns a cursor positioned at the root node of the root
// layer.
func NewTreeCursor(forest *Forest, root LayerID) *TreeCursor {
	var ranges []injectionRange
	for id, layer := range forest.All() {
		if !layer.Parent.IsValid() {
			continue
		}
		for _, r := range layer.Ranges {
			ranges = append(ranges, injectionRange{
				start: r.Start,
				end:   r.End,
				layer: id,
				depth: layer.Depth,
			})
		}
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].end != ranges[j].end {
			return ranges[i].end < ranges[j].end
		}
		return ranges[i].depth > ranges[j].depth
	})

	return &TreeCursor{
		forest:  forest,
		root:    root,
		current: root,
		ranges:  ranges,
		node:    forest.Get(root).Root(),
	}
}

// Node returns the node the cursor is on.
func (c *TreeCursor) Node() *ts.Node {
	return c.node
}

// Layer returns the layer the cursor is currently inside.
func (c *TreeCursor) Layer() LayerID {
	return c.current
}

// GotoParent moves to the structural parent, or, at a layer's root, ascends
// into the parent layer at the smallest node containing the layer's range.
// It returns false only at the root node of the outermost layer.
func (c *TreeCursor) GotoParent() bool {
	if parent := c.node.Parent(); parent != nil {
		c.node = parent
		return true
	}
	if c.current == c.root {
		return false
	}

	start, end := c.node.StartByte(), c.node.EndByte()
	parentID := c.forest.Get(c.current).Parent
	c.current = parentID
	root := c.forest.Get(c.current).Root()
	c.node = root.DescendantForByteRange(start, end)
	if c.node == nil {
		c.node = root
	}
	return true
}

// layerOfExactRange finds the injection layer whose range equals [start, end).
func (c *TreeCursor) layerOfExactRange(start, end uint) (LayerID, bool) {
	i := sort.Search(len(c.ranges), func(k int) bool {
		return c.ranges[k].end >= end
	})
	for ; i < len(c.ranges) && c.ranges[i].end == end; i++ {
		if c.ranges[i].start == start {
			return c.ranges[i].layer, true
		}
	}
	return LayerID{}, false
}

// enterInjection switches into the child layer if the current node's range is
// exactly an injection range of a different layer.
func (c *TreeCursor) enterInjection() bool {
	id, ok := c.layerOfExactRange(c.node.StartByte(), c.node.EndByte())
	if !ok || id == c.current {
		return false
	}
	c.current = id
	c.node = c.forest.Get(id).Root()
	return true
}

// GotoFirstChild moves to the first child. A node whose range is exactly an
// injection range descends into that layer's root instead.
func (c *TreeCursor) GotoFirstChild() bool {
	if c.enterInjection() {
		return true
	}
	if child := c.node.Child(0); child != nil {
		c.node = child
		return true
	}
	return false
}

// GotoFirstNamedChild is GotoFirstChild restricted to named nodes.
func (c *TreeCursor) GotoFirstNamedChild() bool {
	if c.enterInjection() {
		return true
	}
	if child := c.node.NamedChild(0); child != nil {
		c.node = child
		return true
	}
	return false
}

// GotoNextSibling moves to the next structural sibling. Injections never
// appear as siblings; they replace a node's interior, not its neighbors.
func (c *TreeCursor) GotoNextSibling() bool {
	if sibling := c.node.NextSibling(); sibling != nil {
		c.node = sibling
		return true
	}
	return false
}

// GotoPrevSibling moves to the previous structural sibling.
func (c *TreeCursor) GotoPrevSibling() bool {
	if sibling := c.node.PrevSibling(); sibling != nil {
		c.node = sibling
		return true
	}
	return false
}

// GotoNextNamedSibling moves to the next named structural sibling.
func (c *TreeCursor) GotoNextNamedSibling() bool {
	if sibling := c.node.NextNamedSibling(); sibling != nil {
		c.node = sibling
		return true
	}
	return false
}

// GotoPrevNamedSibling moves to the previous named structural sibling.
func (c *TreeCursor) GotoPrevNamedSibling() bool {
	if sibling := c.node.PrevNamedSibling(); sibling != nil {
		c.node = sibling
		return true
	}
	return false
}

// layerContainingRange finds the deepest injection layer containing
// [start, end), falling back to the root layer.
func (c *TreeCursor) layerContainingRange(start, end uint) LayerID {
	i := sort.Search(len(c.ranges), func(k int) bool {
		return c.ranges[k].end >= end
	})
	for ; i < len(c.ranges) && c.ranges[i].start < end; i++ {
		if c.ranges[i].start <= start {
			return c.ranges[i].layer
		}
	}
	return c.root
}

// ResetToByteRange jumps to the node spanning [start, end) in the deepest
// layer containing that range. Out-of-range offsets degrade to the best
// containing root node rather than failing.
func (c *TreeCursor) ResetToByteRange(start, end uint) {
	c.current = c.layerContainingRange(start, end)
	root := c.forest.Get(c.current).Root()
	c.node = root.DescendantForByteRange(start, end)
	if c.node == nil {
		c.node = root
	}
}

// Children returns a lazy sequence of the immediate children of the node the
// cursor is on, in order. Entering an injection yields the injected layer's
// root as the single child. The sequence cannot be restarted; call Children
// again for a fresh pass. The receiver itself is not moved.
func (c *TreeCursor) Children() iter.Seq[*ts.Node] {
	sub := *c
	return func(yield func(*ts.Node) bool) {
		if !sub.GotoFirstChild() {
			return
		}
		for {
			if !yield(sub.Node()) {
				return
			}
			if !sub.GotoNextSibling() {
				return
			}
		}
	}
}

// NamedChildren is Children restricted to named nodes.
func (c *TreeCursor) NamedChildren() iter.Seq[*ts.Node] {
	sub := *c
	return func(yield func(*ts.Node) bool) {
		if !sub.GotoFirstNamedChild() {
			return
		}
		for {
			if !yield(sub.Node()) {
				return
			}
			if !sub.GotoNextNamedSibling() {
				return
			}
		}
	}
}
