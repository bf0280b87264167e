package main

import (
	"bytes"
	"errors"
	"fmt"

	ts "github.com/tree-sitter/go-tree-sitter"
	"github.com/tidwall/gjson"

	"github.com/dshills/treelight/internal/language"
	"github.com/dshills/treelight/internal/syntax"
)

// buildForest parses src as Go and registers every raw string literal whose
// body looks like a JSON document as a JSON injection layer.
func buildForest(src []byte) (*syntax.Forest, error) {
	goLang := language.Go()
	tree, err := parse(goLang, src, nil)
	if err != nil {
		return nil, err
	}

	forest := syntax.NewForest()
	root := forest.Insert(syntax.Layer{
		Language: goLang.Name,
		Tree:     tree,
		Ranges:   []syntax.Range{{Start: 0, End: uint(len(src))}},
	})
	forest.SetRoot(root)

	jsonLang := language.JSON()
	var injections []syntax.Injection
	for _, rng := range jsonBodies(tree.RootNode(), src) {
		childTree, err := parse(jsonLang, src, []syntax.Range{rng})
		if err != nil {
			closeForest(forest)
			return nil, fmt.Errorf("injection at byte %d: %w", rng.Start, err)
		}
		child := forest.Insert(syntax.Layer{
			Language: jsonLang.Name,
			Tree:     childTree,
			Depth:    1,
			Parent:   root,
			Ranges:   []syntax.Range{rng},
		})
		injections = append(injections, syntax.Injection{Range: rng, Layer: child})
	}
	forest.Get(root).Injections = injections
	return forest, nil
}

// closeForest releases every parse tree held by the forest.
func closeForest(f *syntax.Forest) {
	for _, layer := range f.All() {
		if layer.Tree != nil {
			layer.Tree.Close()
		}
	}
}

// parse runs a parser over src, restricted to the given document ranges when
// any are supplied, so injected trees keep document byte offsets.
func parse(lang language.Language, src []byte, ranges []syntax.Range) (*ts.Tree, error) {
	parser := ts.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang.Grammar)
	if len(ranges) > 0 {
		included := make([]ts.Range, len(ranges))
		for i, r := range ranges {
			included[i] = ts.Range{
				StartByte:  r.Start,
				EndByte:    r.End,
				StartPoint: pointAt(src, r.Start),
				EndPoint:   pointAt(src, r.End),
			}
		}
		parser.SetIncludedRanges(included)
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, errors.New("parser produced no tree")
	}
	return tree, nil
}

func pointAt(src []byte, offset uint) ts.Point {
	var p ts.Point
	for i := uint(0); i < offset && i < uint(len(src)); i++ {
		if src[i] == '\n' {
			p.Row++
			p.Column = 0
		} else {
			p.Column++
		}
	}
	return p
}

// jsonBodies walks the Go tree collecting raw string bodies that hold a JSON
// object or array, in byte order.
func jsonBodies(node *ts.Node, src []byte) []syntax.Range {
	var out []syntax.Range
	var walk func(n *ts.Node)
	walk = func(n *ts.Node) {
		if n.Kind() == "raw_string_literal_content" {
			body := src[n.StartByte():n.EndByte()]
			if looksLikeJSON(body) {
				out = append(out, syntax.Range{Start: n.StartByte(), End: n.EndByte()})
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return out
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return false
	}
	return gjson.ValidBytes(trimmed)
}
