package syntax

import (
	"testing"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsgo "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tsjson "github.com/tree-sitter/tree-sitter-json/bindings/go"
)

func goLanguage() *ts.Language { return ts.NewLanguage(tsgo.Language()) }

func jsonLanguage() *ts.Language { return ts.NewLanguage(tsjson.Language()) }

// parseTree parses src with the language, restricted to the given document
// ranges when any are supplied, so injection-layer node offsets stay in
// document coordinates.
func parseTree(t *testing.T, lang *ts.Language, src []byte, ranges []Range) *ts.Tree {
	t.Helper()
	parser := ts.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)
	if len(ranges) > 0 {
		included := make([]ts.Range, len(ranges))
		for i, r := range ranges {
			included[i] = tsRange(src, r)
		}
		parser.SetIncludedRanges(included)
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		t.Fatal("parse returned no tree")
	}
	t.Cleanup(tree.Close)
	return tree
}

func tsRange(src []byte, r Range) ts.Range {
	return ts.Range{
		StartByte:  r.Start,
		EndByte:    r.End,
		StartPoint: pointAt(src, r.Start),
		EndPoint:   pointAt(src, r.End),
	}
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

func findNodeByKind(node *ts.Node, kind string) *ts.Node {
	if node.Kind() == kind {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := findNodeByKind(node.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
}

// goJSONSource is a Go file with a JSON document inside a raw string
// literal; tests register the literal's content as a JSON injection layer.
const goJSONSource = "package p\n\nvar data = `{\"key\": [1, 2]}`\n"

// buildInjectedForest parses goJSONSource as a two-layer forest: a Go root
// layer with the raw string content injected as JSON. The injection range is
// taken from the parsed tree itself, so it is exactly the content node's
// range.
func buildInjectedForest(t *testing.T) (forest *Forest, root, child LayerID, injection Range, src []byte) {
	t.Helper()
	src = []byte(goJSONSource)

	goTree := parseTree(t, goLanguage(), src, nil)
	content := findNodeByKind(goTree.RootNode(), "raw_string_literal_content")
	if content == nil {
		t.Fatal("no raw_string_literal_content node in parsed source")
	}
	injection = Range{Start: content.StartByte(), End: content.EndByte()}

	jsonTree := parseTree(t, jsonLanguage(), src, []Range{injection})

	forest = NewForest()
	root = forest.Insert(Layer{
		Language: "go",
		Tree:     goTree,
		Ranges:   []Range{{Start: 0, End: uint(len(src))}},
	})
	child = forest.Insert(Layer{
		Language: "json",
		Tree:     jsonTree,
		Depth:    1,
		Parent:   root,
		Ranges:   []Range{injection},
	})
	forest.Get(root).Injections = []Injection{{Range: injection, Layer: child}}
	forest.SetRoot(root)
	return forest, root, child, injection, src
}
