// Package language bundles the grammars shipped with the demo together
// with their highlight queries.
package language

import (
	ts "github.com/tree-sitter/go-tree-sitter"
	tsgo "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tsjson "github.com/tree-sitter/tree-sitter-json/bindings/go"

	"github.com/dshills/treelight/internal/syntax"
)

// Language pairs a grammar with its highlight query.
type Language struct {
	Name       string
	Grammar    *ts.Language
	Highlights string
}

// Go returns the Go language definition.
func Go() Language {
	return Language{
		Name:       "go",
		Grammar:    ts.NewLanguage(tsgo.Language()),
		Highlights: goHighlights,
	}
}

// JSON returns the JSON language definition.
func JSON() Language {
	return Language{
		Name:       "json",
		Grammar:    ts.NewLanguage(tsjson.Language()),
		Highlights: jsonHighlights,
	}
}

// All returns every bundled language.
func All() []Language {
	return []Language{Go(), JSON()}
}

// NewQuerySet compiles the highlight queries for all bundled languages into
// one query set with a shared capture table.
func NewQuerySet() (*syntax.QuerySet, error) {
	qs := syntax.NewQuerySet()
	for _, lang := range All() {
		if err := qs.Add(lang.Name, lang.Grammar, lang.Highlights); err != nil {
			return nil, err
		}
	}
	return qs, nil
}

const goHighlights = `
[
  "package" "import" "func" "return" "var" "const" "type"
  "struct" "interface" "map" "chan" "range" "for" "if" "else"
  "switch" "case" "break" "continue" "go" "defer" "select"
  "fallthrough" "default" "goto"
] @keyword

(comment) @comment

(interpreted_string_literal) @string
(raw_string_literal) @string
(rune_literal) @string
(escape_sequence) @string.special

(int_literal) @number
(float_literal) @number
(imaginary_literal) @number

[
  (true) (false) (nil) (iota)
] @constant.builtin

(type_identifier) @type
(field_identifier) @property
(package_identifier) @variable

(function_declaration name: (identifier) @function)
(method_declaration name: (field_identifier) @function)
(call_expression function: (identifier) @function)
(call_expression function: (selector_expression field: (field_identifier) @function))
`

const jsonHighlights = `
(pair key: (string) @property)
(string) @string
(escape_sequence) @string.special
(number) @number

[
  (true) (false) (null)
] @constant.builtin
`
