package syntax

import (
	"fmt"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Capture identifies a named query capture. Captures are interned across all
// languages in a QuerySet, so the same capture name ("keyword", "string")
// resolves to the same Capture regardless of which layer matched it.
type Capture uint32

// QuerySet holds one compiled highlight query per grammar together with a
// unified capture-name table. A tree-sitter query only executes against the
// language it was compiled for, so a cross-layer pass needs one query per
// language in the forest.
type QuerySet struct {
	names  []string
	index  map[string]Capture
	byLang map[string]*languageQuery
}

type languageQuery struct {
	query *ts.Query
	// remap translates the query's own capture indices into QuerySet-wide
	// Capture values.
	remap []Capture
}

// NewQuerySet returns an empty query set.
func NewQuerySet() *QuerySet {
	return &QuerySet{
		index:  make(map[string]Capture),
		byLang: make(map[string]*languageQuery),
	}
}

// Add compiles and registers the highlight query for a language, interning
// its capture names. Adding a language twice replaces the earlier query.
func (qs *QuerySet) Add(language string, grammar *ts.Language, source string) error {
	query, qerr := ts.NewQuery(grammar, source)
	if qerr != nil {
		return fmt.Errorf("syntax: compile %s query: %w", language, qerr)
	}
	names := query.CaptureNames()
	remap := make([]Capture, len(names))
	for i, name := range names {
		remap[i] = qs.intern(name)
	}
	qs.byLang[language] = &languageQuery{query: query, remap: remap}
	return nil
}

func (qs *QuerySet) intern(name string) Capture {
	if c, ok := qs.index[name]; ok {
		return c
	}
	c := Capture(len(qs.names))
	qs.names = append(qs.names, name)
	qs.index[name] = c
	return c
}

// CaptureNames returns all interned capture names, indexed by Capture.
func (qs *QuerySet) CaptureNames() []string {
	return qs.names
}

// CaptureName returns the name for a capture.
func (qs *QuerySet) CaptureName(c Capture) string {
	return qs.names[c]
}

// CaptureIndex looks up a capture by name.
func (qs *QuerySet) CaptureIndex(name string) (Capture, bool) {
	c, ok := qs.index[name]
	return c, ok
}

func (qs *QuerySet) language(lang string) *languageQuery {
	return qs.byLang[lang]
}
