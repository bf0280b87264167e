// Package syntax implements the layered syntax-tree core used for
// highlighting: a forest of per-grammar parse-tree layers connected by
// injections, a cursor that walks the forest as if it were one tree, a
// query-match iterator that produces a single byte-ordered event stream
// across all layers, and an overlay stage that punches additional highlight
// spans into an existing event stream.
//
// Layers are created and destroyed by the reparse scheduler, not by this
// package. Every cursor, iterator, and overlay borrows the Forest and the
// source buffer for the duration of one highlighting pass; a reparse
// invalidates all of them.
package syntax
