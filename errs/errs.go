// Package errs defines the typed error kinds raised by compgraph at run
// time: graph-structure, missing-input, parse, key, type and I/O errors.
// Each kind is matchable with Kind.Is so callers can branch on
// failure category instead of parsing error strings.
package errs

import goerrors "gopkg.in/src-d/go-errors.v1"

var (
	// GraphStructure indicates a malformed graph was reached at run time,
	// e.g. a Join node missing its side input. This should only ever be
	// observed as the result of a bug in this package, since the public
	// builder API cannot construct such a graph.
	GraphStructure = goerrors.NewKind("malformed graph: %s")

	// MissingInput indicates Run was invoked without a named source that
	// the graph requires.
	MissingInput = goerrors.NewKind("missing input stream %q")

	// Parse indicates a user-supplied parser, or StringToDateTime, failed
	// to turn a string into a Row value.
	Parse = goerrors.NewKind("parse error: %s")

	// Key indicates a row lacked a column an operator required.
	Key = goerrors.NewKind("row missing column %q")

	// Type indicates an operator callable received a value of unexpected
	// type for a column.
	Type = goerrors.NewKind("unexpected type for column %q: %s")

	// IO indicates a file open/read/spill failure.
	IO = goerrors.NewKind("i/o error: %s")
)
