package assemble

import "errors"

// Fatal assembly errors. Any of these aborts the whole batch before any
// output is committed; recoverable conditions travel as scene.Warning
// instead.
var (
	// ErrIncompleteHierarchy - a parent path references an ancestor name
	// with no sidecar record, so no node (synthetic or otherwise) can be
	// inferred for it.
	ErrIncompleteHierarchy = errors.New("incomplete hierarchy")

	// ErrAmbiguousSibling - two or more siblings share a base name without
	// variant tags to tell them apart.
	ErrAmbiguousSibling = errors.New("ambiguous sibling")

	// ErrNestedVariant - a variant member parents another variant member of
	// the same base name.
	ErrNestedVariant = errors.New("nested variant")
)
