package tree

import "errors"

// NotFound is returned by index lookups for nodes that have no flat position:
// nodes inside a collapsed ancestor, hidden nodes, or nodes projected by a
// different list root.
const NotFound = -1

// Structural errors
var (
	// ErrOwnership indicates an attempt to insert a nil node or a node that
	// already has a model parent.
	ErrOwnership = errors.New("node is nil or already has a parent")

	// ErrReentrancy indicates a mutation of a child collection from inside its
	// own change notification or RemoveAll predicate.
	ErrReentrancy = errors.New("child collection modified during its own notification")

	// ErrIndexOutOfRange indicates a child or flat index outside the valid range.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Loading errors
var (
	// ErrLoadFailure wraps errors returned by a lazy child loader. The node
	// stays collapsed and lazy, so expanding it again retries the load.
	ErrLoadFailure = errors.New("loading children failed")
)

// Capability errors
var (
	// ErrNotSupported indicates that the node content does not implement the
	// requested capability.
	ErrNotSupported = errors.New("operation not supported")

	// ErrIsolated indicates that a node cannot rejoin its parent's projection,
	// either because it has no model parent or because it still owns a live
	// Flattener.
	ErrIsolated = errors.New("node cannot rejoin its parent projection")
)
