package tree

import (
	"fmt"

	"github.com/vanderheijden86/sharptree/pkg/debug"
)

// Flattener exposes the flat projection of a list root as an index-addressable
// sequence and reports its changes as flat events. At most one Flattener is
// attached to a list root at a time.
type Flattener struct {
	root        *Node
	includeRoot bool
	subs        listeners[EventFunc]
}

// NewFlattener attaches a Flattener to the list root of modelRoot. When
// includeRoot is false the root itself is not a row and row 0 is its first
// visible descendant.
//
// Attaching to a root that already has a live Flattener panics.
func NewFlattener(modelRoot *Node, includeRoot bool) *Flattener {
	root := modelRoot.ListRoot()
	if root.flattener != nil {
		panic(fmt.Sprintf("tree: %q already has a live flattener", root.Text()))
	}
	f := &Flattener{root: root, includeRoot: includeRoot}
	root.flattener = f
	debug.Log("tree: flattener attached to %q (%d rows)", root.Text(), f.Count())
	return f
}

// Stop detaches the Flattener from its root. Events are no longer delivered.
// Stopping twice is a no-op.
func (f *Flattener) Stop() {
	if f.root.flattener != f {
		return
	}
	f.root.flattener = nil
	debug.Log("tree: flattener detached from %q", f.root.Text())
}

// Attached reports whether the Flattener still receives changes.
func (f *Flattener) Attached() bool {
	return f.root.flattener == f
}

// Root returns the list root being projected.
func (f *Flattener) Root() *Node {
	return f.root
}

// IncludeRoot reports whether the root is row 0.
func (f *Flattener) IncludeRoot() bool {
	return f.includeRoot
}

// Subscribe registers fn for flat events. The returned function cancels the
// subscription.
func (f *Flattener) Subscribe(fn EventFunc) func() {
	return f.subs.add(fn)
}

func (f *Flattener) offset() int {
	if f.includeRoot {
		return 0
	}
	return 1
}

// Count returns the number of rows.
func (f *Flattener) Count() int {
	return f.root.VisibleSubtreeCount() - f.offset()
}

// At returns the row at index i.
func (f *Flattener) At(i int) (*Node, error) {
	if i < 0 || i >= f.Count() {
		return nil, fmt.Errorf("row %d of %d: %w", i, f.Count(), ErrIndexOutOfRange)
	}
	return nodeAt(f.root, i+f.offset()), nil
}

// IndexOf returns the row index of n, or NotFound if n has no row in this
// projection.
func (f *Flattener) IndexOf(n *Node) int {
	if n == nil || n.concealed || n.ListRoot() != f.root {
		return NotFound
	}
	if n == f.root && !f.includeRoot {
		return NotFound
	}
	return n.visibleIndex() - f.offset()
}

// Contains reports whether n has a row.
func (f *Flattener) Contains(n *Node) bool {
	return f.IndexOf(n) != NotFound
}

// Range returns the rows in [start, end). It visits only the subtrees that
// overlap the window, so rendering a viewport does not walk the whole tree.
func (f *Flattener) Range(start, end int) ([]*Node, error) {
	count := f.Count()
	if start < 0 || end < start || end > count {
		return nil, fmt.Errorf("rows [%d, %d) of %d: %w", start, end, count, ErrIndexOutOfRange)
	}
	if start == end {
		return nil, nil
	}
	off := f.offset()
	return collectRange(f.root, 0, start+off, end+off, make([]*Node, 0, end-start)), nil
}

// Nodes returns every row in order.
func (f *Flattener) Nodes() []*Node {
	rows, _ := f.Range(0, f.Count())
	return rows
}

// nodesInserted reports rows that entered the projection starting at the
// absolute position idx (root = 0). f may be nil.
func (f *Flattener) nodesInserted(idx int, rows []*Node) {
	if f == nil || len(rows) == 0 {
		return
	}
	idx -= f.offset()
	for i, n := range rows {
		f.emit(Event{Action: ActionAdd, Index: idx + i, Items: []*Node{n}})
	}
}

// nodesRemoved reports rows that left the projection; they used to start at
// the absolute position idx. f may be nil.
func (f *Flattener) nodesRemoved(idx int, rows []*Node) {
	if f == nil || len(rows) == 0 {
		return
	}
	idx -= f.offset()
	for _, n := range rows {
		f.emit(Event{Action: ActionRemove, Index: idx, Items: []*Node{n}})
	}
}

func (f *Flattener) nodeReplaced(idx int, old, n *Node) {
	if f == nil {
		return
	}
	f.emit(Event{Action: ActionReplace, Index: idx - f.offset(), Items: []*Node{n}, OldItems: []*Node{old}})
}

func (f *Flattener) emit(ev Event) {
	for _, fn := range f.subs.snapshot() {
		fn(ev)
	}
}
