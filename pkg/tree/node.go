// Package tree maintains a mutable hierarchy of nodes together with its flat
// projection: the contiguous, index-addressable sequence of visible nodes in
// document order that a virtualized list consumer renders.
//
// Every node caches the number of rows its own subtree contributes to the
// projection (VisibleSubtreeCount). Structural edits go through the Children
// collection of the parent; the parent restores the cached counts and the
// derived IsVisible/IsLast/Level values synchronously and, when the edited
// subtree is visible under a list root that has a live Flattener, reports the
// affected rows as flat Add/Remove/Replace events.
//
// The package is single-threaded: all mutations, notifications and queries
// must happen on one goroutine.
package tree

import (
	"fmt"

	"github.com/vanderheijden86/sharptree/pkg/debug"
)

// LoadFunc materializes the children of a lazily loaded node.
type LoadFunc func(n *Node) ([]*Node, error)

// Node is a vertex of the hierarchy. A Node owns its children through its
// Children collection and keeps two non-owning back-references: the model
// parent (the node whose Children contains it) and the list parent (the node
// whose projection it participates in). The list parent equals the model
// parent unless the node has been isolated into its own projection.
//
// The zero value is a collapsed, visible root with no children.
type Node struct {
	// Content is the application payload. Capability queries (IsCheckable,
	// CanAcceptDrop, LoadChildren, ...) are answered by optional interfaces
	// implemented by Content.
	Content any

	children    *Children
	modelParent *Node
	listParent  *Node
	flattener   *Flattener
	loader      LoadFunc

	expanded    bool
	lazyLoading bool
	hidden      bool

	// Derived state, maintained at the point of mutation.
	descendants int  // visible rows below this node: VisibleSubtreeCount-1
	concealed   bool // !IsVisible
	followed    bool // !IsLast
	level       int
}

// New returns a detached node carrying content.
func New(content any) *Node {
	return &Node{Content: content}
}

// NewLazy returns a detached node whose children are produced by load the
// first time it is expanded.
func NewLazy(content any, load LoadFunc) *Node {
	n := New(content)
	n.SetLoader(load)
	return n
}

// Children returns the child collection, creating it on first use.
func (n *Node) Children() *Children {
	if n.children == nil {
		n.children = newChildren(n)
	}
	return n.children
}

// HasChildren reports whether the node has materialized children.
func (n *Node) HasChildren() bool {
	return n.children != nil && len(n.children.nodes) > 0
}

// Parent returns the model parent, or nil for a root.
func (n *Node) Parent() *Node {
	return n.modelParent
}

// ListParent returns the list parent, or nil if the node is a list root.
func (n *Node) ListParent() *Node {
	return n.listParent
}

// ListRoot follows the list-parent chain to its top.
func (n *Node) ListRoot() *Node {
	root := n
	for root.listParent != nil {
		root = root.listParent
	}
	return root
}

// IsRoot reports whether the node has no model parent.
func (n *Node) IsRoot() bool {
	return n.modelParent == nil
}

// Flattener returns the live Flattener attached to this node, or nil.
func (n *Node) Flattener() *Flattener {
	return n.flattener
}

// Level is the distance from the node to its list root.
func (n *Node) Level() int {
	return n.level
}

// IsVisible reports whether the node has a flat position: it is a list root,
// or it is not hidden and every list ancestor is expanded.
func (n *Node) IsVisible() bool {
	return !n.concealed
}

// IsLast reports whether the node is the final child of its model parent.
// Roots are considered last.
func (n *Node) IsLast() bool {
	return !n.followed
}

// IsExpanded reports whether the node shows its children.
func (n *Node) IsExpanded() bool {
	return n.expanded
}

// IsHidden reports whether the node is excluded from its parent's projection.
func (n *Node) IsHidden() bool {
	return n.hidden
}

// LazyLoading reports whether the children have not been materialized yet.
func (n *Node) LazyLoading() bool {
	return n.lazyLoading
}

// SetLazyLoading marks the children as not yet materialized. The next Expand
// calls the loader (see SetLoader and ChildLoader) before expanding.
func (n *Node) SetLazyLoading(lazy bool) {
	n.lazyLoading = lazy
}

// SetLoader installs load as the lazy loader and marks the node lazy.
func (n *Node) SetLoader(load LoadFunc) {
	n.loader = load
	n.lazyLoading = load != nil
}

// VisibleSubtreeCount is the number of rows this node contributes to the
// projection of its own list root: itself plus, when expanded, the counts of
// its counted children.
func (n *Node) VisibleSubtreeCount() int {
	return 1 + n.descendants
}

// ShowExpander reports whether a consumer should draw an expand toggle.
func (n *Node) ShowExpander() bool {
	if n.lazyLoading {
		return true
	}
	if n.children == nil {
		return false
	}
	for _, c := range n.children.nodes {
		if c.counted() {
			return true
		}
	}
	return false
}

// Expand shows the children. A lazy node is loaded first; if loading fails
// the node stays collapsed and lazy and the error wraps ErrLoadFailure.
func (n *Node) Expand() error {
	if n.expanded {
		return nil
	}
	if n.lazyLoading {
		if err := n.load(); err != nil {
			return err
		}
	}
	n.setExpanded(true)
	return nil
}

// Collapse hides the children.
func (n *Node) Collapse() {
	n.setExpanded(false)
}

// SetExpanded expands or collapses the node.
func (n *Node) SetExpanded(expanded bool) error {
	if expanded {
		return n.Expand()
	}
	n.Collapse()
	return nil
}

// Toggle flips the expansion state.
func (n *Node) Toggle() error {
	return n.SetExpanded(!n.expanded)
}

// EnsureLoaded materializes lazy children without expanding the node.
func (n *Node) EnsureLoaded() error {
	if !n.lazyLoading {
		return nil
	}
	return n.load()
}

func (n *Node) load() error {
	load := n.loader
	if load == nil {
		if cl, ok := n.Content.(ChildLoader); ok {
			load = cl.LoadChildren
		}
	}
	if load == nil {
		n.lazyLoading = false
		return nil
	}
	nodes, err := load(n)
	if err != nil {
		debug.Log("tree: loading children of %q failed: %v", n.Text(), err)
		return fmt.Errorf("%w: %q: %w", ErrLoadFailure, n.Text(), err)
	}
	n.lazyLoading = false
	if err := n.Children().AddRange(nodes); err != nil {
		n.lazyLoading = true
		return fmt.Errorf("%w: %q: %w", ErrLoadFailure, n.Text(), err)
	}
	return nil
}

// SetHidden excludes the node (and its subtree) from its parent's projection
// or brings it back.
func (n *Node) SetHidden(hidden bool) {
	if n.hidden == hidden {
		return
	}
	if n.listParent == nil {
		n.hidden = hidden
		return
	}
	if hidden {
		f, idx, rows := n.rowsLeaving()
		propagate(n, -n.VisibleSubtreeCount())
		n.hidden = true
		n.setVisible(false)
		f.nodesRemoved(idx, rows)
		return
	}
	n.hidden = false
	n.setVisible(n.listParent.showsChildren())
	propagate(n, n.VisibleSubtreeCount())
	n.emitEntering()
}

// Isolate removes the node from its parent's projection without changing the
// model: the node keeps its model parent but becomes a list root, so a
// separate Flattener can project its subtree.
func (n *Node) Isolate() {
	if n.listParent == nil {
		return
	}
	var f *Flattener
	var idx int
	var rows []*Node
	if !n.hidden {
		f, idx, rows = n.rowsLeaving()
		propagate(n, -n.VisibleSubtreeCount())
	}
	n.listParent = nil
	n.setLevel(0)
	n.setVisible(true)
	f.nodesRemoved(idx, rows)
}

// Rejoin returns an isolated node to its model parent's projection. It fails
// with ErrIsolated if the node has no model parent or still owns a live
// Flattener.
func (n *Node) Rejoin() error {
	if n.listParent != nil {
		return nil
	}
	if n.modelParent == nil {
		return fmt.Errorf("node %q has no parent: %w", n.Text(), ErrIsolated)
	}
	if n.flattener != nil {
		return fmt.Errorf("node %q is projected by a live flattener: %w", n.Text(), ErrIsolated)
	}
	p := n.modelParent
	n.listParent = p
	n.setLevel(p.level + 1)
	n.setVisible(p.showsChildren() && !n.hidden)
	if n.hidden {
		return nil
	}
	propagate(n, n.VisibleSubtreeCount())
	n.emitEntering()
	return nil
}

// String returns the node text.
func (n *Node) String() string {
	return n.Text()
}

// counted reports whether the node contributes rows to its model parent.
func (n *Node) counted() bool {
	return n.listParent != nil && !n.hidden
}

// showsChildren reports whether children of n can be visible.
func (n *Node) showsChildren() bool {
	return n.expanded && !n.concealed
}

func (n *Node) liveFlattener() *Flattener {
	return n.ListRoot().flattener
}

// propagate adds delta to the cached counts of every list ancestor that
// includes child's rows, stopping at the first collapsed ancestor.
func propagate(child *Node, delta int) {
	if delta == 0 {
		return
	}
	for p := child.listParent; p != nil; child, p = p, p.listParent {
		if child.hidden || !p.expanded {
			return
		}
		p.descendants += delta
	}
}

// setVisible updates the cached visibility of n and, through expanded
// children, of its subtree. A subtree whose root keeps its visibility is
// already consistent.
func (n *Node) setVisible(visible bool) {
	if n.concealed == !visible {
		return
	}
	n.concealed = !visible
	if !n.expanded || n.children == nil {
		return
	}
	for _, c := range n.children.nodes {
		if c.listParent == n {
			c.setVisible(visible && !c.hidden)
		}
	}
}

func (n *Node) setLevel(level int) {
	n.level = level
	if n.children == nil {
		return
	}
	for _, c := range n.children.nodes {
		if c.listParent == n {
			c.setLevel(level + 1)
		}
	}
}

// appendRows appends the rows of n's subtree in document order, n first.
func (n *Node) appendRows(dst []*Node) []*Node {
	dst = append(dst, n)
	if !n.expanded || n.children == nil {
		return dst
	}
	for _, c := range n.children.nodes {
		if c.counted() {
			dst = c.appendRows(dst)
		}
	}
	return dst
}

// rowsLeaving captures the flat position and rows of n before it leaves the
// projection. f is nil when nothing is projected.
func (n *Node) rowsLeaving() (f *Flattener, idx int, rows []*Node) {
	if n.concealed {
		return nil, 0, nil
	}
	f = n.liveFlattener()
	if f == nil {
		return nil, 0, nil
	}
	return f, n.visibleIndex(), n.appendRows(nil)
}

// emitEntering reports the rows of n after it entered the projection.
func (n *Node) emitEntering() {
	if n.concealed {
		return
	}
	if f := n.liveFlattener(); f != nil {
		f.nodesInserted(n.visibleIndex(), n.appendRows(nil))
	}
}

func (n *Node) setExpanded(expanded bool) {
	if n.expanded == expanded {
		return
	}
	var f *Flattener
	if !n.concealed {
		f = n.liveFlattener()
	}
	if expanded {
		n.expanded = true
		sum := 0
		for _, c := range n.childList() {
			if c.listParent != n {
				continue
			}
			c.setVisible(!n.concealed && !c.hidden)
			if c.counted() {
				sum += c.VisibleSubtreeCount()
			}
		}
		n.descendants = sum
		propagate(n, sum)
		debug.LogIf(sum > 0, "tree: expanded %q (+%d rows)", n.Text(), sum)
		if f != nil && sum > 0 {
			f.nodesInserted(n.visibleIndex()+1, n.appendRows(nil)[1:])
		}
		return
	}

	var idx int
	var rows []*Node
	if f != nil && n.descendants > 0 {
		idx = n.visibleIndex() + 1
		rows = n.appendRows(nil)[1:]
	}
	removed := n.descendants
	n.expanded = false
	for _, c := range n.childList() {
		if c.listParent == n {
			c.setVisible(false)
		}
	}
	n.descendants = 0
	propagate(n, -removed)
	f.nodesRemoved(idx, rows)
}

func (n *Node) childList() []*Node {
	if n.children == nil {
		return nil
	}
	return n.children.nodes
}

// onChildrenChanged keeps derived state and the flat projection consistent
// with a change of n's child sequence. The sequence already reflects the
// change; the items being processed do not yet have consistent back-references.
func (n *Node) onChildrenChanged(ch Change) {
	n.updateFollowed(ch)
	switch ch.Action {
	case ActionRemove:
		for _, x := range ch.Items {
			n.detachChild(x, ch.Index)
		}
	case ActionAdd:
		for i, x := range ch.Items {
			n.attachChild(x, ch.Index+i)
		}
	case ActionReplace:
		n.replaceChild(ch.OldItems[0], ch.Items[0], ch.Index)
	}
}

func (n *Node) updateFollowed(ch Change) {
	nodes := n.children.nodes
	switch ch.Action {
	case ActionAdd:
		for i, x := range ch.Items {
			x.followed = ch.Index+i < len(nodes)-1
		}
		if ch.Index > 0 {
			nodes[ch.Index-1].followed = true
		}
	case ActionRemove:
		for _, x := range ch.Items {
			x.followed = false
		}
		if len(nodes) > 0 {
			nodes[len(nodes)-1].followed = false
		}
	case ActionReplace:
		ch.Items[0].followed = ch.OldItems[0].followed
		ch.OldItems[0].followed = false
	}
}

func (n *Node) attachChild(x *Node, slot int) {
	if x.flattener != nil {
		debug.Log("tree: %q joined %q, stopping its flattener", x.Text(), n.Text())
		x.flattener.Stop()
	}
	x.modelParent = n
	x.listParent = n
	x.setLevel(n.level + 1)
	x.setVisible(n.showsChildren() && !x.hidden)
	if x.hidden {
		return
	}
	propagate(x, x.VisibleSubtreeCount())
	if x.concealed {
		return
	}
	if f := n.liveFlattener(); f != nil {
		f.nodesInserted(n.slotIndex(slot), x.appendRows(nil))
	}
}

func (n *Node) detachChild(x *Node, slot int) {
	var f *Flattener
	var idx int
	var rows []*Node
	if x.counted() {
		if !x.concealed {
			if f = n.liveFlattener(); f != nil {
				idx = n.slotIndex(slot)
				rows = x.appendRows(nil)
			}
		}
		propagate(x, -x.VisibleSubtreeCount())
	}
	x.release()
	f.nodesRemoved(idx, rows)
}

// release turns a removed child back into a standalone root.
func (n *Node) release() {
	n.modelParent = nil
	n.listParent = nil
	n.setLevel(0)
	n.setVisible(true)
	if n.flattener != nil {
		debug.Log("tree: removed %q owned a flattener, stopping it", n.Text())
		n.flattener.Stop()
	}
}

func (n *Node) replaceChild(old, x *Node, slot int) {
	f := n.liveFlattener()
	oldRows := 0
	if old.counted() && !old.concealed {
		oldRows = old.VisibleSubtreeCount()
	}
	newRows := 0
	if !x.hidden && n.showsChildren() {
		newRows = x.VisibleSubtreeCount()
	}

	if f != nil && oldRows == 1 && newRows == 1 {
		if old.counted() {
			propagate(old, -1)
		}
		old.release()
		n.attachQuiet(x)
		f.nodeReplaced(n.slotIndex(slot), old, x)
		return
	}

	n.detachChild(old, slot)
	n.attachChild(x, slot)
}

// attachQuiet attaches x as a child without emitting flat events.
func (n *Node) attachQuiet(x *Node) {
	if x.flattener != nil {
		x.flattener.Stop()
	}
	x.modelParent = n
	x.listParent = n
	x.setLevel(n.level + 1)
	x.setVisible(n.showsChildren() && !x.hidden)
	if !x.hidden {
		propagate(x, x.VisibleSubtreeCount())
	}
}
