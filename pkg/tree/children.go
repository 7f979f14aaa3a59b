package tree

import (
	"errors"
	"fmt"
	"slices"
)

// Children is the ordered child collection of a Node. It owns the child
// sequence, enforces single ownership of nodes, and reports every successful
// mutation as exactly one Change: first to the owning node (which keeps the
// flat projection consistent), then to subscribers.
//
// Children is not reentrant: mutating it from inside one of its own
// notifications fails with ErrReentrancy.
type Children struct {
	parent  *Node
	nodes   []*Node
	raising bool
	subs    listeners[ChangeFunc]
}

func newChildren(parent *Node) *Children {
	return &Children{parent: parent}
}

// Len returns the number of children.
func (c *Children) Len() int {
	return len(c.nodes)
}

// At returns the child at index i.
func (c *Children) At(i int) (*Node, error) {
	if i < 0 || i >= len(c.nodes) {
		return nil, fmt.Errorf("child %d of %d: %w", i, len(c.nodes), ErrIndexOutOfRange)
	}
	return c.nodes[i], nil
}

// Nodes returns a copy of the child sequence.
func (c *Children) Nodes() []*Node {
	out := make([]*Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// First returns the first child, or nil if there are none.
func (c *Children) First() *Node {
	if len(c.nodes) == 0 {
		return nil
	}
	return c.nodes[0]
}

// Last returns the last child, or nil if there are none.
func (c *Children) Last() *Node {
	if len(c.nodes) == 0 {
		return nil
	}
	return c.nodes[len(c.nodes)-1]
}

// IndexOf returns the position of node among the children, or NotFound.
func (c *Children) IndexOf(node *Node) int {
	if node == nil || node.modelParent != c.parent {
		return NotFound
	}
	for i, n := range c.nodes {
		if n == node {
			return i
		}
	}
	return NotFound
}

// Contains reports whether node is a direct child.
func (c *Children) Contains(node *Node) bool {
	return c.IndexOf(node) >= 0
}

// Subscribe registers fn for every Change of this collection. The returned
// function cancels the subscription.
func (c *Children) Subscribe(fn ChangeFunc) func() {
	return c.subs.add(fn)
}

// Insert inserts node at index.
func (c *Children) Insert(index int, node *Node) error {
	if err := c.checkReentrancy(); err != nil {
		return err
	}
	if err := c.checkInsertable(node); err != nil {
		return err
	}
	if index < 0 || index > len(c.nodes) {
		return fmt.Errorf("insert at %d of %d: %w", index, len(c.nodes), ErrIndexOutOfRange)
	}
	c.nodes = slices.Insert(c.nodes, index, node)
	c.raise(Change{Action: ActionAdd, Index: index, Items: []*Node{node}})
	return nil
}

// Add appends node.
func (c *Children) Add(node *Node) error {
	return c.Insert(len(c.nodes), node)
}

// InsertRange inserts nodes at index, preserving their order. Inserting an
// empty slice is a no-op. Either all nodes are inserted or none are.
func (c *Children) InsertRange(index int, nodes []*Node) error {
	if err := c.checkReentrancy(); err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}
	seen := make(map[*Node]bool, len(nodes))
	for _, n := range nodes {
		if err := c.checkInsertable(n); err != nil {
			return err
		}
		if seen[n] {
			return fmt.Errorf("node appears twice in range: %w", ErrOwnership)
		}
		seen[n] = true
	}
	if index < 0 || index > len(c.nodes) {
		return fmt.Errorf("insert range at %d of %d: %w", index, len(c.nodes), ErrIndexOutOfRange)
	}
	items := slices.Clone(nodes)
	c.nodes = slices.Insert(c.nodes, index, items...)
	c.raise(Change{Action: ActionAdd, Index: index, Items: items})
	return nil
}

// AddRange appends nodes.
func (c *Children) AddRange(nodes []*Node) error {
	return c.InsertRange(len(c.nodes), nodes)
}

// RemoveAt removes the child at index.
func (c *Children) RemoveAt(index int) error {
	return c.RemoveRange(index, 1)
}

// RemoveRange removes count children starting at index. Removing zero
// children is a no-op.
func (c *Children) RemoveRange(index, count int) error {
	if err := c.checkReentrancy(); err != nil {
		return err
	}
	if index < 0 || count < 0 || index+count > len(c.nodes) {
		return fmt.Errorf("remove %d at %d of %d: %w", count, index, len(c.nodes), ErrIndexOutOfRange)
	}
	if count == 0 {
		return nil
	}
	removed := slices.Clone(c.nodes[index : index+count])
	c.nodes = slices.Delete(c.nodes, index, index+count)
	c.raise(Change{Action: ActionRemove, Index: index, Items: removed})
	return nil
}

// Remove removes node if it is a direct child. It reports whether the node
// was found.
func (c *Children) Remove(node *Node) (bool, error) {
	if err := c.checkReentrancy(); err != nil {
		return false, err
	}
	i := c.IndexOf(node)
	if i < 0 {
		return false, nil
	}
	return true, c.RemoveRange(i, 1)
}

// Clear removes every child as a single Remove change.
func (c *Children) Clear() error {
	return c.RemoveRange(0, len(c.nodes))
}

// Replace puts node at index in place of the current child. Replacing a
// child with itself is a no-op.
func (c *Children) Replace(index int, node *Node) error {
	if err := c.checkReentrancy(); err != nil {
		return err
	}
	if index < 0 || index >= len(c.nodes) {
		return fmt.Errorf("replace at %d of %d: %w", index, len(c.nodes), ErrIndexOutOfRange)
	}
	old := c.nodes[index]
	if old == node {
		return nil
	}
	if err := c.checkInsertable(node); err != nil {
		return err
	}
	c.nodes[index] = node
	c.raise(Change{Action: ActionReplace, Index: index, Items: []*Node{node}, OldItems: []*Node{old}})
	return nil
}

// RemoveAll removes every child for which match returns true. match is
// called once per child with the collection locked against mutation, and
// each maximal run of adjacent matches is removed with a single Remove change.
func (c *Children) RemoveAll(match func(*Node) bool) error {
	if match == nil {
		return errors.New("RemoveAll: nil predicate")
	}
	if err := c.checkReentrancy(); err != nil {
		return err
	}
	for i := 0; i < len(c.nodes); i++ {
		if !c.test(match, c.nodes[i]) {
			continue
		}
		end := i + 1
		for end < len(c.nodes) && c.test(match, c.nodes[end]) {
			end++
		}
		if err := c.RemoveRange(i, end-i); err != nil {
			return err
		}
		// c.nodes[i] is now the survivor that ended the run (or past the end).
	}
	return nil
}

func (c *Children) test(match func(*Node) bool, n *Node) bool {
	c.raising = true
	defer func() { c.raising = false }()
	return match(n)
}

func (c *Children) checkReentrancy() error {
	if c.raising {
		return ErrReentrancy
	}
	return nil
}

func (c *Children) raise(ch Change) {
	c.raising = true
	defer func() { c.raising = false }()
	c.parent.onChildrenChanged(ch)
	for _, fn := range c.subs.snapshot() {
		fn(ch)
	}
}

// checkInsertable rejects nil nodes, nodes that already have a model parent,
// and nodes that are the owner or one of its ancestors.
func (c *Children) checkInsertable(n *Node) error {
	if n == nil {
		return fmt.Errorf("nil node: %w", ErrOwnership)
	}
	if n.modelParent != nil {
		return fmt.Errorf("node %q: %w", n.Text(), ErrOwnership)
	}
	for p := c.parent; p != nil; p = p.modelParent {
		if p == n {
			return fmt.Errorf("node %q would become its own descendant: %w", n.Text(), ErrOwnership)
		}
	}
	return nil
}
