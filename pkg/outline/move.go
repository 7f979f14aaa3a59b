package outline

import (
	"fmt"

	"github.com/vanderheijden86/sharptree/pkg/tree"
)

// CanAcceptDrop accepts outline nodes dropped at any child position, except
// into the subtree of a dropped node.
func (it *Item) CanAcceptDrop(target *tree.Node, index int, payload any) tree.DropEffect {
	nodes, ok := payload.([]*tree.Node)
	if !ok || len(nodes) == 0 || index < 0 {
		return tree.DropNone
	}
	for _, n := range nodes {
		if Of(n) == nil || n == target || n.IsAncestorOf(target) {
			return tree.DropNone
		}
	}
	return tree.DropMove
}

// PerformDrop moves the dropped nodes, in order, to child position index of
// target. Selected descendants of other dropped nodes travel with their
// ancestor.
func (it *Item) PerformDrop(target *tree.Node, index int, payload any) error {
	if it.CanAcceptDrop(target, index, payload) == tree.DropNone {
		return fmt.Errorf("drop into %q: %w", it.text, tree.ErrNotSupported)
	}
	if err := target.EnsureLoaded(); err != nil {
		return err
	}
	kids := target.Children()
	for _, n := range tree.TopLevel(payload.([]*tree.Node)) {
		if p := n.Parent(); p != nil {
			siblings := p.Children()
			if p == target && siblings.IndexOf(n) < index {
				index--
			}
			if _, err := siblings.Remove(n); err != nil {
				return err
			}
		}
		index = min(index, kids.Len())
		if err := kids.Insert(index, n); err != nil {
			return err
		}
		index++
	}
	return nil
}
