package fsnode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/sharptree/pkg/tree"
)

// CanAcceptDrop accepts a slice of file-system nodes dropped into a folder.
// The index is ignored since folders keep their entries sorted. Drops into
// the folder the nodes already live in, or into one of the dropped folders,
// are refused.
func (e *Entry) CanAcceptDrop(target *tree.Node, _ int, payload any) tree.DropEffect {
	nodes, ok := payload.([]*tree.Node)
	if !ok || len(nodes) == 0 || !e.dir {
		return tree.DropNone
	}
	for _, n := range nodes {
		if Of(n) == nil || n.Parent() == nil {
			return tree.DropNone
		}
		if n == target || n.Parent() == target || n.IsAncestorOf(target) {
			return tree.DropNone
		}
	}
	return tree.DropMove
}

// PerformDrop moves the dropped entries into the folder on disk and in the
// tree. Entries that cannot be moved are reported together; the others are
// still moved.
func (e *Entry) PerformDrop(target *tree.Node, index int, payload any) error {
	if e.CanAcceptDrop(target, index, payload) == tree.DropNone {
		return fmt.Errorf("drop into %s: %w", e.Path(), tree.ErrNotSupported)
	}
	var errs []error
	for _, n := range tree.TopLevel(payload.([]*tree.Node)) {
		if err := e.moveIn(target, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Entry) moveIn(target, n *tree.Node) error {
	c := Of(n)
	from := c.Path()
	to := filepath.Join(e.Path(), c.name)
	if _, err := os.Lstat(to); err == nil {
		return fmt.Errorf("move %s: %s already exists", from, to)
	}
	if err := os.Rename(from, to); err != nil {
		return err
	}
	if _, err := n.Parent().Children().Remove(n); err != nil {
		return err
	}
	if target.LazyLoading() {
		// The entry shows up when the folder is loaded.
		return nil
	}
	kids := target.Children()
	return kids.Insert(insertionIndex(kids, c), n)
}
