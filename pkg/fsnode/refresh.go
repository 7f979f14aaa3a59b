package fsnode

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/sharptree/pkg/debug"
	"github.com/vanderheijden86/sharptree/pkg/tree"
)

// Refresh reconciles the children of a loaded folder with the disk: vanished
// entries are removed in as few changes as possible, new entries are inserted
// at their sorted positions, and surviving nodes keep their state. Folders
// that were never loaded are left alone.
func Refresh(folder *tree.Node) error {
	e := Of(folder)
	if e == nil || !e.dir || folder.LazyLoading() {
		return nil
	}
	defer debug.LogEnterExit("fsnode.Refresh " + e.Path())()

	entries, err := e.readDir()
	if err != nil {
		return fmt.Errorf("refresh %s: %w", e.Path(), err)
	}
	onDisk := make(map[string]bool, len(entries))
	for _, c := range entries {
		onDisk[entryKey(c)] = true
	}

	kids := folder.Children()
	err = kids.RemoveAll(func(n *tree.Node) bool {
		c := Of(n)
		return c == nil || !onDisk[entryKey(c)]
	})
	if err != nil {
		return err
	}

	// Survivors are a sorted subsequence of entries; fill the gaps.
	for i, c := range entries {
		if i < kids.Len() {
			if cur := Of(mustAt(kids, i)); cur != nil && entryKey(cur) == entryKey(c) {
				cur.rules = c.rules
				continue
			}
		}
		n := c.attach()
		n.SetHidden(c.hidden())
		if err := kids.Insert(i, n); err != nil {
			return err
		}
	}
	return nil
}

func entryKey(e *Entry) string {
	if e.dir {
		return e.name + "/"
	}
	return e.name
}

func mustAt(kids *tree.Children, i int) *tree.Node {
	n, _ := kids.At(i)
	return n
}

// Find returns the materialized node for path below root, or nil.
func Find(root *tree.Node, path string) *tree.Node {
	e := Of(root)
	if e == nil {
		return nil
	}
	rel, err := filepath.Rel(e.Path(), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	n := root
	if rel == "." {
		return n
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		var next *tree.Node
		for _, c := range n.Children().Nodes() {
			if ce := Of(c); ce != nil && ce.name == part {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		n = next
	}
	return n
}
