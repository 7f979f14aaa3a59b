// Package fsnode projects a directory hierarchy as tree nodes. Folders load
// their entries lazily on first expansion, dot files are kept but hidden
// unless enabled, and ignore rules (configured names and globs plus each
// folder's .gitignore) keep entries out of the tree entirely.
package fsnode

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vanderheijden86/sharptree/pkg/debug"
	"github.com/vanderheijden86/sharptree/pkg/tree"
)

// Options control which entries appear.
type Options struct {
	ShowHidden bool
	Ignore     []string // names or globs, .gitignore syntax
	// OnLoad is called with the path of every folder after its entries were
	// loaded, so a watcher can follow the materialized part of the tree.
	OnLoad func(dir string)
}

// source holds the options shared by all nodes of one tree.
type source struct {
	opts  Options
	rules rules
}

// Entry is the content of a file-system node.
type Entry struct {
	src  *source
	node *tree.Node
	name string
	dir  bool
	// base is the parent directory of a root entry; empty for the others.
	base    string
	rules   rules // ignore rules in effect for the children of a folder
	checked bool
}

// NewFolder returns a lazily loaded node for the directory at path.
func NewFolder(path string, opts Options) (*tree.Node, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}
	src := &source{opts: opts, rules: parseRules(opts.Ignore)}
	e := &Entry{src: src, name: filepath.Base(abs), dir: true, base: filepath.Dir(abs), rules: src.rules}
	return e.attach(), nil
}

func (e *Entry) attach() *tree.Node {
	n := tree.New(e)
	e.node = n
	if e.dir {
		n.SetLazyLoading(true)
	}
	return n
}

// Of returns the entry of a file-system node, or nil.
func Of(n *tree.Node) *Entry {
	if n == nil {
		return nil
	}
	e, _ := n.Content.(*Entry)
	return e
}

// Path returns the absolute path of the entry.
func (e *Entry) Path() string {
	if p := Of(e.node.Parent()); p != nil {
		return filepath.Join(p.Path(), e.name)
	}
	return filepath.Join(e.base, e.name)
}

// Name returns the base name.
func (e *Entry) Name() string { return e.name }

// IsDir reports whether the entry is a folder.
func (e *Entry) IsDir() bool { return e.dir }

func (e *Entry) Text() string { return e.name }

func (e *Entry) Key() string { return e.name }

func (e *Entry) IsCheckable() bool { return true }

func (e *Entry) IsChecked() bool { return e.checked }

func (e *Entry) SetChecked(v bool) error {
	e.checked = v
	return nil
}

// IsEditable reports whether the entry can be renamed. Roots cannot.
func (e *Entry) IsEditable() bool {
	return e.node.Parent() != nil
}

// SetText renames the entry on disk and moves its node to the sorted
// position among its siblings.
func (e *Entry) SetText(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("invalid name %q", name)
	}
	if name == e.name {
		return nil
	}
	parent := e.node.Parent()
	if parent == nil {
		return fmt.Errorf("rename root %q: %w", e.name, tree.ErrNotSupported)
	}
	from := e.Path()
	to := filepath.Join(filepath.Dir(from), name)
	if _, err := os.Lstat(to); err == nil {
		return fmt.Errorf("rename %s: %s already exists", from, name)
	}
	if err := os.Rename(from, to); err != nil {
		return err
	}
	e.name = name
	return reposition(parent, e.node)
}

// hidden reports whether the entry is a dot file that should not show.
func (e *Entry) hidden() bool {
	return !e.src.opts.ShowHidden && strings.HasPrefix(e.name, ".")
}

// LoadChildren reads the folder. Ignored entries are skipped; dot files are
// loaded hidden.
func (e *Entry) LoadChildren(n *tree.Node) ([]*tree.Node, error) {
	if !e.dir {
		return nil, nil
	}
	entries, err := e.readDir()
	if err != nil {
		return nil, err
	}
	nodes := make([]*tree.Node, len(entries))
	for i, c := range entries {
		nodes[i] = c.attach()
		nodes[i].SetHidden(c.hidden())
	}
	if e.src.opts.OnLoad != nil {
		e.src.opts.OnLoad(e.Path())
	}
	debug.Log("fsnode: loaded %d entries from %s", len(nodes), e.Path())
	return nodes, nil
}

// readDir lists the folder as sorted child entries and refreshes the rules
// its children inherit.
func (e *Entry) readDir() ([]*Entry, error) {
	dir := e.Path()
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	local, err := readIgnoreFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		debug.Log("fsnode: reading .gitignore in %s: %v", dir, err)
	}
	rs := append(slices.Clone(e.rules), local...)

	out := make([]*Entry, 0, len(des))
	for _, de := range des {
		isDir := de.IsDir()
		if de.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(dir, de.Name())); err == nil {
				isDir = info.IsDir()
			}
		}
		if rs.match(de.Name(), isDir) {
			continue
		}
		c := &Entry{src: e.src, name: de.Name(), dir: isDir}
		if isDir {
			c.rules = rs.inherited()
		}
		out = append(out, c)
	}
	slices.SortFunc(out, compareEntries)
	return out, nil
}

// compareEntries orders folders first, then by case-folded name.
func compareEntries(a, b *Entry) int {
	if a.dir != b.dir {
		if a.dir {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(strings.ToLower(a.name), strings.ToLower(b.name)); c != 0 {
		return c
	}
	return cmp.Compare(a.name, b.name)
}

// SetShowHidden changes whether dot files are shown and updates every
// materialized node below root.
func SetShowHidden(root *tree.Node, show bool) {
	e := Of(root)
	if e == nil {
		return
	}
	e.src.opts.ShowHidden = show
	for _, n := range root.Descendants() {
		if c := Of(n); c != nil {
			n.SetHidden(c.hidden())
		}
	}
}

// reposition moves n to its sorted position among the children of parent.
func reposition(parent, n *tree.Node) error {
	kids := parent.Children()
	if _, err := kids.Remove(n); err != nil {
		return err
	}
	return kids.Insert(insertionIndex(kids, Of(n)), n)
}

// insertionIndex returns where e belongs among the sorted children.
func insertionIndex(kids *tree.Children, e *Entry) int {
	for i, c := range kids.Nodes() {
		if ce := Of(c); ce != nil && compareEntries(e, ce) < 0 {
			return i
		}
	}
	return kids.Len()
}
