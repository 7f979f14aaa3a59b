// Package outline loads YAML outline documents as trees. Every item has a
// text, an optional check mark and children; an item with an include key gets
// its children from another outline file, loaded on first expansion.
//
//	text: Groceries
//	children:
//	  - text: Milk
//	    checked: true
//	  - text: Recipes
//	    include: recipes.yaml
package outline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/sharptree/pkg/debug"
	"github.com/vanderheijden86/sharptree/pkg/tree"
)

// record is the on-disk form of an item.
type record struct {
	Text     string    `yaml:"text"`
	Checked  bool      `yaml:"checked,omitempty"`
	Include  string    `yaml:"include,omitempty"`
	Children []*record `yaml:"children,omitempty"`
}

// Item is the content of an outline node.
type Item struct {
	node    *tree.Node
	text    string
	checked bool
	// include is the file the children come from, as written in the
	// document. dir resolves relative includes.
	include string
	dir     string
}

// Document is an outline file and the tree built from it.
type Document struct {
	path string
	root *tree.Node
}

// Open reads the outline at path.
func Open(path string) (*Document, error) {
	rec, err := readFile(path)
	if err != nil {
		return nil, err
	}
	d := &Document{path: path}
	d.root = build(rec, filepath.Dir(path))
	return d, nil
}

// New returns an empty document that will be written to path.
func New(path, text string) *Document {
	d := &Document{path: path}
	d.root = NewItem(text)
	return d
}

// Root returns the root item.
func (d *Document) Root() *tree.Node { return d.root }

// Path returns the file the document is saved to.
func (d *Document) Path() string { return d.path }

func readFile(path string) (*record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading outline: %w", err)
	}
	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing outline %s: %w", path, err)
	}
	return &rec, nil
}

// NewItem returns a detached outline item.
func NewItem(text string) *tree.Node {
	return (&Item{text: text}).attach()
}

func (it *Item) attach() *tree.Node {
	n := tree.New(it)
	it.node = n
	if it.include != "" {
		n.SetLazyLoading(true)
	}
	return n
}

func build(rec *record, dir string) *tree.Node {
	it := &Item{text: rec.Text, checked: rec.Checked, include: rec.Include, dir: dir}
	n := it.attach()
	if rec.Include != "" {
		if len(rec.Children) > 0 {
			debug.Log("outline: %q has both include and children; children ignored", rec.Text)
		}
		return n
	}
	kids := make([]*tree.Node, len(rec.Children))
	for i, c := range rec.Children {
		kids[i] = build(c, dir)
	}
	if err := n.Children().AddRange(kids); err != nil {
		// Freshly built nodes have no parent.
		panic(err)
	}
	return n
}

// Of returns the item of an outline node, or nil.
func Of(n *tree.Node) *Item {
	if n == nil {
		return nil
	}
	it, _ := n.Content.(*Item)
	return it
}

func (it *Item) Text() string { return it.text }

func (it *Item) IsCheckable() bool { return true }

func (it *Item) IsChecked() bool { return it.checked }

func (it *Item) SetChecked(v bool) error {
	it.checked = v
	return nil
}

func (it *Item) IsEditable() bool { return true }

// SetText renames the item. Empty text is rejected.
func (it *Item) SetText(text string) error {
	if text == "" {
		return errors.New("outline item text cannot be empty")
	}
	it.text = text
	return nil
}

// Include returns the file the children of the item are loaded from, or "".
func (it *Item) Include() string { return it.include }

func (it *Item) includePath() string {
	if filepath.IsAbs(it.include) {
		return it.include
	}
	return filepath.Join(it.dir, it.include)
}

// LoadChildren reads the included file. Its root text is ignored; the items
// below it become the children.
func (it *Item) LoadChildren(_ *tree.Node) ([]*tree.Node, error) {
	if it.include == "" {
		return nil, nil
	}
	path := it.includePath()
	rec, err := readFile(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	kids := make([]*tree.Node, len(rec.Children))
	for i, c := range rec.Children {
		kids[i] = build(c, dir)
	}
	debug.Log("outline: included %d items from %s", len(kids), path)
	return kids, nil
}
