// Package export writes snapshots of a flat tree projection: Markdown
// outlines, plain text with guide lines, SQLite databases and SVG or PNG
// images.
package export

import (
	"strings"

	"github.com/vanderheijden86/sharptree/pkg/tree"
)

// Row is one line of the projection as seen by a list consumer.
type Row struct {
	Index  int
	Parent int // row index of the list parent, or -1
	Depth  int // 0 for the top rows of the projection
	Text   string
	Path   string

	Expandable bool
	Expanded   bool
	Checkable  bool
	Checked    bool
	Last       bool
	// Rails tells, for each ancestor between the top rows and the parent,
	// whether that ancestor has a following sibling, which keeps its guide
	// line running past this row.
	Rails []bool
}

// Collect snapshots every row of the projection.
func Collect(f *tree.Flattener) []Row {
	nodes := f.Nodes()
	rows := make([]Row, len(nodes))
	for i, n := range nodes {
		rows[i] = RowOf(f, i, n)
	}
	return rows
}

// RowOf describes node n shown at row index i of f.
func RowOf(f *tree.Flattener, i int, n *tree.Node) Row {
	base := 1
	if f.IncludeRoot() {
		base = 0
	}
	depth := max(n.Level()-base, 0)
	r := Row{
		Index:      i,
		Parent:     tree.NotFound,
		Depth:      depth,
		Text:       n.Text(),
		Path:       n.Path(),
		Expandable: n.ShowExpander(),
		Expanded:   n.IsExpanded(),
		Checkable:  n.IsCheckable(),
		Checked:    n.IsChecked(),
		Last:       n.IsLast(),
	}
	if p := n.ListParent(); p != nil {
		r.Parent = f.IndexOf(p)
	}
	if depth > 1 {
		r.Rails = make([]bool, depth-1)
		a := n.ListParent()
		for k := depth - 2; k >= 0 && a != nil; k-- {
			r.Rails[k] = !a.IsLast()
			a = a.ListParent()
		}
	}
	return r
}

// Guide returns the tree guide drawn in front of the row text.
func Guide(r Row) string {
	if r.Depth == 0 {
		return ""
	}
	var sb strings.Builder
	for _, rail := range r.Rails {
		if rail {
			sb.WriteString("│  ")
		} else {
			sb.WriteString("   ")
		}
	}
	if r.Last {
		sb.WriteString("└─ ")
	} else {
		sb.WriteString("├─ ")
	}
	return sb.String()
}

// Marker returns the expander glyph of the row: ▾ when expanded, ▸ when it
// can be expanded, a blank otherwise.
func Marker(r Row) string {
	switch {
	case r.Expandable && r.Expanded:
		return "▾"
	case r.Expandable:
		return "▸"
	default:
		return " "
	}
}
