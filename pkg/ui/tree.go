// Package ui is the terminal front end: a bubbletea program over a flat tree
// projection.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/sharptree/pkg/export"
	"github.com/vanderheijden86/sharptree/pkg/tree"
)

// TreeModel is a scrolling list over a Flattener. It renders only the rows
// inside the viewport and keeps its cursor and selection in step with the
// projection by listening to flat events, so it never rebuilds the list.
type TreeModel struct {
	flat        *tree.Flattener
	unsubscribe func()

	cursor         int                 // row index of the cursor
	viewportOffset int                 // index of the first rendered row
	selected       map[*tree.Node]bool // multi-selection, cursor excluded
	moving         map[*tree.Node]bool // rows picked up for a move

	theme            Theme
	showLines        bool
	showRootExpander bool
	width            int
	height           int
}

// NewTreeModel creates a view over f and subscribes to its events.
func NewTreeModel(f *tree.Flattener, theme Theme) *TreeModel {
	t := &TreeModel{
		flat:      f,
		selected:  make(map[*tree.Node]bool),
		moving:    make(map[*tree.Node]bool),
		theme:            theme,
		showLines:        true,
		showRootExpander: true,
	}
	t.unsubscribe = f.Subscribe(t.onEvent)
	return t
}

// Close stops listening to the projection.
func (t *TreeModel) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// SetShowLines turns the guide lines on or off.
func (t *TreeModel) SetShowLines(show bool) { t.showLines = show }

// SetShowRootExpander controls whether a shown root row gets an expander.
func (t *TreeModel) SetShowRootExpander(show bool) { t.showRootExpander = show }

// onEvent keeps the cursor on the same node across inserts and removes
// above it, and forgets removed rows in the selection.
func (t *TreeModel) onEvent(ev tree.Event) {
	switch ev.Action {
	case tree.ActionAdd:
		if t.flat.Count() > 1 && ev.Index <= t.cursor {
			t.cursor++
		}
	case tree.ActionRemove:
		for _, n := range ev.Items {
			delete(t.selected, n)
			delete(t.moving, n)
		}
		if ev.Index < t.cursor {
			t.cursor--
		}
	case tree.ActionReplace:
		for i, old := range ev.OldItems {
			if t.selected[old] {
				delete(t.selected, old)
				t.selected[ev.Items[i]] = true
			}
			delete(t.moving, old)
		}
	}
	t.clampCursor()
}

func (t *TreeModel) clampCursor() {
	if t.cursor >= t.flat.Count() {
		t.cursor = t.flat.Count() - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// Cursor returns the cursor row index.
func (t *TreeModel) Cursor() int { return t.cursor }

// SelectedNode returns the node under the cursor, or nil for an empty tree.
func (t *TreeModel) SelectedNode() *tree.Node {
	n, err := t.flat.At(t.cursor)
	if err != nil {
		return nil
	}
	return n
}

// SelectNode moves the cursor to n if it is a row.
func (t *TreeModel) SelectNode(n *tree.Node) bool {
	i := t.flat.IndexOf(n)
	if i == tree.NotFound {
		return false
	}
	t.cursor = i
	t.ensureCursorVisible()
	return true
}

// ToggleMark adds the cursor row to the multi-selection or removes it.
func (t *TreeModel) ToggleMark() {
	n := t.SelectedNode()
	if n == nil {
		return
	}
	if t.selected[n] {
		delete(t.selected, n)
	} else {
		t.selected[n] = true
	}
}

// ClearMarks empties the multi-selection.
func (t *TreeModel) ClearMarks() {
	clear(t.selected)
}

// Selection returns the marked rows in row order, or the cursor row when
// nothing is marked.
func (t *TreeModel) Selection() []*tree.Node {
	if len(t.selected) == 0 {
		if n := t.SelectedNode(); n != nil {
			return []*tree.Node{n}
		}
		return nil
	}
	var out []*tree.Node
	for _, n := range t.flat.Nodes() {
		if t.selected[n] {
			out = append(out, n)
		}
	}
	return out
}

// TopLevelSelection returns the selected nodes that have no selected
// ancestor. Moves and deletes act on these.
func (t *TreeModel) TopLevelSelection() []*tree.Node {
	return tree.TopLevel(t.Selection())
}

// SetMoving marks the nodes picked up for a move; nil clears it.
func (t *TreeModel) SetMoving(nodes []*tree.Node) {
	clear(t.moving)
	for _, n := range nodes {
		t.moving[n] = true
	}
}

func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.ensureCursorVisible()
}

func (t *TreeModel) MoveDown() {
	if t.cursor < t.flat.Count()-1 {
		t.cursor++
	}
	t.ensureCursorVisible()
}

func (t *TreeModel) PageDown() {
	t.cursor += max(t.viewHeight()/2, 1)
	t.clampCursor()
	t.ensureCursorVisible()
}

func (t *TreeModel) PageUp() {
	t.cursor -= max(t.viewHeight()/2, 1)
	t.clampCursor()
	t.ensureCursorVisible()
}

func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

func (t *TreeModel) JumpToBottom() {
	t.cursor = max(t.flat.Count()-1, 0)
	t.ensureCursorVisible()
}

// JumpToParent moves the cursor to the parent row, if it is shown.
func (t *TreeModel) JumpToParent() {
	n := t.SelectedNode()
	if n == nil {
		return
	}
	if i := t.flat.IndexOf(n.ListParent()); i != tree.NotFound {
		t.cursor = i
		t.ensureCursorVisible()
	}
}

// ExpandOrMoveToChild expands a collapsed row, or steps into the first child
// of an expanded one.
func (t *TreeModel) ExpandOrMoveToChild() error {
	n := t.SelectedNode()
	if n == nil || !n.ShowExpander() {
		return nil
	}
	if !n.IsExpanded() {
		return n.Expand()
	}
	if n.VisibleSubtreeCount() > 1 {
		t.MoveDown()
	}
	return nil
}

// CollapseOrJumpToParent collapses an expanded row, or moves to the parent.
func (t *TreeModel) CollapseOrJumpToParent() {
	n := t.SelectedNode()
	if n == nil {
		return
	}
	if n.IsExpanded() && n.ShowExpander() {
		n.Collapse()
		return
	}
	t.JumpToParent()
}

// ToggleExpand flips the cursor row.
func (t *TreeModel) ToggleExpand() error {
	n := t.SelectedNode()
	if n == nil || !n.ShowExpander() {
		return nil
	}
	return n.Toggle()
}

func (t *TreeModel) viewHeight() int {
	if t.height <= 0 {
		return 20
	}
	return t.height
}

func (t *TreeModel) ensureCursorVisible() {
	h := t.viewHeight()
	if t.cursor < t.viewportOffset {
		t.viewportOffset = t.cursor
	}
	if t.cursor >= t.viewportOffset+h {
		t.viewportOffset = t.cursor - h + 1
	}
	t.viewportOffset = max(min(t.viewportOffset, t.flat.Count()-h), 0)
}

// visibleRange returns the half-open range of rows in the viewport.
func (t *TreeModel) visibleRange() (start, end int) {
	t.ensureCursorVisible()
	start = t.viewportOffset
	end = min(start+t.viewHeight(), t.flat.Count())
	return start, end
}

func (t *TreeModel) View() string {
	if t.flat.Count() == 0 {
		return t.theme.Status.Render("(empty)")
	}
	start, end := t.visibleRange()
	rows, err := t.flat.Range(start, end)
	if err != nil {
		return t.theme.ErrorText.Render(err.Error())
	}

	var sb strings.Builder
	for i, n := range rows {
		idx := start + i
		sb.WriteString(t.renderNode(export.RowOf(t.flat, idx, n), n, idx == t.cursor))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *TreeModel) renderNode(r export.Row, n *tree.Node, isCursor bool) string {
	var sb strings.Builder

	prefix := ""
	if t.showLines {
		prefix = export.Guide(r)
	} else {
		prefix = strings.Repeat("  ", r.Depth)
	}
	sb.WriteString(t.theme.Guide.Render(prefix))
	marker := export.Marker(r)
	if r.Depth == 0 && t.flat.IncludeRoot() && !t.showRootExpander {
		marker = " "
	}
	sb.WriteString(t.theme.Indicator.Render(marker))
	sb.WriteString(" ")

	if r.Checkable {
		if r.Checked {
			sb.WriteString(t.theme.Done.Render("[x]"))
		} else {
			sb.WriteString("[ ]")
		}
		sb.WriteString(" ")
	}

	avail := t.width - lipgloss.Width(sb.String())
	if t.width <= 0 {
		avail = 80
	}
	text := runewidth.Truncate(r.Text, max(avail, 8), "…")
	switch {
	case t.moving[n]:
		text = t.theme.Moving.Render(text)
	case t.selected[n]:
		text = t.theme.Marked.Render(text)
	case r.Checked:
		text = t.theme.Done.Render(text)
	}
	sb.WriteString(text)

	line := sb.String()
	if isCursor {
		line = t.theme.Selected.Render(line)
	}
	return line
}
