package tree

import (
	"errors"
	"fmt"
	"testing"
)

func TestNodeDefaults(t *testing.T) {
	var n Node
	if n.VisibleSubtreeCount() != 1 {
		t.Errorf("expected count 1 for zero node, got %d", n.VisibleSubtreeCount())
	}
	if !n.IsVisible() || !n.IsLast() || n.Level() != 0 {
		t.Error("expected zero node to be a visible, last root at level 0")
	}
	if n.IsExpanded() || n.HasChildren() || n.ShowExpander() {
		t.Error("expected zero node to be a collapsed leaf")
	}
	if n.Text() != "" {
		t.Errorf("expected empty text, got %q", n.Text())
	}
}

func TestNodeIsLastAndLevel(t *testing.T) {
	a, b := node("A"), node("B")
	r := node("R", a, b)

	if a.IsLast() || !b.IsLast() {
		t.Error("expected only B to be last")
	}
	c := node("C", node("C1"))
	_ = r.Children().Add(c)
	if b.IsLast() || !c.IsLast() {
		t.Error("expected appended C to become last")
	}
	if c.Level() != 1 || c.Children().First().Level() != 2 {
		t.Errorf("expected levels 1 and 2, got %d and %d", c.Level(), c.Children().First().Level())
	}
	_ = r.Children().RemoveAt(2)
	if !b.IsLast() {
		t.Error("expected B to be last again after removing C")
	}
	if c.Level() != 0 || c.Children().First().Level() != 1 {
		t.Error("expected removed subtree to be re-levelled from 0")
	}
	_ = r.Children().Insert(0, c)
	if c.IsLast() || !b.IsLast() {
		t.Error("expected inserting at the front to leave B last")
	}
	checkInvariants(t, r)
}

func TestNodeVisibilityFollowsExpansion(t *testing.T) {
	a1 := node("A1")
	a := node("A", a1)
	r := node("R", a)

	if !r.IsVisible() {
		t.Error("expected root to be visible")
	}
	if a.IsVisible() {
		t.Error("expected child of collapsed root to be invisible")
	}
	mustExpand(t, r, a)
	if !a1.IsVisible() {
		t.Error("expected A1 to be visible when ancestors are expanded")
	}
	r.Collapse()
	if a.IsVisible() || a1.IsVisible() {
		t.Error("expected collapse to hide the whole subtree")
	}
	if r.VisibleSubtreeCount() != 1 {
		t.Errorf("expected collapsed count 1, got %d", r.VisibleSubtreeCount())
	}
	if a.VisibleSubtreeCount() != 2 {
		t.Errorf("expected A to keep count 2, got %d", a.VisibleSubtreeCount())
	}
	checkInvariants(t, r)
}

func TestNodeToggle(t *testing.T) {
	r := node("R", node("A"))
	if err := r.Toggle(); err != nil || !r.IsExpanded() {
		t.Fatalf("expected toggle to expand, got %v", err)
	}
	if err := r.Toggle(); err != nil || r.IsExpanded() {
		t.Fatalf("expected toggle to collapse, got %v", err)
	}
	if err := r.SetExpanded(true); err != nil || r.VisibleSubtreeCount() != 2 {
		t.Errorf("expected SetExpanded to expand, got %v", err)
	}
}

func TestNodeLazyLoading(t *testing.T) {
	calls := 0
	lazy := NewLazy("L", func(n *Node) ([]*Node, error) {
		calls++
		return []*Node{node("L1"), node("L2")}, nil
	})
	r := node("R", lazy, node("B"))
	mustExpand(t, r)
	f := NewFlattener(r, false)
	defer f.Stop()
	m := newMirror(f)

	if !lazy.ShowExpander() {
		t.Error("expected lazy node to show an expander")
	}
	mustExpand(t, lazy)
	if calls != 1 {
		t.Errorf("expected loader to run once, got %d", calls)
	}
	if lazy.LazyLoading() {
		t.Error("expected lazy flag to clear after loading")
	}
	if got := names(f.Nodes()); got != "L,L1,L2,B" {
		t.Errorf("unexpected rows %q", got)
	}
	lazy.Collapse()
	mustExpand(t, lazy)
	if calls != 1 {
		t.Errorf("expected no reload on second expand, got %d calls", calls)
	}
	m.check(t)
	checkInvariants(t, r)
}

func TestNodeLazyLoadFailureRetries(t *testing.T) {
	fail := errors.New("disk on fire")
	attempts := 0
	lazy := NewLazy("L", func(n *Node) ([]*Node, error) {
		attempts++
		if attempts == 1 {
			return nil, fail
		}
		return []*Node{node("L1")}, nil
	})
	r := node("R", lazy)
	mustExpand(t, r)

	err := lazy.Expand()
	if !errors.Is(err, ErrLoadFailure) || !errors.Is(err, fail) {
		t.Fatalf("expected load failure wrapping the cause, got %v", err)
	}
	if lazy.IsExpanded() || !lazy.LazyLoading() {
		t.Error("expected node to stay collapsed and lazy after a failed load")
	}
	if r.VisibleSubtreeCount() != 2 {
		t.Errorf("expected counts untouched, got %d", r.VisibleSubtreeCount())
	}

	mustExpand(t, lazy)
	if attempts != 2 || lazy.Children().Len() != 1 {
		t.Errorf("expected retry to load 1 child, got %d attempts and %d children", attempts, lazy.Children().Len())
	}
	checkInvariants(t, r)
}

type loadingContent struct {
	name string
}

func (c loadingContent) Text() string { return c.name }

func (c loadingContent) LoadChildren(n *Node) ([]*Node, error) {
	// Populate directly and return nothing.
	for i := range 2 {
		if err := n.Children().Add(New(fmt.Sprintf("%s/%d", c.name, i))); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func TestNodeLazyLoadingFromContent(t *testing.T) {
	n := New(loadingContent{name: "dir"})
	n.SetLazyLoading(true)
	mustExpand(t, n)
	if got := names(n.VisibleDescendants()); got != "dir/0,dir/1" {
		t.Errorf("expected loader-populated children, got %q", got)
	}

	plain := New("plain")
	plain.SetLazyLoading(true)
	mustExpand(t, plain)
	if plain.LazyLoading() || plain.HasChildren() {
		t.Error("expected node without a loader to expand empty")
	}
}

func TestNodeHidden(t *testing.T) {
	b := node("B", node("B1"))
	r := node("R", node("A"), b, node("C"))
	mustExpand(t, r, b)
	f := NewFlattener(r, false)
	defer f.Stop()
	m := newMirror(f)

	b.SetHidden(true)
	if len(m.events) != 2 || m.events[0].Index != 1 || m.events[1].Index != 1 {
		t.Errorf("expected two removes at 1, got %v", m.events)
	}
	if got := names(f.Nodes()); got != "A,C" {
		t.Errorf("expected A,C, got %q", got)
	}
	if b.IsVisible() || f.IndexOf(b) != NotFound {
		t.Error("expected hidden node to have no row")
	}
	if !b.ShowExpander() {
		t.Error("expected hidden node to keep its expander")
	}
	m.check(t)
	checkInvariants(t, r)

	m.reset()
	b.SetHidden(false)
	if got := names(f.Nodes()); got != "A,B,B1,C" {
		t.Errorf("expected A,B,B1,C, got %q", got)
	}
	if len(m.events) != 2 {
		t.Errorf("expected two adds, got %d", len(m.events))
	}
	m.check(t)
	checkInvariants(t, r)

	// A parent whose children are all hidden has nothing to expand.
	only := node("only")
	p := node("P", only)
	only.SetHidden(true)
	if p.ShowExpander() {
		t.Error("expected parent with only hidden children to show no expander")
	}
}

func TestNodeInsertHidden(t *testing.T) {
	r := node("R", node("A"))
	mustExpand(t, r)
	f := NewFlattener(r, true)
	defer f.Stop()
	m := newMirror(f)

	h := node("H")
	h.SetHidden(true)
	_ = r.Children().Add(h)
	if len(m.events) != 0 || f.Count() != 2 {
		t.Errorf("expected hidden insert to add no rows, got %d events and count %d", len(m.events), f.Count())
	}
	checkInvariants(t, r)
}

type capContent struct {
	text    string
	checked bool
	effect  DropEffect
	dropped []any
}

func (c *capContent) Text() string { return c.text }
func (c *capContent) Key() string { return "key:" + c.text }
func (c *capContent) IsCheckable() bool { return true }
func (c *capContent) IsChecked() bool { return c.checked }
func (c *capContent) SetChecked(v bool) error { c.checked = v; return nil }
func (c *capContent) IsEditable() bool { return true }
func (c *capContent) SetText(text string) error { c.text = text; return nil }
func (c *capContent) CanAcceptDrop(*Node, int, any) DropEffect { return c.effect }
func (c *capContent) PerformDrop(_ *Node, _ int, payload any) error {
	c.dropped = append(c.dropped, payload)
	return nil
}

func TestNodeCapabilities(t *testing.T) {
	c := &capContent{text: "doc", effect: DropMove}
	n := New(c)

	if !n.IsCheckable() || !n.IsEditable() {
		t.Error("expected content capabilities to be reported")
	}
	if err := n.SetChecked(true); err != nil || !n.IsChecked() {
		t.Errorf("expected check to stick, got %v", err)
	}
	if err := n.SetText("renamed"); err != nil || n.Text() != "renamed" {
		t.Errorf("expected rename, got %v %q", err, n.Text())
	}
	if n.Key() != "key:renamed" {
		t.Errorf("expected content key, got %q", n.Key())
	}
	if n.CanAcceptDrop(0, "x") != DropMove {
		t.Error("expected content drop effect")
	}
	if err := n.PerformDrop(0, "x"); err != nil || len(c.dropped) != 1 {
		t.Errorf("expected drop to be delivered, got %v", err)
	}

	plain := New(42)
	if plain.Text() != "42" || plain.Key() != "42" {
		t.Errorf("expected fmt fallback text, got %q", plain.Text())
	}
	if plain.IsCheckable() || plain.IsEditable() || plain.CanAcceptDrop(0, nil) != DropNone {
		t.Error("expected no capabilities on plain content")
	}
	if err := plain.SetText("x"); !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported on rename, got %v", err)
	}
	if err := plain.SetChecked(true); !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported on check, got %v", err)
	}
	if err := plain.PerformDrop(0, nil); !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported on drop, got %v", err)
	}
}

func TestTraversal(t *testing.T) {
	a1 := node("A1")
	a := node("A", a1, node("A2"))
	b := node("B", node("B1"))
	r := node("R", a, b)
	mustExpand(t, r, a)

	if got := names(r.Descendants()); got != "A,A1,A2,B,B1" {
		t.Errorf("unexpected descendants %q", got)
	}
	if got := names(r.DescendantsAndSelf()); got != "R,A,A1,A2,B,B1" {
		t.Errorf("unexpected descendants and self %q", got)
	}
	if got := names(r.VisibleDescendants()); got != "A,A1,A2,B" {
		t.Errorf("unexpected visible descendants %q", got)
	}
	if got := names(a1.AncestorsAndSelf()); got != "A1,A,R" {
		t.Errorf("unexpected ancestors %q", got)
	}
	if !r.IsAncestorOf(a1) || a1.IsAncestorOf(r) || a.IsAncestorOf(a) {
		t.Error("unexpected IsAncestorOf result")
	}
	if got := a1.Path(); got != "R/A/A1" {
		t.Errorf("expected path R/A/A1, got %q", got)
	}
	if got := names(TopLevel([]*Node{a1, b, a, b.Children().First()})); got != "B,A" {
		t.Errorf("expected top-level B,A, got %q", got)
	}
}
