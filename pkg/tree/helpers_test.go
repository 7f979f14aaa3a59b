package tree

import "strings"

// tb is the subset of testing.TB shared with rapid.T.
type tb interface {
	Helper()
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// node builds a subtree from a name and children.
func node(name string, children ...*Node) *Node {
	n := New(name)
	if len(children) > 0 {
		if err := n.Children().AddRange(children); err != nil {
			panic(err)
		}
	}
	return n
}

func names(nodes []*Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.Text()
	}
	return strings.Join(parts, ",")
}

func mustExpand(t tb, nodes ...*Node) {
	t.Helper()
	for _, n := range nodes {
		if err := n.Expand(); err != nil {
			t.Fatalf("expand %q: %v", n.Text(), err)
		}
	}
}

// mirror replays flat events onto a plain slice, the way a list consumer
// would, so it can be compared with the projection.
type mirror struct {
	rows   []*Node
	events []Event
	// checks run against the flattener on every event.
	f      *Flattener
	errors []string
}

func newMirror(f *Flattener) *mirror {
	m := &mirror{rows: f.Nodes(), f: f}
	f.Subscribe(m.apply)
	return m
}

func (m *mirror) apply(ev Event) {
	m.events = append(m.events, ev)
	switch ev.Action {
	case ActionAdd:
		if ev.Index < 0 || ev.Index > len(m.rows) {
			m.errors = append(m.errors, "add out of range")
			return
		}
		m.rows = append(m.rows[:ev.Index], append([]*Node{ev.Items[0]}, m.rows[ev.Index:]...)...)
	case ActionRemove:
		if ev.Index < 0 || ev.Index >= len(m.rows) || m.rows[ev.Index] != ev.Items[0] {
			m.errors = append(m.errors, "remove of a row not at index")
			return
		}
		m.rows = append(m.rows[:ev.Index], m.rows[ev.Index+1:]...)
	case ActionReplace:
		if ev.Index < 0 || ev.Index >= len(m.rows) || m.rows[ev.Index] != ev.OldItems[0] {
			m.errors = append(m.errors, "replace of a row not at index")
			return
		}
		m.rows[ev.Index] = ev.Items[0]
	}
}

func (m *mirror) reset() {
	m.events = nil
}

func (m *mirror) check(t tb) {
	t.Helper()
	for _, e := range m.errors {
		t.Errorf("event stream: %s", e)
	}
	m.errors = nil
	want := m.f.Nodes()
	if len(m.rows) != len(want) || len(want) != m.f.Count() {
		t.Errorf("expected %d mirrored rows, got %d", m.f.Count(), len(m.rows))
		return
	}
	for i := range want {
		if m.rows[i] != want[i] {
			t.Errorf("expected mirrored rows %q, got %q", names(want), names(m.rows))
			return
		}
	}
}

// checkInvariants recomputes the derived state of the subtree from scratch and
// compares it with the cached values.
func checkInvariants(t tb, root *Node) {
	t.Helper()
	if root.listParent == nil && root.concealed {
		t.Errorf("list root %q must be visible", root.Text())
	}
	var walk func(n *Node, level int, visible bool) int
	walk = func(n *Node, level int, visible bool) int {
		if n.level != level {
			t.Errorf("%q: expected level %d, got %d", n.Text(), level, n.level)
		}
		if n.IsVisible() != visible {
			t.Errorf("%q: expected visible=%v, got %v", n.Text(), visible, n.IsVisible())
		}
		total := 1
		kids := n.childList()
		for i, c := range kids {
			if c.modelParent != n {
				t.Errorf("%q: child %q has wrong model parent", n.Text(), c.Text())
			}
			if c.IsLast() != (i == len(kids)-1) {
				t.Errorf("%q: expected last=%v, got %v", c.Text(), i == len(kids)-1, c.IsLast())
			}
			if c.listParent == nil {
				checkInvariants(t, c)
				continue
			}
			sub := walk(c, level+1, visible && n.expanded && !c.hidden)
			if n.expanded && !c.hidden {
				total += sub
			}
		}
		if n.VisibleSubtreeCount() != total {
			t.Errorf("%q: expected visible subtree count %d, got %d", n.Text(), total, n.VisibleSubtreeCount())
		}
		return n.VisibleSubtreeCount()
	}
	walk(root, 0, true)
}

// checkRoundTrip verifies that At and IndexOf are inverse over the projection.
func checkRoundTrip(t tb, f *Flattener) {
	t.Helper()
	for i := 0; i < f.Count(); i++ {
		n, err := f.At(i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		if got := f.IndexOf(n); got != i {
			t.Errorf("expected IndexOf(At(%d)) == %d, got %d", i, i, got)
		}
	}
}
