package tree

import (
	"errors"
	"testing"
)

func TestChildrenOwnership(t *testing.T) {
	a := node("A")
	p := node("P", a)
	q := node("Q")

	if err := q.Children().Add(a); !errors.Is(err, ErrOwnership) {
		t.Errorf("expected ErrOwnership for a parented node, got %v", err)
	}
	if err := q.Children().Add(nil); !errors.Is(err, ErrOwnership) {
		t.Errorf("expected ErrOwnership for nil, got %v", err)
	}
	if err := a.Children().Add(p); !errors.Is(err, ErrOwnership) {
		t.Errorf("expected ErrOwnership for a cycle, got %v", err)
	}
	b := node("B")
	if err := q.Children().AddRange([]*Node{b, b}); !errors.Is(err, ErrOwnership) {
		t.Errorf("expected ErrOwnership for a duplicate in range, got %v", err)
	}
	if q.Children().Len() != 0 || b.Parent() != nil {
		t.Error("expected failed range insert to leave no trace")
	}

	// After removal the node can be inserted elsewhere.
	if _, err := p.Children().Remove(a); err != nil {
		t.Fatal(err)
	}
	if err := q.Children().Add(a); err != nil {
		t.Errorf("expected detached node to be insertable, got %v", err)
	}
	if a.Parent() != q {
		t.Errorf("expected parent Q, got %v", a.Parent())
	}
}

func TestChildrenIndexOutOfRange(t *testing.T) {
	p := node("P", node("A"))
	c := p.Children()

	if err := c.Insert(2, node("X")); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange on insert, got %v", err)
	}
	if err := c.RemoveAt(1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange on remove, got %v", err)
	}
	if err := c.RemoveRange(0, 2); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange on remove range, got %v", err)
	}
	if err := c.Replace(-1, node("Y")); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange on replace, got %v", err)
	}
	if _, err := c.At(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange on At, got %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("expected failed calls to leave 1 child, got %d", c.Len())
	}
}

func TestChildrenNoOps(t *testing.T) {
	a := node("A")
	p := node("P", a)
	changes := 0
	p.Children().Subscribe(func(Change) { changes++ })

	if err := p.Children().InsertRange(0, nil); err != nil {
		t.Fatal(err)
	}
	if err := p.Children().RemoveRange(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := p.Children().Replace(0, a); err != nil {
		t.Fatal(err)
	}
	if found, err := p.Children().Remove(node("stranger")); found || err != nil {
		t.Errorf("expected stranger not to be found, got %v, %v", found, err)
	}
	if changes != 0 {
		t.Errorf("expected no changes, got %d", changes)
	}
}

func TestChildrenChangeRecords(t *testing.T) {
	p := node("P")
	var got []Change
	p.Children().Subscribe(func(ch Change) { got = append(got, ch) })

	a, b, c := node("A"), node("B"), node("C")
	_ = p.Children().AddRange([]*Node{a, c})
	_ = p.Children().Insert(1, b)
	_ = p.Children().RemoveAt(0)
	x := node("X")
	_ = p.Children().Replace(1, x)
	_ = p.Children().Clear()

	want := []struct {
		action Action
		index  int
		items  string
	}{
		{ActionAdd, 0, "A,C"},
		{ActionAdd, 1, "B"},
		{ActionRemove, 0, "A"},
		{ActionReplace, 1, "X"},
		{ActionRemove, 0, "B,X"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d changes, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Action != w.action || got[i].Index != w.index || names(got[i].Items) != w.items {
			t.Errorf("change %d: expected %s %d %q, got %s %d %q",
				i, w.action, w.index, w.items, got[i].Action, got[i].Index, names(got[i].Items))
		}
	}
	if names(got[3].OldItems) != "C" {
		t.Errorf("expected replaced item C, got %q", names(got[3].OldItems))
	}
}

// TestChildrenRemoveAllRuns: keeping B and D out of [A,B,C,D] removes A and C
// with one change each.
func TestChildrenRemoveAllRuns(t *testing.T) {
	a, b, c, d := node("A"), node("B"), node("C"), node("D")
	r := node("R", a, b, c, d)
	mustExpand(t, r)
	f := NewFlattener(r, false)
	defer f.Stop()
	m := newMirror(f)

	var changes []Change
	r.Children().Subscribe(func(ch Change) { changes = append(changes, ch) })
	calls := map[*Node]int{}
	err := r.Children().RemoveAll(func(n *Node) bool {
		calls[n]++
		return n == a || n == c
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(changes) != 2 {
		t.Fatalf("expected 2 remove changes, got %d", len(changes))
	}
	if changes[0].Index != 0 || changes[0].Items[0] != a {
		t.Errorf("expected A removed at 0, got %+v", changes[0])
	}
	if changes[1].Index != 1 || changes[1].Items[0] != c {
		t.Errorf("expected C removed at 1, got %+v", changes[1])
	}
	for _, n := range []*Node{a, b, c, d} {
		if calls[n] != 1 {
			t.Errorf("expected predicate called once for %q, got %d", n.Text(), calls[n])
		}
	}
	if len(m.events) != 2 || m.events[0].Index != 0 || m.events[1].Index != 1 {
		t.Errorf("expected flat removes at 0 and 1, got %v", m.events)
	}
	if got := names(r.Children().Nodes()); got != "B,D" {
		t.Errorf("expected B,D to remain, got %q", got)
	}
	m.check(t)
	checkInvariants(t, r)
}

func TestChildrenRemoveAllContiguousRun(t *testing.T) {
	r := node("R", node("A"), node("B"), node("C"), node("D"), node("E"))
	var changes []Change
	r.Children().Subscribe(func(ch Change) { changes = append(changes, ch) })

	err := r.Children().RemoveAll(func(n *Node) bool {
		return n.Text() != "A"
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 || names(changes[0].Items) != "B,C,D,E" {
		t.Errorf("expected one change for the maximal run, got %v", changes)
	}
	if err := r.Children().RemoveAll(nil); err == nil {
		t.Error("expected error for nil predicate")
	}
}

func TestChildrenReentrancy(t *testing.T) {
	p := node("P")
	var inner error
	p.Children().Subscribe(func(Change) {
		inner = p.Children().Add(node("nested"))
	})

	if err := p.Children().Add(node("A")); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(inner, ErrReentrancy) {
		t.Errorf("expected ErrReentrancy from notification, got %v", inner)
	}
	if p.Children().Len() != 1 {
		t.Errorf("expected only A, got %d children", p.Children().Len())
	}

	// Predicates run with the collection locked as well.
	var predErr error
	q := node("Q", node("A"))
	_ = q.Children().RemoveAll(func(n *Node) bool {
		predErr = q.Children().Add(node("B"))
		return false
	})
	if !errors.Is(predErr, ErrReentrancy) {
		t.Errorf("expected ErrReentrancy from predicate, got %v", predErr)
	}

	// Mutating a different collection from a notification is allowed.
	other := node("other")
	var otherErr error
	r := node("R")
	r.Children().Subscribe(func(Change) {
		otherErr = other.Children().Add(node("ok"))
	})
	_ = r.Children().Add(node("x"))
	if otherErr != nil {
		t.Errorf("expected mutation of another collection to succeed, got %v", otherErr)
	}
}

func TestChildrenSubscriberSeesConsistentCounts(t *testing.T) {
	r := node("R")
	mustExpand(t, r)
	seen := 0
	r.Children().Subscribe(func(Change) {
		seen = r.VisibleSubtreeCount()
	})
	_ = r.Children().AddRange([]*Node{node("A"), node("B")})
	if seen != 3 {
		t.Errorf("expected subscriber to observe count 3, got %d", seen)
	}
}
