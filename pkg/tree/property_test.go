package tree

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

type treeMachine struct {
	root  *Node
	f     *Flattener
	m     *mirror
	names int
}

func (tm *treeMachine) newNode(t *rapid.T) *Node {
	tm.names++
	n := New(fmt.Sprintf("n%d", tm.names))
	kids := rapid.IntRange(0, 3).Draw(t, "kids")
	for range kids {
		tm.names++
		_ = n.Children().Add(New(fmt.Sprintf("n%d", tm.names)))
	}
	if kids > 0 && rapid.Bool().Draw(t, "expanded") {
		_ = n.Expand()
	}
	if rapid.IntRange(0, 9).Draw(t, "hidden") == 0 {
		n.SetHidden(true)
	}
	return n
}

func (tm *treeMachine) pick(t *rapid.T, label string, withRoot bool) *Node {
	all := tm.root.DescendantsAndSelf()
	if !withRoot {
		all = all[1:]
	}
	if len(all) == 0 {
		return nil
	}
	return rapid.SampledFrom(all).Draw(t, label)
}

func (tm *treeMachine) step(t *rapid.T) {
	switch rapid.IntRange(0, 6).Draw(t, "op") {
	case 0: // insert
		p := tm.pick(t, "parent", true)
		idx := rapid.IntRange(0, p.Children().Len()).Draw(t, "index")
		if err := p.Children().Insert(idx, tm.newNode(t)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	case 1: // remove
		if n := tm.pick(t, "victim", false); n != nil {
			if _, err := n.Parent().Children().Remove(n); err != nil {
				t.Fatalf("remove: %v", err)
			}
		}
	case 2: // move
		n := tm.pick(t, "moved", false)
		if n == nil {
			return
		}
		_, _ = n.Parent().Children().Remove(n)
		p := tm.pick(t, "target", true)
		idx := rapid.IntRange(0, p.Children().Len()).Draw(t, "index")
		if err := p.Children().Insert(idx, n); err != nil {
			t.Fatalf("move: %v", err)
		}
	case 3: // replace
		n := tm.pick(t, "replaced", false)
		if n == nil {
			return
		}
		p := n.Parent()
		if err := p.Children().Replace(p.Children().IndexOf(n), tm.newNode(t)); err != nil {
			t.Fatalf("replace: %v", err)
		}
	case 4: // toggle
		if err := tm.pick(t, "toggled", true).Toggle(); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	case 5: // hide or unhide
		if n := tm.pick(t, "hidden", false); n != nil {
			n.SetHidden(!n.IsHidden())
		}
	case 6: // removeAll
		p := tm.pick(t, "filtered", true)
		drop := map[*Node]bool{}
		for _, c := range p.Children().Nodes() {
			drop[c] = rapid.Bool().Draw(t, "drop")
		}
		if err := p.Children().RemoveAll(func(n *Node) bool { return drop[n] }); err != nil {
			t.Fatalf("removeAll: %v", err)
		}
	}
}

func (tm *treeMachine) check(t *rapid.T) {
	tm.m.check(t)
	checkInvariants(t, tm.root)
	checkRoundTrip(t, tm.f)
	for _, n := range tm.root.DescendantsAndSelf() {
		idx := tm.f.IndexOf(n)
		if (idx != NotFound) != (n.IsVisible() && (n != tm.root || tm.f.IncludeRoot())) {
			t.Errorf("%q: index %d disagrees with visibility %v", n.Text(), idx, n.IsVisible())
		}
	}
}

// TestPropertyProjectionConsistency applies random edits and verifies that
// the cached counts match a full recount, that At and IndexOf are inverse,
// and that replaying the flat events reproduces the projection.
func TestPropertyProjectionConsistency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tm := &treeMachine{root: New("root")}
		_ = tm.root.Expand()
		tm.f = NewFlattener(tm.root, rapid.Bool().Draw(t, "includeRoot"))
		defer tm.f.Stop()
		tm.m = newMirror(tm.f)

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for range steps {
			tm.step(t)
			tm.check(t)
		}
	})
}

// TestPropertyRemoveAllMinimal verifies that RemoveAll emits exactly one
// change per maximal run of removed children.
func TestPropertyRemoveAllMinimal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		flags := rapid.SliceOfN(rapid.Bool(), 0, 20).Draw(t, "flags")
		p := New("p")
		for i := range flags {
			_ = p.Children().Add(New(fmt.Sprintf("c%d", i)))
		}
		drop := map[*Node]bool{}
		for i, c := range p.Children().Nodes() {
			drop[c] = flags[i]
		}

		runs, kept := 0, 0
		for i, f := range flags {
			if f && (i == 0 || !flags[i-1]) {
				runs++
			}
			if !f {
				kept++
			}
		}

		changes := 0
		p.Children().Subscribe(func(Change) { changes++ })
		if err := p.Children().RemoveAll(func(n *Node) bool { return drop[n] }); err != nil {
			t.Fatal(err)
		}
		if changes != runs {
			t.Errorf("expected %d changes, got %d", runs, changes)
		}
		if p.Children().Len() != kept {
			t.Errorf("expected %d children left, got %d", kept, p.Children().Len())
		}
	})
}
