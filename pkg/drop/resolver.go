// Package drop resolves a pointer position over a tree row into the drop
// target it implies: the node that would receive the payload, the child
// position inside it, and how the row was hit (before, inside or after).
package drop

import (
	"fmt"

	"github.com/vanderheijden86/sharptree/pkg/tree"
)

// Place is the part of a row a drop zone covers.
type Place int

const (
	Before Place = iota
	Inside
	After
)

// String returns a human-readable label for the place.
func (p Place) String() string {
	switch p {
	case Before:
		return "before"
	case Inside:
		return "inside"
	case After:
		return "after"
	default:
		return "unknown"
	}
}

// Zone is a candidate drop target for one band of a row.
type Zone struct {
	Place Place
	// Row is the row the zone belongs to. For the before-first-child zone of
	// an expanded row it is that first visible child.
	Row *tree.Node
	// Target receives the payload at child position Index.
	Target *tree.Node
	Index  int
	Effect tree.DropEffect
	// Upper is the bottom edge of the zone's band as a fraction of the row
	// height.
	Upper float64
}

func (z Zone) String() string {
	if z.Row == nil || z.Target == nil {
		return "no zone"
	}
	return fmt.Sprintf("%s %q (%q[%d], %s)", z.Place, z.Row.Text(), z.Target.Text(), z.Index, z.Effect)
}

// Resolver builds and resolves drop zones.
type Resolver struct {
	// AllowReorder enables the Before and After zones. Without it a row only
	// accepts drops into itself.
	AllowReorder bool
}

// band edges as fractions of the row height
const (
	edgeTop    = 0.2
	edgeMiddle = 0.5
	edgeBottom = 0.8
)

// Zones returns the accepted drop zones of row in top-to-bottom order, each
// with its band assigned.
func (r Resolver) Zones(row *tree.Node, payload any) []Zone {
	if row == nil {
		return nil
	}
	var zones []Zone
	if r.AllowReorder {
		zones = tryAdd(zones, Before, row, payload)
	}
	zones = tryAdd(zones, Inside, row, payload)
	if r.AllowReorder {
		if first := firstVisibleChild(row); first != nil {
			zones = tryAdd(zones, Before, first, payload)
		} else {
			zones = tryAdd(zones, After, row, payload)
		}
	}

	switch len(zones) {
	case 2:
		switch {
		case zones[0].Place == Inside && zones[1].Place != Inside:
			zones[0].Upper = edgeBottom
		case zones[0].Place != Inside && zones[1].Place == Inside:
			zones[0].Upper = edgeTop
		default:
			zones[0].Upper = edgeMiddle
		}
	case 3:
		zones[0].Upper = edgeTop
		zones[1].Upper = edgeBottom
	}
	if len(zones) > 0 {
		zones[len(zones)-1].Upper = 1
	}
	return zones
}

// Resolve returns the zone hit at the vertical fraction y of row, y being 0
// at the top edge and 1 at the bottom. Out-of-range fractions are clamped.
// It reports false when the row accepts no drop.
func (r Resolver) Resolve(row *tree.Node, y float64, payload any) (Zone, bool) {
	y = min(max(y, 0), 1)
	for _, z := range r.Zones(row, payload) {
		if z.Upper >= y {
			return z, true
		}
	}
	return Zone{}, false
}

// Perform drops payload into the zone's target.
func Perform(z Zone, payload any) error {
	if z.Target == nil {
		return fmt.Errorf("drop %s: no target: %w", z.Place, tree.ErrNotSupported)
	}
	if err := z.Target.PerformDrop(z.Index, payload); err != nil {
		return fmt.Errorf("drop %s %q: %w", z.Place, z.Row.Text(), err)
	}
	return nil
}

// tryAdd appends the zone for place on row if its target accepts the payload.
func tryAdd(zones []Zone, place Place, row *tree.Node, payload any) []Zone {
	target, index, ok := targetOf(row, place)
	if !ok {
		return zones
	}
	effect := target.CanAcceptDrop(index, payload)
	if effect == tree.DropNone {
		return zones
	}
	return append(zones, Zone{Place: place, Row: row, Target: target, Index: index, Effect: effect})
}

// targetOf maps a place on row to the receiving node and child position.
func targetOf(row *tree.Node, place Place) (*tree.Node, int, bool) {
	if place == Inside {
		return row, row.Children().Len(), true
	}
	parent := row.Parent()
	if parent == nil {
		return nil, 0, false
	}
	index := parent.Children().IndexOf(row)
	if place == After {
		index++
	}
	return parent, index, true
}

func firstVisibleChild(row *tree.Node) *tree.Node {
	if !row.IsExpanded() || !row.HasChildren() {
		return nil
	}
	for _, c := range row.Children().Nodes() {
		if c.ListParent() == row && !c.IsHidden() {
			return c
		}
	}
	return nil
}
