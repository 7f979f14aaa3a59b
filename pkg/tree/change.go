package tree

// Action identifies the kind of structural edit carried by a Change or Event.
type Action int

const (
	ActionAdd Action = iota
	ActionRemove
	ActionReplace
)

// String returns a human-readable label for the action.
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Change is the child-local record emitted by a Children collection after a
// successful mutation. Index is a position in the direct child sequence.
//
//   - Add: Items were inserted starting at Index.
//   - Remove: Items were removed; they used to start at Index.
//   - Replace: Items[0] replaced OldItems[0] at Index.
type Change struct {
	Action   Action
	Index    int
	Items    []*Node
	OldItems []*Node
}

// ChangeFunc receives child-local changes.
type ChangeFunc func(Change)

// Event is a flat-projection notification delivered by a Flattener. Index is
// a position in the flat projection. Add and Remove events always carry
// exactly one item; a Replace carries the new row in Items and the old row in
// OldItems.
type Event struct {
	Action   Action
	Index    int
	Items    []*Node
	OldItems []*Node
}

// EventFunc receives flat-projection events.
type EventFunc func(Event)

// listeners is an ordered subscriber list with stable cancellation handles.
// Delivery iterates over a snapshot, so a subscriber may cancel itself (or
// another subscriber) while being notified.
type listeners[F any] struct {
	next  int
	items []listener[F]
}

type listener[F any] struct {
	id int
	fn F
}

func (l *listeners[F]) add(fn F) func() {
	l.next++
	id := l.next
	l.items = append(l.items, listener[F]{id: id, fn: fn})
	return func() {
		for i, it := range l.items {
			if it.id == id {
				l.items = append(l.items[:i:i], l.items[i+1:]...)
				return
			}
		}
	}
}

func (l *listeners[F]) snapshot() []F {
	if len(l.items) == 0 {
		return nil
	}
	out := make([]F, len(l.items))
	for i, it := range l.items {
		out[i] = it.fn
	}
	return out
}
