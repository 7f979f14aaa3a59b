package tree

import "fmt"

// DropEffect is the outcome a drop target reports for a payload.
type DropEffect int

const (
	DropNone DropEffect = iota
	DropCopy
	DropMove
	DropLink
)

// String returns a human-readable label for the effect.
func (e DropEffect) String() string {
	switch e {
	case DropNone:
		return "none"
	case DropCopy:
		return "copy"
	case DropMove:
		return "move"
	case DropLink:
		return "link"
	default:
		return "unknown"
	}
}

// Optional interfaces implemented by Node.Content. The Node methods of the
// same name forward to them and fall back to conservative defaults.
type (
	// ChildLoader materializes the children of a lazy node.
	ChildLoader interface {
		LoadChildren(n *Node) ([]*Node, error)
	}

	// Texter supplies the display text of a node.
	Texter interface {
		Text() string
	}

	// Keyer supplies a key that is stable across reloads, used to persist
	// expansion state. It defaults to the text.
	Keyer interface {
		Key() string
	}

	// Checkable content can be toggled with a check box.
	Checkable interface {
		IsCheckable() bool
		IsChecked() bool
		SetChecked(bool) error
	}

	// Editable content supports in-place renaming.
	Editable interface {
		IsEditable() bool
		SetText(string) error
	}

	// DropHandler content accepts drops. index is the child position within
	// target at which the payload would land.
	DropHandler interface {
		CanAcceptDrop(target *Node, index int, payload any) DropEffect
		PerformDrop(target *Node, index int, payload any) error
	}
)

// Text returns the display text of the node.
func (n *Node) Text() string {
	switch c := n.Content.(type) {
	case nil:
		return ""
	case Texter:
		return c.Text()
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}

// Key returns the persistence key of the node.
func (n *Node) Key() string {
	if k, ok := n.Content.(Keyer); ok {
		return k.Key()
	}
	return n.Text()
}

// IsCheckable reports whether the node shows a check box.
func (n *Node) IsCheckable() bool {
	c, ok := n.Content.(Checkable)
	return ok && c.IsCheckable()
}

// IsChecked reports the check state. Non-checkable nodes are unchecked.
func (n *Node) IsChecked() bool {
	c, ok := n.Content.(Checkable)
	return ok && c.IsCheckable() && c.IsChecked()
}

// SetChecked updates the check state.
func (n *Node) SetChecked(checked bool) error {
	c, ok := n.Content.(Checkable)
	if !ok || !c.IsCheckable() {
		return fmt.Errorf("check %q: %w", n.Text(), ErrNotSupported)
	}
	return c.SetChecked(checked)
}

// IsEditable reports whether the node text can be edited in place.
func (n *Node) IsEditable() bool {
	e, ok := n.Content.(Editable)
	return ok && e.IsEditable()
}

// SetText renames the node.
func (n *Node) SetText(text string) error {
	e, ok := n.Content.(Editable)
	if !ok || !e.IsEditable() {
		return fmt.Errorf("rename %q: %w", n.Text(), ErrNotSupported)
	}
	return e.SetText(text)
}

// CanAcceptDrop asks the content whether payload may be dropped into n at
// child position index.
func (n *Node) CanAcceptDrop(index int, payload any) DropEffect {
	if h, ok := n.Content.(DropHandler); ok {
		return h.CanAcceptDrop(n, index, payload)
	}
	return DropNone
}

// PerformDrop drops payload into n at child position index.
func (n *Node) PerformDrop(index int, payload any) error {
	if h, ok := n.Content.(DropHandler); ok {
		return h.PerformDrop(n, index, payload)
	}
	return fmt.Errorf("drop into %q: %w", n.Text(), ErrNotSupported)
}
