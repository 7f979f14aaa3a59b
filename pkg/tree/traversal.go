package tree

// preOrder walks the roots and their descendants depth first, parents before
// children, using an explicit stack. children returns the nodes to descend
// into, or nil.
func preOrder(roots []*Node, children func(*Node) []*Node) []*Node {
	var out []*Node
	stack := make([]*Node, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		kids := children(n)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

func modelChildren(n *Node) []*Node {
	return n.childList()
}

// Descendants returns every materialized descendant in document order.
// Lazy children that were never loaded are not included.
func (n *Node) Descendants() []*Node {
	return preOrder(n.childList(), modelChildren)
}

// DescendantsAndSelf returns n followed by Descendants.
func (n *Node) DescendantsAndSelf() []*Node {
	return preOrder([]*Node{n}, modelChildren)
}

// VisibleDescendants returns the rows below n in its own projection: the
// descendants reachable through expanded nodes, skipping hidden and isolated
// subtrees.
func (n *Node) VisibleDescendants() []*Node {
	return n.appendRows(nil)[1:]
}

// VisibleDescendantsAndSelf returns n followed by VisibleDescendants.
func (n *Node) VisibleDescendantsAndSelf() []*Node {
	return n.appendRows(nil)
}

// Ancestors returns the model parents of n, nearest first.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.modelParent; p != nil; p = p.modelParent {
		out = append(out, p)
	}
	return out
}

// AncestorsAndSelf returns n followed by Ancestors.
func (n *Node) AncestorsAndSelf() []*Node {
	return append([]*Node{n}, n.Ancestors()...)
}

// IsAncestorOf reports whether n is a strict model ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.modelParent; p != nil; p = p.modelParent {
		if p == n {
			return true
		}
	}
	return false
}

// TopLevel returns the nodes of the set that have no ancestor in the set,
// keeping their input order. Operations on a multi-selection (delete, move,
// copy) apply to these nodes only, since the others travel with them.
func TopLevel(nodes []*Node) []*Node {
	set := make(map[*Node]bool, len(nodes))
	for _, n := range nodes {
		set[n] = true
	}
	var out []*Node
	for _, n := range nodes {
		covered := false
		for p := n.modelParent; p != nil; p = p.modelParent {
			if set[p] {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, n)
		}
	}
	return out
}

// Path returns the keys from the list root down to n joined by "/".
func (n *Node) Path() string {
	if n.listParent == nil {
		return n.Key()
	}
	return n.listParent.Path() + "/" + n.Key()
}
