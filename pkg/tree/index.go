package tree

// Flat positions are computed from the cached subtree counts by scanning
// siblings, so both directions cost O(depth × branching).

// visibleIndex returns the position of a visible node in the projection of
// its list root, counting the root as 0.
func (n *Node) visibleIndex() int {
	idx := 0
	for cur := n; cur.listParent != nil; cur = cur.listParent {
		p := cur.listParent
		idx++
		for _, s := range p.children.nodes {
			if s == cur {
				break
			}
			if s.counted() {
				idx += s.VisibleSubtreeCount()
			}
		}
	}
	return idx
}

// slotIndex returns the position the child at index slot occupies (or would
// occupy) in the projection of n's list root. n must be visible and expanded.
func (n *Node) slotIndex(slot int) int {
	idx := n.visibleIndex() + 1
	for _, s := range n.children.nodes[:slot] {
		if s.counted() {
			idx += s.VisibleSubtreeCount()
		}
	}
	return idx
}

// nodeAt returns the row at index i of root's projection, root being row 0.
// The caller guarantees 0 <= i < root.VisibleSubtreeCount().
func nodeAt(root *Node, i int) *Node {
	cur := root
	for i > 0 {
		i--
		next := cur
		for _, c := range cur.childList() {
			if !c.counted() {
				continue
			}
			if size := c.VisibleSubtreeCount(); i >= size {
				i -= size
				continue
			}
			next = c
			break
		}
		if next == cur {
			panic("tree: visible subtree count out of sync")
		}
		cur = next
	}
	return cur
}

// collectRange appends the rows of n's subtree whose positions fall within
// [start, end), n being at position base.
func collectRange(n *Node, base, start, end int, out []*Node) []*Node {
	if base >= start && base < end {
		out = append(out, n)
	}
	if !n.expanded || n.children == nil {
		return out
	}
	pos := base + 1
	for _, c := range n.children.nodes {
		if pos >= end {
			break
		}
		if !c.counted() {
			continue
		}
		size := c.VisibleSubtreeCount()
		if pos+size > start {
			out = collectRange(c, pos, start, end, out)
		}
		pos += size
	}
	return out
}
