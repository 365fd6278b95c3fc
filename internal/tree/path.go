package tree

// Selections maps a branch key (parent message id, or RootKey) to the
// sibling index currently chosen at that branch point. Transient UI
// state: reset when switching conversations, pre-seeded by branch
// operations so a new fork is immediately visible.
type Selections map[string]int

// Clone returns a shallow copy (nil-safe).
func (s Selections) Clone() Selections {
	out := make(Selections, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Step is one entry of the active path: the chosen node plus its position
// among its siblings, for version-navigator rendering.
type Step struct {
	*Node
	SiblingIndex int
	SiblingCount int
}

// ActivePath derives the single linear sequence of messages currently
// displayed. At each branch point the selected sibling index is looked
// up in sel (defaulting to 0, the original version) and clamped into
// range, which absorbs stale selections that reference a since-deleted
// sibling. Traversal descends into the chosen node's children until a
// level has no children.
func (t *Tree) ActivePath(sel Selections) []Step {
	var path []Step

	nodes := t.Roots
	key := RootKey
	for len(nodes) > 0 {
		idx := sel[key]
		if idx < 0 {
			idx = 0
		}
		if idx > len(nodes)-1 {
			idx = len(nodes) - 1
		}

		chosen := nodes[idx]
		path = append(path, Step{
			Node:         chosen,
			SiblingIndex: idx,
			SiblingCount: len(nodes),
		})

		nodes = chosen.Children
		key = chosen.ID
	}

	return path
}

// Siblings returns the order-sorted sibling list containing msgID
// (including the message itself), or nil if the id is unknown.
func (t *Tree) Siblings(msgID string) []*Node {
	n, ok := t.nodes[msgID]
	if !ok {
		return nil
	}
	if n.ParentID == nil {
		return t.Roots
	}
	parent, ok := t.nodes[*n.ParentID]
	if !ok {
		return t.Roots // orphan fallback placed it among the roots
	}
	return parent.Children
}

// SiblingIndex returns the position of msgID among its siblings, or -1.
func (t *Tree) SiblingIndex(msgID string) int {
	for i, s := range t.Siblings(msgID) {
		if s.ID == msgID {
			return i
		}
	}
	return -1
}

// PathTo returns the chain of nodes from a root down to msgID, or nil if
// the id is unknown.
func (t *Tree) PathTo(msgID string) []*Node {
	n, ok := t.nodes[msgID]
	if !ok {
		return nil
	}

	var rev []*Node
	for n != nil {
		rev = append(rev, n)
		if n.ParentID == nil {
			break
		}
		parent, ok := t.nodes[*n.ParentID]
		if !ok {
			break
		}
		n = parent
	}

	path := make([]*Node, len(rev))
	for i, node := range rev {
		path[len(rev)-1-i] = node
	}
	return path
}

// SelectionsFor computes the selection map that makes msgID (and its
// ancestors) the visible version at every branch point on its path.
func (t *Tree) SelectionsFor(msgID string) Selections {
	sel := make(Selections)
	for _, n := range t.PathTo(msgID) {
		if idx := t.SiblingIndex(n.ID); idx >= 0 {
			sel[BranchKey(n.ParentID)] = idx
		}
	}
	return sel
}

// Leaves returns every message with no children.
func (t *Tree) Leaves() []*Node {
	var leaves []*Node
	stack := append([]*Node(nil), t.Roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(n.Children) == 0 {
			leaves = append(leaves, n)
			continue
		}
		stack = append(stack, n.Children...)
	}
	return leaves
}

// Depth returns the 1-based depth of msgID in the tree, 0 if unknown.
func (t *Tree) Depth(msgID string) int {
	return len(t.PathTo(msgID))
}
