// Package tree converts the flat message set of one conversation into a
// branching tree and derives the linear "active path" the UI displays.
//
// Building is deterministic: the same input set yields the same tree
// shape and node map regardless of input order. All traversal is
// iterative with explicit stacks, so pathological depth cannot blow the
// call stack.
package tree

import (
	"log/slog"
	"sort"

	"github.com/NitinBot001/claude-interface/internal/store"
)

// RootKey is the selection-map key for the root branch point, where
// messages have no parent.
const RootKey = "root"

// BranchKey returns the selection-map key for a parent id (RootKey when
// parentID is nil).
func BranchKey(parentID *string) string {
	if parentID == nil {
		return RootKey
	}
	return *parentID
}

// Node wraps one message with its (order-sorted) children.
type Node struct {
	store.Message
	Children []*Node
}

// Tree is the in-memory branching structure of one conversation.
type Tree struct {
	Roots []*Node
	nodes map[string]*Node
}

// Build assembles a tree from a flat message set. A node whose named
// parent is absent from the set is logged and placed among the roots:
// the UI never constructs such a state, but the builder must not crash
// or drop data when storage hands it one.
func Build(messages []store.Message, logger *slog.Logger) *Tree {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Tree{nodes: make(map[string]*Node, len(messages))}
	if len(messages) == 0 {
		return t
	}

	for _, m := range messages {
		t.nodes[m.ID] = &Node{Message: m}
	}

	for _, m := range messages {
		node := t.nodes[m.ID]
		if m.ParentID == nil {
			t.Roots = append(t.Roots, node)
			continue
		}
		parent, ok := t.nodes[*m.ParentID]
		if !ok {
			logger.Warn("orphaned message, treating as root",
				"msg_id", m.ID, "parent_msg_id", *m.ParentID)
			t.Roots = append(t.Roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	// Sort every sibling list by creation order. Ties (which only the
	// orphan fallback can produce) fall back to id so the shape stays
	// deterministic.
	sortSiblings(t.Roots)
	stack := append([]*Node(nil), t.Roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sortSiblings(n.Children)
		stack = append(stack, n.Children...)
	}

	return t
}

func sortSiblings(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].ID < nodes[j].ID
	})
}

// Node returns the node for a message id.
func (t *Tree) Node(msgID string) (*Node, bool) {
	n, ok := t.nodes[msgID]
	return n, ok
}

// Size returns the number of messages in the tree.
func (t *Tree) Size() int {
	return len(t.nodes)
}

// Empty reports whether the tree holds no messages.
func (t *Tree) Empty() bool {
	return len(t.nodes) == 0
}
