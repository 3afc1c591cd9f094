// Package tree provides a generic unbalanced tree node.
package tree

// Node is a tree node with any number of ordered children.
//
// Thread Safety:
//   - Node is not safe for concurrent mutation.
type Node[T comparable] struct {
	Value    T
	Parent   *Node[T]
	children []*Node[T]
}

// NewNode creates a node holding value under parent. A nil parent makes a root.
// The node is not added to parent's children; use AddChild for that.
func NewNode[T comparable](value T, parent *Node[T]) *Node[T] {
	return &Node[T]{Value: value, Parent: parent}
}

// AddChild appends child to this node's children and sets its parent.
func (n *Node[T]) AddChild(child *Node[T]) {
	child.Parent = n
	n.children = append(n.children, child)
}

// RemoveChild removes the first child equal to child (by identity),
// detaches it so it becomes a root, and reports whether one was removed.
func (n *Node[T]) RemoveChild(child *Node[T]) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.Parent = nil
			return true
		}
	}
	return false
}

// Children returns a copy of the node's children in insertion order.
func (n *Node[T]) Children() []*Node[T] {
	out := make([]*Node[T], len(n.children))
	copy(out, n.children)
	return out
}

// IsRoot reports whether the node has no parent.
func (n *Node[T]) IsRoot() bool {
	return n.Parent == nil
}

// HasChildren reports whether the node has at least one child.
func (n *Node[T]) HasChildren() bool {
	return len(n.children) > 0
}

// Equal reports whether both nodes hold equal values. Position in the tree
// is not compared.
func (n *Node[T]) Equal(other *Node[T]) bool {
	if other == nil {
		return false
	}
	return n.Value == other.Value
}

// Walk visits the node and its descendants depth-first, parents before
// children. Returning false from visit stops the walk.
func (n *Node[T]) Walk(visit func(*Node[T]) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(visit) {
			return false
		}
	}
	return true
}
