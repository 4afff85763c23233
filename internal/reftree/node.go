// Package reftree implements a concurrent parent/child tree built from shared
// references.
//
// Parents own their children through strong pointers; children refer back to
// their parent through a weak pointer, so a detached subtree never keeps its
// former ancestors alive. Every node carries its own RWMutex. Operations that
// lock more than one node always lock top-down (tree, then parent, then child).
package reftree

import (
	"sync"
	"weak"
)

// Node is a vertex of a Tree. The zero value is not usable; nodes are created
// by Tree.SetRoot and AttachChild.
type Node[T any] struct {
	mu sync.RWMutex

	// empty => leaf (in the tree, not necessarily on disk: an empty dir is a leaf too)
	children []*Node[T]
	data     T

	// hasParent == false => root or detached
	parent    weak.Pointer[Node[T]]
	hasParent bool
}

func newNode[T any](data T) *Node[T] {
	return &Node[T]{data: data}
}

// Data returns a copy of the node's payload.
func (n *Node[T]) Data() T {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.data
}

// Update mutates the payload in place while holding the node's write lock.
// fn must not touch other nodes.
func (n *Node[T]) Update(fn func(data *T)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fn(&n.data)
}

// Children returns a snapshot of the node's children.
func (n *Node[T]) Children() []*Node[T] {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node[T], len(n.children))
	copy(out, n.children)
	return out
}

// ChildrenData returns a copy of every child's payload in child order, so the
// slice index is the child index.
func (n *Node[T]) ChildrenData() []T {
	children := n.Children()
	out := make([]T, len(children))
	for i, c := range children {
		out[i] = c.Data()
	}
	return out
}

// ChildAt returns the child at index i.
func (n *Node[T]) ChildAt(i int) (*Node[T], bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if i < 0 || i >= len(n.children) {
		return nil, false
	}
	return n.children[i], true
}

// Len returns the number of children.
func (n *Node[T]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.children)
}

// Parent returns the weak parent reference. ok is false for a root or a
// detached node. Resolving the reference may still yield nil once the parent
// has been dropped.
func (n *Node[T]) Parent() (parent weak.Pointer[Node[T]], ok bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent, n.hasParent
}

// ParentNode resolves the parent reference, returning nil for roots, detached
// nodes and parents that are gone.
func (n *Node[T]) ParentNode() *Node[T] {
	p, ok := n.Parent()
	if !ok {
		return nil
	}
	return p.Value()
}

// IndexOf returns the position of child among n's children by identity, or -1.
func (n *Node[T]) IndexOf(child *Node[T]) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.indexLocked(child)
}

func (n *Node[T]) indexLocked(child *Node[T]) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// AttachChild creates a node holding data, appends it as the last child of
// parent and links it back to parent. The returned node is fully connected.
func AttachChild[T any](parent *Node[T], data T) *Node[T] {
	child := newNode(data)
	child.parent = weak.Make(parent)
	child.hasParent = true

	parent.mu.Lock()
	parent.children = append(parent.children, child)
	parent.mu.Unlock()

	return child
}
