package reftree

import (
	"errors"
	"fmt"
	"sync"
	"weak"
)

var (
	// ErrAlreadyHasRoot is returned by SetRoot on a non-empty tree.
	ErrAlreadyHasRoot = errors.New("tree already has a root")
	// ErrNotAttached is returned when removing a node that is neither the
	// root nor linked to a parent, e.g. a subtree that was already removed.
	ErrNotAttached = errors.New("node is not attached to the tree")
)

// Tree owns an optional root node. Finding a node requires a full traversal;
// callers are expected to keep node references instead.
type Tree[T any] struct {
	mu   sync.RWMutex
	root *Node[T]
}

// New creates an empty tree.
func New[T any]() *Tree[T] {
	return &Tree[T]{}
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree[T]) Root() *Node[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// IsEmpty reports whether the tree has no root.
func (t *Tree[T]) IsEmpty() bool {
	return t.Root() == nil
}

// SetRoot creates a node from data and installs it as the root. It fails with
// ErrAlreadyHasRoot, leaving the current root untouched, if one exists.
func (t *Tree[T]) SetRoot(data T) (*Node[T], error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root != nil {
		return nil, ErrAlreadyHasRoot
	}
	t.root = newNode(data)
	return t.root, nil
}

// RemoveSubtree unlinks node from the tree. The node's own children stay
// attached below it, so the detached subtree remains traversable from node.
//
// A node that is the root but also has a parent, or whose parent does not
// list it as a child, means the tree is corrupt and RemoveSubtree panics.
func (t *Tree[T]) RemoveSubtree(node *Node[T]) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	parentRef, hasParent := node.Parent()
	isRoot := t.root == node

	switch {
	case isRoot && !hasParent:
		t.root = nil
		return nil
	case isRoot && hasParent:
		panic("reftree: root node has a parent")
	case !isRoot && !hasParent:
		return ErrNotAttached
	}

	parent := parentRef.Value()
	if parent == nil {
		// parent already dropped, so node cannot be reachable from the root
		return ErrNotAttached
	}

	parent.mu.Lock()
	defer parent.mu.Unlock()

	idx := parent.indexLocked(node)
	if idx < 0 {
		panic(fmt.Sprintf("reftree: node missing from its parent's %d children", len(parent.children)))
	}
	parent.children = append(parent.children[:idx], parent.children[idx+1:]...)

	node.mu.Lock()
	node.parent = weak.Pointer[Node[T]]{}
	node.hasParent = false
	node.mu.Unlock()

	return nil
}

// Walk visits node and its descendants depth-first in child order. Returning
// false from fn skips the node's children.
func Walk[T any](node *Node[T], fn func(n *Node[T], depth int) bool) {
	walk(node, 0, fn)
}

func walk[T any](node *Node[T], depth int, fn func(n *Node[T], depth int) bool) {
	if !fn(node, depth) {
		return
	}
	for _, c := range node.Children() {
		walk(c, depth+1, fn)
	}
}
