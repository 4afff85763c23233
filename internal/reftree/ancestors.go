package reftree

import "iter"

// AncestorIterator yields a node followed by each of its ancestors up to the
// root. It is single use. A parent that can no longer be resolved ends the
// sequence early: everything above that point has left the tree.
type AncestorIterator[T any] struct {
	next *Node[T]
}

// Ancestors returns an iterator starting at node (inclusive).
func Ancestors[T any](node *Node[T]) *AncestorIterator[T] {
	return &AncestorIterator[T]{next: node}
}

// Next returns the next node on the path to the root, or nil when done.
func (it *AncestorIterator[T]) Next() *Node[T] {
	cur := it.next
	if cur == nil {
		return nil
	}
	it.next = cur.ParentNode()
	return cur
}

// All adapts the iterator to a range-over-func sequence. It consumes the
// iterator.
func (it *AncestorIterator[T]) All() iter.Seq[*Node[T]] {
	return func(yield func(*Node[T]) bool) {
		for n := it.Next(); n != nil; n = it.Next() {
			if !yield(n) {
				return
			}
		}
	}
}

// PathToRoot collects node and its ancestors, node first.
func PathToRoot[T any](node *Node[T]) []*Node[T] {
	var out []*Node[T]
	for n := range Ancestors(node).All() {
		out = append(out, n)
	}
	return out
}
