package reftree

import (
	"io"
	"slices"

	"github.com/ddddddO/gtree"
)

// PrintOptions controls Fprint.
type PrintOptions[T any] struct {
	// MaxDepth limits how many levels below the start node are printed.
	// Negative means unlimited.
	MaxDepth int
	// Label renders a payload as a single line.
	Label func(data T) string
	// Less, when set, orders siblings.
	Less func(a, b T) bool
}

// Fprint writes node and its descendants to w as an indented tree.
func Fprint[T any](w io.Writer, node *Node[T], opts PrintOptions[T]) error {
	root := gtree.NewRoot(opts.Label(node.Data()))
	addChildren(root, node, 1, opts)
	return gtree.OutputFromRoot(w, root)
}

func addChildren[T any](dst *gtree.Node, node *Node[T], depth int, opts PrintOptions[T]) {
	if opts.MaxDepth >= 0 && depth > opts.MaxDepth {
		return
	}

	type pair struct {
		node *Node[T]
		data T
	}
	children := node.Children()
	pairs := make([]pair, len(children))
	for i, c := range children {
		pairs[i] = pair{node: c, data: c.Data()}
	}
	if opts.Less != nil {
		slices.SortStableFunc(pairs, func(a, b pair) int {
			switch {
			case opts.Less(a.data, b.data):
				return -1
			case opts.Less(b.data, a.data):
				return 1
			}
			return 0
		})
	}

	for _, p := range pairs {
		addChildren(dst.Add(opts.Label(p.data)), p.node, depth+1, opts)
	}
}
