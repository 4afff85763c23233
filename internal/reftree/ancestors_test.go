package reftree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func dataOf(nodes []*Node[int]) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data()
	}
	return out
}

func TestAncestorIterator(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	child := AttachChild(root, 1)
	child2 := AttachChild(child, 2)

	it := Ancestors(child2)
	assert.Equal(t, 2, it.Next().Data())
	assert.Equal(t, 1, it.Next().Data())
	assert.Equal(t, 0, it.Next().Data())
	assert.Nil(t, it.Next())
	assert.Nil(t, it.Next(), "an exhausted iterator stays exhausted")

	assert.Equal(t, []int{1, 0}, dataOf(PathToRoot(child)))
	assert.Equal(t, []int{0}, dataOf(PathToRoot(root)))
}

func TestAncestorIterationIsRepeatable(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	leaf := AttachChild(AttachChild(AttachChild(root, 1), 2), 3)

	first := PathToRoot(leaf)
	second := PathToRoot(leaf)
	assert.Equal(t, first, second)
	assert.Equal(t, []int{3, 2, 1, 0}, dataOf(first))
}

func TestAncestorsStopAtDetachedSubtree(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	child := AttachChild(root, 1)
	leaf := AttachChild(child, 2)

	_ = tree.RemoveSubtree(child)

	assert.Equal(t, []int{2, 1}, dataOf(PathToRoot(leaf)))
}

func TestAncestorsEarlyBreak(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	leaf := AttachChild(AttachChild(root, 1), 2)

	var seen []int
	for n := range Ancestors(leaf).All() {
		seen = append(seen, n.Data())
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []int{2, 1}, seen)
}
