package reftree

import (
	"bytes"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRoot(t *testing.T) {
	tree := New[int]()
	assert.True(t, tree.IsEmpty())

	root, err := tree.SetRoot(0)
	require.NoError(t, err)
	assert.Same(t, root, tree.Root())
	assert.Equal(t, 0, root.Data())
	assert.Empty(t, root.Children())

	_, ok := root.Parent()
	assert.False(t, ok, "root must not have a parent")
}

func TestSetRootTwiceFails(t *testing.T) {
	tree := New[int]()
	root, err := tree.SetRoot(1)
	require.NoError(t, err)

	again, err := tree.SetRoot(2)
	assert.ErrorIs(t, err, ErrAlreadyHasRoot)
	assert.Nil(t, again)
	assert.Same(t, root, tree.Root())
	assert.Equal(t, 1, tree.Root().Data())
}

func TestAttachChild(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)

	child := AttachChild(root, 1)

	require.Equal(t, 1, root.Len())
	first, ok := root.ChildAt(0)
	require.True(t, ok)
	assert.Same(t, child, first)
	assert.Equal(t, 1, child.Data())
	assert.Same(t, root, child.ParentNode())

	_, ok = root.ChildAt(1)
	assert.False(t, ok)
	_, ok = root.ChildAt(-1)
	assert.False(t, ok)
}

func TestChildrenAreAppendedInOrder(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	for i := 1; i <= 5; i++ {
		AttachChild(root, i)
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, root.ChildrenData())
}

func TestChildrenIsSnapshot(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	AttachChild(root, 1)

	snap := root.Children()
	AttachChild(root, 2)

	assert.Len(t, snap, 1)
	assert.Equal(t, 2, root.Len())
}

func TestUpdateIsVisibleThroughParent(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	child := AttachChild(root, 1)

	child.Update(func(v *int) { *v = 2 })

	assert.Equal(t, 2, child.Data())
	first, _ := root.ChildAt(0)
	assert.Equal(t, 2, first.Data())
}

func TestRemoveSubtree(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	child := AttachChild(root, 1)

	require.NoError(t, tree.RemoveSubtree(child))

	_, ok := child.Parent()
	assert.False(t, ok)
	assert.Empty(t, child.Children())
	assert.Empty(t, root.Children())
}

func TestRemoveSubtreeKeepsLowerLayers(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	child := AttachChild(root, 1)
	grandchild := AttachChild(child, 2)

	require.NoError(t, tree.RemoveSubtree(child))

	assert.Nil(t, child.ParentNode())
	assert.Empty(t, root.Children())

	// the removed node keeps its children and they keep their parent
	assert.Equal(t, []int{2}, child.ChildrenData())
	assert.Same(t, child, grandchild.ParentNode())
	assert.Empty(t, grandchild.Children())
}

func TestRemoveSubtreeMiddleChild(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	AttachChild(root, 1)
	middle := AttachChild(root, 2)
	AttachChild(root, 3)

	require.NoError(t, tree.RemoveSubtree(middle))
	assert.Equal(t, []int{1, 3}, root.ChildrenData())
}

func TestRemoveRoot(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	AttachChild(root, 1)

	require.NoError(t, tree.RemoveSubtree(root))
	assert.True(t, tree.IsEmpty())
	assert.Equal(t, 1, root.Len())

	_, err := tree.SetRoot(5)
	assert.NoError(t, err, "an emptied tree accepts a new root")
}

func TestRemoveTwiceReportsNotAttached(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	child := AttachChild(root, 1)

	require.NoError(t, tree.RemoveSubtree(child))
	assert.ErrorIs(t, tree.RemoveSubtree(child), ErrNotAttached)
}

func TestRemoveFromEmptyTree(t *testing.T) {
	tree := New[int]()
	other := New[int]()
	stray, _ := other.SetRoot(1)

	assert.ErrorIs(t, tree.RemoveSubtree(stray), ErrNotAttached)
}

func TestRemoveSubtreePanicsWhenParentLostChild(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	child := AttachChild(root, 1)

	// corrupt the tree behind the API's back
	root.mu.Lock()
	root.children = nil
	root.mu.Unlock()

	assert.Panics(t, func() { _ = tree.RemoveSubtree(child) })
}

func TestConcurrentAttach(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dir := AttachChild(root, i)
			for j := 0; j < 50; j++ {
				AttachChild(dir, j)
				for n := range Ancestors(dir).All() {
					n.Update(func(v *int) { *v++ })
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, root.Len())
	assert.Equal(t, 16*50, root.Data())
	for _, c := range root.Children() {
		assert.Equal(t, 50, c.Len())
	}
}

func TestWalk(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	a := AttachChild(root, 1)
	AttachChild(a, 2)
	AttachChild(root, 3)

	var seen []int
	var depths []int
	Walk(root, func(n *Node[int], depth int) bool {
		seen = append(seen, n.Data())
		depths = append(depths, depth)
		return true
	})
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
	assert.Equal(t, []int{0, 1, 2, 1}, depths)
}

func TestFprint(t *testing.T) {
	tree := New[int]()
	root, _ := tree.SetRoot(0)
	a := AttachChild(root, 1)
	AttachChild(a, 2)
	AttachChild(root, 3)

	var buf bytes.Buffer
	err := Fprint(&buf, root, PrintOptions[int]{
		MaxDepth: 1,
		Label:    strconv.Itoa,
		Less:     func(a, b int) bool { return a > b },
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "0")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "1")
	assert.NotContains(t, out, "2", "depth limit must cut the grandchild")
	assert.Less(t, bytes.IndexByte(buf.Bytes(), '3'), bytes.IndexByte(buf.Bytes(), '1'))
}
