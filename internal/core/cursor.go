package core

import (
	"errors"
	"sync"

	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/reftree"
)

var (
	ErrNoCursor     = errors.New("nothing to show yet")
	ErrAtRoot       = errors.New("already at the top")
	ErrParentGone   = errors.New("parent directory no longer exists")
	ErrNoSuchChild  = errors.New("no such entry")
	ErrNotDirectory = model.ErrNotDirectory
)

// Listing is one directory as presented to the UI
type Listing struct {
	Dir      model.EntryView
	Children []model.EntryView // sorted by size, largest first
}

// Cursor tracks the directory the user is looking at. It starts at the
// tree's root as soon as one exists.
type Cursor struct {
	mu   sync.Mutex
	tree *reftree.Tree[model.Entry]
	node *reftree.Node[model.Entry]
	mode model.SizeMode
}

// NewCursor creates a cursor over tree
func NewCursor(tree *reftree.Tree[model.Entry], mode model.SizeMode) *Cursor {
	return &Cursor{tree: tree, mode: mode}
}

// currentLocked resolves the node, falling back to the root
func (c *Cursor) currentLocked() (*reftree.Node[model.Entry], error) {
	if c.node == nil {
		c.node = c.tree.Root()
	}
	if c.node == nil {
		return nil, ErrNoCursor
	}
	return c.node, nil
}

// Node returns the current directory node
func (c *Cursor) Node() (*reftree.Node[model.Entry], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

// Mode returns the size mode used for sorting
func (c *Cursor) Mode() model.SizeMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// ToggleMode switches between disk and apparent sizes
func (c *Cursor) ToggleMode() model.SizeMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = c.mode.Toggle()
	return c.mode
}

// Current returns the current directory and its children
func (c *Cursor) Current() (Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.currentLocked()
	if err != nil {
		return Listing{}, err
	}
	return Listing{
		Dir:      viewOf(node),
		Children: c.sortedChildren(node),
	}, nil
}

// Preview returns the children of the child at index without moving
func (c *Cursor) Preview(index int) ([]model.EntryView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.currentLocked()
	if err != nil {
		return nil, err
	}
	child, ok := node.ChildAt(index)
	if !ok {
		return nil, ErrNoSuchChild
	}
	return c.sortedChildren(child), nil
}

// Up moves to the parent directory
func (c *Cursor) Up() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.currentLocked()
	if err != nil {
		return err
	}
	parent, ok := node.Parent()
	if !ok {
		if node == c.tree.Root() {
			return ErrAtRoot
		}
		// detached from the tree
		return ErrParentGone
	}
	p := parent.Value()
	if p == nil {
		return ErrParentGone
	}
	c.node = p
	return nil
}

// Enter moves into the child directory at index
func (c *Cursor) Enter(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.currentLocked()
	if err != nil {
		return err
	}
	child, ok := node.ChildAt(index)
	if !ok {
		return ErrNoSuchChild
	}
	if !child.Data().IsDir() {
		return ErrNotDirectory
	}
	c.node = child
	return nil
}

// Path returns the names from the root down to the current directory
func (c *Cursor) Path() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.currentLocked()
	if err != nil {
		return nil
	}
	nodes := reftree.PathToRoot(node)
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[len(nodes)-1-i] = n.Data().Name
	}
	return names
}

func (c *Cursor) sortedChildren(node *reftree.Node[model.Entry]) []model.EntryView {
	views := model.Views(node.ChildrenData())
	model.SortBySize(views, c.mode)
	return views
}

// viewOf snapshots node with its position in its parent, -1 for the root
func viewOf(node *reftree.Node[model.Entry]) model.EntryView {
	index := -1
	if parent := node.ParentNode(); parent != nil {
		index = parent.IndexOf(node)
	}
	return model.EntryView{Entry: node.Data(), Index: index}
}
