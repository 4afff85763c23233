package scanner

import (
	"io/fs"
	"sync"

	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/reftree"
)

// WalkState is handed from each directory to its sub-directories. The
// ancestor is either the tree itself (nothing attached yet) or the node of
// the directory being descended from. The hard-link table is shared by every
// clone.
type WalkState struct {
	tree   *reftree.Tree[model.Entry]
	parent *reftree.Node[model.Entry] // nil => next directory becomes the root
	links  *LinkTable
}

// NewWalkState creates the initial state for a walk that will populate tree.
func NewWalkState(tree *reftree.Tree[model.Entry]) WalkState {
	return WalkState{
		tree:  tree,
		links: NewLinkTable(),
	}
}

// Clone returns a copy that shares the tree and the hard-link table.
func (s WalkState) Clone() WalkState {
	return s
}

// Parent returns the node the next directory will be attached to, or nil if
// it will become the tree's root.
func (s WalkState) Parent() *reftree.Node[model.Entry] {
	return s.parent
}

// Attach links entry below the current ancestor: as the root when the
// ancestor is the tree, as a child otherwise.
func (s WalkState) Attach(entry model.Entry) *reftree.Node[model.Entry] {
	if s.parent != nil {
		return reftree.AttachChild(s.parent, entry)
	}
	node, err := s.tree.SetRoot(entry)
	if err != nil {
		// a second root means two branches both believe they are first
		panic("scanner: " + err.Error() + ": " + entry.Path)
	}
	return node
}

// Descend makes node the ancestor for deeper recursion.
func (s *WalkState) Descend(node *reftree.Node[model.Entry]) {
	s.parent = node
}

// SeenBefore reports whether info is a further link to a file already counted.
func (s WalkState) SeenBefore(info fs.FileInfo) bool {
	return s.links.SeenBefore(info)
}

// fileID identifies a file's data independently of its names.
type fileID struct {
	dev uint64
	ino uint64
}

// LinkTable tracks hard-linked files so each is counted once per walk. It is
// populated lazily: the first sighting of a multiply-linked inode records how
// many more links to expect, later sightings count down and the entry is
// dropped once every link was seen.
type LinkTable struct {
	mu        sync.Mutex
	remaining map[fileID]uint64
}

// NewLinkTable creates an empty table.
func NewLinkTable() *LinkTable {
	return &LinkTable{remaining: make(map[fileID]uint64)}
}

// SeenBefore returns true if info refers to data already counted. Platforms
// without inode metadata always return false.
func (t *LinkTable) SeenBefore(info fs.FileInfo) bool {
	id, nlink, ok := linkInfo(info)
	if !ok || nlink <= 1 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	count, seen := t.remaining[id]
	if !seen {
		t.remaining[id] = nlink - 1
		return false
	}
	if count <= 1 {
		// final sighting
		delete(t.remaining, id)
	} else {
		t.remaining[id] = count - 1
	}
	return true
}

// Pending returns how many inodes still expect further sightings.
func (t *LinkTable) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.remaining)
}
