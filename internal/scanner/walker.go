package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/lumipallolabs/disko/internal/dirwalk"
	"github.com/lumipallolabs/disko/internal/logging"
	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/reftree"
)

// Walker builds an entry tree directory by directory. Each directory is
// attached as soon as it is read, so readers of the tree see totals grow
// while the walk is still running.
type Walker struct {
	opts Options

	filesScanned atomic.Int64
	dirsScanned  atomic.Int64
	bytesFound   atomic.Int64
	currentPath  atomic.Pointer[string]
}

var _ Scanner = (*Walker)(nil)

// NewWalker creates a new parallel tree walker
func NewWalker(opts Options) *Walker {
	return &Walker{opts: opts}
}

// Progress returns a snapshot of the walk counters
func (w *Walker) Progress() Progress {
	p := Progress{
		FilesScanned: w.filesScanned.Load(),
		DirsScanned:  w.dirsScanned.Load(),
		BytesFound:   w.bytesFound.Load(),
	}
	if cur := w.currentPath.Load(); cur != nil {
		p.CurrentPath = *cur
	}
	return p
}

// Walk populates tree starting at root. The tree must be empty. A cancelled
// walk returns ctx.Err(); everything attached up to that point is consistent.
func (w *Walker) Walk(ctx context.Context, root string, tree *reftree.Tree[model.Entry]) error {
	if !tree.IsEmpty() {
		return ErrTreeNotEmpty
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if _, err := model.NewDirEntry(absRoot); err != nil {
		return err
	}

	f := newFilter(absRoot, w.opts)
	opts := dirwalk.Options{
		Sort:    w.opts.Sort,
		Workers: w.opts.Workers,
		OnError: func(path string, err error) {
			logging.Walker.Printf("read %s: %v", path, err)
		},
	}

	logging.Walker.Printf("walk %s (workers=%d)", absRoot, w.opts.Workers)
	err = dirwalk.Walk(ctx, absRoot, opts, NewWalkState(tree),
		func(depth int, dir string, state *WalkState, children []dirwalk.Child) {
			w.processDir(f, depth, dir, state, children)
		})
	if err != nil {
		return fmt.Errorf("walk %s: %w", absRoot, err)
	}
	return nil
}

// processDir turns one directory listing into nodes: the directory itself,
// then its regular files, then pushes the collected totals up to the root.
func (w *Walker) processDir(f filter, depth int, dir string, state *WalkState, children []dirwalk.Child) {
	if depth == dirwalk.NoDepth {
		return
	}

	entry, err := model.NewDirEntry(dir)
	if err != nil {
		logging.Walker.Printf("skip %s: %v", dir, err)
		skipAll(children)
		return
	}
	w.currentPath.Store(&dir)
	w.dirsScanned.Add(1)

	node := state.Attach(entry)

	var collected model.Sizes
	if w.opts.CountDirSize {
		collected = model.SizesOf(entry.Info)
	}

	files := make([]model.Entry, 0, len(children))
	for i := range children {
		c := &children[i]
		if f.excluded(c.Name()) {
			c.Skip = true
			continue
		}
		if c.IsDir() {
			if f.foreignDir(c.Path, c.Entry) {
				c.Skip = true
			}
			continue
		}
		if !c.IsRegular() {
			continue
		}
		info, err := c.Info()
		if err != nil {
			logging.Walker.Printf("skip %s: %v", c.Path, err)
			continue
		}

		fe := model.NewFileEntry(c.Path, info)
		if state.SeenBefore(info) {
			fe.Sizes = model.Sizes{}
			fe.HardLink = true
		}
		collected = collected.Add(fe.Sizes)
		files = append(files, fe)
	}

	for _, fe := range files {
		reftree.AttachChild(node, fe)
	}
	w.filesScanned.Add(int64(len(files)))
	w.bytesFound.Add(int64(collected.Disk))

	propagate(node, collected, uint64(len(files)))
	state.Descend(node)
}

// propagate adds a directory's collected sizes to it and every ancestor.
// The directory gains its files as descendants; ancestors also gain the
// directory itself.
func propagate(node *reftree.Node[model.Entry], sizes model.Sizes, files uint64) {
	for n := range reftree.Ancestors(node).All() {
		added := files
		if n != node {
			added++
		}
		n.Update(func(e *model.Entry) {
			e.Sizes = e.Sizes.Add(sizes)
			e.Descendants += added
		})
	}
}

func skipAll(children []dirwalk.Child) {
	for i := range children {
		children[i].Skip = true
	}
}
