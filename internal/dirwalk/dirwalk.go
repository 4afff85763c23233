// Package dirwalk enumerates a directory tree in parallel, one directory at a
// time.
//
// Unlike a per-entry walk, the callback sees a directory's complete list of
// children in a single call, together with a caller-defined state value. The
// state is cloned for every sub-directory after the callback returns, so each
// branch carries whatever the callback stored for it (typically "the node I
// was attached to").
package dirwalk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// NoDepth is passed for the synthetic first call that lists the walk root as
// the only child of its parent.
const NoDepth = -1

// Child is one entry of a directory listing.
type Child struct {
	Path  string
	Entry fs.DirEntry

	// Skip may be set by the callback to keep a directory from being
	// descended into.
	Skip bool
}

// Name returns the base name of the child.
func (c *Child) Name() string {
	return c.Entry.Name()
}

// IsDir reports whether the child is a directory, without following symlinks.
func (c *Child) IsDir() bool {
	return c.Entry.IsDir()
}

// IsRegular reports whether the child is a regular file.
func (c *Child) IsRegular() bool {
	return c.Entry.Type().IsRegular()
}

// Info returns the child's metadata (lstat semantics).
func (c *Child) Info() (fs.FileInfo, error) {
	return c.Entry.Info()
}

// Cloner is implemented by walk states. Clone must return a value that can be
// mutated independently, although it may share synchronized resources.
type Cloner[S any] interface {
	Clone() S
}

// ProcessFunc is called once per directory. depth is 0 for the root and
// NoDepth for the synthetic parent of the root. state may be modified; the
// modified value is cloned into every sub-directory. Setting Skip on a child
// prevents descent.
type ProcessFunc[S any] func(depth int, dir string, state *S, children []Child)

// Options configures a walk.
type Options struct {
	// Sort orders children by name before they are handed to the callback.
	Sort bool
	// Workers bounds how many goroutines walk at once, the caller's
	// included. 1 forces a sequential depth-first walk; values below 1 mean
	// runtime.NumCPU().
	Workers int
	// OnError is called for directories that cannot be read. It may be
	// called concurrently.
	OnError func(path string, err error)
}

// Walk enumerates root and everything below it, calling process for every
// directory. It returns ctx.Err() if the context was cancelled; a cancelled
// walk skips all directories not yet started.
func Walk[S Cloner[S]](ctx context.Context, root string, opts Options, state S, process ProcessFunc[S]) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	info, err := os.Lstat(absRoot)
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		// the root is the one symlink that is followed
		if info, err = os.Stat(absRoot); err != nil {
			return err
		}
	}

	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	// The calling goroutine is the first worker; each token is one more.
	w := &walker[S]{
		opts:    opts,
		process: process,
		sem:     semaphore.NewWeighted(int64(workers - 1)),
	}

	// Synthetic parent listing only the root.
	top := []Child{{Path: absRoot, Entry: fs.FileInfoToDirEntry(info)}}
	process(NoDepth, filepath.Dir(absRoot), &state, top)
	if top[0].Skip || !info.IsDir() {
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	w.group = g
	w.visit(gctx, absRoot, 0, state.Clone())

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

type walker[S Cloner[S]] struct {
	opts    Options
	process ProcessFunc[S]
	sem     *semaphore.Weighted
	group   *errgroup.Group
}

// visit reads dir, hands it to the callback, then descends. A sub-directory
// goes to a new goroutine only when a worker token is free; otherwise it is
// walked inline, so every goroutine stays depth-first on its branch and at
// most Workers goroutines exist. Tokens are never waited on, so deep trees
// cannot deadlock the pool.
func (w *walker[S]) visit(ctx context.Context, dir string, depth int, state S) {
	if ctx.Err() != nil {
		return
	}

	children := w.readDir(dir)
	w.process(depth, dir, &state, children)

	for i := range children {
		c := &children[i]
		if c.Skip || !c.IsDir() {
			continue
		}
		path, sub := c.Path, state.Clone()
		if w.sem.TryAcquire(1) {
			w.group.Go(func() error {
				defer w.sem.Release(1)
				w.visit(ctx, path, depth+1, sub)
				return nil
			})
			continue
		}
		w.visit(ctx, path, depth+1, sub)
	}
}

func (w *walker[S]) readDir(dir string) []Child {
	entries, err := readEntries(dir)
	if err != nil && w.opts.OnError != nil {
		w.opts.OnError(dir, err)
	}

	if w.opts.Sort {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Name() < entries[j].Name()
		})
	}

	children := make([]Child, len(entries))
	for i, e := range entries {
		children[i] = Child{
			Path:  filepath.Join(dir, e.Name()),
			Entry: e,
		}
	}
	return children
}

// readEntries lists dir in directory order. Entries read before an error are
// still returned.
func readEntries(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadDir(-1)
}
