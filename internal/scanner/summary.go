package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/lumipallolabs/disko/internal/model"
)

// Totals is the flat result of Summarize
type Totals struct {
	Files     uint64
	Dirs      uint64 // excluding the root
	HardLinks uint64 // extra links that were not counted again
	Sizes     model.Sizes
}

// Entries returns the number of entries below the root
func (t Totals) Entries() uint64 {
	return t.Files + t.Dirs
}

// Summarize computes the totals of root without building a tree. It applies
// the same counting rules as Walker, so its result matches the root entry
// of a completed walk.
func Summarize(ctx context.Context, root string, opts Options) (Totals, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Totals{}, err
	}
	rootEntry, err := model.NewDirEntry(absRoot)
	if err != nil {
		return Totals{}, err
	}

	var (
		files, dirs, links atomic.Uint64
		apparent, disk     atomic.Uint64
	)
	add := func(s model.Sizes) {
		apparent.Add(s.Apparent)
		disk.Add(s.Disk)
	}
	if opts.CountDirSize {
		add(model.SizesOf(rootEntry.Info))
	}

	f := newFilter(absRoot, opts)
	seen := NewLinkTable()

	conf := &fastwalk.Config{
		Follow:     false, // Don't follow symlinks
		NumWorkers: opts.Workers,
	}

	walkErr := fastwalk.Walk(conf, absRoot, func(path string, d fs.DirEntry, err error) error {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip entries with errors
		}
		if path == absRoot {
			return nil
		}

		if f.excluded(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if f.foreignDir(path, d) {
				return fs.SkipDir
			}
			dirs.Add(1)
			if opts.CountDirSize {
				if info, err := d.Info(); err == nil {
					add(model.SizesOf(info))
				}
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files.Add(1)
		if seen.SeenBefore(info) {
			links.Add(1)
			return nil
		}
		add(model.SizesOf(info))
		return nil
	})
	if walkErr != nil {
		return Totals{}, fmt.Errorf("summarize %s: %w", absRoot, walkErr)
	}

	return Totals{
		Files:     files.Load(),
		Dirs:      dirs.Load(),
		HardLinks: links.Load(),
		Sizes:     model.Sizes{Apparent: apparent.Load(), Disk: disk.Load()},
	}, nil
}
