package scanner

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lumipallolabs/disko/internal/logging"
)

// filter decides which entries a walk leaves out
type filter struct {
	exclude []string
	rootDev uint64
	sameFS  bool // only descend into directories on rootDev
}

func newFilter(root string, opts Options) filter {
	f := filter{exclude: opts.Exclude}
	if !opts.OneFileSystem {
		return f
	}
	info, err := os.Stat(root)
	if err != nil {
		return f
	}
	if dev, ok := deviceOf(info); ok {
		f.rootDev = dev
		f.sameFS = true
	}
	return f
}

// excluded reports whether name matches an exclude pattern
func (f filter) excluded(name string) bool {
	for _, pattern := range f.exclude {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// foreignDir reports whether a directory lives on another filesystem
func (f filter) foreignDir(path string, d fs.DirEntry) bool {
	if !f.sameFS {
		return false
	}
	info, err := d.Info()
	if err != nil {
		return false
	}
	dev, ok := deviceOf(info)
	if ok && dev != f.rootDev {
		logging.Walker.Printf("not crossing mount point %s", path)
		return true
	}
	return false
}
