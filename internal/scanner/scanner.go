package scanner

import (
	"context"
	"errors"

	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/reftree"
)

// ErrTreeNotEmpty is returned when a walk is asked to fill a tree that
// already has a root.
var ErrTreeNotEmpty = errors.New("tree already has a root")

// Progress reports scanning progress
type Progress struct {
	FilesScanned int64
	DirsScanned  int64
	BytesFound   int64
	CurrentPath  string
}

// Scanner defines the interface for filesystem scanning
type Scanner interface {
	// Walk populates tree from the directory at root. Cancelling ctx stops
	// the walk, leaving a consistent partial tree.
	Walk(ctx context.Context, root string, tree *reftree.Tree[model.Entry]) error

	// Progress returns a snapshot of the counters
	Progress() Progress
}

// Options configures a walk
type Options struct {
	// Workers bounds concurrent directory reads. 1 walks sequentially;
	// 0 means one per CPU.
	Workers int

	// Sort lists directory children by name
	Sort bool

	// CountDirSize adds each directory's own footprint to its total
	CountDirSize bool

	// OneFileSystem stops at mount points
	OneFileSystem bool

	// Exclude holds filepath.Match patterns tested against entry names
	Exclude []string
}
