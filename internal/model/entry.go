package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotDirectory is returned when a directory entry is requested for a path
// that is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Kind distinguishes directories from files
type Kind uint8

const (
	KindDirectory Kind = iota
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "dir"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Sizes holds the two size metrics tracked for every entry
type Sizes struct {
	Apparent uint64 // logical length
	Disk     uint64 // allocated blocks
}

// SizesOf reads both metrics from file metadata
func SizesOf(info fs.FileInfo) Sizes {
	var apparent uint64
	if info.Size() > 0 {
		apparent = uint64(info.Size())
	}
	return Sizes{
		Apparent: apparent,
		Disk:     diskUsage(info),
	}
}

// Add returns s + o
func (s Sizes) Add(o Sizes) Sizes {
	return Sizes{
		Apparent: s.Apparent + o.Apparent,
		Disk:     s.Disk + o.Disk,
	}
}

// Sub returns s - o, clamped at zero
func (s Sizes) Sub(o Sizes) Sizes {
	return Sizes{
		Apparent: subClamp(s.Apparent, o.Apparent),
		Disk:     subClamp(s.Disk, o.Disk),
	}
}

func subClamp(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// In returns the metric selected by mode
func (s Sizes) In(mode SizeMode) uint64 {
	if mode == SizeApparent {
		return s.Apparent
	}
	return s.Disk
}

// IsZero reports whether both metrics are zero
func (s Sizes) IsZero() bool {
	return s.Apparent == 0 && s.Disk == 0
}

// Entry is the payload stored in every tree node
type Entry struct {
	Name  string
	Path  string
	Sizes Sizes // own size for files, aggregated total for dirs
	Kind  Kind

	// Descendants counts every entry below this one
	Descendants uint64

	// HardLink marks a file whose data is already counted through another
	// link; its Sizes are zero.
	HardLink bool

	// Info is the raw metadata, kept for mode and time display
	Info fs.FileInfo
}

// NewDirEntry builds an entry for the directory at path. Sizes start at zero;
// the walker fills them in.
func NewDirEntry(path string) (Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, err
	}
	if !info.IsDir() {
		return Entry{}, fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	return Entry{
		Name: displayName(path),
		Path: path,
		Kind: KindDirectory,
		Info: info,
	}, nil
}

// NewFileEntry builds an entry for a file from metadata already read
func NewFileEntry(path string, info fs.FileInfo) Entry {
	return Entry{
		Name:  info.Name(),
		Path:  path,
		Sizes: SizesOf(info),
		Kind:  KindFile,
		Info:  info,
	}
}

// IsDir reports whether the entry is a directory
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// Size returns the entry's size under mode
func (e Entry) Size(mode SizeMode) uint64 {
	return e.Sizes.In(mode)
}

func (e Entry) String() string {
	return fmt.Sprintf("%-20s • %d", e.Name, e.Sizes.Disk)
}

func displayName(path string) string {
	name := filepath.Base(path)
	if name == "." || name == "" {
		return path
	}
	return name
}
