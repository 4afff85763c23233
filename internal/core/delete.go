package core

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/lumipallolabs/disko/internal/logging"
	"github.com/lumipallolabs/disko/internal/model"
	"github.com/lumipallolabs/disko/internal/reftree"
)

// Remover deletes paths from disk
type Remover interface {
	Remove(path string) error
	RemoveAll(path string) error
}

// OSRemover deletes through the os package
type OSRemover struct{}

func (OSRemover) Remove(path string) error    { return os.Remove(path) }
func (OSRemover) RemoveAll(path string) error { return os.RemoveAll(path) }

// Deleted summarizes what a DeleteEntries call removed
type Deleted struct {
	Paths   []string
	Sizes   model.Sizes
	Entries uint64 // removed nodes including everything below them
}

// DeleteEntries removes the children of parent at indices from disk and from
// the tree, then subtracts their totals from parent and every ancestor.
// Indices refer to the parent's current child order; duplicates are ignored.
// A failure does not undo deletions that already succeeded; all failures are
// joined into the returned error.
func DeleteEntries(tree *reftree.Tree[model.Entry], parent *reftree.Node[model.Entry], indices []int, rm Remover) (Deleted, error) {
	children := parent.Children()

	order := slices.Clone(indices)
	slices.Sort(order)
	order = slices.Compact(order)
	slices.Reverse(order)

	var (
		result Deleted
		errs   []error
	)
	for _, idx := range order {
		if idx < 0 || idx >= len(children) {
			errs = append(errs, fmt.Errorf("delete index %d: %w", idx, ErrNoSuchChild))
			continue
		}
		child := children[idx]
		e := child.Data()

		if err := removeEntry(rm, e); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", e.Path, err))
			continue
		}
		if err := tree.RemoveSubtree(child); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", e.Path, err))
			continue
		}
		logging.Debug.Printf("[Delete] removed %s (%d bytes)", e.Path, e.Sizes.Disk)

		result.Paths = append(result.Paths, e.Path)
		result.Sizes = result.Sizes.Add(e.Sizes)
		result.Entries += e.Descendants + 1
	}

	if result.Entries > 0 {
		subtract(parent, result.Sizes, result.Entries)
	}
	return result, errors.Join(errs...)
}

func removeEntry(rm Remover, e model.Entry) error {
	if e.IsDir() {
		return rm.RemoveAll(e.Path)
	}
	return rm.Remove(e.Path)
}

// subtract removes sizes and entry counts from node and its ancestors
func subtract(node *reftree.Node[model.Entry], sizes model.Sizes, entries uint64) {
	for n := range reftree.Ancestors(node).All() {
		n.Update(func(e *model.Entry) {
			e.Sizes = e.Sizes.Sub(sizes)
			if entries > e.Descendants {
				e.Descendants = 0
			} else {
				e.Descendants -= entries
			}
		})
	}
}
