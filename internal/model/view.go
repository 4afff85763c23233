package model

import (
	"fmt"
	"sort"
)

// SizeMode selects which size metric is displayed and sorted on
type SizeMode int

const (
	SizeDisk SizeMode = iota
	SizeApparent
)

func (m SizeMode) String() string {
	if m == SizeApparent {
		return "apparent"
	}
	return "disk"
}

// Toggle switches between the two modes
func (m SizeMode) Toggle() SizeMode {
	if m == SizeApparent {
		return SizeDisk
	}
	return SizeApparent
}

// ParseSizeMode parses "disk" or "apparent"
func ParseSizeMode(s string) (SizeMode, error) {
	switch s {
	case "", "disk":
		return SizeDisk, nil
	case "apparent":
		return SizeApparent, nil
	default:
		return SizeDisk, fmt.Errorf("unknown size mode %q", s)
	}
}

// EntryView is a read-only snapshot of an entry plus its position among its
// parent's children, so a consumer can ask for that child again without
// scanning.
type EntryView struct {
	Entry
	Index int
}

// Views wraps child payloads (in child order) as views
func Views(children []Entry) []EntryView {
	views := make([]EntryView, len(children))
	for i, e := range children {
		views[i] = EntryView{Entry: e, Index: i}
	}
	return views
}

// SortBySize sorts views by size descending, then by name ascending
func SortBySize(views []EntryView, mode SizeMode) {
	sort.Slice(views, func(i, j int) bool {
		si, sj := views[i].Size(mode), views[j].Size(mode)
		if si != sj {
			return si > sj
		}
		return views[i].Name < views[j].Name
	})
}

// Less orders entries the way SortBySize does
func Less(mode SizeMode) func(a, b Entry) bool {
	return func(a, b Entry) bool {
		sa, sb := a.Size(mode), b.Size(mode)
		if sa != sb {
			return sa > sb
		}
		return a.Name < b.Name
	}
}
