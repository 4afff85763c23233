package core

import (
	"time"

	"github.com/lumipallolabs/disko/internal/model"
)

// Event represents a state change from the controller
type Event interface {
	isEvent()
}

// StartedEvent is emitted when a traversal begins
type StartedEvent struct {
	Path string
}

func (StartedEvent) isEvent() {}

// ProgressEvent is emitted periodically while traversing
type ProgressEvent struct {
	FilesScanned int64
	DirsScanned  int64
	BytesFound   int64
	CurrentPath  string
}

func (ProgressEvent) isEvent() {}

// FinishedEvent is emitted once when a traversal ends
type FinishedEvent struct {
	Totals  model.Entry // root entry at the end of the walk
	Elapsed time.Duration
	Stopped bool
	Err     error // nil for completed and stopped walks
}

func (FinishedEvent) isEvent() {}

// DeletedEvent describes a completed deletion batch
type DeletedEvent struct {
	Paths        []string
	Sizes        model.Sizes
	Entries      uint64
	SessionFreed uint64
	TotalFreed   uint64
}

func (DeletedEvent) isEvent() {}
