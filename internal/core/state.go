package core

import (
	"time"

	"github.com/lumipallolabs/disko/internal/scanner"
)

// ScanPhase is where the controller is in a walk's lifecycle
type ScanPhase int

const (
	PhaseIdle ScanPhase = iota
	PhaseScanning
	PhaseStopped
	PhaseComplete
)

var phaseNames = [...]string{
	PhaseIdle:     "idle",
	PhaseScanning: "scanning",
	PhaseStopped:  "stopped",
	PhaseComplete: "complete",
}

func (p ScanPhase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// ScanState is a snapshot of the latest walk
type ScanState struct {
	Phase     ScanPhase
	StartTime time.Time
	EndTime   time.Time // zero while scanning
	scanner.Progress
}

// IsScanning returns true while the walk runs
func (s ScanState) IsScanning() bool {
	return s.Phase == PhaseScanning
}

// Elapsed returns the walk duration, up to now for a running walk
func (s ScanState) Elapsed() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.StartTime).Truncate(time.Millisecond)
}

// FreedState counts bytes returned to the volume by deletions
type FreedState struct {
	Session  uint64
	Lifetime uint64 // includes earlier runs when stats are kept
}

func (f *FreedState) add(bytes uint64) {
	f.Session += bytes
	f.Lifetime += bytes
}
