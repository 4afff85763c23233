package stats

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/lumipallolabs/disko/internal/filelock"
)

// Stats holds persistent statistics
type Stats struct {
	FreedLifetime uint64    `json:"freed_lifetime"`
	Deletions     uint64    `json:"deletions"`
	LastPath      string    `json:"last_path,omitempty"` // Most recently explored root
	LastDeletion  time.Time `json:"last_deletion,omitempty"`
}

// Manager handles loading and saving stats. Several disko processes may
// share one file: saves re-read it under a lock and add this process's
// unsaved deltas, so no process overwrites another's progress.
type Manager struct {
	path         string
	stats        Stats
	pending      Stats // deltas not yet written
	mu           sync.RWMutex
	dirty        bool
	saveTimer    *time.Timer
	saveDuration time.Duration
}

// NewManager creates a new stats manager for the file at path
func NewManager(path string) *Manager {
	return &Manager{
		path:         path,
		saveDuration: 2 * time.Second, // Debounce saves
	}
}

// Load loads stats from disk
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	onDisk, err := m.read()
	if err != nil {
		return err
	}
	m.stats = onDisk
	return nil
}

// read returns the stats stored on disk; a missing file is empty stats
func (m *Manager) read() (Stats, error) {
	var s Stats
	data, err := filelock.ReadShared(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, err
	}
	if len(data) == 0 {
		return s, nil
	}
	err = json.Unmarshal(data, &s)
	return s, err
}

// Save saves stats to disk immediately
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saveLocked()
}

// saveLocked merges pending deltas into the file (caller must hold m.mu)
func (m *Manager) saveLocked() error {
	return filelock.WithLock(m.path, func() error {
		onDisk, err := m.readUnlocked()
		if err != nil {
			return err
		}

		merged := onDisk
		merged.FreedLifetime += m.pending.FreedLifetime
		merged.Deletions += m.pending.Deletions
		if m.pending.LastPath != "" {
			merged.LastPath = m.pending.LastPath
		}
		if m.pending.LastDeletion.After(merged.LastDeletion) {
			merged.LastDeletion = m.pending.LastDeletion
		}

		data, err := json.MarshalIndent(merged, "", "  ")
		if err != nil {
			return err
		}
		if err := filelock.AtomicWrite(m.path, data); err != nil {
			return err
		}

		m.stats = merged
		m.pending = Stats{}
		m.dirty = false
		return nil
	})
}

// readUnlocked reads the file while the exclusive lock is already held
func (m *Manager) readUnlocked() (Stats, error) {
	var s Stats
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, err
	}
	if len(data) == 0 {
		return s, nil
	}
	err = json.Unmarshal(data, &s)
	return s, err
}

// FreedLifetime returns the lifetime freed bytes
func (m *Manager) FreedLifetime() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats.FreedLifetime
}

// LastPath returns the most recently explored root
func (m *Manager) LastPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats.LastPath
}

// SetLastPath records the explored root and schedules a save
func (m *Manager) SetLastPath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stats.LastPath == path {
		return
	}
	m.stats.LastPath = path
	m.pending.LastPath = path
	m.scheduleSaveLocked()
}

// AddFreed adds to the lifetime freed counter and schedules a debounced save
func (m *Manager) AddFreed(bytes uint64, deletions uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.stats.FreedLifetime += bytes
	m.stats.Deletions += deletions
	m.stats.LastDeletion = now
	m.pending.FreedLifetime += bytes
	m.pending.Deletions += deletions
	m.pending.LastDeletion = now
	m.scheduleSaveLocked()
}

func (m *Manager) scheduleSaveLocked() {
	m.dirty = true

	// Cancel any pending save timer
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(m.saveDuration, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.dirty {
			_ = m.saveLocked() // Ignore errors for background save
		}
	})
}

// Close ensures any pending saves are written
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveTimer != nil {
		m.saveTimer.Stop()
		m.saveTimer = nil
	}

	if m.dirty {
		return m.saveLocked()
	}
	return nil
}
