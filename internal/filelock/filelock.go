// Package filelock serializes access to small state files shared between
// concurrently running disko processes.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockPath returns the sidecar lock file for path
func lockPath(path string) string {
	return path + ".lock"
}

// AtomicWrite replaces path with data through a temp file in the same
// directory, so readers see either the old or the new content.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename to %s: %w", path, err)
	}
	committed = true
	return nil
}

// WithLock runs fn while holding the exclusive lock for path. Use it for
// read-modify-write cycles.
func WithLock(path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	lock := flock.New(lockPath(path))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", path, err)
	}
	defer lock.Unlock()
	return fn()
}

// ReadShared reads path under a shared lock. A missing file returns the
// os.ErrNotExist error from os.ReadFile.
func ReadShared(path string) ([]byte, error) {
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		// no directory means no file and nothing to lock
		return nil, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	lock := flock.New(lockPath(path))
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to acquire read lock on %s: %w", path, err)
	}
	defer lock.Unlock()
	return os.ReadFile(path)
}
