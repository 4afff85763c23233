package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")

	require.NoError(t, AtomicWrite(path, []byte(`{"a":1}`)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	for i := 0; i < 3; i++ {
		require.NoError(t, AtomicWrite(path, []byte(strconv.Itoa(i))))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestReadSharedMissing(t *testing.T) {
	_, err := ReadShared(filepath.Join(t.TempDir(), "absent", "state.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = ReadShared(filepath.Join(t.TempDir(), "state.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWithLockSerializesReadModifyWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter")
	require.NoError(t, AtomicWrite(path, []byte("0")))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(path, func() error {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				n, err := strconv.Atoi(string(data))
				if err != nil {
					return err
				}
				return AtomicWrite(path, []byte(strconv.Itoa(n+1)))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	data, err := ReadShared(path)
	require.NoError(t, err)
	assert.Equal(t, "20", string(data))
}

func TestWithLockPropagatesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	want := fmt.Errorf("boom")
	assert.ErrorIs(t, WithLock(path, func() error { return want }), want)
}
