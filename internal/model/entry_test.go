package model

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizesArithmetic(t *testing.T) {
	a := Sizes{Apparent: 100, Disk: 4096}
	b := Sizes{Apparent: 50, Disk: 4096}

	assert.Equal(t, Sizes{Apparent: 150, Disk: 8192}, a.Add(b))
	assert.Equal(t, Sizes{Apparent: 50, Disk: 0}, a.Sub(b))
	assert.Equal(t, Sizes{}, b.Sub(a), "subtraction clamps at zero")
	assert.True(t, Sizes{}.IsZero())
	assert.Equal(t, uint64(100), a.In(SizeApparent))
	assert.Equal(t, uint64(4096), a.In(SizeDisk))
}

func TestNewDirEntry(t *testing.T) {
	tmp := t.TempDir()

	e, err := NewDirEntry(tmp)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(tmp), e.Name)
	assert.Equal(t, tmp, e.Path)
	assert.True(t, e.IsDir())
	assert.True(t, e.Sizes.IsZero(), "directory sizes are filled in by the walker")
	assert.NotNil(t, e.Info)
}

func TestNewDirEntryRejectsFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := NewDirEntry(path)
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = NewDirEntry(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNewFileEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	e := NewFileEntry(path, info)
	assert.Equal(t, "hello.txt", e.Name)
	assert.Equal(t, KindFile, e.Kind)
	assert.Equal(t, uint64(5), e.Sizes.Apparent)
	if runtime.GOOS != "windows" {
		// On Unix: actual disk blocks
		assert.Zero(t, e.Sizes.Disk%512)
	}
}

func TestSortBySize(t *testing.T) {
	views := Views([]Entry{
		{Name: "small", Sizes: Sizes{Disk: 100}},
		{Name: "large", Sizes: Sizes{Disk: 1000}},
		{Name: "b-medium", Sizes: Sizes{Disk: 500}},
		{Name: "a-medium", Sizes: Sizes{Disk: 500}},
	})

	SortBySize(views, SizeDisk)

	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	assert.Equal(t, []string{"large", "a-medium", "b-medium", "small"}, names)
	assert.Equal(t, 1, views[0].Index, "views keep their original child index")
	assert.Equal(t, 0, views[3].Index)
}

func TestSortBySizeApparent(t *testing.T) {
	views := Views([]Entry{
		{Name: "sparse", Sizes: Sizes{Apparent: 1 << 30, Disk: 4096}},
		{Name: "dense", Sizes: Sizes{Apparent: 1 << 20, Disk: 1 << 20}},
	})

	SortBySize(views, SizeApparent)
	assert.Equal(t, "sparse", views[0].Name)

	SortBySize(views, SizeDisk)
	assert.Equal(t, "dense", views[0].Name)
}

func TestParseSizeMode(t *testing.T) {
	m, err := ParseSizeMode("apparent")
	require.NoError(t, err)
	assert.Equal(t, SizeApparent, m)
	assert.Equal(t, SizeDisk, m.Toggle())

	m, err = ParseSizeMode("")
	require.NoError(t, err)
	assert.Equal(t, SizeDisk, m)

	_, err = ParseSizeMode("blocks")
	assert.Error(t, err)
}

func TestDetectFileType(t *testing.T) {
	dir := t.TempDir()

	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("plain words\n"), 0644))
	ft, _ := DetectFileType(text)
	assert.Equal(t, FileTypeText, ft)

	png := filepath.Join(dir, "pixel.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0644))
	ft, ext := DetectFileType(png)
	assert.Equal(t, FileTypeImage, ft)
	assert.Equal(t, "PNG", ext)

	bin := filepath.Join(dir, "blob")
	require.NoError(t, os.WriteFile(bin, []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0x00}, 0644))
	ft, _ = DetectFileType(bin)
	assert.Equal(t, FileTypeBinary, ft)

	ft, _ = DetectFileType(filepath.Join(dir, "missing"))
	assert.Equal(t, FileTypeUnknown, ft)
}

func TestVolume(t *testing.T) {
	v := Volume{TotalBytes: 200, FreeBytes: 50}
	assert.Equal(t, uint64(150), v.UsedBytes())
	assert.InDelta(t, 75.0, v.UsedPercent(), 0.001)
	assert.Zero(t, Volume{}.UsedPercent())

	if runtime.GOOS == "linux" || runtime.GOOS == "darwin" {
		vol, err := GetVolume(t.TempDir())
		require.NoError(t, err)
		assert.NotZero(t, vol.TotalBytes)
	}
}
