//go:build !windows && !plan9 && !js && !wasip1

package scanner

import (
	"io/fs"
	"syscall"
)

// linkInfo extracts the file identity and link count
func linkInfo(info fs.FileInfo) (fileID, uint64, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileID{}, 0, false
	}
	return fileID{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, uint64(stat.Nlink), true
}

// deviceOf returns the device a file lives on, for mount point detection
func deviceOf(info fs.FileInfo) (uint64, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(stat.Dev), true
}
