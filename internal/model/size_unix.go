//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package model

import (
	"io/fs"
	"syscall"
)

// diskUsage returns the bytes actually allocated (handles sparse files)
func diskUsage(info fs.FileInfo) uint64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok || stat.Blocks < 0 {
		return apparentSize(info)
	}
	// Blocks is in 512-byte units
	return uint64(stat.Blocks) * 512
}

func apparentSize(info fs.FileInfo) uint64 {
	if info.Size() < 0 {
		return 0
	}
	return uint64(info.Size())
}
