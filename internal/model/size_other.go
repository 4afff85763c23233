//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly

package model

import "io/fs"

// diskUsage falls back to the logical size where block counts are unavailable
func diskUsage(info fs.FileInfo) uint64 {
	if info.Size() < 0 {
		return 0
	}
	return uint64(info.Size())
}
