//go:build linux || darwin || freebsd

package model

import "golang.org/x/sys/unix"

// diskSpace returns disk space information for a given path using statfs
func diskSpace(path string) (total, free uint64, err error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}

	bsize := uint64(stat.Bsize)
	total = uint64(stat.Blocks) * bsize
	free = uint64(stat.Bavail) * bsize
	return total, free, nil
}
