//go:build windows || plan9 || js || wasip1

package scanner

import "io/fs"

// linkInfo reports no identity: without inode numbers every file is counted
func linkInfo(info fs.FileInfo) (fileID, uint64, bool) {
	return fileID{}, 0, false
}

// deviceOf reports no device; drives are separate roots on Windows
func deviceOf(info fs.FileInfo) (uint64, bool) {
	return 0, false
}
