//go:build !linux && !darwin && !freebsd && !windows

package model

func diskSpace(path string) (total, free uint64, err error) {
	return 0, 0, nil
}
