package model

// Volume describes the filesystem a scanned path lives on
type Volume struct {
	Path       string
	TotalBytes uint64
	FreeBytes  uint64 // available to the current user
}

// UsedBytes returns bytes used on this volume
func (v Volume) UsedBytes() uint64 {
	if v.FreeBytes > v.TotalBytes {
		return 0
	}
	return v.TotalBytes - v.FreeBytes
}

// UsedPercent returns percentage of the volume used
func (v Volume) UsedPercent() float64 {
	if v.TotalBytes == 0 {
		return 0
	}
	return float64(v.UsedBytes()) / float64(v.TotalBytes) * 100
}

// GetVolume returns capacity information for the filesystem holding path.
// Platforms without support return a Volume with zero sizes.
func GetVolume(path string) (Volume, error) {
	total, free, err := diskSpace(path)
	if err != nil {
		return Volume{Path: path}, err
	}
	return Volume{Path: path, TotalBytes: total, FreeBytes: free}, nil
}
