//go:build !linux && !darwin

package util

import "path/filepath"

// platformMount reports the volume name only; drive letters are what the
// storage classifier works from on these platforms anyway
func platformMount(path string) (*MountInfo, error) {
	return &MountInfo{MountPoint: filepath.VolumeName(path)}, nil
}
