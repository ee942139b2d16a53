//go:build darwin

package util

import (
	"fmt"
	"syscall"
)

func platformMount(path string) (*MountInfo, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return nil, fmt.Errorf("failed to stat filesystem: %w", err)
	}
	return &MountInfo{
		MountPoint: int8ArrayToString(stat.Mntonname[:]),
		FSType:     int8ArrayToString(stat.Fstypename[:]),
	}, nil
}

// int8ArrayToString converts a null-terminated int8 array to a Go string
func int8ArrayToString(arr []int8) string {
	b := make([]byte, 0, len(arr))
	for _, c := range arr {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}
