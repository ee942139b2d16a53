//go:build linux

package util

import (
	"bufio"
	"os"
	"strings"
)

// platformMount finds the longest /proc/mounts entry containing path
func platformMount(path string) (*MountInfo, error) {
	mounts, err := parseProcMounts()
	if err != nil {
		// Without /proc/mounts nothing more can be said
		return &MountInfo{}, nil
	}

	info := &MountInfo{}
	for mountPoint, fsType := range mounts {
		if IsWithin(mountPoint, path) && len(mountPoint) > len(info.MountPoint) {
			info.MountPoint = mountPoint
			info.FSType = fsType
		}
	}
	return info, nil
}

// parseProcMounts maps mount point to filesystem type
func parseProcMounts() (map[string]string, error) {
	file, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mounts := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		// device mountpoint fstype options dump pass
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mounts[unescapeMountField(fields[1])] = fields[2]
	}
	return mounts, scanner.Err()
}

// unescapeMountField undoes the octal escaping /proc/mounts applies to
// spaces, tabs and backslashes in mount points
func unescapeMountField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	r := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return r.Replace(s)
}
