package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MountInfo describes the filesystem a library root or database lives on
type MountInfo struct {
	MountPoint string // Mount point of the filesystem, empty if unknown
	FSType     string // Filesystem type as reported by the OS, lowercased
	Network    bool   // NFS, SMB/CIFS, sshfs and friends
	Removable  bool   // Mounted under a removable-media location (USB drives, external disks)
}

// networkFSTypes are filesystem type substrings that indicate a network mount
var networkFSTypes = []string{"nfs", "cifs", "smb", "ncpfs", "afpfs", "webdav", "fuse.sshfs", "fuse.rclone", "osxfuse"}

// removableMountDirs are the conventional parents of hot-plugged drives
var removableMountDirs = []string{"/media", "/run/media", "/mnt", "/Volumes"}

// DetectMount inspects the filesystem that holds path
func DetectMount(path string) (*MountInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := platformMount(absPath)
	if err != nil {
		return nil, err
	}

	info.FSType = strings.ToLower(info.FSType)
	for _, t := range networkFSTypes {
		if strings.Contains(info.FSType, t) {
			info.Network = true
			break
		}
	}
	if info.MountPoint != "" && info.MountPoint != "/" {
		for _, dir := range removableMountDirs {
			if IsWithin(dir, info.MountPoint) && info.MountPoint != dir {
				info.Removable = true
				break
			}
		}
	}

	return info, nil
}

// IsNetworkPath reports whether path is on a network filesystem
func IsNetworkPath(path string) bool {
	info, err := DetectMount(path)
	if err != nil {
		return false
	}
	return info.Network
}

// Describe renders the mount for diagnostics output
func (m *MountInfo) Describe() string {
	kind := "local"
	switch {
	case m.Network:
		kind = "network"
	case m.Removable:
		kind = "removable"
	}
	fsType := m.FSType
	if fsType == "" {
		fsType = "unknown"
	}
	if m.MountPoint == "" {
		return fmt.Sprintf("%s (%s)", kind, fsType)
	}
	return fmt.Sprintf("%s (%s at %s)", kind, fsType, m.MountPoint)
}
