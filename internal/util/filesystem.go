package util

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// IsWithin reports whether path lies inside root (or is root itself) when
// both are compared component by component. "/data_selection/x.mp4" is not
// within "/data" even though the strings share a prefix.
func IsWithin(root, path string) bool {
	if root == "" || path == "" {
		return false
	}
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if root == path {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

// WithinAny reports whether path lies inside at least one of the roots
func WithinAny(roots []string, path string) bool {
	for _, root := range roots {
		if IsWithin(root, path) {
			return true
		}
	}
	return false
}

// FileTimes holds the timestamps captured for a video file at scan time
type FileTimes struct {
	Modified time.Time
	Created  time.Time // birth time where the platform records it, inode change time otherwise
	Accessed time.Time
}

// StatTimes extracts modification, creation and access times from a FileInfo.
// Platforms without richer stat data fall back to the modification time.
func StatTimes(info fs.FileInfo) FileTimes {
	times := FileTimes{
		Modified: info.ModTime(),
		Created:  info.ModTime(),
		Accessed: info.ModTime(),
	}
	platformTimes(info, &times)
	return times
}
