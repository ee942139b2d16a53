// Package location tags a video path with the kind of disk it lives on.
package location

import (
	"strings"

	"github.com/franz/clipbox/internal/util"
)

// Tags stored in videos.storage_location
const (
	TagPrimary   = "C_DRIVE"
	TagSecondary = "EXTERNAL_HDD"
)

// DefaultPrimaryDrive is the system drive on Windows
const DefaultPrimaryDrive = "C:"

// Classifier maps absolute paths to storage tags. A path is primary when its
// drive designator is one of PrimaryDrives, or when it is inside one of
// PrimaryRoots (for systems without drive letters). Everything else,
// including paths that cannot be parsed, is secondary.
type Classifier struct {
	PrimaryDrives []string
	PrimaryRoots  []string
}

// NewClassifier builds a classifier; with no drives configured the Windows
// system drive is assumed
func NewClassifier(primaryDrives, primaryRoots []string) *Classifier {
	if len(primaryDrives) == 0 {
		primaryDrives = []string{DefaultPrimaryDrive}
	}
	c := &Classifier{PrimaryRoots: primaryRoots}
	for _, d := range primaryDrives {
		if norm := normalizeDrive(d); norm != "" {
			c.PrimaryDrives = append(c.PrimaryDrives, norm)
		}
	}
	return c
}

// Classify returns the storage tag for path
func (c *Classifier) Classify(path string) string {
	if drive := Drive(path); drive != "" {
		for _, d := range c.PrimaryDrives {
			if d == drive {
				return TagPrimary
			}
		}
		return TagSecondary
	}

	if util.WithinAny(c.PrimaryRoots, path) {
		return TagPrimary
	}
	return TagSecondary
}

// Drive extracts an upper-cased "X:" drive designator, or "" when the path
// has none. UNC shares have no drive.
func Drive(path string) string {
	if len(path) < 2 || path[1] != ':' {
		return ""
	}
	letter := path[0]
	if !('a' <= letter && letter <= 'z' || 'A' <= letter && letter <= 'Z') {
		return ""
	}
	return strings.ToUpper(path[:2])
}

func normalizeDrive(d string) string {
	d = strings.TrimSpace(d)
	if len(d) == 1 {
		d += ":"
	}
	return Drive(d)
}
