// Package meta reads what a video file says about itself: embedded tags and,
// when ffprobe is installed, stream properties.
package meta

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dhowden/tag"

	"github.com/franz/clipbox/internal/util"
)

// Tags are the embedded metadata of a container (MP4 atoms, ID3 frames)
type Tags struct {
	Format   string
	FileType string
	Title    string
	Artist   string
	Album    string
	Genre    string
	Comment  string
	Year     int
}

// Empty reports whether no descriptive field is set
func (t *Tags) Empty() bool {
	return t.Title == "" && t.Artist == "" && t.Album == "" && t.Genre == "" && t.Comment == "" && t.Year == 0
}

// ReadTags reads embedded tags. Files without a recognized tag block return
// tag.ErrNoTagsFound wrapped.
func ReadTags(path string) (*Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	return &Tags{
		Format:   string(m.Format()),
		FileType: string(m.FileType()),
		Title:    m.Title(),
		Artist:   m.Artist(),
		Album:    m.Album(),
		Genre:    m.Genre(),
		Comment:  m.Comment(),
		Year:     m.Year(),
	}, nil
}

// Info combines tags and probe results. Either half may be nil.
type Info struct {
	Tags  *Tags
	Probe *ProbeInfo
}

// Inspect gathers whatever metadata is available for path. Missing tags or
// a missing ffprobe are not errors; a missing file is.
func Inspect(ctx context.Context, path string) (*Info, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", util.ErrFileMissing, path)
	}

	info := &Info{}
	tags, err := ReadTags(path)
	switch {
	case err == nil:
		info.Tags = tags
	case errors.Is(err, tag.ErrNoTagsFound):
	default:
		util.DebugLog("Tags unreadable for %s: %v", path, err)
	}

	probe, err := Probe(ctx, path)
	switch {
	case err == nil:
		info.Probe = probe
	case errors.Is(err, ErrProbeUnavailable):
	default:
		util.DebugLog("ffprobe failed for %s: %v", path, err)
	}
	return info, nil
}
