package playback

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
)

// AccessedFile is a video whose file was opened since the last check
type AccessedFile struct {
	VideoID    int64
	Essential  string
	Path       string
	AccessedAt time.Time
}

// AccessDetector finds videos opened outside the app by reading file access
// times. Filesystems mounted with noatime never report anything.
type AccessDetector struct {
	store *store.Store
}

// NewAccessDetector creates a detector over the store's available videos
func NewAccessDetector(st *store.Store) *AccessDetector {
	return &AccessDetector{store: st}
}

// Detect lists available videos accessed after since (all of them when since
// is zero), oldest access first. Files that cannot be read are ignored.
func (d *AccessDetector) Detect(ctx context.Context, since time.Time) ([]AccessedFile, error) {
	videos, err := d.store.ListVideos(ctx, store.VideoFilter{
		Available: store.Bool(true),
		Deleted:   store.Bool(false),
	})
	if err != nil {
		return nil, err
	}

	var accessed []AccessedFile
	for _, v := range videos {
		info, err := os.Stat(v.CurrentFullPath)
		if err != nil {
			util.DebugLog("Access check skipped %s: %v", v.CurrentFullPath, err)
			continue
		}
		at := util.StatTimes(info).Accessed
		if !since.IsZero() && !at.After(since) {
			continue
		}
		accessed = append(accessed, AccessedFile{
			VideoID:    v.ID,
			Essential:  v.EssentialFilename,
			Path:       v.CurrentFullPath,
			AccessedAt: at,
		})
	}

	sort.Slice(accessed, func(i, j int) bool { return accessed[i].AccessedAt.Before(accessed[j].AccessedAt) })
	return accessed, nil
}

// LastAccessCheck returns when access detection was last recorded
func (s *Service) LastAccessCheck(ctx context.Context) (time.Time, error) {
	return s.store.GetTimeSetting(ctx, store.SettingLastAccessCheck)
}

// RecordAccessed appends one access-detected viewing per file, at its access
// time, and stores checkedAt as the new last check time
func (s *Service) RecordAccessed(ctx context.Context, files []AccessedFile, checkedAt time.Time) (int, error) {
	err := s.store.Transaction(ctx, func(tx *store.Tx) error {
		for _, f := range files {
			if err := tx.InsertViewing(ctx, f.VideoID, f.AccessedAt, store.MethodFileAccessDetected); err != nil {
				return err
			}
		}
		if len(files) > 0 {
			if err := tx.StartCountersIfIdle(ctx, files[0].AccessedAt); err != nil {
				return err
			}
		}
		return tx.SetTimeSetting(ctx, store.SettingLastAccessCheck, checkedAt)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record accessed files: %w", err)
	}

	s.logger.LogAccess(len(files), checkedAt)
	return len(files), nil
}
