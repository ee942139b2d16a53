// Package judge changes a video's favorite level: it renames the file so the
// prefix carries the new level, then records the change and its audit row.
package judge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/franz/clipbox/internal/filename"
	"github.com/franz/clipbox/internal/report"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
)

// Service applies judgments
type Service struct {
	store  *store.Store
	logger *report.EventLogger
	now    func() time.Time
	rename func(oldPath, newPath string) error
}

// Config holds judgment service configuration
type Config struct {
	Store  *store.Store
	Logger *report.EventLogger
	Clock  func() time.Time                    // nil = time.Now
	Rename func(oldPath, newPath string) error // nil = os.Rename
}

// New creates a judgment service
func New(cfg *Config) *Service {
	s := &Service{
		store:  cfg.Store,
		logger: cfg.Logger,
		now:    cfg.Clock,
		rename: cfg.Rename,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rename == nil {
		s.rename = os.Rename
	}
	return s
}

// Result describes a completed judgment
type Result struct {
	VideoID  int64
	OldLevel int
	NewLevel int
	OldPath  string
	NewPath  string
	Renamed  bool
	Label    string
	Judgment store.Judgment
}

// SetFavoriteLevel moves a video to level (nil clears it to unjudged).
//
// The file is renamed before the store is updated. If the store update
// fails the rename is reversed on a best-effort basis; should that fail
// too, the next full scan picks the file up under its new name.
func (s *Service) SetFavoriteLevel(ctx context.Context, videoID int64, level *int) (*Result, error) {
	target := filename.LevelUnjudged
	if level != nil {
		target = *level
	}
	if !filename.ValidLevel(target) {
		return nil, fmt.Errorf("%w: level %d outside %d..%d",
			util.ErrValidation, target, filename.MinLevel, filename.MaxLevel)
	}

	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("video %d: %w", videoID, util.ErrNotFound)
	}

	currentInfo, err := os.Stat(v.CurrentFullPath)
	if err != nil {
		missing := fmt.Errorf("%w: %s", util.ErrFileMissing, v.CurrentFullPath)
		if markErr := s.store.SetAvailable(ctx, v.ID, false); markErr != nil {
			return nil, errors.Join(missing, markErr)
		}
		s.logger.LogUnavailable(v.ID, v.CurrentFullPath, "missing at judgment")
		return nil, missing
	}

	dir := filepath.Dir(v.CurrentFullPath)
	base := filepath.Base(v.CurrentFullPath)
	prependPlus := v.NeedsSelection || strings.HasPrefix(base, filename.CompletedMarker)
	newName := filename.Encode(target, v.EssentialFilename, prependPlus)
	newPath := filepath.Join(dir, newName)
	renamed := newName != base

	judgedAt := s.now()
	if renamed {
		if err := s.renameFile(v.CurrentFullPath, newPath, currentInfo); err != nil {
			s.logger.LogError(report.EventJudge, v.ID, v.CurrentFullPath, err)
			return nil, err
		}
	} else {
		newPath = v.CurrentFullPath
	}
	completedAt := s.now()

	durationMs := completedAt.Sub(judgedAt).Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}

	judgment := store.Judgment{
		VideoID:              v.ID,
		OldLevel:             v.Level,
		NewLevel:             target,
		JudgedAt:             judgedAt,
		RenameCompletedAt:    completedAt,
		RenameDurationMs:     durationMs,
		StorageLocation:      v.StorageLocation,
		WasSelectionJudgment: v.NeedsSelection,
	}

	err = s.store.Transaction(ctx, func(tx *store.Tx) error {
		if err := tx.ApplyJudgment(ctx, v.ID, newPath, target); err != nil {
			return err
		}
		return tx.InsertJudgment(ctx, &judgment)
	})
	if err != nil {
		if renamed {
			if revertErr := s.rename(newPath, v.CurrentFullPath); revertErr != nil {
				util.ErrorLog("Could not restore %s after failed update: %v", v.CurrentFullPath, revertErr)
				err = errors.Join(err, fmt.Errorf("restore %s: %w", v.CurrentFullPath, revertErr))
			}
		}
		s.logger.LogError(report.EventJudge, v.ID, v.CurrentFullPath, err)
		return nil, fmt.Errorf("failed to record judgment: %w", err)
	}

	s.logger.LogJudge(v.ID, v.CurrentFullPath, newPath, v.Level, target, time.Duration(durationMs)*time.Millisecond)
	util.DebugLog("Judged %d: %d -> %d (%s)", v.ID, v.Level, target, newName)

	return &Result{
		VideoID:  v.ID,
		OldLevel: v.Level,
		NewLevel: target,
		OldPath:  v.CurrentFullPath,
		NewPath:  newPath,
		Renamed:  renamed,
		Label:    filename.LevelLabel(target),
		Judgment: judgment,
	}, nil
}

// renameFile refuses to overwrite another file and maps OS errors onto the
// rename error kinds
func (s *Service) renameFile(oldPath, newPath string, oldInfo fs.FileInfo) error {
	if existing, err := os.Lstat(newPath); err == nil {
		// Case-insensitive filesystems report the file itself
		if !os.SameFile(oldInfo, existing) {
			return fmt.Errorf("%w: %s", util.ErrRenameConflict, newPath)
		}
	}

	err := s.rename(oldPath, newPath)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", util.ErrRenameSourceMissing, err)
	case errors.Is(err, fs.ErrPermission) || isLockError(err):
		return fmt.Errorf("%w: %v", util.ErrRenameLocked, err)
	default:
		return fmt.Errorf("%w: %v", util.ErrRenameFailed, err)
	}
}
