// Package playback records what happens when a video is watched: plays,
// manual viewings, likes and access-detected viewings.
package playback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/franz/clipbox/internal/report"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
)

// Service records viewing activity
type Service struct {
	store  *store.Store
	player Player
	roots  []string
	logger *report.EventLogger
	now    func() time.Time
}

// Config holds playback service configuration
type Config struct {
	Store *store.Store
	// Player launches files; nil records plays without launching anything
	Player Player
	// LibraryRoots are used to attribute a play to the root it came from
	LibraryRoots []string
	Logger       *report.EventLogger
	Clock        func() time.Time
}

// New creates a playback service
func New(cfg *Config) *Service {
	s := &Service{
		store:  cfg.Store,
		player: cfg.Player,
		roots:  cfg.LibraryRoots,
		logger: cfg.Logger,
		now:    cfg.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// PlayResult describes a started playback
type PlayResult struct {
	VideoID int64
	Path    string
	Player  string
	PlayID  int64
}

// requireVideo loads a video and checks that its file is on disk. A missing
// file is recorded as unavailable before ErrFileMissing is returned.
func (s *Service) requireVideo(ctx context.Context, videoID int64, checkFile bool) (*store.Video, error) {
	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("video %d: %w", videoID, util.ErrNotFound)
	}
	if !checkFile {
		return v, nil
	}

	if _, err := os.Stat(v.CurrentFullPath); err != nil {
		missing := fmt.Errorf("%w: %s", util.ErrFileMissing, v.CurrentFullPath)
		if markErr := s.store.SetAvailable(ctx, v.ID, false); markErr != nil {
			return nil, errors.Join(missing, markErr)
		}
		s.logger.LogUnavailable(v.ID, v.CurrentFullPath, "missing at playback")
		return nil, missing
	}
	return v, nil
}

// Play launches a video and records the viewing. The video is flagged as
// under review until it is judged. trigger names what started the play.
func (s *Service) Play(ctx context.Context, videoID int64, trigger string) (*PlayResult, error) {
	v, err := s.requireVideo(ctx, videoID, true)
	if err != nil {
		return nil, err
	}

	playerName := "none"
	if s.player != nil {
		name, err := s.player.Launch(v.CurrentFullPath)
		if err != nil {
			s.logger.LogError(report.EventPlay, v.ID, v.CurrentFullPath, err)
			return nil, fmt.Errorf("failed to launch player: %w", err)
		}
		playerName = name
	}

	now := s.now()
	play := &store.Play{
		VideoID:     v.ID,
		FilePath:    v.CurrentFullPath,
		Title:       v.EssentialFilename,
		InternalID:  strconv.FormatInt(v.ID, 10),
		Player:      playerName,
		LibraryRoot: s.rootOf(v.CurrentFullPath),
		Trigger:     trigger,
		PlayedAt:    now,
	}

	err = s.store.Transaction(ctx, func(tx *store.Tx) error {
		if err := tx.InsertViewing(ctx, v.ID, now, store.MethodAppPlayback); err != nil {
			return err
		}
		if err := tx.InsertPlay(ctx, play); err != nil {
			return err
		}
		if err := tx.SetJudging(ctx, v.ID, true); err != nil {
			return err
		}
		return tx.StartCountersIfIdle(ctx, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record play: %w", err)
	}

	s.logger.LogPlay(v.ID, v.CurrentFullPath, playerName, trigger)
	return &PlayResult{VideoID: v.ID, Path: v.CurrentFullPath, Player: playerName, PlayID: play.ID}, nil
}

// MarkViewed records a viewing that happened outside the app
func (s *Service) MarkViewed(ctx context.Context, videoID int64) error {
	v, err := s.requireVideo(ctx, videoID, false)
	if err != nil {
		return err
	}

	now := s.now()
	err = s.store.Transaction(ctx, func(tx *store.Tx) error {
		if err := tx.InsertViewing(ctx, v.ID, now, store.MethodManualEntry); err != nil {
			return err
		}
		return tx.StartCountersIfIdle(ctx, now)
	})
	if err != nil {
		return fmt.Errorf("failed to record viewing: %w", err)
	}

	s.logger.LogView(v.ID)
	return nil
}

// AddLike records a like and returns the video's total
func (s *Service) AddLike(ctx context.Context, videoID int64) (int, error) {
	v, err := s.requireVideo(ctx, videoID, false)
	if err != nil {
		return 0, err
	}

	var total int
	err = s.store.Transaction(ctx, func(tx *store.Tx) error {
		var err error
		total, err = tx.AddLike(ctx, v.ID, s.now())
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.LogLike(v.ID, total)
	return total, nil
}

func (s *Service) rootOf(path string) string {
	for _, root := range s.roots {
		if util.IsWithin(root, path) {
			return root
		}
	}
	return ""
}
