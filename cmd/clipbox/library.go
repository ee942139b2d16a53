package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/franz/clipbox/internal/analysis"
	"github.com/franz/clipbox/internal/config"
	"github.com/franz/clipbox/internal/judge"
	"github.com/franz/clipbox/internal/location"
	"github.com/franz/clipbox/internal/playback"
	"github.com/franz/clipbox/internal/report"
	"github.com/franz/clipbox/internal/scan"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/viper"
)

// library bundles the open database with the services built on it
type library struct {
	cfg    *config.Config
	store  *store.Store
	lock   *util.LibraryLock
	events *report.EventLogger
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// openLibrary loads the configuration, takes the library lock and opens the
// database. Commands that change the library also get an event log.
func openLibrary(withEvents bool) (*library, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.DB); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	lock, err := util.AcquireLibraryLock(cfg.DB)
	if err != nil {
		return nil, err
	}

	network := util.IsNetworkPath(filepath.Dir(cfg.DB))
	if network {
		util.DebugLog("Database is on a network filesystem, using conservative SQLite settings")
	}
	st, err := store.OpenWithOptions(cfg.DB, &store.OpenOptions{NetworkOptimized: network})
	if err != nil {
		lock.Release()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	lib := &library{cfg: cfg, store: st, lock: lock, events: report.NullLogger()}
	if withEvents && cfg.EventLogDir != "" {
		events, err := report.NewEventLogger(cfg.EventLogDir, report.ParseLevel(cfg.EventLogLevel))
		if err != nil {
			util.WarnLog("Event log disabled: %v", err)
		} else {
			lib.events = events
			util.DebugLog("Event log: %s", events.Path())
		}
	}
	return lib, nil
}

func (l *library) Close() {
	if err := l.events.Close(); err != nil {
		util.WarnLog("Failed to close event log: %v", err)
	}
	if err := l.store.Close(); err != nil {
		util.WarnLog("Failed to close database: %v", err)
	}
	if err := l.lock.Release(); err != nil {
		util.WarnLog("Failed to release library lock: %v", err)
	}
}

func (l *library) scanner() *scan.Scanner {
	return scan.New(&scan.Config{
		Store:       l.store,
		Classifier:  location.NewClassifier(l.cfg.PrimaryDrives, l.cfg.PrimaryRoots),
		Extensions:  l.cfg.Extensions,
		Concurrency: l.cfg.Concurrency,
		Logger:      l.events,
		Progress:    !util.IsQuiet(),
	})
}

func (l *library) judge() *judge.Service {
	return judge.New(&judge.Config{Store: l.store, Logger: l.events})
}

func (l *library) playback(launch bool) *playback.Service {
	cfg := &playback.Config{
		Store:        l.store,
		LibraryRoots: l.cfg.LibraryRoots,
		Logger:       l.events,
	}
	if launch {
		cfg.Player = playback.NewLauncher(l.cfg.Player.Command, l.cfg.Player.Args)
	}
	return playback.New(cfg)
}

func (l *library) analysis() *analysis.Service {
	return analysis.New(&analysis.Config{Store: l.store, CacheTTL: l.cfg.CacheTTL()})
}

// parseVideoID reads a video id argument
func parseVideoID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid video id %q", util.ErrValidation, arg)
	}
	return id, nil
}
