package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Backup writes a consistent copy of the database into dir as
// videos_YYYYMMDD_HHMMSS.db and returns its path and size
func (s *Store) Backup(ctx context.Context, dir string, now time.Time) (string, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create backup dir: %w", err)
	}

	dest := filepath.Join(dir, "videos_"+now.Format("20060102_150405")+".db")
	if _, err := os.Stat(dest); err == nil {
		return "", 0, fmt.Errorf("backup %s already exists", dest)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return "", 0, fmt.Errorf("failed to write backup: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat backup: %w", err)
	}
	return dest, info.Size(), nil
}
