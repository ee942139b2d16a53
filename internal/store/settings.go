package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SettingLastAccessCheck holds when access detection last ran
const SettingLastAccessCheck = "last_access_check_time"

// GetSetting returns a stored value and whether it exists
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores a value inside the transaction
func (t *Tx) SetSetting(ctx context.Context, key, value string) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, formatTime(nowUTC()))
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// GetTimeSetting reads a timestamp setting; zero when unset
func (s *Store) GetTimeSetting(ctx context.Context, key string) (time.Time, error) {
	value, ok, err := s.GetSetting(ctx, key)
	if err != nil || !ok {
		return time.Time{}, err
	}
	return parseTime(value), nil
}

// SetTimeSetting stores a timestamp setting inside the transaction
func (t *Tx) SetTimeSetting(ctx context.Context, key string, at time.Time) error {
	return t.SetSetting(ctx, key, formatTime(at))
}
