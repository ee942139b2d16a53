package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/clipbox/internal/util"
)

// CounterIDs are the resettable view counters
var CounterIDs = []string{"A", "B", "C"}

// Counter is a resettable view counter. A zero StartTime means it has
// not been started.
type Counter struct {
	ID        string
	StartTime time.Time
	Views     int
}

func validCounter(id string) bool {
	for _, c := range CounterIDs {
		if c == id {
			return true
		}
	}
	return false
}

// StartCountersIfIdle starts every counter at at, but only when none of
// them has been started yet
func (t *Tx) StartCountersIfIdle(ctx context.Context, at time.Time) error {
	var started int
	err := t.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM counters WHERE start_time IS NOT NULL").Scan(&started)
	if err != nil {
		return fmt.Errorf("failed to read counters: %w", err)
	}
	if started > 0 {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, "UPDATE counters SET start_time = ?", formatTime(at)); err != nil {
		return fmt.Errorf("failed to start counters: %w", err)
	}
	return nil
}

// ResetCounter restarts one counter at at
func (s *Store) ResetCounter(ctx context.Context, id string, at time.Time) error {
	if !validCounter(id) {
		return fmt.Errorf("%w: unknown counter %q", util.ErrValidation, id)
	}
	return s.Transaction(ctx, func(tx *Tx) error {
		_, err := tx.tx.ExecContext(ctx, `
			INSERT INTO counters (counter_id, start_time) VALUES (?, ?)
			ON CONFLICT(counter_id) DO UPDATE SET start_time = excluded.start_time
		`, id, formatTime(at))
		if err != nil {
			return fmt.Errorf("failed to reset counter: %w", err)
		}
		return nil
	})
}

// Counters returns every counter with the number of views since it started
func (s *Store) Counters(ctx context.Context) ([]Counter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.counter_id, c.start_time,
		       CASE WHEN c.start_time IS NULL THEN 0 ELSE
		         (SELECT COUNT(*) FROM viewing_history v WHERE v.viewed_at >= c.start_time)
		       END
		FROM counters c ORDER BY c.counter_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query counters: %w", err)
	}
	defer rows.Close()

	var counters []Counter
	for rows.Next() {
		var c Counter
		var start sql.NullString
		if err := rows.Scan(&c.ID, &start, &c.Views); err != nil {
			return nil, err
		}
		c.StartTime = parseNullTime(start)
		counters = append(counters, c)
	}
	return counters, rows.Err()
}
