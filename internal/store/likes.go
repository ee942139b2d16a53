package store

import (
	"context"
	"fmt"
	"time"
)

// AddLike records a like and returns the video's new total
func (t *Tx) AddLike(ctx context.Context, videoID int64, at time.Time) (int, error) {
	if _, err := t.tx.ExecContext(ctx,
		"INSERT INTO likes (video_id, liked_at) VALUES (?, ?)", videoID, formatTime(at)); err != nil {
		return 0, fmt.Errorf("failed to insert like: %w", err)
	}
	var total int
	err := t.tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM likes WHERE video_id = ?", videoID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return total, nil
}

// LikeCounts returns like totals for ids; every id is present
func (s *Store) LikeCounts(ctx context.Context, ids []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(ids))
	for _, id := range ids {
		counts[id] = 0
	}

	for _, chunk := range chunkIDs(ids, maxParams) {
		rows, err := s.db.QueryContext(ctx,
			"SELECT video_id, COUNT(*) FROM likes WHERE video_id IN ("+placeholders(len(chunk))+") GROUP BY video_id",
			int64Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("failed to count likes: %w", err)
		}
		for rows.Next() {
			var id int64
			var n int
			if err := rows.Scan(&id, &n); err != nil {
				rows.Close()
				return nil, err
			}
			counts[id] = n
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

// LikeTotals returns like counts for every liked video inside window
func (s *Store) LikeTotals(ctx context.Context, w Window) (map[int64]int, error) {
	clause, args := w.clause("liked_at")
	rows, err := s.db.QueryContext(ctx,
		"SELECT video_id, COUNT(*) FROM likes WHERE 1=1"+clause+" GROUP BY video_id", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	defer rows.Close()

	totals := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		totals[id] = n
	}
	return totals, rows.Err()
}
