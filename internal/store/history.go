package store

import (
	"context"
	"fmt"
	"time"
)

// Viewing methods recorded in viewing_history
const (
	MethodAppPlayback        = "APP_PLAYBACK"
	MethodManualEntry        = "MANUAL_ENTRY"
	MethodFileAccessDetected = "FILE_ACCESS_DETECTED"
)

// ViewingEvent is one row of viewing_history
type ViewingEvent struct {
	ID       int64
	VideoID  int64
	ViewedAt time.Time
	Method   string
}

// Judgment is one row of judgment_history
type Judgment struct {
	ID                   int64
	VideoID              int64
	OldLevel             int
	NewLevel             int
	JudgedAt             time.Time
	RenameCompletedAt    time.Time
	RenameDurationMs     int64
	StorageLocation      string
	WasSelectionJudgment bool
}

// Play is one row of play_history
type Play struct {
	ID          int64
	VideoID     int64
	FilePath    string
	Title       string
	InternalID  string
	Player      string
	LibraryRoot string
	Trigger     string
	PlayedAt    time.Time
}

// ViewStat summarizes a video's viewing history
type ViewStat struct {
	Count    int
	LastView time.Time
}

// InsertViewing appends a viewing event
func (t *Tx) InsertViewing(ctx context.Context, videoID int64, at time.Time, method string) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO viewing_history (video_id, viewed_at, viewing_method) VALUES (?, ?, ?)",
		videoID, formatTime(at), method)
	if err != nil {
		return fmt.Errorf("failed to insert viewing event: %w", err)
	}
	return nil
}

// InsertJudgment appends a judgment audit row
func (t *Tx) InsertJudgment(ctx context.Context, j *Judgment) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO judgment_history (
			video_id, old_level, new_level, judged_at, rename_completed_at,
			rename_duration_ms, storage_location, was_selection_judgment
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		j.VideoID, j.OldLevel, j.NewLevel, formatTime(j.JudgedAt), formatTime(j.RenameCompletedAt),
		j.RenameDurationMs, j.StorageLocation, j.WasSelectionJudgment,
	)
	if err != nil {
		return fmt.Errorf("failed to insert judgment: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		j.ID = id
	}
	return nil
}

// InsertPlay appends a play-history audit row
func (t *Tx) InsertPlay(ctx context.Context, p *Play) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO play_history (
			video_id, file_path, title, internal_id, player, library_root, trigger, played_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.VideoID, p.FilePath, p.Title, p.InternalID, p.Player, p.LibraryRoot, p.Trigger,
		formatTime(p.PlayedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert play: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		p.ID = id
	}
	return nil
}

// ViewingEvents returns viewing events inside window, oldest first
func (s *Store) ViewingEvents(ctx context.Context, w Window) ([]ViewingEvent, error) {
	clause, args := w.clause("viewed_at")
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, video_id, viewed_at, viewing_method
		FROM viewing_history WHERE 1=1`+clause+`
		ORDER BY viewed_at, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query viewing history: %w", err)
	}
	defer rows.Close()

	var events []ViewingEvent
	for rows.Next() {
		var e ViewingEvent
		var at string
		if err := rows.Scan(&e.ID, &e.VideoID, &at, &e.Method); err != nil {
			return nil, fmt.Errorf("failed to scan viewing event: %w", err)
		}
		e.ViewedAt = parseTime(at)
		events = append(events, e)
	}
	return events, rows.Err()
}

// VideoViewings returns one video's viewing events, newest first
func (s *Store) VideoViewings(ctx context.Context, videoID int64) ([]ViewingEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, video_id, viewed_at, viewing_method
		FROM viewing_history WHERE video_id = ?
		ORDER BY viewed_at DESC, id DESC
	`, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query viewing history: %w", err)
	}
	defer rows.Close()

	var events []ViewingEvent
	for rows.Next() {
		var e ViewingEvent
		var at string
		if err := rows.Scan(&e.ID, &e.VideoID, &at, &e.Method); err != nil {
			return nil, fmt.Errorf("failed to scan viewing event: %w", err)
		}
		e.ViewedAt = parseTime(at)
		events = append(events, e)
	}
	return events, rows.Err()
}

// ViewCounts counts viewing events per video inside window. Every requested
// id is present in the result, zero when never viewed.
func (s *Store) ViewCounts(ctx context.Context, ids []int64, w Window) (map[int64]int, error) {
	counts := make(map[int64]int, len(ids))
	for _, id := range ids {
		counts[id] = 0
	}

	clause, windowArgs := w.clause("viewed_at")
	for _, chunk := range chunkIDs(ids, maxParams-len(windowArgs)) {
		args := append(int64Args(chunk), windowArgs...)
		rows, err := s.db.QueryContext(ctx, `
			SELECT video_id, COUNT(*) FROM viewing_history
			WHERE video_id IN (`+placeholders(len(chunk))+`)`+clause+`
			GROUP BY video_id
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to count views: %w", err)
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

// ViewStats returns count and latest view time for every viewed video
func (s *Store) ViewStats(ctx context.Context) (map[int64]ViewStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT video_id, COUNT(*), MAX(viewed_at) FROM viewing_history GROUP BY video_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query view stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[int64]ViewStat)
	for rows.Next() {
		var id int64
		var st ViewStat
		var last string
		if err := rows.Scan(&id, &st.Count, &last); err != nil {
			return nil, err
		}
		st.LastView = parseTime(last)
		stats[id] = st
	}
	return stats, rows.Err()
}

const judgmentColumns = `
	id, video_id, old_level, new_level, judged_at, rename_completed_at,
	rename_duration_ms, storage_location, was_selection_judgment`

func scanJudgment(row interface{ Scan(...any) error }) (Judgment, error) {
	var j Judgment
	var judged, completed string
	err := row.Scan(&j.ID, &j.VideoID, &j.OldLevel, &j.NewLevel, &judged, &completed,
		&j.RenameDurationMs, &j.StorageLocation, &j.WasSelectionJudgment)
	j.JudgedAt = parseTime(judged)
	j.RenameCompletedAt = parseTime(completed)
	return j, err
}

// Judgments returns judgment rows inside window, oldest first
func (s *Store) Judgments(ctx context.Context, w Window) ([]Judgment, error) {
	clause, args := w.clause("judged_at")
	return s.queryJudgments(ctx,
		"SELECT "+judgmentColumns+" FROM judgment_history WHERE 1=1"+clause+" ORDER BY judged_at, id",
		args...)
}

// VideoJudgments returns one video's judgment rows, oldest first
func (s *Store) VideoJudgments(ctx context.Context, videoID int64) ([]Judgment, error) {
	return s.queryJudgments(ctx,
		"SELECT "+judgmentColumns+" FROM judgment_history WHERE video_id = ? ORDER BY judged_at, id",
		videoID)
}

func (s *Store) queryJudgments(ctx context.Context, query string, args ...any) ([]Judgment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query judgments: %w", err)
	}
	defer rows.Close()

	var judgments []Judgment
	for rows.Next() {
		j, err := scanJudgment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan judgment: %w", err)
		}
		judgments = append(judgments, j)
	}
	return judgments, rows.Err()
}

// RecentPlays returns the newest play-history rows
func (s *Store) RecentPlays(ctx context.Context, limit int) ([]Play, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, video_id, file_path, title, internal_id, player, library_root, trigger, played_at
		FROM play_history ORDER BY played_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query play history: %w", err)
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		var p Play
		var at string
		err := rows.Scan(&p.ID, &p.VideoID, &p.FilePath, &p.Title, &p.InternalID,
			&p.Player, &p.LibraryRoot, &p.Trigger, &at)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		p.PlayedAt = parseTime(at)
		plays = append(plays, p)
	}
	return plays, rows.Err()
}
