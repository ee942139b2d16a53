package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/franz/clipbox/internal/util"
)

// Video is one library entry, identified by its essential filename
type Video struct {
	ID                int64
	EssentialFilename string
	CurrentFullPath   string
	Level             int
	FileSize          int64
	Performer         string
	StorageLocation   string
	LastFileModified  time.Time
	FileCreatedAt     time.Time
	IsAvailable       bool
	IsDeleted         bool
	IsJudging         bool
	NeedsSelection    bool
	CreatedAt         time.Time
	LastScannedAt     time.Time
}

// ScannedFile is what a scan learned about one file on disk
type ScannedFile struct {
	EssentialFilename string
	FullPath          string
	Level             int
	NeedsSelection    bool
	FileSize          int64
	Performer         string
	StorageLocation   string
	Modified          time.Time
	Created           time.Time
	ScannedAt         time.Time
}

const videoColumns = `
	id, essential_filename, current_full_path, current_favorite_level,
	file_size, performer, storage_location, last_file_modified, file_created_at,
	is_available, is_deleted, is_judging, needs_selection, created_at, last_scanned_at`

func scanVideo(row interface{ Scan(...any) error }) (*Video, error) {
	v := &Video{}
	var modified, created, scanned sql.NullString
	var createdAt string
	err := row.Scan(
		&v.ID, &v.EssentialFilename, &v.CurrentFullPath, &v.Level,
		&v.FileSize, &v.Performer, &v.StorageLocation, &modified, &created,
		&v.IsAvailable, &v.IsDeleted, &v.IsJudging, &v.NeedsSelection, &createdAt, &scanned,
	)
	if err != nil {
		return nil, err
	}
	v.LastFileModified = parseNullTime(modified)
	v.FileCreatedAt = parseNullTime(created)
	v.LastScannedAt = parseNullTime(scanned)
	v.CreatedAt = parseTime(createdAt)
	return v, nil
}

func getVideo(ctx context.Context, q querier, id int64) (*Video, error) {
	v, err := scanVideo(q.QueryRowContext(ctx, "SELECT "+videoColumns+" FROM videos WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return v, nil
}

// GetVideo retrieves a video by id; nil when it does not exist
func (s *Store) GetVideo(ctx context.Context, id int64) (*Video, error) {
	return getVideo(ctx, s.db, id)
}

// GetVideo reads a video inside the transaction
func (t *Tx) GetVideo(ctx context.Context, id int64) (*Video, error) {
	return getVideo(ctx, t.tx, id)
}

// GetVideoByEssential retrieves a video by its essential filename
func (s *Store) GetVideoByEssential(ctx context.Context, essential string) (*Video, error) {
	v, err := scanVideo(s.db.QueryRowContext(ctx,
		"SELECT "+videoColumns+" FROM videos WHERE essential_filename = ?", essential))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return v, nil
}

// UpsertScanned inserts a newly discovered file or refreshes the row that
// shares its essential filename. The row always comes out available. The
// performer of an existing row is kept unless it was never set.
func (t *Tx) UpsertScanned(ctx context.Context, f *ScannedFile) (id int64, created bool, err error) {
	var existing int64
	err = t.tx.QueryRowContext(ctx,
		"SELECT id FROM videos WHERE essential_filename = ?", f.EssentialFilename).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("failed to look up video: %w", err)
	}

	scannedAt := f.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = nowUTC()
	}

	err = t.tx.QueryRowContext(ctx, `
		INSERT INTO videos (
			essential_filename, current_full_path, current_favorite_level,
			file_size, performer, storage_location, last_file_modified, file_created_at,
			is_available, is_deleted, is_judging, needs_selection, created_at, last_scanned_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, 0, 0, ?, ?, ?)
		ON CONFLICT(essential_filename) DO UPDATE SET
			current_full_path = excluded.current_full_path,
			current_favorite_level = excluded.current_favorite_level,
			file_size = excluded.file_size,
			performer = CASE WHEN videos.performer = '' THEN excluded.performer ELSE videos.performer END,
			storage_location = excluded.storage_location,
			last_file_modified = excluded.last_file_modified,
			file_created_at = excluded.file_created_at,
			is_available = 1,
			needs_selection = excluded.needs_selection,
			last_scanned_at = excluded.last_scanned_at
		RETURNING id
	`,
		f.EssentialFilename, f.FullPath, f.Level,
		f.FileSize, f.Performer, f.StorageLocation, nullableTime(f.Modified), nullableTime(f.Created),
		f.NeedsSelection, formatTime(scannedAt), formatTime(scannedAt),
	).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert video %s: %w", f.EssentialFilename, err)
	}

	return id, existing == 0, nil
}

// SetAvailability flips is_available on every listed video
func (t *Tx) SetAvailability(ctx context.Context, ids []int64, available bool) error {
	for _, chunk := range chunkIDs(ids, maxParams-1) {
		args := append([]any{available}, int64Args(chunk)...)
		_, err := t.tx.ExecContext(ctx,
			"UPDATE videos SET is_available = ? WHERE id IN ("+placeholders(len(chunk))+")", args...)
		if err != nil {
			return fmt.Errorf("failed to update availability: %w", err)
		}
	}
	return nil
}

// SetAvailable records whether a single video's file is present
func (s *Store) SetAvailable(ctx context.Context, id int64, available bool) error {
	return s.Transaction(ctx, func(tx *Tx) error {
		return tx.SetAvailability(ctx, []int64{id}, available)
	})
}

// ApplyJudgment stores the outcome of a judgment rename. The file is known
// to exist, so the row becomes available, and review is over.
func (t *Tx) ApplyJudgment(ctx context.Context, id int64, newPath string, level int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE videos SET
			current_full_path = ?,
			current_favorite_level = ?,
			needs_selection = 0,
			is_judging = 0,
			is_available = 1
		WHERE id = ?
	`, newPath, level, id)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	return requireRow(res, id)
}

// SetJudging marks a video as under review (or not)
func (t *Tx) SetJudging(ctx context.Context, id int64, judging bool) error {
	res, err := t.tx.ExecContext(ctx, "UPDATE videos SET is_judging = ? WHERE id = ?", judging, id)
	if err != nil {
		return fmt.Errorf("failed to update judging flag: %w", err)
	}
	return requireRow(res, id)
}

// SetDeleted logically deletes or restores a video
func (s *Store) SetDeleted(ctx context.Context, id int64, deleted bool) error {
	return s.Transaction(ctx, func(tx *Tx) error {
		res, err := tx.tx.ExecContext(ctx, "UPDATE videos SET is_deleted = ? WHERE id = ?", deleted, id)
		if err != nil {
			return fmt.Errorf("failed to update deleted flag: %w", err)
		}
		return requireRow(res, id)
	})
}

// PurgeVideo removes a video row; its history goes with it
func (s *Store) PurgeVideo(ctx context.Context, id int64) error {
	return s.Transaction(ctx, func(tx *Tx) error {
		res, err := tx.tx.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete video: %w", err)
		}
		return requireRow(res, id)
	})
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("video %d: %w", id, util.ErrNotFound)
	}
	return nil
}

// VideoFilter selects videos. Empty slices and nil pointers do not filter.
type VideoFilter struct {
	IDs              []int64
	Levels           []int
	Performers       []string
	StorageLocations []string
	Available        *bool
	Deleted          *bool
	Judging          *bool
	NeedsSelection   *bool

	// Roots keeps only videos whose path lies inside one of these
	// directories, compared by path component
	Roots []string

	OrderBy string // "id" (default), "name", "level", "size", "modified", "created"
	Desc    bool
	Limit   int
	Offset  int
}

// Bool returns a pointer for use in VideoFilter
func Bool(b bool) *bool {
	return &b
}

var orderColumns = map[string]string{
	"":         "id",
	"id":       "id",
	"name":     "essential_filename COLLATE NOCASE",
	"level":    "current_favorite_level",
	"size":     "file_size",
	"modified": "last_file_modified",
	"created":  "created_at",
	"path":     "current_full_path",
}

func (f *VideoFilter) where() (string, []any, error) {
	var conds []string
	var args []any

	if len(f.IDs) > 0 {
		if len(f.IDs) > maxParams {
			return "", nil, fmt.Errorf("%w: too many ids in filter", util.ErrValidation)
		}
		conds = append(conds, "id IN ("+placeholders(len(f.IDs))+")")
		args = append(args, int64Args(f.IDs)...)
	}
	if len(f.Levels) > 0 {
		conds = append(conds, "current_favorite_level IN ("+placeholders(len(f.Levels))+")")
		args = append(args, intArgs(f.Levels)...)
	}
	if len(f.Performers) > 0 {
		conds = append(conds, "performer IN ("+placeholders(len(f.Performers))+")")
		args = append(args, stringArgs(f.Performers)...)
	}
	if len(f.StorageLocations) > 0 {
		conds = append(conds, "storage_location IN ("+placeholders(len(f.StorageLocations))+")")
		args = append(args, stringArgs(f.StorageLocations)...)
	}
	flags := []struct {
		column string
		value  *bool
	}{
		{"is_available", f.Available},
		{"is_deleted", f.Deleted},
		{"is_judging", f.Judging},
		{"needs_selection", f.NeedsSelection},
	}
	for _, flag := range flags {
		if flag.value != nil {
			conds = append(conds, flag.column+" = ?")
			args = append(args, *flag.value)
		}
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// ListVideos returns the videos matching filter
func (s *Store) ListVideos(ctx context.Context, f VideoFilter) ([]*Video, error) {
	return listVideos(ctx, s.db, f)
}

// ListVideos reads matching videos inside the transaction
func (t *Tx) ListVideos(ctx context.Context, f VideoFilter) ([]*Video, error) {
	return listVideos(ctx, t.tx, f)
}

func listVideos(ctx context.Context, q querier, f VideoFilter) ([]*Video, error) {
	where, args, err := f.where()
	if err != nil {
		return nil, err
	}

	order, ok := orderColumns[f.OrderBy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort key %q", util.ErrValidation, f.OrderBy)
	}
	query := "SELECT " + videoColumns + " FROM videos" + where + " ORDER BY " + order
	if f.Desc {
		query += " DESC"
	}
	query += ", id"

	// Path containment is checked in Go, so paging has to wait until then
	pageInSQL := len(f.Roots) == 0
	if pageInSQL && f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		if !pageInSQL && !util.WithinAny(f.Roots, v.CurrentFullPath) {
			continue
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !pageInSQL {
		videos = page(videos, f.Offset, f.Limit)
	}
	return videos, nil
}

func page(videos []*Video, offset, limit int) []*Video {
	if offset >= len(videos) {
		return nil
	}
	videos = videos[offset:]
	if limit > 0 && limit < len(videos) {
		videos = videos[:limit]
	}
	return videos
}

// CountVideos counts the videos matching filter, ignoring paging
func (s *Store) CountVideos(ctx context.Context, f VideoFilter) (int, error) {
	if len(f.Roots) > 0 {
		f.Limit, f.Offset = 0, 0
		videos, err := s.ListVideos(ctx, f)
		return len(videos), err
	}

	where, args, err := f.where()
	if err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return count, nil
}

// Performers lists the distinct performer names, sorted
func (s *Store) Performers(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "performer")
}

// StorageLocations lists the distinct storage tags, sorted
func (s *Store) StorageLocations(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "storage_location")
}

func (s *Store) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT "+column+" FROM videos WHERE "+column+" != '' ORDER BY "+column)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
