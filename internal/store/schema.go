package store

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/franz/clipbox/internal/filename"
)

// Schema v1 - Initial database schema.
// Timestamps are UTC text in timeLayout so they sort and compare as strings.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at TEXT
);

-- One row per essential filename. AUTOINCREMENT keeps ids from being reused.
CREATE TABLE IF NOT EXISTS videos (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  essential_filename TEXT NOT NULL UNIQUE,
  current_full_path TEXT NOT NULL,
  current_favorite_level INTEGER NOT NULL DEFAULT -1
    CHECK (current_favorite_level BETWEEN -1 AND 4),
  file_size INTEGER NOT NULL DEFAULT 0,
  performer TEXT NOT NULL DEFAULT '',
  storage_location TEXT NOT NULL DEFAULT '',
  last_file_modified TEXT,
  file_created_at TEXT,
  is_available INTEGER NOT NULL DEFAULT 1,
  is_deleted INTEGER NOT NULL DEFAULT 0,
  is_judging INTEGER NOT NULL DEFAULT 0,
  needs_selection INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  last_scanned_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_videos_level ON videos(current_favorite_level);
CREATE INDEX IF NOT EXISTS idx_videos_performer ON videos(performer);
CREATE INDEX IF NOT EXISTS idx_videos_storage ON videos(storage_location);
CREATE INDEX IF NOT EXISTS idx_videos_state ON videos(is_available, is_deleted);

CREATE TABLE IF NOT EXISTS viewing_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
  viewed_at TEXT NOT NULL,
  viewing_method TEXT NOT NULL
    CHECK (viewing_method IN ('APP_PLAYBACK', 'MANUAL_ENTRY', 'FILE_ACCESS_DETECTED'))
);

CREATE INDEX IF NOT EXISTS idx_viewing_video ON viewing_history(video_id);
CREATE INDEX IF NOT EXISTS idx_viewing_at ON viewing_history(viewed_at);

CREATE TABLE IF NOT EXISTS judgment_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
  old_level INTEGER NOT NULL,
  new_level INTEGER NOT NULL,
  judged_at TEXT NOT NULL,
  rename_completed_at TEXT NOT NULL,
  rename_duration_ms INTEGER NOT NULL,
  storage_location TEXT NOT NULL DEFAULT '',
  was_selection_judgment INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_judgment_video ON judgment_history(video_id);
CREATE INDEX IF NOT EXISTS idx_judgment_at ON judgment_history(judged_at);

CREATE TABLE IF NOT EXISTS likes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
  liked_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_likes_video ON likes(video_id);

CREATE TABLE IF NOT EXISTS play_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
  file_path TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  internal_id TEXT NOT NULL DEFAULT '',
  player TEXT NOT NULL DEFAULT '',
  library_root TEXT NOT NULL DEFAULT '',
  trigger TEXT NOT NULL DEFAULT '',
  played_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_play_video ON play_history(video_id);
CREATE INDEX IF NOT EXISTS idx_play_at ON play_history(played_at);

-- Resettable view counters; start_time NULL means not started
CREATE TABLE IF NOT EXISTS counters (
  counter_id TEXT PRIMARY KEY,
  start_time TEXT
);

INSERT OR IGNORE INTO counters (counter_id, start_time) VALUES ('A', NULL), ('B', NULL), ('C', NULL);

CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`

// repairUnprefixedLevels resets level-0 rows whose file name carries no
// level prefix back to unjudged. Older databases recorded every file as 0.
func repairUnprefixedLevels(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, current_full_path FROM videos WHERE current_favorite_level = 0")
	if err != nil {
		return err
	}

	var ids []int64
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return err
		}
		if filename.Decode(filepath.Base(path)).Level == filename.LevelUnjudged {
			ids = append(ids, id)
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, chunk := range chunkIDs(ids, maxParams-1) {
		args := append([]any{filename.LevelUnjudged}, int64Args(chunk)...)
		_, err := tx.ExecContext(ctx,
			"UPDATE videos SET current_favorite_level = ? WHERE id IN ("+placeholders(len(chunk))+")",
			args...)
		if err != nil {
			return err
		}
	}

	return nil
}
