package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventScan            EventType = "scan"
	EventScanRootSkipped EventType = "scan_root_skipped"
	EventDiscovered      EventType = "discovered"
	EventUnavailable     EventType = "unavailable"
	EventJudge           EventType = "judge"
	EventPlay            EventType = "play"
	EventView            EventType = "view"
	EventLike            EventType = "like"
	EventAccess          EventType = "access"
	EventError           EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// ParseLevel maps a level name to an EventLevel, defaulting to info
func ParseLevel(name string) EventLevel {
	level := EventLevel(name)
	if _, ok := levelPriority[level]; ok {
		return level
	}
	return LevelInfo
}

// Event is one line of the audit log
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	RunID     string            `json:"run_id,omitempty"`
	VideoID   int64             `json:"video_id,omitempty"`
	Essential string            `json:"essential,omitempty"`
	Path      string            `json:"path,omitempty"`
	DestPath  string            `json:"dest_path,omitempty"`
	OldLevel  *int              `json:"old_level,omitempty"`
	NewLevel  *int              `json:"new_level,omitempty"`
	Count     int               `json:"count,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file. A nil logger discards events.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	runID    string
	minLevel EventLevel
}

// NewEventLogger creates events-<timestamp>.jsonl in outputDir. Events below
// minLevel are dropped. Every event carries a fresh run id.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	runID := uuid.New().String()
	timestamp := time.Now().Format("20060102-150405")
	// Two runs in the same second must not share a file
	filename := fmt.Sprintf("events-%s-%s.jsonl", timestamp, runID[:8])
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		runID:    runID,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.RunID = l.runID

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogScan logs the outcome of a scan call
func (l *EventLogger) LogScan(mode string, roots []string, found, created, unavailable int, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventScan,
		Count:    found,
		Duration: duration.Milliseconds(),
		Extra: map[string]string{
			"mode":        mode,
			"roots":       strconv.Itoa(len(roots)),
			"created":     strconv.Itoa(created),
			"unavailable": strconv.Itoa(unavailable),
		},
	})
}

// LogScanRootSkipped logs a root that did not exist or was not a directory
func (l *EventLogger) LogScanRootSkipped(root, reason string) error {
	return l.Log(&Event{
		Level:  LevelWarning,
		Event:  EventScanRootSkipped,
		Path:   root,
		Reason: reason,
	})
}

// LogDiscovered logs a video seen for the first time
func (l *EventLogger) LogDiscovered(videoID int64, essential, path string, level int) error {
	return l.Log(&Event{
		Level:     LevelDebug,
		Event:     EventDiscovered,
		VideoID:   videoID,
		Essential: essential,
		Path:      path,
		NewLevel:  &level,
	})
}

// LogUnavailable logs a video whose file could not be found
func (l *EventLogger) LogUnavailable(videoID int64, path, reason string) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventUnavailable,
		VideoID: videoID,
		Path:    path,
		Reason:  reason,
	})
}

// LogJudge logs a completed judgment
func (l *EventLogger) LogJudge(videoID int64, oldPath, newPath string, oldLevel, newLevel int, renameDuration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventJudge,
		VideoID:  videoID,
		Path:     oldPath,
		DestPath: newPath,
		OldLevel: &oldLevel,
		NewLevel: &newLevel,
		Duration: renameDuration.Milliseconds(),
	})
}

// LogPlay logs a playback
func (l *EventLogger) LogPlay(videoID int64, path, player, trigger string) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventPlay,
		VideoID: videoID,
		Path:    path,
		Extra: map[string]string{
			"player":  player,
			"trigger": trigger,
		},
	})
}

// LogView logs a manually recorded viewing
func (l *EventLogger) LogView(videoID int64) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventView,
		VideoID: videoID,
	})
}

// LogLike logs a like and the resulting total
func (l *EventLogger) LogLike(videoID int64, total int) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventLike,
		VideoID: videoID,
		Count:   total,
	})
}

// LogAccess logs a batch of access-detected viewings
func (l *EventLogger) LogAccess(recorded int, checkedAt time.Time) error {
	extra := map[string]string{}
	if !checkedAt.IsZero() {
		extra["checked_at"] = checkedAt.Format(time.RFC3339)
	}
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventAccess,
		Count: recorded,
		Extra: extra,
	})
}

// LogError logs a failed operation
func (l *EventLogger) LogError(event EventType, videoID int64, path string, err error) error {
	return l.Log(&Event{
		Level:   LevelError,
		Event:   event,
		VideoID: videoID,
		Path:    path,
		Error:   err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// RunID returns the id stamped on every event of this run
func (l *EventLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
