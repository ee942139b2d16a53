package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line %d: %v", len(events)+1, err)
		}
		events = append(events, decoded)
	}
	return events
}

func TestNewEventLogger(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(logger.Path()); os.IsNotExist(err) {
		t.Errorf("Event log file was not created at %s", logger.Path())
	}

	filename := filepath.Base(logger.Path())
	if !strings.HasPrefix(filename, "events-") || !strings.HasSuffix(filename, ".jsonl") {
		t.Errorf("Event log filename format incorrect: %s", filename)
	}
	if len(logger.RunID()) != 36 {
		t.Errorf("Expected a UUID run id, got %q", logger.RunID())
	}

	other, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer other.Close()
	if other.Path() == logger.Path() {
		t.Error("Two loggers in the same second should not share a file")
	}
}

func TestEventLogger_Helpers(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogScan("full", []string{"/a", "/b"}, 10, 3, 1, 1500*time.Millisecond)
	logger.LogScanRootSkipped("/gone", "does not exist")
	logger.LogDiscovered(7, "movie.mp4", "/a/movie.mp4", -1)
	logger.LogJudge(7, "/a/_movie.mp4", "/a/movie.mp4", 0, -1, 12*time.Millisecond)
	logger.LogPlay(7, "/a/movie.mp4", "mpv", "row_button")
	logger.LogLike(7, 3)
	logger.LogError(EventJudge, 7, "/a/movie.mp4", errors.New("rename failed"))
	logger.Close()

	events := readEvents(t, logger.Path())
	if len(events) != 7 {
		t.Fatalf("Expected 7 events, got %d", len(events))
	}

	for _, e := range events {
		if e.RunID != logger.RunID() {
			t.Errorf("Event %s missing run id", e.Event)
		}
		if e.Timestamp.IsZero() {
			t.Errorf("Event %s missing timestamp", e.Event)
		}
	}

	scan := events[0]
	if scan.Event != EventScan || scan.Count != 10 || scan.Duration != 1500 || scan.Extra["created"] != "3" {
		t.Errorf("Unexpected scan event: %+v", scan)
	}
	if events[1].Level != LevelWarning || events[1].Reason != "does not exist" {
		t.Errorf("Unexpected skipped-root event: %+v", events[1])
	}

	judge := events[3]
	if judge.OldLevel == nil || *judge.OldLevel != 0 || judge.NewLevel == nil || *judge.NewLevel != -1 {
		t.Errorf("Judge levels not recorded: %+v", judge)
	}
	if judge.DestPath != "/a/movie.mp4" || judge.Duration != 12 {
		t.Errorf("Unexpected judge event: %+v", judge)
	}

	if events[6].Level != LevelError || events[6].Error != "rename failed" {
		t.Errorf("Unexpected error event: %+v", events[6])
	}
}

func TestEventLogger_ConcurrentWrites(t *testing.T) {
	logger, err := NewEventLogger(t.TempDir(), LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if err := logger.LogView(int64(id*100 + j)); err != nil {
					t.Errorf("Concurrent log failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()
	logger.Close()

	if n := len(readEvents(t, logger.Path())); n != 100 {
		t.Errorf("Expected 100 events, got %d", n)
	}
}

func TestEventLogger_NullLogger(t *testing.T) {
	logger := NullLogger()

	if err := logger.Log(&Event{Level: LevelInfo, Event: EventScan}); err != nil {
		t.Errorf("NullLogger.Log should not return error, got: %v", err)
	}
	if err := logger.LogLike(1, 1); err != nil {
		t.Errorf("NullLogger.LogLike should not return error, got: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("NullLogger.Close should not return error, got: %v", err)
	}
	if logger.Path() != "" || logger.RunID() != "" {
		t.Error("NullLogger should report empty path and run id")
	}
}

func TestEventLogger_LogLevelFiltering(t *testing.T) {
	testCases := []struct {
		name     string
		minLevel EventLevel
		expected int
	}{
		{"debug", LevelDebug, 4},
		{"info", LevelInfo, 3},
		{"warning", LevelWarning, 2},
		{"error", LevelError, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := NewEventLogger(t.TempDir(), tc.minLevel)
			if err != nil {
				t.Fatalf("NewEventLogger failed: %v", err)
			}

			logger.Log(&Event{Level: LevelDebug, Event: EventDiscovered})
			logger.Log(&Event{Level: LevelInfo, Event: EventScan})
			logger.Log(&Event{Level: LevelWarning, Event: EventScanRootSkipped})
			logger.Log(&Event{Level: LevelError, Event: EventError})
			logger.Close()

			if n := len(readEvents(t, logger.Path())); n != tc.expected {
				t.Errorf("Expected %d events at min level %s, got %d", tc.expected, tc.minLevel, n)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("warning") != LevelWarning {
		t.Error("ParseLevel(warning)")
	}
	if ParseLevel("loud") != LevelInfo {
		t.Error("unknown levels should default to info")
	}
}
