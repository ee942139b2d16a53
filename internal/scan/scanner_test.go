package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/franz/clipbox/internal/location"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("video data"), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestScanner(t *testing.T) (*Scanner, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "videos.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(&Config{Store: st, Concurrency: 2}), st
}

func video(t *testing.T, st *store.Store, essential string) *store.Video {
	t.Helper()
	v, err := st.GetVideoByEssential(context.Background(), essential)
	if err != nil {
		t.Fatalf("lookup %s: %v", essential, err)
	}
	if v == nil {
		t.Fatalf("expected video %s to exist", essential)
	}
	return v
}

func TestIsVideoFile(t *testing.T) {
	scanner := New(&Config{})

	tests := []struct {
		path     string
		expected bool
	}{
		{"test.mp4", true},
		{"test.MP4", true}, // Case insensitive
		{"test.mkv", true},
		{"test.webm", true},
		{"test.wmv", true},
		{"test.txt", false},
		{"test.jpg", false},
		{"test", false},
		{".mp4", true},
	}

	for _, tt := range tests {
		result := scanner.IsVideoFile(tt.path)
		if result != tt.expected {
			t.Errorf("IsVideoFile(%s) = %v, expected %v", tt.path, result, tt.expected)
		}
	}
}

func TestConfiguredExtensions(t *testing.T) {
	scanner := New(&Config{Extensions: []string{"MP4", " .M2TS "}})

	if !scanner.IsVideoFile("a.m2ts") || !scanner.IsVideoFile("a.mp4") {
		t.Error("configured extensions should be normalized")
	}
	if scanner.IsVideoFile("a.mkv") {
		t.Error("configured extensions replace the defaults")
	}
	if got := scanner.Extensions(); len(got) != 2 || got[0] != ".m2ts" {
		t.Errorf("Extensions() = %v", got)
	}
}

func TestScanRootsDiscovers(t *testing.T) {
	scanner, st := newTestScanner(t)
	ctx := context.Background()
	root := t.TempDir()

	touch(t, filepath.Join(root, "alice", "###_movie.mp4"))
	touch(t, filepath.Join(root, "alice", "!_pending.mkv"))
	touch(t, filepath.Join(root, "bob", "+#_done.webm"))
	touch(t, filepath.Join(root, "bob", "fresh.mov"))
	touch(t, filepath.Join(root, "bob", "cover.jpg"))
	touch(t, filepath.Join(root, "notes.txt"))

	result, err := scanner.ScanRoots(ctx, []string{root})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.FilesFound != 4 || result.Created != 4 {
		t.Errorf("expected 4 found and created, got %+v", result)
	}

	tests := []struct {
		essential      string
		level          int
		needsSelection bool
		performer      string
	}{
		{"movie.mp4", 3, false, "alice"},
		{"pending.mkv", 0, true, "alice"},
		{"done.webm", 1, false, "bob"},
		{"fresh.mov", -1, false, "bob"},
	}
	for _, tt := range tests {
		v := video(t, st, tt.essential)
		if v.Level != tt.level || v.NeedsSelection != tt.needsSelection || v.Performer != tt.performer {
			t.Errorf("%s: got level=%d needs=%v performer=%q", tt.essential, v.Level, v.NeedsSelection, v.Performer)
		}
		if !v.IsAvailable || v.FileSize != int64(len("video data")) {
			t.Errorf("%s: expected available with size, got %+v", tt.essential, v)
		}
		if v.StorageLocation != location.TagSecondary && runtime.GOOS != "windows" {
			t.Errorf("%s: unexpected storage tag %s", tt.essential, v.StorageLocation)
		}
	}

	// A second scan updates instead of inserting
	result, err = scanner.ScanRoots(ctx, []string{root})
	if err != nil {
		t.Fatal(err)
	}
	if result.Created != 0 || result.Updated != 4 {
		t.Errorf("rescan should only update, got %+v", result)
	}
}

func TestScanIsolationBetweenSiblingRoots(t *testing.T) {
	scanner, st := newTestScanner(t)
	ctx := context.Background()
	base := t.TempDir()
	data := filepath.Join(base, "data")
	selection := filepath.Join(base, "data_selection")

	touch(t, filepath.Join(data, "p", "one.mp4"))
	touch(t, filepath.Join(selection, "p", "two.mp4"))

	if _, err := scanner.ScanRoots(ctx, []string{data, selection}); err != nil {
		t.Fatal(err)
	}

	// Scanning data alone must not touch data_selection
	if _, err := scanner.ScanRoots(ctx, []string{data}); err != nil {
		t.Fatal(err)
	}
	if !video(t, st, "two.mp4").IsAvailable {
		t.Error("data_selection video was marked unavailable by a scan of data")
	}

	// Even with trailing separators on the root
	if _, err := scanner.ScanRoots(ctx, []string{data + string(filepath.Separator)}); err != nil {
		t.Fatal(err)
	}
	if !video(t, st, "two.mp4").IsAvailable {
		t.Error("trailing separator widened the scan scope")
	}

	// A file removed from data does go unavailable
	os.Remove(filepath.Join(data, "p", "one.mp4"))
	result, err := scanner.ScanRoots(ctx, []string{data})
	if err != nil {
		t.Fatal(err)
	}
	if result.MarkedUnavailable != 1 || video(t, st, "one.mp4").IsAvailable {
		t.Errorf("expected one.mp4 to become unavailable, got %+v", result)
	}
	if !video(t, st, "two.mp4").IsAvailable {
		t.Error("data_selection video was touched")
	}
}

func TestScanSingleRootIsNonDestructive(t *testing.T) {
	scanner, st := newTestScanner(t)
	ctx := context.Background()
	base := t.TempDir()
	data := filepath.Join(base, "data")
	selection := filepath.Join(base, "selection")

	touch(t, filepath.Join(data, "a.mp4"))
	touch(t, filepath.Join(data, "b.mp4"))
	touch(t, filepath.Join(selection, "!c.mp4"))

	if _, err := scanner.ScanRoots(ctx, []string{data, selection}); err != nil {
		t.Fatal(err)
	}

	os.Remove(filepath.Join(data, "a.mp4"))
	os.Remove(filepath.Join(selection, "!c.mp4"))
	touch(t, filepath.Join(selection, "!d.mp4"))

	result, err := scanner.ScanSingleRoot(ctx, selection)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesFound != 1 || result.Created != 1 || result.MarkedUnavailable != 0 {
		t.Errorf("unexpected single-root result %+v", result)
	}

	for _, name := range []string{"a.mp4", "b.mp4", "c.mp4", "d.mp4"} {
		if !video(t, st, name).IsAvailable {
			t.Errorf("%s: single-root scan must never mark videos unavailable", name)
		}
	}
	if !video(t, st, "d.mp4").NeedsSelection {
		t.Error("selection marker not recorded")
	}

	result, err = scanner.ScanSingleRoot(ctx, data)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesFound != 1 || !video(t, st, "a.mp4").IsAvailable {
		t.Errorf("single-root scan of data: %+v", result)
	}
}

func TestAvailabilityRecovery(t *testing.T) {
	scanner, st := newTestScanner(t)
	ctx := context.Background()
	root := t.TempDir()
	original := filepath.Join(root, "alice", "_clip.mp4")
	touch(t, original)

	if _, err := scanner.ScanRoots(ctx, []string{root}); err != nil {
		t.Fatal(err)
	}
	id := video(t, st, "clip.mp4").ID

	os.Remove(original)
	if _, err := scanner.ScanRoots(ctx, []string{root}); err != nil {
		t.Fatal(err)
	}
	if video(t, st, "clip.mp4").IsAvailable {
		t.Fatal("expected clip.mp4 to be unavailable")
	}

	moved := filepath.Join(root, "elsewhere", "##_clip.mp4")
	touch(t, moved)
	if _, err := scanner.ScanRoots(ctx, []string{root}); err != nil {
		t.Fatal(err)
	}

	v := video(t, st, "clip.mp4")
	if !v.IsAvailable || v.ID != id || v.CurrentFullPath != moved || v.Level != 2 {
		t.Errorf("expected recovery at new path with same id, got %+v", v)
	}
	if v.Performer != "alice" {
		t.Errorf("performer should survive a move, got %q", v.Performer)
	}
}

func TestMissingRootIsSkipped(t *testing.T) {
	scanner, st := newTestScanner(t)
	ctx := context.Background()
	base := t.TempDir()
	present := filepath.Join(base, "present")
	drive := filepath.Join(base, "drive")
	touch(t, filepath.Join(present, "a.mp4"))
	touch(t, filepath.Join(drive, "b.mp4"))

	if _, err := scanner.ScanRoots(ctx, []string{present, drive}); err != nil {
		t.Fatal(err)
	}

	// Disconnect the drive
	if err := os.RemoveAll(drive); err != nil {
		t.Fatal(err)
	}

	result, err := scanner.ScanRoots(ctx, []string{present, drive})
	if err != nil {
		t.Fatalf("missing root should not fail the scan: %v", err)
	}
	if len(result.RootsSkipped) != 1 || result.FilesFound != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if video(t, st, "b.mp4").IsAvailable {
		t.Error("videos on a missing root contribute no files and go unavailable")
	}

	single, err := scanner.ScanSingleRoot(ctx, filepath.Join(base, "nowhere"))
	if err != nil || single.FilesFound != 0 {
		t.Errorf("single-root scan of a missing root: %+v, %v", single, err)
	}

	if _, err := scanner.ScanRoots(ctx, nil); !errors.Is(err, util.ErrValidation) {
		t.Errorf("expected validation error without roots, got %v", err)
	}
}

func TestDuplicateEssentialLastPathWins(t *testing.T) {
	scanner, st := newTestScanner(t)
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "#_same.mp4"))
	touch(t, filepath.Join(root, "b", "###_same.mp4"))

	result, err := scanner.ScanRoots(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	if result.Duplicates != 1 || result.Created != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if v := video(t, st, "same.mp4"); v.Level != 3 {
		t.Errorf("expected last path (b) to win, got level %d", v.Level)
	}
}

func TestOutOfRangePrefixSkipped(t *testing.T) {
	scanner, st := newTestScanner(t)
	root := t.TempDir()
	touch(t, filepath.Join(root, "######_loud.mp4"))

	result, err := scanner.ScanRoots(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesSkipped != 1 || result.Created != 0 {
		t.Errorf("unexpected result %+v", result)
	}
	if v, _ := st.GetVideoByEssential(context.Background(), "loud.mp4"); v != nil {
		t.Error("out-of-range level should not be stored")
	}
}

func TestUnreadableDirectoryKeepsState(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("directory permissions are not enforced here")
	}

	scanner, st := newTestScanner(t)
	ctx := context.Background()
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	touch(t, filepath.Join(locked, "hidden.mp4"))

	if _, err := scanner.ScanRoots(ctx, []string{root}); err != nil {
		t.Fatal(err)
	}

	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0755)

	result, err := scanner.ScanRoots(ctx, []string{root})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) == 0 {
		t.Error("expected the unreadable directory to be reported")
	}
	if !video(t, st, "hidden.mp4").IsAvailable {
		t.Error("videos under an unreadable directory should keep their state")
	}
}

func TestSymlinkedRootKeepsVideosAvailable(t *testing.T) {
	scanner, st := newTestScanner(t)
	ctx := context.Background()
	base := t.TempDir()
	videos := filepath.Join(base, "videos")
	path := filepath.Join(videos, "perf", "##_movie.mp4")
	touch(t, path)

	if _, err := scanner.ScanRoots(ctx, []string{videos}); err != nil {
		t.Fatal(err)
	}

	// Move the library to another disk and leave a link in its place
	moved := filepath.Join(base, "disk", "videos")
	if err := os.MkdirAll(filepath.Dir(moved), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(videos, moved); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(moved, videos); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	result, err := scanner.ScanRoots(ctx, []string{videos})
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesFound != 1 || result.MarkedUnavailable != 0 || len(result.RootsSkipped) != 0 {
		t.Errorf("a linked root should be walked, got %+v", result)
	}
	if len(result.Roots) != 1 || result.Roots[0] != videos {
		t.Errorf("roots should be reported as configured, got %v", result.Roots)
	}

	v := video(t, st, "movie.mp4")
	if !v.IsAvailable || v.CurrentFullPath != path || v.Performer != "perf" {
		t.Errorf("expected %s to stay available under the configured root, got %+v", path, v)
	}
}

func TestSymlinkedVideoFileIsFound(t *testing.T) {
	scanner, st := newTestScanner(t)
	ctx := context.Background()
	root := t.TempDir()
	elsewhere := t.TempDir()

	target := filepath.Join(elsewhere, "#_clip.mp4")
	touch(t, target)
	link := filepath.Join(root, "perf", "#_clip.mp4")
	if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink(filepath.Join(elsewhere, "gone.mp4"), filepath.Join(root, "perf", "gone.mp4")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(elsewhere, filepath.Join(root, "linked.mp4")); err != nil {
		t.Fatal(err)
	}

	result, err := scanner.ScanRoots(ctx, []string{root})
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesFound != 1 || result.Created != 1 {
		t.Errorf("only the link to a regular file should count, got %+v", result)
	}

	v := video(t, st, "clip.mp4")
	if v.CurrentFullPath != link || v.Level != 1 || v.FileSize != int64(len("video data")) {
		t.Errorf("unexpected record for linked file: %+v", v)
	}
}

func TestOverlappingRootsWalkedOnce(t *testing.T) {
	scanner, _ := newTestScanner(t)
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	touch(t, filepath.Join(sub, "perf", "a.mp4"))
	touch(t, filepath.Join(root, "perf", "b.mp4"))

	result, err := scanner.ScanRoots(context.Background(), []string{sub, root, root})
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesFound != 2 || result.Duplicates != 0 || result.Created != 2 {
		t.Errorf("nested and repeated roots should be walked once, got %+v", result)
	}
	if len(result.Roots) != 3 {
		t.Errorf("every configured root is still reported, got %v", result.Roots)
	}
}

func TestOutermostRoots(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "media")
	lib := walkRoot{root: filepath.Join(base, "lib"), dir: filepath.Join(base, "lib")}
	sub := walkRoot{root: filepath.Join(base, "lib", "sub"), dir: filepath.Join(base, "lib", "sub")}
	sibling := walkRoot{root: filepath.Join(base, "lib_selection"), dir: filepath.Join(base, "lib_selection")}
	alias := walkRoot{root: filepath.Join(base, "alias"), dir: filepath.Join(base, "lib")}

	got := outermostRoots([]walkRoot{sub, lib, sibling, alias})
	if len(got) != 2 || got[0] != lib || got[1] != sibling {
		t.Errorf("outermostRoots = %+v", got)
	}
}
