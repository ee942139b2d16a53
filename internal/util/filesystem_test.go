package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsWithin(t *testing.T) {
	sep := string(filepath.Separator)
	root := filepath.Join(sep+"library", "data")

	testCases := []struct {
		name     string
		root     string
		path     string
		expected bool
	}{
		{
			name:     "file directly inside root",
			root:     root,
			path:     filepath.Join(root, "movie.mp4"),
			expected: true,
		},
		{
			name:     "file in nested directory",
			root:     root,
			path:     filepath.Join(root, "performer", "movie.mp4"),
			expected: true,
		},
		{
			name:     "root itself",
			root:     root,
			path:     root,
			expected: true,
		},
		{
			name:     "root with trailing separator",
			root:     root + sep,
			path:     filepath.Join(root, "movie.mp4"),
			expected: true,
		},
		{
			name:     "sibling sharing a string prefix",
			root:     root,
			path:     filepath.Join(sep+"library", "data_selection", "movie.mp4"),
			expected: false,
		},
		{
			name:     "sibling directory itself",
			root:     root,
			path:     filepath.Join(sep+"library", "data_selection"),
			expected: false,
		},
		{
			name:     "parent of root",
			root:     root,
			path:     filepath.Join(sep+"library", "movie.mp4"),
			expected: false,
		},
		{
			name:     "dot-dot escape",
			root:     root,
			path:     filepath.Join(root, "..", "other", "movie.mp4"),
			expected: false,
		},
		{
			name:     "file named like a parent reference",
			root:     root,
			path:     filepath.Join(root, "..movie.mp4"),
			expected: true,
		},
		{
			name:     "empty root",
			root:     "",
			path:     filepath.Join(root, "movie.mp4"),
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsWithin(tc.root, tc.path); got != tc.expected {
				t.Errorf("IsWithin(%q, %q) = %v, expected %v", tc.root, tc.path, got, tc.expected)
			}
		})
	}
}

func TestWithinAny(t *testing.T) {
	tmpDir := t.TempDir()
	data := filepath.Join(tmpDir, "data")
	selection := filepath.Join(tmpDir, "data_selection")

	if !WithinAny([]string{data, selection}, filepath.Join(selection, "x.mp4")) {
		t.Error("expected file in second root to be within")
	}
	if WithinAny([]string{data}, filepath.Join(selection, "x.mp4")) {
		t.Error("data_selection file must not be within data")
	}
	if WithinAny(nil, filepath.Join(data, "x.mp4")) {
		t.Error("no roots means nothing is within")
	}
}

func TestStatTimes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movie.mp4")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Failed to set times: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat: %v", err)
	}

	times := StatTimes(info)
	if !times.Modified.Equal(mtime) {
		t.Errorf("Modified = %v, expected %v", times.Modified, mtime)
	}
	if times.Created.IsZero() {
		t.Error("Created should never be zero")
	}
	if times.Accessed.IsZero() {
		t.Error("Accessed should never be zero")
	}
}
