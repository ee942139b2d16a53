package main

import (
	"errors"
	"testing"
	"time"

	"github.com/franz/clipbox/internal/analysis"
	"github.com/franz/clipbox/internal/filename"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		arg     string
		want    *int
		wantErr bool
	}{
		{"0", intPtr(0), false},
		{"4", intPtr(4), false},
		{"none", nil, false},
		{"Unjudged", nil, false},
		{"5", nil, true},
		{"-1", nil, false},
		{"-2", nil, true},
		{"high", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseLevel(tt.arg)
			if tt.wantErr {
				if !errors.Is(err, util.ErrValidation) {
					t.Fatalf("parseLevel(%q) error = %v, want ErrValidation", tt.arg, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLevel(%q) unexpected error: %v", tt.arg, err)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.arg, got, tt.want)
			}
		})
	}
}

func TestParseVideoID(t *testing.T) {
	if id, err := parseVideoID("42"); err != nil || id != 42 {
		t.Errorf("parseVideoID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"0", "-3", "x1"} {
		if _, err := parseVideoID(bad); !errors.Is(err, util.ErrValidation) {
			t.Errorf("parseVideoID(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}

func periodCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addPeriodFlags(cmd, analysis.PeriodAll)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestPeriodWindow(t *testing.T) {
	now := time.Date(2024, 6, 12, 15, 0, 0, 0, time.Local)

	w, err := periodWindow(periodCommand(t), now)
	if err != nil || !w.Start.IsZero() || !w.End.IsZero() {
		t.Errorf("default period = %+v, %v; want open window", w, err)
	}

	w, err = periodWindow(periodCommand(t, "--period", "7d"), now)
	if err != nil {
		t.Fatal(err)
	}
	if want := now.AddDate(0, 0, -7); !w.Start.Equal(want) || !w.End.Equal(now) {
		t.Errorf("7d window = %+v", w)
	}

	// --from alone implies a custom range; --to is inclusive
	w, err = periodWindow(periodCommand(t, "--from", "2024-06-01", "--to", "2024-06-03"), now)
	if err != nil {
		t.Fatal(err)
	}
	wantStart := time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local)
	wantEnd := time.Date(2024, 6, 4, 0, 0, 0, 0, time.Local)
	if !w.Start.Equal(wantStart) || !w.End.Equal(wantEnd) {
		t.Errorf("custom window = %+v, want [%v, %v)", w, wantStart, wantEnd)
	}
	if got := describeWindow(w); got != "2024-06-01 to 2024-06-03" {
		t.Errorf("describeWindow = %q", got)
	}

	if _, err := periodWindow(periodCommand(t, "--from", "2024-06-05", "--to", "2024-06-01"), now); !errors.Is(err, util.ErrValidation) {
		t.Errorf("inverted range error = %v, want ErrValidation", err)
	}
	if _, err := periodWindow(periodCommand(t, "--from", "June 1"), now); !errors.Is(err, util.ErrValidation) {
		t.Errorf("bad date error = %v, want ErrValidation", err)
	}
}

func TestCells(t *testing.T) {
	if got := levelCell(filename.LevelUnjudged); got != "-" {
		t.Errorf("levelCell(-1) = %q", got)
	}
	if got := levelCell(2); got != "2 ##_" {
		t.Errorf("levelCell(2) = %q", got)
	}

	v := &store.Video{IsAvailable: true}
	if got := stateCell(v); got != "ok" {
		t.Errorf("stateCell = %q", got)
	}
	v.IsAvailable = false
	if got := stateCell(v); got != "missing" {
		t.Errorf("stateCell = %q", got)
	}
	v.IsDeleted = true
	if got := stateCell(v); got != "deleted" {
		t.Errorf("stateCell = %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, nil)
	if out == "" {
		t.Fatal("empty table output")
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("table without headers should render nothing")
	}
}

func TestPlaysInWindow(t *testing.T) {
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	plays := []store.Play{
		{ID: 3, PlayedAt: day.Add(26 * time.Hour)},
		{ID: 2, PlayedAt: day.Add(2 * time.Hour)},
		{ID: 1, PlayedAt: day.Add(-time.Minute)},
	}

	got := playsInWindow(plays, store.Window{Start: day, End: day.AddDate(0, 0, 1)})
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("expected only the play inside the day, got %+v", got)
	}
	if got := playsInWindow(plays, store.Window{}); len(got) != 3 {
		t.Errorf("an open window keeps every play, got %d", len(got))
	}
	if got := playsInWindow(plays, store.Window{Start: day.Add(2 * time.Hour)}); len(got) != 2 || got[1].ID != 2 {
		t.Errorf("the window start is inclusive, got %+v", got)
	}
}

func intPtr(i int) *int { return &i }
