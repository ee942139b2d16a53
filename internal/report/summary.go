package report

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/franz/clipbox/internal/analysis"
	"github.com/franz/clipbox/internal/filename"
	"github.com/franz/clipbox/internal/store"
)

// LibraryReport is a snapshot of the library for the Markdown report
type LibraryReport struct {
	GeneratedAt time.Time

	KPI       *analysis.KPI
	Selection *analysis.SelectionKPI
	Levels    []analysis.LevelCount
	Storage   []analysis.StorageShare
	Counters  []store.Counter

	TopViewed []analysis.RankedVideo
	Forgotten []analysis.ForgottenVideo
	TopErrors []ErrorSummary

	DatabasePath string
	EventLogDir  string
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

// ReportOptions selects what goes into a report
type ReportOptions struct {
	DatabasePath string
	// EventLogDir is searched for events-*.jsonl files to summarize errors
	EventLogDir string
	// SelectionFolder adds a triage section scoped to this folder
	SelectionFolder string
	TopN            int
	Now             time.Time
}

// GenerateLibraryReport gathers the report from the analysis service and
// the event logs
func GenerateLibraryReport(ctx context.Context, svc *analysis.Service, opts ReportOptions) (*LibraryReport, error) {
	if opts.TopN <= 0 {
		opts.TopN = 20
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	report := &LibraryReport{
		GeneratedAt:  opts.Now,
		DatabasePath: opts.DatabasePath,
		EventLogDir:  opts.EventLogDir,
	}

	var err error
	if report.KPI, err = svc.KPI(ctx); err != nil {
		return nil, fmt.Errorf("failed to compute KPI: %w", err)
	}
	if opts.SelectionFolder != "" {
		if report.Selection, err = svc.SelectionKPI(ctx, opts.SelectionFolder); err != nil {
			return nil, fmt.Errorf("failed to compute selection KPI: %w", err)
		}
	}
	if report.Levels, err = svc.LevelDistribution(ctx); err != nil {
		return nil, err
	}
	if report.Storage, err = svc.StorageBreakdown(ctx); err != nil {
		return nil, err
	}
	if report.Counters, err = svc.Counters(ctx); err != nil {
		return nil, err
	}
	if report.TopViewed, err = svc.Rank(ctx, analysis.RankOptions{By: analysis.RankViews, Top: opts.TopN}); err != nil {
		return nil, err
	}
	if report.Forgotten, err = svc.ForgottenFavorites(ctx, 5, 30*24*time.Hour); err != nil {
		return nil, err
	}

	if opts.EventLogDir != "" {
		report.TopErrors = gatherTopErrors(opts.EventLogDir, 10)
	}
	return report, nil
}

// gatherTopErrors counts error events across the event logs in dir.
// Unreadable files and lines are skipped.
func gatherTopErrors(dir string, limit int) []ErrorSummary {
	paths, _ := filepath.Glob(filepath.Join(dir, "events-*.jsonl"))

	errorCounts := make(map[string]int)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			var e Event
			if json.Unmarshal(scanner.Bytes(), &e) != nil {
				continue
			}
			if e.Level == LevelError && e.Error != "" {
				errorCounts[e.Error]++
			}
		}
		f.Close()
	}

	errors := make([]ErrorSummary, 0, len(errorCounts))
	for err, count := range errorCounts {
		errors = append(errors, ErrorSummary{Error: err, Count: count})
	}

	sort.Slice(errors, func(i, j int) bool {
		if errors[i].Count != errors[j].Count {
			return errors[i].Count > errors[j].Count
		}
		return errors[i].Error < errors[j].Error
	})

	if len(errors) > limit {
		errors = errors[:limit]
	}
	return errors
}

// WriteMarkdownReport writes the report as Markdown
func WriteMarkdownReport(report *LibraryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(RenderMarkdown(report)), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// RenderMarkdown formats the report
func RenderMarkdown(report *LibraryReport) string {
	var md strings.Builder

	md.WriteString("# ClipBox Library Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	md.WriteString("---\n\n")

	if k := report.KPI; k != nil {
		md.WriteString("## 📊 Judging Progress\n\n")
		md.WriteString("| Metric | Value |\n")
		md.WriteString("|--------|-------|\n")
		md.WriteString(fmt.Sprintf("| Unjudged | %s |\n", humanize.Comma(int64(k.Unjudged))))
		md.WriteString(fmt.Sprintf("| Judged | %s |\n", humanize.Comma(int64(k.Judged))))
		md.WriteString(fmt.Sprintf("| Judged Rate | %.1f%% |\n", k.JudgedRate))
		md.WriteString(fmt.Sprintf("| Judged Today | %d |\n", k.TodayJudged))
		md.WriteString("\n")
	}

	if s := report.Selection; s != nil {
		md.WriteString("## 🗂 Selection\n\n")
		md.WriteString(fmt.Sprintf("Folder: `%s`\n\n", s.Folder))
		md.WriteString("| Metric | Value |\n")
		md.WriteString("|--------|-------|\n")
		md.WriteString(fmt.Sprintf("| Pending | %d |\n", s.Unselected))
		md.WriteString(fmt.Sprintf("| Triaged | %d |\n", s.Judged))
		md.WriteString(fmt.Sprintf("| Triage Rate | %.1f%% |\n", s.JudgedRate))
		md.WriteString(fmt.Sprintf("| Triaged Today | %d |\n", s.TodayJudged))
		md.WriteString("\n")
	}

	if len(report.Levels) > 0 {
		md.WriteString("## ⭐ Favorite Levels\n\n")
		md.WriteString("| Level | Label | Videos |\n")
		md.WriteString("|-------|-------|--------|\n")
		for _, l := range report.Levels {
			md.WriteString(fmt.Sprintf("| %s | %s | %d |\n",
				filename.DisplayPrefix(l.Level), filename.LevelLabel(l.Level), l.Count))
		}
		md.WriteString("\n")
	}

	if len(report.Storage) > 0 {
		md.WriteString("## 💾 Storage\n\n")
		md.WriteString("| Location | Videos | Available | Size |\n")
		md.WriteString("|----------|--------|-----------|------|\n")
		for _, s := range report.Storage {
			md.WriteString(fmt.Sprintf("| %s | %d | %d | %s |\n",
				s.Location, s.Count, s.Available, humanize.Bytes(uint64(s.TotalBytes))))
		}
		md.WriteString("\n")
	}

	if len(report.TopViewed) > 0 {
		md.WriteString(fmt.Sprintf("## 🏆 Most Viewed (Top %d)\n\n", len(report.TopViewed)))
		md.WriteString("| # | Video | Level | Views |\n")
		md.WriteString("|---|-------|-------|-------|\n")
		for _, r := range report.TopViewed {
			md.WriteString(fmt.Sprintf("| %d | `%s` | %s | %d |\n",
				r.Rank, truncatePath(r.Video.EssentialFilename, 60), filename.DisplayPrefix(r.Video.Level), r.Score))
		}
		md.WriteString("\n")
	}

	if len(report.Forgotten) > 0 {
		md.WriteString("## 🕰 Forgotten Favorites\n\n")
		md.WriteString("*Watched often, not watched lately*\n\n")
		for _, f := range report.Forgotten {
			md.WriteString(fmt.Sprintf("- `%s`: %d views, last %s\n",
				truncatePath(f.Video.EssentialFilename, 60), f.Views,
				humanize.RelTime(f.LastView, report.GeneratedAt, "ago", "from now")))
		}
		md.WriteString("\n")
	}

	if len(report.Counters) > 0 {
		md.WriteString("## ⏱ Counters\n\n")
		md.WriteString("| Counter | Since | Views |\n")
		md.WriteString("|---------|-------|-------|\n")
		for _, c := range report.Counters {
			since := "not started"
			if !c.StartTime.IsZero() {
				since = c.StartTime.Local().Format("2006-01-02 15:04")
			}
			md.WriteString(fmt.Sprintf("| %s | %s | %d |\n", c.ID, since, c.Views))
		}
		md.WriteString("\n")
	}

	if len(report.TopErrors) > 0 {
		md.WriteString("## ⚠️ Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, err := range report.TopErrors {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", err.Count, err.Error))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by clipbox*\n")
	return md.String()
}

// truncatePath shortens s to at most maxLen runes, keeping both ends
func truncatePath(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	keep := maxLen/2 - 2
	return string(runes[:keep]) + "..." + string(runes[len(runes)-keep:])
}
