package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/clipbox/internal/config"
	"github.com/franz/clipbox/internal/meta"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure clipbox can operate correctly.

This command checks:
- Configuration validity
- SQLite version
- Database accessibility and integrity
- Library roots and the selection folder (present, readable, which kind of drive)
- Event log and backup directories (writable)
- The configured player
- ffprobe (optional, used by show)`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== ClipBox Doctor ===")

	cfg, err := loadConfig()
	if err != nil {
		printResults([]checkResult{{name: "Configuration", error: true, message: err.Error()}})
		return fmt.Errorf("system diagnostics failed")
	}

	results := []checkResult{{name: "Configuration", message: "valid"}}
	results = append(results, checkSQLite())
	results = append(results, checkDatabase(cmd.Context(), cfg.DB))

	if len(cfg.LibraryRoots) == 0 {
		results = append(results, checkResult{
			name:    "Library roots",
			warning: true,
			message: "none configured (set library_roots)",
		})
	}
	for _, root := range cfg.LibraryRoots {
		results = append(results, checkDirectory("Library root", root))
	}
	if cfg.SelectionFolder != "" {
		results = append(results, checkDirectory("Selection folder", cfg.SelectionFolder))
	}

	results = append(results, checkWritable("Event log directory", cfg.EventLogDir))
	results = append(results, checkWritable("Backup directory", cfg.BackupDir))
	results = append(results, checkPlayer(cfg.Player))
	results = append(results, checkFFprobe(cmd.Context()))

	if printResults(results) {
		return fmt.Errorf("system diagnostics failed")
	}
	return nil
}

// printResults logs every check and reports whether any failed
func printResults(results []checkResult) bool {
	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		switch {
		case r.error:
			util.ErrorLog("%s", line)
		case r.warning:
			util.WarnLog("%s", line)
		default:
			util.SuccessLog("%s", line)
		}
	}

	switch {
	case hasErrors:
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before using clipbox.")
	case hasWarnings:
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	default:
		util.SuccessLog("✅ All checks passed!")
	}
	return hasErrors
}

// checkFFprobe is optional: without it show lists tags only
func checkFFprobe(ctx context.Context) checkResult {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	version, err := meta.FFprobeVersion(ctx)
	if err != nil {
		return checkResult{
			name:    "ffprobe (optional)",
			warning: true,
			message: "not found (show will not report stream details)",
		}
	}
	return checkResult{name: "ffprobe (optional)", message: version}
}

func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{name: "SQLite", error: true, message: "unable to determine version"}
	}
	return checkResult{name: "SQLite", message: fmt.Sprintf("version %s (built-in)", version)}
}

// checkDatabase runs the integrity check and counts videos. A database that
// does not exist yet is fine.
func checkDatabase(ctx context.Context, dbPath string) checkResult {
	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{name: "Database", error: true, message: fmt.Sprintf("cannot access %s: %v", dbPath, err)}
	}
	if !info.Mode().IsRegular() {
		return checkResult{name: "Database", error: true, message: fmt.Sprintf("%s is not a regular file", dbPath)}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{name: "Database", error: true, message: fmt.Sprintf("cannot open %s: %v", dbPath, err)}
	}
	defer db.Close()

	if err := db.CheckIntegrity(ctx); err != nil {
		return checkResult{name: "Database", error: true, message: fmt.Sprintf("integrity check failed: %v", err)}
	}

	version, _ := db.SchemaVersion(ctx)
	videos, _ := db.CountVideos(ctx, store.VideoFilter{})
	missing, _ := db.CountVideos(ctx, store.VideoFilter{Available: store.Bool(false), Deleted: store.Bool(false)})

	r := checkResult{
		name: "Database",
		message: fmt.Sprintf("%s (%s, schema v%d, %d videos, %d missing)",
			dbPath, humanize.Bytes(uint64(info.Size())), version, videos, missing),
	}
	if util.IsNetworkPath(filepath.Dir(dbPath)) {
		r.warning = true
		r.message += "; on a network filesystem, keep it local if possible"
	}
	return r
}

// checkDirectory verifies a library directory is present and readable
func checkDirectory(label, path string) checkResult {
	name := fmt.Sprintf("%s %s", label, path)
	info, err := os.Stat(path)
	if err != nil {
		return checkResult{
			name:    name,
			warning: true,
			message: "not reachable (drive disconnected?); a full scan marks its videos unavailable",
		}
	}
	if !info.IsDir() {
		return checkResult{name: name, error: true, message: "not a directory"}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return checkResult{name: name, error: true, message: fmt.Sprintf("cannot read: %v", err)}
	}

	msg := fmt.Sprintf("%d entries", len(entries))
	if mount, err := util.DetectMount(path); err == nil {
		msg += ", " + mount.Describe()
	}
	return checkResult{name: name, message: msg}
}

// checkWritable creates dir when needed and probes it with a temp file
func checkWritable(label, dir string) checkResult {
	if dir == "" {
		return checkResult{name: label, warning: true, message: "not set"}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return checkResult{name: label, error: true, message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	f, err := os.CreateTemp(dir, ".clipbox_write_test")
	if err != nil {
		return checkResult{name: label, error: true, message: fmt.Sprintf("cannot write to %s: %v", dir, err)}
	}
	f.Close()
	os.Remove(f.Name())
	return checkResult{name: label, message: fmt.Sprintf("%s (writable)", dir)}
}

func checkPlayer(p config.Player) checkResult {
	if p.Command == "" {
		return checkResult{name: "Player", message: "system default handler"}
	}
	path, err := exec.LookPath(p.Command)
	if err != nil {
		return checkResult{name: "Player", error: true, message: fmt.Sprintf("%s not found: %v", p.Command, err)}
	}
	return checkResult{name: "Player", message: path}
}
