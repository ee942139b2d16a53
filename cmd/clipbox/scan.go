package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/franz/clipbox/internal/scan"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Reconcile the library roots with the database",
	Long: `Walk every configured library root and reconcile the database with what
is on disk.

New files are added, moved or renamed files are followed by their essential
filename (the name without the level prefix), and the level encoded in each
filename becomes the stored level. Videos inside the scanned roots whose file
was not found are marked unavailable; videos elsewhere are left alone.
Symbolic links to roots and to video files are followed, and a root nested
inside another root is walked only once.

Roots can be overridden with --root for a one-off scan.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringSlice("root", nil, "Scan these roots instead of library_roots (repeatable)")
}

// interruptible cancels the returned context on Ctrl-C so long walks stop cleanly
func interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}

func runScan(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary(true)
	if err != nil {
		return err
	}
	defer lib.Close()

	roots, _ := cmd.Flags().GetStringSlice("root")
	if len(roots) == 0 {
		roots = lib.cfg.LibraryRoots
	}
	if len(roots) == 0 {
		return scan.ErrNoRoots
	}

	ctx, cancel := interruptible(cmd.Context())
	defer cancel()

	scanner := lib.scanner()
	util.DebugLog("Video extensions: %s", strings.Join(scanner.Extensions(), " "))

	result, err := scanner.ScanRoots(ctx, roots)
	if err != nil {
		return err
	}

	for _, root := range result.RootsSkipped {
		util.WarnLog("Root not reachable: %s (its videos were marked unavailable)", root)
	}
	for _, e := range result.Errors {
		util.WarnLog("%v", e)
	}
	if result.Duplicates > 0 {
		util.WarnLog("%d files share an essential filename with another file; the last one found wins", result.Duplicates)
	}
	return nil
}
