package main

import (
	"fmt"
	"time"

	"github.com/franz/clipbox/internal/playback"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Record videos opened outside clipbox",
	Long: `Look at the access time of every available video and record a viewing for
each file opened since the last check. The first run considers every file.

Filesystems mounted with noatime never report access; relatime reports at most
one access per day.`,
	RunE: runAccess,
}

func init() {
	rootCmd.AddCommand(accessCmd)

	accessCmd.Flags().Bool("dry-run", false, "List accessed files without recording them")
}

func runAccess(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	lib, err := openLibrary(true)
	if err != nil {
		return err
	}
	defer lib.Close()

	ctx := cmd.Context()
	svc := lib.playback(false)
	since, err := svc.LastAccessCheck(ctx)
	if err != nil {
		return err
	}
	if since.IsZero() {
		util.InfoLog("First access check, considering every file")
	} else {
		util.InfoLog("Checking for access since %s", since.Local().Format(time.DateTime))
	}

	checkedAt := time.Now()
	accessed, err := playback.NewAccessDetector(lib.store).Detect(ctx, since)
	if err != nil {
		return err
	}

	if len(accessed) > 0 {
		rows := make([][]string, 0, len(accessed))
		for _, a := range accessed {
			rows = append(rows, []string{fmt.Sprintf("%d", a.VideoID), a.Essential, a.AccessedAt.Local().Format(time.DateTime)})
		}
		fmt.Println(renderTable([]string{"ID", "Name", "Accessed"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft}))
	}
	if dryRun {
		util.InfoLog("Dry run: %d accessed files not recorded", len(accessed))
		return nil
	}

	recorded, err := svc.RecordAccessed(ctx, accessed, checkedAt)
	if err != nil {
		return err
	}
	util.SuccessLog("Recorded %d viewings from file access", recorded)
	return nil
}
