package main

import (
	"fmt"
	"time"

	"github.com/franz/clipbox/internal/analysis"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var playsCmd = &cobra.Command{
	Use:   "plays",
	Short: "List the most recent player launches",
	Long: `Show the newest entries of the play history: which file was opened, with
which player, and what started it (play --trigger, or random).

The period flags narrow the newest --limit entries to a time range.`,
	Args: cobra.NoArgs,
	RunE: runPlays,
}

func init() {
	rootCmd.AddCommand(playsCmd)

	playsCmd.Flags().Int("limit", 20, "Number of history rows to read")
	addPeriodFlags(playsCmd, analysis.PeriodAll)
}

func runPlays(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	w, err := periodWindow(cmd, time.Now())
	if err != nil {
		return err
	}

	lib, err := openLibrary(false)
	if err != nil {
		return err
	}
	defer lib.Close()

	plays, err := lib.store.RecentPlays(cmd.Context(), limit)
	if err != nil {
		return err
	}
	plays = playsInWindow(plays, w)
	if len(plays) == 0 {
		util.InfoLog("No plays %s", describeWindow(w))
		return nil
	}

	rows := make([][]string, 0, len(plays))
	for _, p := range plays {
		rows = append(rows, []string{
			p.PlayedAt.Local().Format(time.DateTime),
			fmt.Sprintf("%d", p.VideoID),
			p.Title,
			p.Trigger,
			p.Player,
		})
	}
	fmt.Println(renderTable([]string{"When", "ID", "Title", "Trigger", "Player"}, rows,
		[]columnAlignment{alignLeft, alignRight}))
	return nil
}

func playsInWindow(plays []store.Play, w store.Window) []store.Play {
	var kept []store.Play
	for _, p := range plays {
		if w.Contains(p.PlayedAt) {
			kept = append(kept, p)
		}
	}
	return kept
}
