package main

import (
	"fmt"
	"time"

	"github.com/franz/clipbox/internal/analysis"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank videos by views, viewing days or likes",
	Long: `Show the top videos over a period.

  views  number of viewings
  days   number of distinct days with at least one viewing
  likes  number of likes

Videos without any score in the period are not listed.`,
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("by", "views", "Ranking: views, days or likes")
	rankCmd.Flags().IntP("top", "n", 20, "Number of entries")
	rankCmd.Flags().String("min-level", "", "Only videos judged at this level or higher (0-4)")
	rankCmd.Flags().Bool("available", false, "Only videos whose file is present")
	rankCmd.Flags().Bool("include-deleted", false, "Include deleted videos")
	addPeriodFlags(rankCmd, analysis.PeriodAll)
}

func runRank(cmd *cobra.Command, args []string) error {
	byArg, _ := cmd.Flags().GetString("by")
	by, err := analysis.ParseRankBy(byArg)
	if err != nil {
		return err
	}
	window, err := periodWindow(cmd, time.Now())
	if err != nil {
		return err
	}

	opts := analysis.RankOptions{By: by, Window: window}
	opts.Top, _ = cmd.Flags().GetInt("top")
	opts.IncludeDeleted, _ = cmd.Flags().GetBool("include-deleted")
	if available, _ := cmd.Flags().GetBool("available"); available {
		opts.Available = store.Bool(true)
	}
	if arg, _ := cmd.Flags().GetString("min-level"); arg != "" {
		level, err := parseLevel(arg)
		if err != nil {
			return err
		}
		if level == nil {
			return fmt.Errorf("%w: --min-level needs a level from 0 to 4", util.ErrValidation)
		}
		opts.MinLevel = level
	}

	lib, err := openLibrary(false)
	if err != nil {
		return err
	}
	defer lib.Close()

	ranked, err := lib.analysis().Rank(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		util.InfoLog("Nothing to rank for %s", describeWindow(window))
		return nil
	}

	rows := make([][]string, 0, len(ranked))
	for _, r := range ranked {
		row := append([]string{fmt.Sprintf("%d", r.Rank)}, videoRow(r.Video)...)
		row = append(row, fmt.Sprintf("%d", r.Score), stateCell(r.Video))
		rows = append(rows, row)
	}
	fmt.Printf("Top %s, %s\n", by, describeWindow(window))
	fmt.Println(renderTable(
		[]string{"#", "ID", "Level", "Name", string(by), "State"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}
