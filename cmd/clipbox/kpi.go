package main

import (
	"fmt"

	"github.com/franz/clipbox/internal/filename"
	"github.com/spf13/cobra"
)

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Show judging progress",
	Long: `Show how many available videos are judged, the judged rate and how many
videos were judged today. Use --levels for the count per favorite level.`,
	RunE: runKPI,
}

func init() {
	rootCmd.AddCommand(kpiCmd)

	kpiCmd.Flags().Bool("levels", false, "Also show the number of videos per level")
}

func runKPI(cmd *cobra.Command, args []string) error {
	showLevels, _ := cmd.Flags().GetBool("levels")

	lib, err := openLibrary(false)
	if err != nil {
		return err
	}
	defer lib.Close()

	svc := lib.analysis()
	kpi, err := svc.KPI(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(renderTable(
		[]string{"Unjudged", "Judged", "Rate", "Judged today"},
		[][]string{{
			fmt.Sprintf("%d", kpi.Unjudged),
			fmt.Sprintf("%d", kpi.Judged),
			fmt.Sprintf("%.1f%%", kpi.JudgedRate),
			fmt.Sprintf("%d", kpi.TodayJudged),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))

	if !showLevels {
		return nil
	}
	dist, err := svc.LevelDistribution(cmd.Context())
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(dist))
	for _, lc := range dist {
		rows = append(rows, []string{levelCell(lc.Level), filename.LevelLabel(lc.Level), fmt.Sprintf("%d", lc.Count)})
	}
	fmt.Println(renderTable([]string{"Level", "Label", "Videos"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight}))
	return nil
}
