package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/franz/clipbox/internal/analysis"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show viewings and judgments over time",
	Long: `Count viewings (default) or judgments per day, week or month. Buckets use
local time and weeks start on Monday; empty buckets are shown as zero.`,
	RunE: runTrend,
}

func init() {
	rootCmd.AddCommand(trendCmd)

	trendCmd.Flags().StringP("granularity", "g", "daily", "Bucket size: daily, weekly or monthly")
	trendCmd.Flags().Bool("judgments", false, "Count judgments instead of viewings")
	addPeriodFlags(trendCmd, analysis.Period30d)
}

func runTrend(cmd *cobra.Command, args []string) error {
	gArg, _ := cmd.Flags().GetString("granularity")
	g, err := analysis.ParseGranularity(gArg)
	if err != nil {
		return err
	}
	window, err := periodWindow(cmd, time.Now())
	if err != nil {
		return err
	}
	judgments, _ := cmd.Flags().GetBool("judgments")

	lib, err := openLibrary(false)
	if err != nil {
		return err
	}
	defer lib.Close()

	svc := lib.analysis()
	var points []analysis.TrendPoint
	what := "viewings"
	if judgments {
		what = "judgments"
		points, err = svc.JudgmentTrend(cmd.Context(), window, g)
	} else {
		points, err = svc.ViewingTrend(cmd.Context(), window, g)
	}
	if err != nil {
		return err
	}
	if len(points) == 0 {
		util.InfoLog("No %s for %s", what, describeWindow(window))
		return nil
	}

	peak := 0
	for _, p := range points {
		peak = max(peak, p.Count)
	}
	barWidth := min(max(util.TerminalWidth(80)-40, 10), 50)

	layout := time.DateOnly
	if g == analysis.Monthly {
		layout = "2006-01"
	}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", p.Count*barWidth/peak)
		}
		rows = append(rows, []string{p.Start.Format(layout), fmt.Sprintf("%d", p.Count), bar})
	}
	fmt.Printf("%s %s, %s\n", strings.ToUpper(what[:1])+what[1:], g, describeWindow(window))
	fmt.Println(renderTable([]string{"Period", "Count", ""}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft}))
	return nil
}
