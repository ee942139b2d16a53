package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/franz/clipbox/internal/analysis"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

// addPeriodFlags registers --period, --from and --to on cmd
func addPeriodFlags(cmd *cobra.Command, defaultPeriod string) {
	cmd.Flags().String("period", defaultPeriod, "Time range: "+strings.Join(analysis.Presets(), ", "))
	cmd.Flags().String("from", "", "First day of a custom range (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Last day of a custom range, included (YYYY-MM-DD)")
}

// periodWindow resolves the period flags. Giving --from or --to implies a
// custom period.
func periodWindow(cmd *cobra.Command, now time.Time) (store.Window, error) {
	preset, _ := cmd.Flags().GetString("period")
	fromArg, _ := cmd.Flags().GetString("from")
	toArg, _ := cmd.Flags().GetString("to")

	from, err := parseDay(fromArg)
	if err != nil {
		return store.Window{}, err
	}
	to, err := parseDay(toArg)
	if err != nil {
		return store.Window{}, err
	}
	if (fromArg != "" || toArg != "") && !cmd.Flags().Changed("period") {
		preset = analysis.PeriodCustom
	}
	return analysis.ResolvePeriod(preset, from, to, now)
}

func parseDay(arg string) (time.Time, error) {
	if arg == "" {
		return time.Time{}, nil
	}
	day, err := time.ParseInLocation(time.DateOnly, arg, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", util.ErrValidation, arg)
	}
	return day, nil
}

func describeWindow(w store.Window) string {
	switch {
	case w.Start.IsZero() && w.End.IsZero():
		return "all time"
	case w.End.IsZero():
		return "since " + w.Start.Local().Format(time.DateOnly)
	case w.Start.IsZero():
		return "before " + w.End.Local().Format(time.DateOnly)
	}
	return fmt.Sprintf("%s to %s", w.Start.Local().Format(time.DateOnly),
		w.End.Add(-time.Nanosecond).Local().Format(time.DateOnly))
}
