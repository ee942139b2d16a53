package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var countersCmd = &cobra.Command{
	Use:   "counters",
	Short: "Show the resettable view counters A, B and C",
	Long: `Counters A, B and C count viewings since their start time, like trip
meters. They start on the first viewing after they were idle and can be reset
independently.`,
	Args: cobra.NoArgs,
	RunE: runCounters,
}

var countersResetCmd = &cobra.Command{
	Use:   "reset <A|B|C>",
	Short: "Restart a counter from now",
	Args:  cobra.ExactArgs(1),
	RunE:  runCountersReset,
}

func init() {
	rootCmd.AddCommand(countersCmd)
	countersCmd.AddCommand(countersResetCmd)
}

func runCounters(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary(false)
	if err != nil {
		return err
	}
	defer lib.Close()

	counters, err := lib.analysis().Counters(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(counters))
	for _, c := range counters {
		started := "not started"
		if !c.StartTime.IsZero() {
			started = fmt.Sprintf("%s (%s)", c.StartTime.Local().Format(time.DateTime), timeCell(c.StartTime))
		}
		rows = append(rows, []string{c.ID, fmt.Sprintf("%d", c.Views), started})
	}
	fmt.Println(renderTable([]string{"Counter", "Views", "Since"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft}))
	return nil
}

func runCountersReset(cmd *cobra.Command, args []string) error {
	id := strings.ToUpper(args[0])

	lib, err := openLibrary(true)
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.store.ResetCounter(cmd.Context(), id, time.Now()); err != nil {
		return err
	}
	util.SuccessLog("Counter %s reset", id)
	return nil
}
