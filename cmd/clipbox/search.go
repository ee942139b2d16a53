package main

import (
	"fmt"
	"strings"

	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <term>...",
	Short: "Fuzzy search filenames and performers",
	Long: `Find videos whose filename or performer contains the letters of the search
term in order, ignoring case and accents. Closest matches come first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("limit", "n", 25, "Maximum results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	lib, err := openLibrary(false)
	if err != nil {
		return err
	}
	defer lib.Close()

	hits, err := lib.analysis().Search(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		util.InfoLog("No matches")
		return nil
	}

	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		row := videoRow(h.Video)
		row = append(row, h.Video.Performer, stateCell(h.Video), fmt.Sprintf("%d", h.Distance))
		rows = append(rows, row)
	}
	fmt.Println(renderTable(
		[]string{"ID", "Level", "Name", "Performer", "State", "Distance"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	return nil
}
