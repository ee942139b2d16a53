package main

import (
	"fmt"

	"github.com/franz/clipbox/internal/report"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a Markdown summary of the library",
	Long: `Generate a Markdown report with judging progress, the selection folder,
level and storage breakdowns, the most viewed and forgotten favorites, the
view counters and the most frequent errors from the event logs.

Without --out the report is printed to stdout.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("out", "o", "", "Write the report to this file")
	reportCmd.Flags().IntP("top", "n", 20, "Entries per ranking section")
}

func runReport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	top, _ := cmd.Flags().GetInt("top")

	lib, err := openLibrary(false)
	if err != nil {
		return err
	}
	defer lib.Close()

	rep, err := report.GenerateLibraryReport(cmd.Context(), lib.analysis(), report.ReportOptions{
		DatabasePath:    lib.cfg.DB,
		EventLogDir:     lib.cfg.EventLogDir,
		SelectionFolder: lib.cfg.SelectionFolder,
		TopN:            top,
	})
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if out == "" {
		fmt.Print(report.RenderMarkdown(rep))
		return nil
	}
	if err := report.WriteMarkdownReport(rep, out); err != nil {
		return err
	}
	util.SuccessLog("Report written to %s", out)
	return nil
}
