package main

import (
	"fmt"

	"github.com/franz/clipbox/internal/config"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Work with the selection folder",
	Long: `The selection folder holds newly collected videos waiting for a first
judgment. Files there are flagged as needing selection until they are judged.`,
}

var selectScanCmd = &cobra.Command{
	Use:   "scan [folder]",
	Short: "Register the files in the selection folder",
	Long: `Scan a single folder (default: selection_folder from the config) and add or
update its videos. Unlike a full scan this never marks anything unavailable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSelectScan,
}

var selectKPICmd = &cobra.Command{
	Use:   "kpi [folder]",
	Short: "Show judging progress for the selection folder",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSelectKPI,
}

func init() {
	rootCmd.AddCommand(selectCmd)
	selectCmd.AddCommand(selectScanCmd)
	selectCmd.AddCommand(selectKPICmd)
}

func selectionFolder(lib *library, args []string) (string, error) {
	if len(args) == 1 {
		return config.ExpandPath(args[0])
	}
	if lib.cfg.SelectionFolder == "" {
		return "", fmt.Errorf("%w: no folder given and selection_folder is not set", util.ErrInvalidConfig)
	}
	return lib.cfg.SelectionFolder, nil
}

func runSelectScan(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary(true)
	if err != nil {
		return err
	}
	defer lib.Close()

	folder, err := selectionFolder(lib, args)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible(cmd.Context())
	defer cancel()

	result, err := lib.scanner().ScanSingleRoot(ctx, folder)
	if err != nil {
		return err
	}
	if len(result.RootsSkipped) > 0 {
		return fmt.Errorf("%w: %s", util.ErrFileMissing, folder)
	}
	for _, e := range result.Errors {
		util.WarnLog("%v", e)
	}
	fmt.Printf("%d video files in %s\n", result.FilesFound, folder)
	return nil
}

func runSelectKPI(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary(false)
	if err != nil {
		return err
	}
	defer lib.Close()

	folder, err := selectionFolder(lib, args)
	if err != nil {
		return err
	}

	kpi, err := lib.analysis().SelectionKPI(cmd.Context(), folder)
	if err != nil {
		return err
	}

	fmt.Println(renderTable(
		[]string{"Folder", "Unselected", "Judged", "Rate", "Today"},
		[][]string{{
			kpi.Folder,
			fmt.Sprintf("%d", kpi.Unselected),
			fmt.Sprintf("%d", kpi.Judged),
			fmt.Sprintf("%.1f%%", kpi.JudgedRate),
			fmt.Sprintf("%d", kpi.TodayJudged),
		}},
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}
