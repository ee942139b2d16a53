package main

import (
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Hide a video from the library",
	Long: `Mark a video as deleted. The file is not touched and the history is kept;
use restore to bring it back. --purge removes the record and all of its
history from the database for good (the file still stays on disk).`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a deleted video",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(restoreCmd)

	deleteCmd.Flags().Bool("purge", false, "Remove the record and its history permanently")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	purge, _ := cmd.Flags().GetBool("purge")

	lib, err := openLibrary(true)
	if err != nil {
		return err
	}
	defer lib.Close()

	if purge {
		if err := lib.store.PurgeVideo(cmd.Context(), id); err != nil {
			return err
		}
		util.SuccessLog("Video %d purged", id)
		return nil
	}

	if err := lib.store.SetDeleted(cmd.Context(), id, true); err != nil {
		return err
	}
	util.SuccessLog("Video %d deleted", id)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	id, err := parseVideoID(args[0])
	if err != nil {
		return err
	}

	lib, err := openLibrary(true)
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.store.SetDeleted(cmd.Context(), id, false); err != nil {
		return err
	}
	util.SuccessLog("Video %d restored", id)
	return nil
}
