package main

import (
	"fmt"

	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <id>",
	Short: "Open a video in the player and record the viewing",
	Long: `Launch the configured player (player.command) or the system default
handler for a video. The viewing and the play are recorded and the video is
flagged as under review until it is judged.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

var viewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Record a viewing that happened outside clipbox",
	Args:  cobra.ExactArgs(1),
	RunE:  runView,
}

var likeCmd = &cobra.Command{
	Use:   "like <id>",
	Short: "Add a like to a video",
	Args:  cobra.ExactArgs(1),
	RunE:  runLike,
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(likeCmd)

	playCmd.Flags().String("trigger", "cli", "What started the playback, stored in the play history")
	playCmd.Flags().Bool("no-launch", false, "Record the play without starting a player")
}

func runPlay(cmd *cobra.Command, args []string) error {
	id, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	trigger, _ := cmd.Flags().GetString("trigger")
	noLaunch, _ := cmd.Flags().GetBool("no-launch")

	lib, err := openLibrary(true)
	if err != nil {
		return err
	}
	defer lib.Close()

	result, err := lib.playback(!noLaunch).Play(cmd.Context(), id, trigger)
	if err != nil {
		return err
	}
	util.SuccessLog("Playing %s with %s", result.Path, result.Player)
	return nil
}

func runView(cmd *cobra.Command, args []string) error {
	id, err := parseVideoID(args[0])
	if err != nil {
		return err
	}

	lib, err := openLibrary(true)
	if err != nil {
		return err
	}
	defer lib.Close()

	if err := lib.playback(false).MarkViewed(cmd.Context(), id); err != nil {
		return err
	}
	util.SuccessLog("Viewing recorded for video %d", id)
	return nil
}

func runLike(cmd *cobra.Command, args []string) error {
	id, err := parseVideoID(args[0])
	if err != nil {
		return err
	}

	lib, err := openLibrary(true)
	if err != nil {
		return err
	}
	defer lib.Close()

	total, err := lib.playback(false).AddLike(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Printf("Video %d now has %d likes\n", id, total)
	return nil
}
