package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/franz/clipbox/internal/filename"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Pick a random unjudged video",
	Long: `Pick an available, unjudged video at random, for working through the
backlog. --level picks from a judged level instead; --play starts it.`,
	RunE: runRandom,
}

func init() {
	rootCmd.AddCommand(randomCmd)

	randomCmd.Flags().String("level", "none", "Level to pick from (0-4 or none)")
	randomCmd.Flags().Bool("play", false, "Play the picked video")
}

func runRandom(cmd *cobra.Command, args []string) error {
	levelArg, _ := cmd.Flags().GetString("level")
	level, err := parseLevel(levelArg)
	if err != nil {
		return err
	}
	play, _ := cmd.Flags().GetBool("play")

	filter := store.VideoFilter{
		Available: store.Bool(true),
		Deleted:   store.Bool(false),
		Levels:    []int{filename.LevelUnjudged},
	}
	if level != nil {
		filter.Levels = []int{*level}
	}

	lib, err := openLibrary(play)
	if err != nil {
		return err
	}
	defer lib.Close()

	ctx := cmd.Context()
	videos, err := lib.store.ListVideos(ctx, filter)
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		return fmt.Errorf("no available videos at level %s", levelArg)
	}

	v := videos[rand.IntN(len(videos))]
	fmt.Println(renderTable(
		[]string{"ID", "Level", "Name", "Path"},
		[][]string{append(videoRow(v), v.CurrentFullPath)},
		[]columnAlignment{alignRight},
	))

	if !play {
		return nil
	}
	result, err := lib.playback(true).Play(ctx, v.ID, "random")
	if err != nil {
		return err
	}
	util.SuccessLog("Playing %s with %s", result.Path, result.Player)
	return nil
}
