package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/franz/clipbox/internal/filename"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var judgeCmd = &cobra.Command{
	Use:   "judge <id> <level|none>",
	Short: "Set a video's favorite level",
	Long: `Set the favorite level of a video (0-4), or clear it with "none".

The file is renamed so its prefix carries the new level:

  none  name.mp4
  0     _name.mp4
  1     #_name.mp4
  ...
  4     ####_name.mp4

The change and the time the rename took are recorded in the judgment history.`,
	Args: cobra.ExactArgs(2),
	RunE: runJudge,
}

func init() {
	rootCmd.AddCommand(judgeCmd)
}

// parseLevel accepts 0..4, or "none"/"unjudged"/-1 which return nil
func parseLevel(arg string) (*int, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "none", "unjudged", "-":
		return nil, nil
	}
	level, err := strconv.Atoi(arg)
	if err != nil || !filename.ValidLevel(level) {
		return nil, fmt.Errorf("%w: invalid level %q", util.ErrValidation, arg)
	}
	if level == filename.LevelUnjudged {
		return nil, nil
	}
	return &level, nil
}

func runJudge(cmd *cobra.Command, args []string) error {
	id, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	level, err := parseLevel(args[1])
	if err != nil {
		return err
	}

	lib, err := openLibrary(true)
	if err != nil {
		return err
	}
	defer lib.Close()

	result, err := lib.judge().SetFavoriteLevel(cmd.Context(), id, level)
	if err != nil {
		return err
	}

	if result.Renamed {
		util.InfoLog("Renamed: %s -> %s", result.OldPath, result.NewPath)
	}
	util.SuccessLog("Video %d: %s -> %s", result.VideoID,
		filename.LevelLabel(result.OldLevel), filename.LevelLabel(result.NewLevel))
	return nil
}
