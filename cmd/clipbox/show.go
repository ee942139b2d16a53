package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/clipbox/internal/filename"
	"github.com/franz/clipbox/internal/meta"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show everything known about a video",
	Long: `Display a video's record, its viewing and judgment history, likes, and
what can be read from the file itself (embedded tags, and stream details
when ffprobe is installed).`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Int("history", 10, "Number of history rows to show per section")
	showCmd.Flags().Bool("no-probe", false, "Do not read the file")
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseVideoID(args[0])
	if err != nil {
		return err
	}
	historyRows, _ := cmd.Flags().GetInt("history")
	noProbe, _ := cmd.Flags().GetBool("no-probe")

	lib, err := openLibrary(false)
	if err != nil {
		return err
	}
	defer lib.Close()

	ctx := cmd.Context()
	v, err := lib.store.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("video %d: %w", id, util.ErrNotFound)
	}

	likes, err := lib.store.LikeCounts(ctx, []int64{id})
	if err != nil {
		return err
	}
	viewings, err := lib.store.VideoViewings(ctx, id)
	if err != nil {
		return err
	}
	judgments, err := lib.store.VideoJudgments(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Video %d: %s\n", v.ID, v.EssentialFilename)
	fmt.Println(renderTable(
		[]string{"Field", "Value"},
		[][]string{
			{"Path", v.CurrentFullPath},
			{"Level", fmt.Sprintf("%s (%s)", levelCell(v.Level), filename.LevelLabel(v.Level))},
			{"Performer", v.Performer},
			{"Size", humanize.Bytes(uint64(max(v.FileSize, 0)))},
			{"Storage", v.StorageLocation},
			{"State", stateCell(v)},
			{"Views", fmt.Sprintf("%d", len(viewings))},
			{"Likes", fmt.Sprintf("%d", likes[id])},
			{"Modified", timeCell(v.LastFileModified)},
			{"Added", timeCell(v.CreatedAt)},
			{"Last scan", timeCell(v.LastScannedAt)},
		},
		nil,
	))

	if !noProbe && v.IsAvailable {
		printFileInfo(cmd, v.CurrentFullPath)
	}

	if len(viewings) > 0 {
		fmt.Println("\nViewings:")
		rows := [][]string{}
		for i := len(viewings) - 1; i >= 0 && len(rows) < historyRows; i-- {
			e := viewings[i]
			rows = append(rows, []string{e.ViewedAt.Local().Format(time.DateTime), e.Method})
		}
		fmt.Println(renderTable([]string{"When", "Method"}, rows, nil))
	}

	if len(judgments) > 0 {
		fmt.Println("\nJudgments:")
		rows := [][]string{}
		for i := len(judgments) - 1; i >= 0 && len(rows) < historyRows; i-- {
			j := judgments[i]
			rename := "-"
			if j.RenameDurationMs > 0 {
				rename = fmt.Sprintf("%dms", j.RenameDurationMs)
			}
			rows = append(rows, []string{
				j.JudgedAt.Local().Format(time.DateTime),
				fmt.Sprintf("%s -> %s", levelCell(j.OldLevel), levelCell(j.NewLevel)),
				rename,
				yesNo(j.WasSelectionJudgment),
			})
		}
		fmt.Println(renderTable([]string{"When", "Change", "Rename", "Selection"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
	}
	return nil
}

func printFileInfo(cmd *cobra.Command, path string) {
	info, err := meta.Inspect(cmd.Context(), path)
	if err != nil {
		util.WarnLog("Could not read %s: %v", path, err)
		return
	}

	var rows [][]string
	if p := info.Probe; p != nil {
		rows = append(rows,
			[]string{"Container", p.Container},
			[]string{"Duration", p.Duration.Round(time.Second).String()},
			[]string{"Video", fmt.Sprintf("%s %s @ %.2f fps", p.VideoCodec, p.Resolution(), p.FrameRate)},
			[]string{"Audio", p.AudioCodec},
			[]string{"Bitrate", fmt.Sprintf("%d kb/s", p.BitrateKbps)},
		)
	}
	if t := info.Tags; t != nil && !t.Empty() {
		for _, kv := range [][2]string{
			{"Title", t.Title}, {"Artist", t.Artist}, {"Album", t.Album},
			{"Genre", t.Genre}, {"Comment", t.Comment},
		} {
			if kv[1] != "" {
				rows = append(rows, []string{kv[0], kv[1]})
			}
		}
		if t.Year > 0 {
			rows = append(rows, []string{"Year", fmt.Sprintf("%d", t.Year)})
		}
	}
	if len(rows) == 0 {
		util.DebugLog("No stream details or tags for %s", path)
		return
	}

	fmt.Println("\nFile:")
	fmt.Println(renderTable([]string{"Field", "Value"}, rows, nil))
}
