package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/franz/clipbox/internal/filename"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List videos",
	Long: `List videos in the library. By default deleted videos are hidden and every
other video is shown, available or not.

Examples:
  clipbox list --level 3 --level 4
  clipbox list --level none --available
  clipbox list --performer "Sunny" --sort size --desc
  clipbox list --storage EXTERNAL --missing`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringSlice("level", nil, "Only these levels (0-4 or none, repeatable)")
	listCmd.Flags().StringSlice("performer", nil, "Only these performers (repeatable)")
	listCmd.Flags().StringSlice("storage", nil, "Only these storage locations, e.g. C_DRIVE (repeatable)")
	listCmd.Flags().StringSlice("root", nil, "Only videos inside these folders (repeatable)")
	listCmd.Flags().Bool("available", false, "Only videos whose file is present")
	listCmd.Flags().Bool("missing", false, "Only videos whose file is missing")
	listCmd.Flags().Bool("deleted", false, "Only deleted videos")
	listCmd.Flags().Bool("judging", false, "Only videos played but not judged yet")
	listCmd.Flags().Bool("selection", false, "Only videos waiting in the selection folder")
	listCmd.Flags().String("sort", "id", "Sort by id, name, level, size, modified, created or path")
	listCmd.Flags().Bool("desc", false, "Sort descending")
	listCmd.Flags().IntP("limit", "n", 100, "Maximum rows (0 = all)")
	listCmd.Flags().Int("offset", 0, "Skip this many rows")
}

func listFilter(cmd *cobra.Command) (store.VideoFilter, error) {
	f := store.VideoFilter{Deleted: store.Bool(false)}
	flags := cmd.Flags()

	levels, _ := flags.GetStringSlice("level")
	for _, arg := range levels {
		level, err := parseLevel(arg)
		if err != nil {
			return f, err
		}
		if level == nil {
			f.Levels = append(f.Levels, filename.LevelUnjudged)
		} else {
			f.Levels = append(f.Levels, *level)
		}
	}
	f.Performers, _ = flags.GetStringSlice("performer")
	f.StorageLocations, _ = flags.GetStringSlice("storage")
	f.Roots, _ = flags.GetStringSlice("root")

	available, _ := flags.GetBool("available")
	missing, _ := flags.GetBool("missing")
	if available && missing {
		return f, fmt.Errorf("%w: --available and --missing are exclusive", util.ErrValidation)
	}
	if available {
		f.Available = store.Bool(true)
	}
	if missing {
		f.Available = store.Bool(false)
	}
	if deleted, _ := flags.GetBool("deleted"); deleted {
		f.Deleted = store.Bool(true)
	}
	if judging, _ := flags.GetBool("judging"); judging {
		f.Judging = store.Bool(true)
	}
	if selection, _ := flags.GetBool("selection"); selection {
		f.NeedsSelection = store.Bool(true)
	}

	f.OrderBy, _ = flags.GetString("sort")
	f.Desc, _ = flags.GetBool("desc")
	f.Limit, _ = flags.GetInt("limit")
	f.Offset, _ = flags.GetInt("offset")
	return f, nil
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := listFilter(cmd)
	if err != nil {
		return err
	}

	lib, err := openLibrary(false)
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
		util.InfoLog("No videos match")
		return nil
	}

	total := filter
	total.Limit, total.Offset = 0, 0
	count, err := lib.store.CountVideos(ctx, total)
	if err != nil {
		return err
	}

	ids := make([]int64, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	views, err := lib.analysis().ViewCounts(ctx, ids, store.Window{})
	if err != nil {
		return err
	}
	likes, err := lib.store.LikeCounts(ctx, ids)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		row := videoRow(v)
		row = append(row,
			v.Performer,
			humanize.Bytes(uint64(max(v.FileSize, 0))),
			v.StorageLocation,
			fmt.Sprintf("%d", views[v.ID]),
			fmt.Sprintf("%d", likes[v.ID]),
			stateCell(v),
		)
		rows = append(rows, row)
	}

	fmt.Println(renderTable(
		[]string{"ID", "Level", "Name", "Performer", "Size", "Storage", "Views", "Likes", "State"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft},
	))
	fmt.Printf("%d of %d videos\n", len(videos), count)
	return nil
}
