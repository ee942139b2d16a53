package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/franz/clipbox/internal/filename"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if width := util.TerminalWidth(0); width > 0 {
		tw.SetAllowedRowLength(width)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// videoRow is the common leading columns for tables of videos
func videoRow(v *store.Video) []string {
	return []string{
		fmt.Sprintf("%d", v.ID),
		levelCell(v.Level),
		v.EssentialFilename,
	}
}

func levelCell(level int) string {
	if level == filename.LevelUnjudged {
		return "-"
	}
	return fmt.Sprintf("%d %s", level, filename.DisplayPrefix(level))
}

func stateCell(v *store.Video) string {
	switch {
	case v.IsDeleted:
		return "deleted"
	case !v.IsAvailable:
		return "missing"
	case v.IsJudging:
		return "judging"
	case v.NeedsSelection:
		return "selection"
	}
	return "ok"
}

func timeCell(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
