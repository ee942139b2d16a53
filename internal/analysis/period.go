package analysis

import (
	"fmt"
	"time"

	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
)

// Period presets accepted by ResolvePeriod
const (
	PeriodAll    = "all"
	Period7d     = "7d"
	Period30d    = "30d"
	Period90d    = "90d"
	Period180d   = "180d"
	PeriodCustom = "custom"
)

var presetDays = map[string]int{
	Period7d:   7,
	Period30d:  30,
	Period90d:  90,
	Period180d: 180,
}

// ResolvePeriod turns a preset into a window ending at now. For the custom
// preset from and to are calendar days and both are included; a zero bound
// leaves that side open.
func ResolvePeriod(preset string, from, to, now time.Time) (store.Window, error) {
	switch preset {
	case "", PeriodAll:
		return store.Window{}, nil
	case PeriodCustom:
		if !from.IsZero() && !to.IsZero() && from.After(to) {
			return store.Window{}, fmt.Errorf("%w: start date %s is after end date %s",
				util.ErrValidation, from.Format("2006-01-02"), to.Format("2006-01-02"))
		}
		var w store.Window
		if !from.IsZero() {
			w.Start = startOfDay(from)
		}
		if !to.IsZero() {
			w.End = startOfDay(to).AddDate(0, 0, 1)
		}
		return w, nil
	}

	days, ok := presetDays[preset]
	if !ok {
		return store.Window{}, fmt.Errorf("%w: unknown period %q", util.ErrValidation, preset)
	}
	return store.Window{Start: now.AddDate(0, 0, -days), End: now}, nil
}

// Presets lists the period names in display order
func Presets() []string {
	return []string{PeriodAll, Period7d, Period30d, Period90d, Period180d, PeriodCustom}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
