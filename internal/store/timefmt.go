package store

import (
	"database/sql"
	"time"
)

// timeLayout is fixed width so lexical order equals chronological order
const timeLayout = "2006-01-02 15:04:05.000"

var legacyLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

var nowUTC = func() time.Time { return time.Now().UTC() }

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// nullableTime stores the zero time as NULL
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.ParseInLocation(timeLayout, s, time.UTC); err == nil {
		return t
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseNullTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	return parseTime(s.String)
}

// Window is a half-open [Start, End) time range. A zero bound is open.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// clause renders the window as SQL over column, with its arguments
func (w Window) clause(column string) (string, []any) {
	var sqlText string
	var args []any
	if !w.Start.IsZero() {
		sqlText += " AND " + column + " >= ?"
		args = append(args, formatTime(w.Start))
	}
	if !w.End.IsZero() {
		sqlText += " AND " + column + " < ?"
		args = append(args, formatTime(w.End))
	}
	return sqlText, args
}
