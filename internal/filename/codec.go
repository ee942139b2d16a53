// Package filename encodes a video's favorite level and selection state into
// a filesystem-safe filename prefix and decodes it back.
//
// A name is laid out as [marker][#...#_]essential where marker is "!"
// (selection pending) or "+" (selection completed), and the run of '#'
// characters before the underscore is the favorite level. A bare "_" is
// level 0; no underscore prefix at all means the file is unjudged.
package filename

import (
	"regexp"
	"strings"
)

const (
	// PendingMarker flags a file that still needs manual selection triage
	PendingMarker = "!"

	// CompletedMarker flags a file whose selection triage is done
	CompletedMarker = "+"

	// LevelUnjudged is the level of a file that carries no level prefix
	LevelUnjudged = -1

	// MinLevel and MaxLevel bound the levels a judgment may assign
	MinLevel = -1
	MaxLevel = 4
)

var levelPrefix = regexp.MustCompile(`^(#*)_(.+)$`)

// Parsed is the decoded form of a video filename
type Parsed struct {
	Level              int
	Essential          string
	NeedsSelection     bool
	SelectionCompleted bool
}

// Decode splits a basename into its favorite level, essential name and
// selection markers. At most one of the two selection markers is honored.
func Decode(name string) Parsed {
	var p Parsed

	switch {
	case strings.HasPrefix(name, PendingMarker):
		p.NeedsSelection = true
		name = name[len(PendingMarker):]
	case strings.HasPrefix(name, CompletedMarker):
		p.SelectionCompleted = true
		name = name[len(CompletedMarker):]
	}

	if m := levelPrefix.FindStringSubmatch(name); m != nil {
		p.Level = len(m[1])
		p.Essential = m[2]
		return p
	}

	p.Level = LevelUnjudged
	p.Essential = name
	return p
}

// Encode builds the on-disk basename for an essential name at the given
// level. prependPlus adds the selection-completed marker.
func Encode(level int, essential string, prependPlus bool) string {
	var b strings.Builder

	if prependPlus {
		b.WriteString(CompletedMarker)
	}
	if level >= 0 {
		b.WriteString(strings.Repeat("#", level))
		b.WriteByte('_')
	}
	b.WriteString(essential)

	return b.String()
}

// ValidLevel reports whether level may be assigned by a judgment
func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

var levelLabels = map[int]string{
	-1: "unjudged",
	0:  "neutral",
	1:  "somewhat liked",
	2:  "favorite",
	3:  "top favorite",
	4:  "all-time favorite",
}

// LevelLabel returns the human-readable name of a level
func LevelLabel(level int) string {
	if label, ok := levelLabels[level]; ok {
		return label
	}
	return "level " + strings.Repeat("#", max(level, 0))
}

// DisplayPrefix renders the level the way it appears on disk, for badges
func DisplayPrefix(level int) string {
	if level < 0 {
		return "-"
	}
	return strings.Repeat("#", level) + "_"
}
