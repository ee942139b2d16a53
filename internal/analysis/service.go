// Package analysis answers read-only questions about the library: rankings,
// trends, KPIs and breakdowns. Nothing here writes to the store.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/franz/clipbox/internal/filename"
	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
)

// Service computes aggregates over the store
type Service struct {
	store *store.Store
	cache *Cache
	loc   *time.Location
	now   func() time.Time
}

// Config holds analysis service configuration
type Config struct {
	Store *store.Store
	// CacheTTL keeps results for this long; zero disables the cache
	CacheTTL time.Duration
	// Location decides where days begin for "today" and trend buckets
	Location *time.Location
	Clock    func() time.Time
}

// New creates an analysis service
func New(cfg *Config) *Service {
	s := &Service{
		store: cfg.Store,
		loc:   cfg.Location,
		now:   cfg.Clock,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.cache = NewCache(cfg.CacheTTL, cfg.Store.Generation)
	return s
}

// ViewCounts counts views per video inside w; every id is present
func (s *Service) ViewCounts(ctx context.Context, ids []int64, w store.Window) (map[int64]int, error) {
	return s.store.ViewCounts(ctx, ids, w)
}

// SelectionCounts counts selection judgments per video inside w
func (s *Service) SelectionCounts(ctx context.Context, w store.Window) (map[int64]int, error) {
	judgments, err := s.store.Judgments(ctx, w)
	if err != nil {
		return nil, err
	}
	counts := make(map[int64]int)
	for _, j := range judgments {
		if j.WasSelectionJudgment {
			counts[j.VideoID]++
		}
	}
	return counts, nil
}

// RankBy is the score a ranking orders by
type RankBy string

const (
	RankViews    RankBy = "views"
	RankViewDays RankBy = "days"
	RankLikes    RankBy = "likes"
)

// ParseRankBy accepts views, days or likes
func ParseRankBy(s string) (RankBy, error) {
	switch RankBy(s) {
	case "", RankViews:
		return RankViews, nil
	case RankViewDays, "view_days":
		return RankViewDays, nil
	case RankLikes:
		return RankLikes, nil
	}
	return "", fmt.Errorf("%w: unknown ranking %q", util.ErrValidation, s)
}

// RankOptions selects what a ranking covers
type RankOptions struct {
	By     RankBy
	Window store.Window
	Top    int
	// MinLevel keeps only videos judged at this level or higher
	MinLevel *int
	// Available restricts to available (true) or unavailable (false) videos
	Available      *bool
	IncludeDeleted bool
}

// RankedVideo is one entry of a ranking
type RankedVideo struct {
	Rank  int
	Video *store.Video
	Score int
}

// Rank orders videos by score, highest first. Videos scoring zero are left
// out; ties keep id order.
func (s *Service) Rank(ctx context.Context, opts RankOptions) ([]RankedVideo, error) {
	if opts.Top <= 0 {
		opts.Top = 50
	}
	if opts.By == "" {
		opts.By = RankViews
	}

	key := fmt.Sprintf("rank:%s:%s:%d:%s:%s:%t", opts.By, windowKey(opts.Window), opts.Top,
		optInt(opts.MinLevel), optBool(opts.Available), opts.IncludeDeleted)
	return cached(s.cache, key, func() ([]RankedVideo, error) {
		return s.rank(ctx, opts)
	})
}

func (s *Service) rank(ctx context.Context, opts RankOptions) ([]RankedVideo, error) {
	filter := store.VideoFilter{Available: opts.Available}
	if !opts.IncludeDeleted {
		filter.Deleted = store.Bool(false)
	}
	if opts.MinLevel != nil {
		if !filename.ValidLevel(*opts.MinLevel) {
			return nil, fmt.Errorf("%w: level %d", util.ErrValidation, *opts.MinLevel)
		}
		for l := *opts.MinLevel; l <= filename.MaxLevel; l++ {
			filter.Levels = append(filter.Levels, l)
		}
	}
	videos, err := s.store.ListVideos(ctx, filter)
	if err != nil {
		return nil, err
	}

	var scores map[int64]int
	switch opts.By {
	case RankViews:
		ids := make([]int64, len(videos))
		for i, v := range videos {
			ids[i] = v.ID
		}
		scores, err = s.store.ViewCounts(ctx, ids, opts.Window)
	case RankViewDays:
		scores, err = s.viewDays(ctx, opts.Window)
	case RankLikes:
		scores, err = s.store.LikeTotals(ctx, opts.Window)
	default:
		return nil, fmt.Errorf("%w: unknown ranking %q", util.ErrValidation, opts.By)
	}
	if err != nil {
		return nil, err
	}

	var ranked []RankedVideo
	for _, v := range videos {
		if score := scores[v.ID]; score > 0 {
			ranked = append(ranked, RankedVideo{Video: v, Score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > opts.Top {
		ranked = ranked[:opts.Top]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

// viewDays counts the distinct local calendar days each video was viewed on
func (s *Service) viewDays(ctx context.Context, w store.Window) (map[int64]int, error) {
	events, err := s.store.ViewingEvents(ctx, w)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]map[time.Time]bool)
	for _, e := range events {
		day := startOfDay(e.ViewedAt.In(s.loc))
		if seen[e.VideoID] == nil {
			seen[e.VideoID] = make(map[time.Time]bool)
		}
		seen[e.VideoID][day] = true
	}
	days := make(map[int64]int, len(seen))
	for id, d := range seen {
		days[id] = len(d)
	}
	return days, nil
}

// KPI is the judging progress snapshot
type KPI struct {
	Unjudged    int
	Judged      int
	JudgedRate  float64 // percent of available videos that are judged
	TodayJudged int     // distinct videos judged since local midnight
}

// KPI counts available, non-deleted videos by judged state
func (s *Service) KPI(ctx context.Context) (*KPI, error) {
	return cached(s.cache, "kpi:"+s.today().Format("2006-01-02"), func() (*KPI, error) {
		active := store.VideoFilter{Available: store.Bool(true), Deleted: store.Bool(false)}

		unjudged := active
		unjudged.Levels = []int{filename.LevelUnjudged}
		k := &KPI{}
		var err error
		if k.Unjudged, err = s.store.CountVideos(ctx, unjudged); err != nil {
			return nil, err
		}

		judged := active
		for l := 0; l <= filename.MaxLevel; l++ {
			judged.Levels = append(judged.Levels, l)
		}
		if k.Judged, err = s.store.CountVideos(ctx, judged); err != nil {
			return nil, err
		}
		k.JudgedRate = rate(k.Judged, k.Unjudged+k.Judged)

		today, err := s.store.Judgments(ctx, s.todayWindow())
		if err != nil {
			return nil, err
		}
		k.TodayJudged = distinctVideos(today, nil)
		return k, nil
	})
}

// SelectionKPI is the triage progress snapshot for a folder
type SelectionKPI struct {
	Folder      string
	Unselected  int
	Judged      int
	JudgedRate  float64
	TodayJudged int
}

// SelectionKPI reports triage progress. A non-empty folder restricts every
// count to videos inside it, by path component.
func (s *Service) SelectionKPI(ctx context.Context, folder string) (*SelectionKPI, error) {
	key := "selkpi:" + s.today().Format("2006-01-02") + ":" + folder
	return cached(s.cache, key, func() (*SelectionKPI, error) {
		k := &SelectionKPI{Folder: folder}
		filter := store.VideoFilter{
			NeedsSelection: store.Bool(true),
			Available:      store.Bool(true),
			Deleted:        store.Bool(false),
		}
		var roots []string
		if folder != "" {
			roots = []string{folder}
			filter.Roots = roots
		}
		var err error
		if k.Unselected, err = s.store.CountVideos(ctx, filter); err != nil {
			return nil, err
		}

		var inFolder func(int64) bool
		if folder != "" {
			videos, err := s.store.ListVideos(ctx, store.VideoFilter{Roots: roots})
			if err != nil {
				return nil, err
			}
			ids := make(map[int64]bool, len(videos))
			for _, v := range videos {
				ids[v.ID] = true
			}
			inFolder = func(id int64) bool { return ids[id] }
		}

		all, err := s.store.Judgments(ctx, store.Window{})
		if err != nil {
			return nil, err
		}
		k.Judged = distinctVideos(selectionOnly(all), inFolder)
		k.JudgedRate = rate(k.Judged, k.Unselected+k.Judged)

		today, err := s.store.Judgments(ctx, s.todayWindow())
		if err != nil {
			return nil, err
		}
		k.TodayJudged = distinctVideos(selectionOnly(today), inFolder)
		return k, nil
	})
}

// ForgottenVideo is a video watched often but not lately
type ForgottenVideo struct {
	Video    *store.Video
	Views    int
	LastView time.Time
}

// ForgottenFavorites lists non-deleted videos with at least minViews views
// whose latest view is older than olderThan, most viewed first
func (s *Service) ForgottenFavorites(ctx context.Context, minViews int, olderThan time.Duration) ([]ForgottenVideo, error) {
	cutoff := s.now().Add(-olderThan)
	stats, err := s.store.ViewStats(ctx)
	if err != nil {
		return nil, err
	}
	videos, err := s.store.ListVideos(ctx, store.VideoFilter{Deleted: store.Bool(false)})
	if err != nil {
		return nil, err
	}

	var forgotten []ForgottenVideo
	for _, v := range videos {
		st, ok := stats[v.ID]
		if !ok || st.Count < minViews || !st.LastView.Before(cutoff) {
			continue
		}
		forgotten = append(forgotten, ForgottenVideo{Video: v, Views: st.Count, LastView: st.LastView})
	}
	sort.SliceStable(forgotten, func(i, j int) bool { return forgotten[i].Views > forgotten[j].Views })
	return forgotten, nil
}

// LevelCount is the number of videos at one level
type LevelCount struct {
	Level int
	Count int
}

// LevelDistribution counts non-deleted videos per level, -1 through 4
func (s *Service) LevelDistribution(ctx context.Context) ([]LevelCount, error) {
	return cached(s.cache, "levels", func() ([]LevelCount, error) {
		videos, err := s.store.ListVideos(ctx, store.VideoFilter{Deleted: store.Bool(false)})
		if err != nil {
			return nil, err
		}
		counts := make(map[int]int)
		for _, v := range videos {
			counts[v.Level]++
		}
		var dist []LevelCount
		for l := filename.MinLevel; l <= filename.MaxLevel; l++ {
			dist = append(dist, LevelCount{Level: l, Count: counts[l]})
		}
		return dist, nil
	})
}

// StorageShare is the size of the library on one storage tag
type StorageShare struct {
	Location   string
	Count      int
	Available  int
	TotalBytes int64
}

// StorageBreakdown groups non-deleted videos by storage tag
func (s *Service) StorageBreakdown(ctx context.Context) ([]StorageShare, error) {
	return cached(s.cache, "storage", func() ([]StorageShare, error) {
		videos, err := s.store.ListVideos(ctx, store.VideoFilter{Deleted: store.Bool(false)})
		if err != nil {
			return nil, err
		}
		byTag := make(map[string]*StorageShare)
		for _, v := range videos {
			tag := v.StorageLocation
			if tag == "" {
				tag = "unknown"
			}
			share := byTag[tag]
			if share == nil {
				share = &StorageShare{Location: tag}
				byTag[tag] = share
			}
			share.Count++
			share.TotalBytes += v.FileSize
			if v.IsAvailable {
				share.Available++
			}
		}
		shares := make([]StorageShare, 0, len(byTag))
		for _, share := range byTag {
			shares = append(shares, *share)
		}
		sort.Slice(shares, func(i, j int) bool { return shares[i].Location < shares[j].Location })
		return shares, nil
	})
}

// Counters returns the resettable view counters
func (s *Service) Counters(ctx context.Context) ([]store.Counter, error) {
	return s.store.Counters(ctx)
}

func (s *Service) today() time.Time {
	return startOfDay(s.now().In(s.loc))
}

func (s *Service) todayWindow() store.Window {
	start := s.today()
	return store.Window{Start: start, End: start.AddDate(0, 0, 1)}
}

func selectionOnly(judgments []store.Judgment) []store.Judgment {
	var out []store.Judgment
	for _, j := range judgments {
		if j.WasSelectionJudgment {
			out = append(out, j)
		}
	}
	return out
}

func distinctVideos(judgments []store.Judgment, keep func(int64) bool) int {
	seen := make(map[int64]bool)
	for _, j := range judgments {
		if keep == nil || keep(j.VideoID) {
			seen[j.VideoID] = true
		}
	}
	return len(seen)
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

func optInt(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func optBool(p *bool) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatBool(*p)
}
