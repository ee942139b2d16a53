package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
)

var now = time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC) // a Wednesday

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *store.Store
	ids   map[string]int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "videos.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return &fixture{t: t, ctx: context.Background(), store: st, ids: map[string]int64{}}
}

func (f *fixture) service(ttl time.Duration) *Service {
	return New(&Config{
		Store:    f.store,
		CacheTTL: ttl,
		Location: time.UTC,
		Clock:    func() time.Time { return now },
	})
}

func (f *fixture) video(path string, level int, mutate func(*store.ScannedFile)) int64 {
	f.t.Helper()
	sf := &store.ScannedFile{
		EssentialFilename: filepath.Base(path),
		FullPath:          path,
		Level:             level,
		FileSize:          1000,
		StorageLocation:   "C_DRIVE",
	}
	if mutate != nil {
		mutate(sf)
	}
	var id int64
	err := f.store.Transaction(f.ctx, func(tx *store.Tx) error {
		var err error
		id, _, err = tx.UpsertScanned(f.ctx, sf)
		return err
	})
	if err != nil {
		f.t.Fatalf("failed to add %s: %v", path, err)
	}
	f.ids[sf.EssentialFilename] = id
	return id
}

func (f *fixture) views(id int64, times ...time.Time) {
	f.t.Helper()
	err := f.store.Transaction(f.ctx, func(tx *store.Tx) error {
		for _, at := range times {
			if err := tx.InsertViewing(f.ctx, id, at, store.MethodAppPlayback); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) judge(id int64, at time.Time, selection bool) {
	f.t.Helper()
	err := f.store.Transaction(f.ctx, func(tx *store.Tx) error {
		return tx.InsertJudgment(f.ctx, &store.Judgment{
			VideoID: id, OldLevel: -1, NewLevel: 1,
			JudgedAt: at, RenameCompletedAt: at,
			WasSelectionJudgment: selection,
		})
	})
	if err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) likes(id int64, n int, at time.Time) {
	f.t.Helper()
	err := f.store.Transaction(f.ctx, func(tx *store.Tx) error {
		for i := 0; i < n; i++ {
			if _, err := tx.AddLike(f.ctx, id, at); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		f.t.Fatal(err)
	}
}

func hoursAgo(h int) time.Time {
	return now.Add(-time.Duration(h) * time.Hour)
}

func TestResolvePeriod(t *testing.T) {
	w, err := ResolvePeriod(Period30d, time.Time{}, time.Time{}, now)
	if err != nil {
		t.Fatal(err)
	}
	if !w.End.Equal(now) || !w.Start.Equal(now.AddDate(0, 0, -30)) {
		t.Errorf("unexpected 30d window %+v", w)
	}

	if w, _ := ResolvePeriod(PeriodAll, time.Time{}, time.Time{}, now); !w.Start.IsZero() || !w.End.IsZero() {
		t.Errorf("all should be unbounded, got %+v", w)
	}

	from := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	w, err = ResolvePeriod(PeriodCustom, from, to, now)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Start.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) || !w.End.Equal(time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("custom range should cover whole days, got %+v", w)
	}
	if !w.Contains(time.Date(2024, 6, 3, 23, 59, 0, 0, time.UTC)) {
		t.Error("the end day should be included")
	}

	if _, err := ResolvePeriod(PeriodCustom, to, from, now); !errors.Is(err, util.ErrValidation) {
		t.Errorf("inverted range: expected ErrValidation, got %v", err)
	}
	if _, err := ResolvePeriod("fortnight", time.Time{}, time.Time{}, now); !errors.Is(err, util.ErrValidation) {
		t.Errorf("unknown preset: expected ErrValidation, got %v", err)
	}
}

func TestBucketStart(t *testing.T) {
	sunday := time.Date(2024, 6, 16, 22, 30, 0, 0, time.UTC)
	tests := []struct {
		g    Granularity
		want time.Time
	}{
		{Daily, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)},
		{Weekly, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{Monthly, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := BucketStart(sunday, tt.g, time.UTC); !got.Equal(tt.want) {
			t.Errorf("BucketStart(%s) = %v, want %v", tt.g, got, tt.want)
		}
	}

	monday := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	if got := BucketStart(monday, Weekly, time.UTC); !got.Equal(monday) {
		t.Errorf("a Monday starts its own week, got %v", got)
	}
}

func TestViewingTrendFillsGaps(t *testing.T) {
	f := newFixture(t)
	id := f.video("/lib/a.mp4", -1, nil)
	day := func(d int) time.Time { return time.Date(2024, 6, d, 12, 0, 0, 0, time.UTC) }
	f.views(id, day(3), day(3), day(5), day(11))

	svc := f.service(0)
	daily, err := svc.ViewingTrend(f.ctx, store.Window{}, Daily)
	if err != nil {
		t.Fatal(err)
	}
	if len(daily) != 9 {
		t.Fatalf("expected 9 daily buckets from the 3rd to the 11th, got %d", len(daily))
	}
	if daily[0].Count != 2 || daily[1].Count != 0 || daily[2].Count != 1 || daily[8].Count != 1 {
		t.Errorf("unexpected daily counts %+v", daily)
	}

	weekly, err := svc.ViewingTrend(f.ctx, store.Window{}, Weekly)
	if err != nil {
		t.Fatal(err)
	}
	if len(weekly) != 2 || weekly[0].Count != 3 || weekly[1].Count != 1 {
		t.Errorf("unexpected weekly counts %+v", weekly)
	}

	windowed, err := svc.ViewingTrend(f.ctx, store.Window{Start: day(4)}, Monthly)
	if err != nil {
		t.Fatal(err)
	}
	if len(windowed) != 1 || windowed[0].Count != 2 {
		t.Errorf("unexpected windowed monthly counts %+v", windowed)
	}

	empty, err := svc.JudgmentTrend(f.ctx, store.Window{}, Daily)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected no judgment buckets, got %+v (%v)", empty, err)
	}
}

func TestRankings(t *testing.T) {
	f := newFixture(t)
	a := f.video("/lib/a.mp4", 3, nil)
	b := f.video("/lib/b.mp4", 1, nil)
	c := f.video("/lib/c.mp4", 4, nil)
	f.video("/lib/never.mp4", 4, nil)

	// a: 3 views on one day; b: 2 views on two days; c: 1 view
	f.views(a, hoursAgo(1), hoursAgo(2), hoursAgo(3))
	f.views(b, hoursAgo(1), hoursAgo(49))
	f.views(c, hoursAgo(24*40))
	f.likes(c, 5, hoursAgo(5))
	f.likes(b, 1, hoursAgo(5))

	svc := f.service(0)

	views, err := svc.Rank(f.ctx, RankOptions{By: RankViews})
	if err != nil {
		t.Fatal(err)
	}
	assertRanking(t, "views", views, []int64{a, b, c}, []int{3, 2, 1})

	days, err := svc.Rank(f.ctx, RankOptions{By: RankViewDays})
	if err != nil {
		t.Fatal(err)
	}
	assertRanking(t, "days", days, []int64{b, a, c}, []int{2, 1, 1})

	likes, err := svc.Rank(f.ctx, RankOptions{By: RankLikes})
	if err != nil {
		t.Fatal(err)
	}
	assertRanking(t, "likes", likes, []int64{c, b}, []int{5, 1})

	recent, err := svc.Rank(f.ctx, RankOptions{By: RankViews, Window: store.Window{Start: now.AddDate(0, 0, -30)}})
	if err != nil {
		t.Fatal(err)
	}
	assertRanking(t, "30d", recent, []int64{a, b}, []int{3, 2})

	level := 3
	top, err := svc.Rank(f.ctx, RankOptions{By: RankViews, MinLevel: &level, Top: 1})
	if err != nil {
		t.Fatal(err)
	}
	assertRanking(t, "level 3+ top 1", top, []int64{a}, []int{3})

	bad := 9
	if _, err := svc.Rank(f.ctx, RankOptions{MinLevel: &bad}); !errors.Is(err, util.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func assertRanking(t *testing.T, name string, got []RankedVideo, ids []int64, scores []int) {
	t.Helper()
	if len(got) != len(ids) {
		t.Fatalf("%s: expected %d entries, got %d", name, len(ids), len(got))
	}
	for i := range got {
		if got[i].Rank != i+1 || got[i].Video.ID != ids[i] || got[i].Score != scores[i] {
			t.Errorf("%s[%d] = rank %d id %d score %d, want id %d score %d",
				name, i, got[i].Rank, got[i].Video.ID, got[i].Score, ids[i], scores[i])
		}
	}
}

func TestKPI(t *testing.T) {
	f := newFixture(t)
	f.video("/lib/u1.mp4", -1, nil)
	f.video("/lib/u2.mp4", -1, nil)
	f.video("/lib/u3.mp4", -1, nil)
	j1 := f.video("/lib/j1.mp4", 0, nil)
	f.video("/lib/j2.mp4", 2, nil)
	gone := f.video("/lib/gone.mp4", -1, nil)
	deleted := f.video("/lib/deleted.mp4", 4, nil)

	f.store.SetAvailable(f.ctx, gone, false)
	f.store.SetDeleted(f.ctx, deleted, true)

	f.judge(j1, hoursAgo(2), false)
	f.judge(j1, hoursAgo(1), false)
	f.judge(deleted, hoursAgo(24), false)

	k, err := f.service(0).KPI(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if k.Unjudged != 3 || k.Judged != 2 {
		t.Errorf("expected 3 unjudged and 2 judged, got %+v", k)
	}
	if k.JudgedRate != 40 {
		t.Errorf("expected 40%% judged, got %v", k.JudgedRate)
	}
	if k.TodayJudged != 1 {
		t.Errorf("expected one distinct video judged today, got %d", k.TodayJudged)
	}
}

func TestSelectionKPIUsesPathContainment(t *testing.T) {
	f := newFixture(t)
	pending := func(sf *store.ScannedFile) { sf.NeedsSelection = true }
	f.video("/media/sel/p1.mp4", -1, pending)
	f.video("/media/sel/p2.mp4", -1, pending)
	f.video("/media/sel_old/p3.mp4", -1, pending)
	done := f.video("/media/sel/done.mp4", 2, nil)
	other := f.video("/media/sel_old/done_old.mp4", 2, nil)

	f.judge(done, hoursAgo(1), true)
	f.judge(other, hoursAgo(48), true)

	svc := f.service(0)
	k, err := svc.SelectionKPI(f.ctx, "/media/sel")
	if err != nil {
		t.Fatal(err)
	}
	if k.Unselected != 2 || k.Judged != 1 || k.TodayJudged != 1 {
		t.Errorf("unexpected folder KPI %+v", k)
	}

	all, err := svc.SelectionKPI(f.ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if all.Unselected != 3 || all.Judged != 2 || all.TodayJudged != 1 {
		t.Errorf("unexpected library KPI %+v", all)
	}
	if all.JudgedRate != 40 {
		t.Errorf("expected 40%%, got %v", all.JudgedRate)
	}
}

func TestForgottenFavorites(t *testing.T) {
	f := newFixture(t)
	old := f.video("/lib/old.mp4", 3, nil)
	fresh := f.video("/lib/fresh.mp4", 3, nil)
	rare := f.video("/lib/rare.mp4", 3, nil)

	var oldViews, freshViews []time.Time
	for i := 0; i < 6; i++ {
		oldViews = append(oldViews, now.AddDate(0, 0, -40-i))
		freshViews = append(freshViews, now.AddDate(0, 0, -i))
	}
	f.views(old, oldViews...)
	f.views(fresh, freshViews...)
	f.views(rare, now.AddDate(0, 0, -100))

	got, err := f.service(0).ForgottenFavorites(f.ctx, 5, 30*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Video.ID != old || got[0].Views != 6 {
		t.Errorf("expected only the old favorite, got %+v", got)
	}
}

func TestDistributions(t *testing.T) {
	f := newFixture(t)
	f.video("/lib/a.mp4", -1, nil)
	f.video("/lib/b.mp4", 2, nil)
	f.video("/lib/c.mp4", 2, func(sf *store.ScannedFile) {
		sf.StorageLocation = "EXTERNAL_HDD"
		sf.FileSize = 5000
	})

	svc := f.service(0)
	levels, err := svc.LevelDistribution(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 6 || levels[0].Count != 1 || levels[3].Level != 2 || levels[3].Count != 2 {
		t.Errorf("unexpected distribution %+v", levels)
	}

	storage, err := svc.StorageBreakdown(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(storage) != 2 {
		t.Fatalf("expected two storage tags, got %+v", storage)
	}
	if storage[0].Location != "C_DRIVE" || storage[0].Count != 2 || storage[0].TotalBytes != 2000 {
		t.Errorf("unexpected primary share %+v", storage[0])
	}
	if storage[1].Location != "EXTERNAL_HDD" || storage[1].TotalBytes != 5000 {
		t.Errorf("unexpected secondary share %+v", storage[1])
	}
}

func TestCacheInvalidatesOnWrite(t *testing.T) {
	f := newFixture(t)
	f.video("/lib/a.mp4", -1, nil)

	svc := f.service(time.Minute)
	first, err := svc.KPI(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := svc.KPI(f.ctx)
	if first != again {
		t.Error("expected the cached snapshot to be reused")
	}
	if n := svc.cache.items.ItemCount(); n != 1 {
		t.Errorf("expected one cache entry, got %d", n)
	}

	f.video("/lib/b.mp4", -1, nil)
	after, err := svc.KPI(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after.Unjudged != 2 {
		t.Errorf("a committed write should invalidate the cache, got %+v", after)
	}
}

func TestCachedSharesLoadErrors(t *testing.T) {
	c := NewCache(time.Minute, func() uint64 { return 1 })
	calls := 0
	load := func() (int, error) {
		calls++
		return 0, fmt.Errorf("boom")
	}
	for i := 0; i < 2; i++ {
		if _, err := cached(c, "k", load); err == nil {
			t.Fatal("expected error")
		}
	}
	if n := c.items.ItemCount(); calls != 2 || n != 0 {
		t.Errorf("errors must not be cached: calls=%d len=%d", calls, n)
	}

	if NewCache(0, nil) != nil {
		t.Error("a zero ttl disables the cache")
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	beach := f.video("/lib/beach_sunset.mp4", -1, nil)
	f.video("/lib/city_night.mp4", -1, nil)
	perf := f.video("/lib/clip01.mp4", -1, func(sf *store.ScannedFile) { sf.Performer = "Sunny" })
	cafe := f.video("/lib/Cafe\u0301.mp4", -1, nil)
	gone := f.video("/lib/sunset_deleted.mp4", -1, nil)
	f.store.SetDeleted(f.ctx, gone, true)

	svc := f.service(0)
	hits, err := svc.Search(f.ctx, "SUN", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected two hits, got %+v", hits)
	}
	if hits[0].Video.ID != perf || hits[1].Video.ID != beach {
		t.Errorf("expected the closer performer match first, got %d then %d", hits[0].Video.ID, hits[1].Video.ID)
	}

	hits, err = svc.Search(f.ctx, "café", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Video.ID != cafe {
		t.Errorf("normalization forms should match, got %+v", hits)
	}

	if hits, _ := svc.Search(f.ctx, "   ", 0); hits != nil {
		t.Error("blank query should return nothing")
	}
}
