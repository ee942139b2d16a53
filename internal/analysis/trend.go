package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/franz/clipbox/internal/store"
	"github.com/franz/clipbox/internal/util"
)

// Granularity is the bucket size of a trend series
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity accepts daily, weekly or monthly (and d/w/m)
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "", "d", "day", "daily":
		return Daily, nil
	case "w", "week", "weekly":
		return Weekly, nil
	case "m", "month", "monthly":
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: unknown granularity %q", util.ErrValidation, s)
}

// TrendPoint is one bucket of a trend series
type TrendPoint struct {
	Start time.Time
	Count int
}

// BucketStart returns the start of the bucket containing t in loc. Weeks
// start on Monday.
func BucketStart(t time.Time, g Granularity, loc *time.Location) time.Time {
	t = t.In(loc)
	day := startOfDay(t)
	switch g {
	case Weekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Monthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
	}
	return day
}

func nextBucket(t time.Time, g Granularity) time.Time {
	switch g {
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// bucketize counts times per bucket. Empty buckets between the first and
// last event are included with a zero count.
func bucketize(times []time.Time, g Granularity, loc *time.Location) []TrendPoint {
	if len(times) == 0 {
		return nil
	}

	counts := make(map[time.Time]int)
	first, last := BucketStart(times[0], g, loc), BucketStart(times[0], g, loc)
	for _, t := range times {
		b := BucketStart(t, g, loc)
		counts[b]++
		if b.Before(first) {
			first = b
		}
		if b.After(last) {
			last = b
		}
	}

	var points []TrendPoint
	for b := first; !b.After(last); b = nextBucket(b, g) {
		points = append(points, TrendPoint{Start: b, Count: counts[b]})
	}
	return points
}

// ViewingTrend buckets viewing events inside w
func (s *Service) ViewingTrend(ctx context.Context, w store.Window, g Granularity) ([]TrendPoint, error) {
	key := fmt.Sprintf("trend:view:%s:%s", windowKey(w), g)
	return cached(s.cache, key, func() ([]TrendPoint, error) {
		events, err := s.store.ViewingEvents(ctx, w)
		if err != nil {
			return nil, err
		}
		times := make([]time.Time, len(events))
		for i, e := range events {
			times[i] = e.ViewedAt
		}
		return bucketize(times, g, s.loc), nil
	})
}

// JudgmentTrend buckets judgment events inside w
func (s *Service) JudgmentTrend(ctx context.Context, w store.Window, g Granularity) ([]TrendPoint, error) {
	key := fmt.Sprintf("trend:judge:%s:%s", windowKey(w), g)
	return cached(s.cache, key, func() ([]TrendPoint, error) {
		judgments, err := s.store.Judgments(ctx, w)
		if err != nil {
			return nil, err
		}
		times := make([]time.Time, len(judgments))
		for i, j := range judgments {
			times[i] = j.JudgedAt
		}
		return bucketize(times, g, s.loc), nil
	})
}
