package analysis

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/unicode/norm"

	"github.com/franz/clipbox/internal/store"
)

// SearchHit is a video matched by Search
type SearchHit struct {
	Video    *store.Video
	Distance int // lower is closer
}

// Search finds non-deleted videos whose essential filename or performer
// fuzzily contains every character of query in order, closest first.
// Matching ignores case and Unicode normalization form.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	query = strings.TrimSpace(norm.NFC.String(query))
	if query == "" {
		return nil, nil
	}

	videos, err := s.store.ListVideos(ctx, store.VideoFilter{Deleted: store.Bool(false)})
	if err != nil {
		return nil, err
	}

	targets := make([]string, 0, len(videos)*2)
	owners := make([]int, 0, len(videos)*2)
	for i, v := range videos {
		targets = append(targets, v.EssentialFilename)
		owners = append(owners, i)
		if v.Performer != "" {
			targets = append(targets, v.Performer)
			owners = append(owners, i)
		}
	}

	best := make(map[int]int)
	for _, rank := range fuzzy.RankFindNormalizedFold(query, targets) {
		owner := owners[rank.OriginalIndex]
		if d, ok := best[owner]; !ok || rank.Distance < d {
			best[owner] = rank.Distance
		}
	}

	hits := make([]SearchHit, 0, len(best))
	for i, d := range best {
		hits = append(hits, SearchHit{Video: videos[i], Distance: d})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Video.ID < hits[j].Video.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
