package search

import (
	"sort"
	"strings"

	"github.com/littlstar/lstar/internal/domain"
	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
)

// Match is a filter hit with the title positions that matched, for highlighting
type Match struct {
	Video          *domain.Video
	MatchedIndexes []int
	Score          int // Higher is better
}

// index implements fuzzy.Source over lowercase titles
type index struct {
	videos []*domain.Video
	lower  []string
}

func newIndex(videos []*domain.Video) *index {
	idx := &index{videos: videos, lower: make([]string, len(videos))}
	for i, v := range videos {
		idx.lower[i] = strings.ToLower(v.Title)
	}
	return idx
}

func (idx *index) String(i int) string { return idx.lower[i] }
func (idx *index) Len() int            { return len(idx.videos) }

// Filter narrows a loaded listing as the user types. An empty query
// matches everything in its original order.
func Filter(query string, videos []*domain.Video) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out := make([]Match, len(videos))
		for i, v := range videos {
			out[i] = Match{Video: v}
		}
		return out
	}

	found := fuzzy.FindFrom(query, newIndex(videos))
	out := make([]Match, len(found))
	for i, m := range found {
		out[i] = Match{Video: videos[m.Index], MatchedIndexes: m.MatchedIndexes, Score: m.Score}
	}
	return out
}

// Local searches a cached listing offline, best matches first
func Local(query string, videos []*domain.Video) []*domain.Video {
	query = strings.TrimSpace(query)
	if query == "" || len(videos) == 0 {
		return nil
	}

	idx := newIndex(videos)
	ranks := lfuzzy.RankFindFold(query, idx.lower)
	sort.Stable(ranks)

	out := make([]*domain.Video, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, videos[r.OriginalIndex])
	}
	return out
}

// Rank orders remote search results by how closely their titles match query.
// Ties keep the service's order.
func Rank(query string, videos []*domain.Video) []*domain.Video {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(videos) < 2 {
		return videos
	}

	type ranked struct {
		video *domain.Video
		score int
	}
	rs := make([]ranked, len(videos))
	for i, v := range videos {
		rs[i] = ranked{video: v, score: score(strings.ToLower(v.Title), query)}
	}
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].score < rs[j].score
	})

	out := make([]*domain.Video, len(rs))
	for i, r := range rs {
		out[i] = r.video
	}
	return out
}

// score is lower for better matches
func score(title, query string) int {
	switch {
	case title == query:
		return 0
	case strings.HasPrefix(title, query):
		return 10
	case strings.Contains(title, query):
		return 50
	}
	return 100 + lfuzzy.LevenshteinDistance(query, title)
}
