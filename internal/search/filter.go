package search

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
	"github.com/tubevault/tubevault/internal/domain"
)

// index implements fuzzy.Source over pre-lowered media titles for
// zero-allocation matching.
type index struct {
	items       []domain.MediaItem
	lowerTitles []string
}

func (idx *index) String(i int) string { return idx.lowerTitles[i] }
func (idx *index) Len() int            { return len(idx.items) }

func newIndex(items []domain.MediaItem) *index {
	idx := &index{
		items:       items,
		lowerTitles: make([]string, len(items)),
	}
	for i, item := range items {
		idx.lowerTitles[i] = strings.ToLower(item.Title)
	}
	return idx
}

// Filter returns the items whose titles fuzzily match the query, best
// match first. An empty query returns the input unchanged. Subsequence
// matching runs first; when it finds nothing, a rank-based fold match
// over title and channel catches looser queries.
func Filter(items []domain.MediaItem, query string) []domain.MediaItem {
	query = strings.TrimSpace(query)
	if query == "" || len(items) == 0 {
		return items
	}

	idx := newIndex(items)
	matches := fuzzy.FindFrom(strings.ToLower(query), idx)
	if len(matches) > 0 {
		results := make([]domain.MediaItem, 0, len(matches))
		for _, m := range matches {
			results = append(results, idx.items[m.Index])
		}
		return results
	}

	return rankFilter(items, query)
}

// rankFilter matches the query against title and channel using
// Levenshtein-ranked folding. Ranks are compared per item; lower
// distance is better.
func rankFilter(items []domain.MediaItem, query string) []domain.MediaItem {
	type ranked struct {
		item     domain.MediaItem
		distance int
	}

	var out []ranked
	for _, item := range items {
		best := -1
		for _, field := range []string{item.Title, item.Channel} {
			if rank := lfuzzy.RankMatchNormalizedFold(query, field); rank >= 0 {
				if best < 0 || rank < best {
					best = rank
				}
			}
		}
		if best >= 0 {
			out = append(out, ranked{item: item, distance: best})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].distance < out[j].distance
	})

	results := make([]domain.MediaItem, len(out))
	for i, r := range out {
		results[i] = r.item
	}
	return results
}
