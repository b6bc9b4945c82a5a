// Package ranker orders per-document match scores.
package ranker

import "sort"

// Threshold is the score at or below which a document is not reported. It
// sits well above the no-match sentinel and well below any real score.
const Threshold = -1_000_000

// Rank drops items scoring at or below Threshold and sorts the rest by
// descending score. Equal scores keep their input order. At most limit items
// are returned when limit > 0.
func Rank[T any](items []T, score func(T) float64, limit int) []T {
	kept := make([]T, 0, len(items))
	for _, it := range items {
		if score(it) > Threshold {
			kept = append(kept, it)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return score(kept[i]) > score(kept[j])
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}
