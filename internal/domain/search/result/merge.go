package result

import "slices"

// MergeRanked returns the rows whose id appears in ranked, ordered by position in ranked.
// Rows with ids outside ranked are dropped, as are ranked ids with no row.
// When ranked repeats an id, its first position wins.
func MergeRanked[T any](ranked []int64, rows []T, id func(T) int64) []T {
	rank := make(map[int64]int, len(ranked))
	for i, r := range ranked {
		if _, seen := rank[r]; !seen {
			rank[r] = i
		}
	}

	out := make([]T, 0, min(len(rows), len(rank)))
	seen := make(map[int64]bool, len(rows))
	for _, row := range rows {
		rid := id(row)
		if _, ok := rank[rid]; !ok || seen[rid] {
			continue
		}
		seen[rid] = true
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b T) int { return rank[id(a)] - rank[id(b)] })
	return out
}
