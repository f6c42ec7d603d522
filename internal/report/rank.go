package report

import (
	"sort"

	"github.com/sells-group/access-cli/internal/model"
)

// Ranked table size bounds.
const (
	DefaultTopN = 10
	MinTopN     = 3
	MaxTopN     = 20
)

// ClampN bounds a requested table size to [MinTopN, MaxTopN]. Zero or
// negative values select DefaultTopN.
func ClampN(n int) int {
	switch {
	case n <= 0:
		return DefaultTopN
	case n < MinTopN:
		return MinTopN
	case n > MaxTopN:
		return MaxTopN
	}
	return n
}

// TopN returns the n highest-scoring regions, most vulnerable first.
// Ties keep input order.
func TopN(regions []model.AggregatedRegion, n int) []model.AggregatedRegion {
	return ranked(regions, n, func(a, b float64) bool { return a > b })
}

// BottomN returns the n lowest-scoring regions, least vulnerable first.
func BottomN(regions []model.AggregatedRegion, n int) []model.AggregatedRegion {
	return ranked(regions, n, func(a, b float64) bool { return a < b })
}

func ranked(regions []model.AggregatedRegion, n int, less func(a, b float64) bool) []model.AggregatedRegion {
	n = ClampN(n)
	out := make([]model.AggregatedRegion, len(regions))
	copy(out, regions)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i].Score, out[j].Score) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
