package estimate

import (
	"sort"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// Rank returns the results sorted by ratio, most constrained first.
// The sort is stable so equal ratios keep their input order, and the input
// slice is left untouched.
func Rank(results []types.BottleneckResult) []types.BottleneckResult {
	ranked := make([]types.BottleneckResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Ratio < ranked[j].Ratio
	})

	return ranked
}
