package aggregate

import (
	"sort"
	"strconv"
)

// TopN returns the n largest groups by value, or the n smallest when ascending is set.
// The sort is stable, so ties keep the key order the groups arrived in. n <= 0 keeps all.
func TopN(groups []Group, n int, ascending bool) []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Value < out[j].Value
		}
		return out[i].Value > out[j].Value
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Filter keeps the groups for which keep returns true.
func Filter(groups []Group, keep func(Group) bool) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}

// Scale multiplies every group value by factor. Fraction-scaled percentages use 100.
func Scale(groups []Group, factor float64) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		g.Value *= factor
		out[i] = g
	}
	return out
}

func formatKey(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
