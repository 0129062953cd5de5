// Package aggregate holds the rollups every dashboard page shares. All functions are
// stateless and null-safe: sums treat a missing value as 0, means leave it out of the
// denominator.
package aggregate

import (
	"sort"

	"github.com/andresuchdata/salesdash/internal/domain"
)

// Group is one group key and its aggregated value. Count is the number of values that
// contributed (rows for sums and counts, non-missing values for means).
type Group struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// SumByGroup sums valueCol per distinct groupCol value. Groups come back ordered by key.
func SumByGroup(t *domain.Table, groupCol, valueCol string) []Group {
	if !t.HasAll(groupCol, valueCol) {
		return nil
	}
	acc := make(map[string]*Group)
	for _, rec := range t.Records {
		g := groupFor(acc, rec.Str(groupCol))
		g.Value += rec.NumberOrZero(valueCol)
		g.Count++
	}
	return sortedGroups(acc)
}

// MeanByGroup averages valueCol per group, skipping missing values. A group whose values
// are all missing is left out.
func MeanByGroup(t *domain.Table, groupCol, valueCol string) []Group {
	if !t.HasAll(groupCol, valueCol) {
		return nil
	}
	acc := make(map[string]*Group)
	for _, rec := range t.Records {
		v, ok := rec.Number(valueCol)
		if !ok {
			continue
		}
		g := groupFor(acc, rec.Str(groupCol))
		g.Value += v
		g.Count++
	}
	for _, g := range acc {
		g.Value /= float64(g.Count)
	}
	return sortedGroups(acc)
}

// CountDistinctByGroup counts the distinct values of countCol per group.
func CountDistinctByGroup(t *domain.Table, groupCol, countCol string) []Group {
	if !t.HasAll(groupCol, countCol) {
		return nil
	}
	seen := make(map[string]map[string]struct{})
	for _, rec := range t.Records {
		key := rec.Str(groupCol)
		if seen[key] == nil {
			seen[key] = make(map[string]struct{})
		}
		seen[key][cellKey(rec, countCol)] = struct{}{}
	}
	acc := make(map[string]*Group, len(seen))
	for key, values := range seen {
		acc[key] = &Group{Key: key, Value: float64(len(values)), Count: len(values)}
	}
	return sortedGroups(acc)
}

// CountByGroup counts rows per value of groupCol.
func CountByGroup(t *domain.Table, groupCol string) []Group {
	if !t.Has(groupCol) {
		return nil
	}
	acc := make(map[string]*Group)
	for _, rec := range t.Records {
		g := groupFor(acc, rec.Str(groupCol))
		g.Value++
		g.Count++
	}
	return sortedGroups(acc)
}

// Sum adds up col with missing values as 0.
func Sum(t *domain.Table, col string) float64 {
	if !t.Has(col) {
		return 0
	}
	total := 0.0
	for _, rec := range t.Records {
		total += rec.NumberOrZero(col)
	}
	return total
}

// Mean averages the non-missing values of col. ok is false when there are none.
func Mean(t *domain.Table, col string) (float64, bool) {
	if !t.Has(col) {
		return 0, false
	}
	total, n := 0.0, 0
	for _, rec := range t.Records {
		if v, ok := rec.Number(col); ok {
			total += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return total / float64(n), true
}

// CountDistinct counts the distinct non-empty values of col.
func CountDistinct(t *domain.Table, col string) int {
	if !t.Has(col) {
		return 0
	}
	seen := make(map[string]struct{})
	for _, rec := range t.Records {
		if k := cellKey(rec, col); k != "" {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}

// AverageOrderValue is revenue per distinct invoice, 0 when either side is 0.
func AverageOrderValue(revenue float64, invoices int) float64 {
	if revenue == 0 || invoices == 0 {
		return 0
	}
	return revenue / float64(invoices)
}

// SafeRatio divides num by den, returning 0 for a zero denominator.
func SafeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func groupFor(acc map[string]*Group, key string) *Group {
	g, ok := acc[key]
	if !ok {
		g = &Group{Key: key}
		acc[key] = g
	}
	return g
}

func sortedGroups(acc map[string]*Group) []Group {
	out := make([]Group, 0, len(acc))
	for _, g := range acc {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// cellKey renders any kind of cell as a comparable string for distinct counting.
func cellKey(rec domain.Record, col string) string {
	if v, ok := rec.Text(col); ok {
		return v
	}
	if v, ok := rec.Number(col); ok {
		return "n:" + formatKey(v)
	}
	if v, ok := rec.Date(col); ok {
		return "d:" + v.Format("2006-01-02")
	}
	return ""
}
