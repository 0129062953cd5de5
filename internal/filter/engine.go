// Package filter narrows the normalized table to the rows a page asks for.
//
// Filters are AND-combined across dimensions and OR-combined within a multi-select.
// The date range is checked first, then the categorical predicates; since the result
// is a conjunction the order of the categorical checks does not matter.
package filter

import (
	"sort"
	"time"

	"github.com/andresuchdata/salesdash/internal/domain"
)

// Apply returns the rows of t matching sel. The result shares records with t and
// never modifies it. A filter on a column t lacks is ignored.
func Apply(t *domain.Table, sel domain.FilterSelection) *domain.Table {
	if t == nil {
		return domain.NewTable()
	}
	if sel.IsEmpty() {
		return t.WithRecords(t.Records)
	}

	preds := predicates(t, sel)
	if len(preds) == 0 {
		return t.WithRecords(t.Records)
	}

	kept := make([]domain.Record, 0, len(t.Records))
	for _, rec := range t.Records {
		pass := true
		for _, p := range preds {
			if !p(rec) {
				pass = false
				break
			}
		}
		if pass {
			kept = append(kept, rec)
		}
	}
	return t.WithRecords(kept)
}

type predicate func(domain.Record) bool

func predicates(t *domain.Table, sel domain.FilterSelection) []predicate {
	var preds []predicate

	// 1. Date range
	if r, ok := sel.DateRange(); ok && t.Has(domain.ColDate) {
		preds = append(preds, func(rec domain.Record) bool {
			d, ok := rec.Date(domain.ColDate)
			return ok && r.Contains(d)
		})
	}

	// 2. Multi-select membership; empty or "All" means no restriction
	multi := sel.Multi()
	for _, col := range sortedKeys(multi) {
		values := multi[col]
		if !t.Has(col) || isNoOp(values) {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		column := col
		preds = append(preds, func(rec domain.Record) bool {
			_, ok := set[rec.Str(column)]
			return ok
		})
	}

	// 3. Single-select equality
	single := sel.Single()
	for _, col := range sortedKeys(single) {
		value := single[col]
		if !t.Has(col) || value == "" || value == domain.AllOption {
			continue
		}
		column := col
		preds = append(preds, func(rec domain.Record) bool {
			return rec.Str(column) == value
		})
	}

	return preds
}

func isNoOp(values []string) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if v == domain.AllOption {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Options returns the sorted distinct values of col, for filter widgets. A missing
// column yields nil.
func Options(t *domain.Table, col string) []string {
	if !t.Has(col) {
		return nil
	}
	seen := make(map[string]struct{})
	for _, rec := range t.Records {
		if v, ok := rec.Text(col); ok {
			seen[v] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// DateBounds returns the earliest and latest Date of t. ok is false for an empty table.
func DateBounds(t *domain.Table) (minDate, maxDate time.Time, ok bool) {
	for _, rec := range t.Records {
		d, has := rec.Date(domain.ColDate)
		if !has {
			continue
		}
		if !ok || d.Before(minDate) {
			minDate = d
		}
		if !ok || d.After(maxDate) {
			maxDate = d
		}
		ok = true
	}
	return minDate, maxDate, ok
}
