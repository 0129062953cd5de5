package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// AllOption is the selection value meaning "no filter on this dimension".
const AllOption = "All"

// DateRange is an inclusive calendar-day range. A zero bound is open.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether d falls inside the range, both ends included, compared by calendar day.
func (r DateRange) Contains(d time.Time) bool {
	day := TruncateDay(d)
	if !r.Start.IsZero() && day.Before(TruncateDay(r.Start)) {
		return false
	}
	if !r.End.IsZero() && day.After(TruncateDay(r.End)) {
		return false
	}
	return true
}

// TruncateDay drops the time-of-day part, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FilterSelection is the set of filters a page applies to the normalized table.
// It is a value: the With* methods return a modified copy.
type FilterSelection struct {
	dateRange DateRange
	multi     map[string][]string
	single    map[string]string
}

// NewFilterSelection returns a selection with no filters.
func NewFilterSelection() FilterSelection {
	return FilterSelection{}
}

// WithDateRange sets the inclusive date range.
func (s FilterSelection) WithDateRange(start, end time.Time) FilterSelection {
	out := s.clone()
	out.dateRange = DateRange{Start: start, End: end}
	return out
}

// WithMulti sets a multi-select filter on col. An empty list clears it.
func (s FilterSelection) WithMulti(col string, values ...string) FilterSelection {
	out := s.clone()
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		delete(out.multi, col)
		return out
	}
	out.multi[col] = cleaned
	return out
}

// WithSingle sets a single-select filter on col. An empty value clears it.
func (s FilterSelection) WithSingle(col, value string) FilterSelection {
	out := s.clone()
	value = strings.TrimSpace(value)
	if value == "" {
		delete(out.single, col)
		return out
	}
	out.single[col] = value
	return out
}

// Clear drops every filter.
func (s FilterSelection) Clear() FilterSelection {
	return FilterSelection{}
}

// DateRange returns the date range and whether one is set.
func (s FilterSelection) DateRange() (DateRange, bool) {
	return s.dateRange, !s.dateRange.IsZero()
}

// Multi returns a copy of the multi-select filters.
func (s FilterSelection) Multi() map[string][]string {
	out := make(map[string][]string, len(s.multi))
	for k, v := range s.multi {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Single returns a copy of the single-select filters.
func (s FilterSelection) Single() map[string]string {
	out := make(map[string]string, len(s.single))
	for k, v := range s.single {
		out[k] = v
	}
	return out
}

// SingleValue returns the single-select value for col, or AllOption when unset.
func (s FilterSelection) SingleValue(col string) string {
	if v, ok := s.single[col]; ok {
		return v
	}
	return AllOption
}

// IsEmpty reports whether no filter is set.
func (s FilterSelection) IsEmpty() bool {
	return s.dateRange.IsZero() && len(s.multi) == 0 && len(s.single) == 0
}

// selectionKey is the canonical form hashed by Hash. encoding/json writes map keys in
// sorted order and quotes every value, so "a,b" and ["a","b"] never collide.
type selectionKey struct {
	Start  string              `json:"start,omitempty"`
	End    string              `json:"end,omitempty"`
	Multi  map[string][]string `json:"multi,omitempty"`
	Single map[string]string   `json:"single,omitempty"`
}

// Hash returns a stable key for the selection. Value order inside a multi-select
// does not change the hash.
func (s FilterSelection) Hash() string {
	if s.IsEmpty() {
		return "default"
	}

	key := selectionKey{Single: s.single}
	if !s.dateRange.Start.IsZero() {
		key.Start = s.dateRange.Start.Format("2006-01-02")
	}
	if !s.dateRange.End.IsZero() {
		key.End = s.dateRange.End.Format("2006-01-02")
	}
	if len(s.multi) > 0 {
		key.Multi = make(map[string][]string, len(s.multi))
		for col, values := range s.multi {
			normalized := append([]string(nil), values...)
			sort.Strings(normalized)
			key.Multi[col] = normalized
		}
	}

	payload, _ := json.Marshal(key)
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])
}

func (s FilterSelection) clone() FilterSelection {
	out := FilterSelection{
		dateRange: s.dateRange,
		multi:     make(map[string][]string, len(s.multi)),
		single:    make(map[string]string, len(s.single)),
	}
	for k, v := range s.multi {
		out.multi[k] = append([]string(nil), v...)
	}
	for k, v := range s.single {
		out.single[k] = v
	}
	return out
}
