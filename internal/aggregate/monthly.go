package aggregate

import (
	"sort"
	"time"

	"github.com/andresuchdata/salesdash/internal/domain"
)

// MonthKeyLayout formats bucket keys as year-month.
const MonthKeyLayout = "2006-01"

// MonthBucket is one calendar month of rows.
type MonthBucket struct {
	Key   string
	Start time.Time
	Rows  *domain.Table
}

// Monthly groups the rows of t by the calendar month of dateCol, discarding the day.
// Buckets are sorted by month; rows without a date are skipped.
func Monthly(t *domain.Table, dateCol string) []MonthBucket {
	if !t.Has(dateCol) {
		return nil
	}
	byMonth := make(map[time.Time][]domain.Record)
	for _, rec := range t.Records {
		d, ok := rec.Date(dateCol)
		if !ok {
			continue
		}
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		byMonth[start] = append(byMonth[start], rec)
	}

	buckets := make([]MonthBucket, 0, len(byMonth))
	for start, recs := range byMonth {
		buckets = append(buckets, MonthBucket{
			Key:   start.Format(MonthKeyLayout),
			Start: start,
			Rows:  t.WithRecords(recs),
		})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Start.Before(buckets[j].Start) })
	return buckets
}

// MinTrendMonths is the fewest distinct months a trend line is drawn for.
const MinTrendMonths = 2

// IsTrend reports whether there are enough months to draw a trend line.
func IsTrend(buckets []MonthBucket) bool {
	return HasTrend(len(buckets))
}

// HasTrend reports whether months distinct months are enough for a trend line.
func HasTrend(months int) bool {
	return months >= MinTrendMonths
}

// MonthlySum sums valueCol per month, as groups keyed by year-month.
func MonthlySum(t *domain.Table, dateCol, valueCol string) []Group {
	return monthly(t, dateCol, func(rows *domain.Table) (float64, bool) {
		return Sum(rows, valueCol), true
	})
}

// MonthlyMean averages valueCol per month. Months without any value are left out.
func MonthlyMean(t *domain.Table, dateCol, valueCol string) []Group {
	return monthly(t, dateCol, func(rows *domain.Table) (float64, bool) {
		return Mean(rows, valueCol)
	})
}

// MonthlyBy applies fn to each month's rows. fn returning false drops the month.
func MonthlyBy(t *domain.Table, dateCol string, fn func(rows *domain.Table) (float64, bool)) []Group {
	return monthly(t, dateCol, fn)
}

func monthly(t *domain.Table, dateCol string, fn func(*domain.Table) (float64, bool)) []Group {
	buckets := Monthly(t, dateCol)
	out := make([]Group, 0, len(buckets))
	for _, b := range buckets {
		v, ok := fn(b.Rows)
		if !ok {
			continue
		}
		out = append(out, Group{Key: b.Key, Value: v, Count: b.Rows.Len()})
	}
	return out
}
