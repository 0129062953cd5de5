// Package forecast reshapes filtered sales into a daily series, hands it to a
// Forecaster and turns the predictions back into display rows.
package forecast

import (
	"sort"
	"time"

	"github.com/andresuchdata/salesdash/internal/domain"
)

// Point is one day of the input series.
type Point struct {
	Date  time.Time `json:"ds"`
	Value float64   `json:"y"`
}

// Prediction is the model output for one day.
type Prediction struct {
	Date      time.Time `json:"ds"`
	Yhat      float64   `json:"yhat"`
	YhatLower float64   `json:"yhat_lower"`
	YhatUpper float64   `json:"yhat_upper"`
}

// PrepareSeries sums valueCol per calendar day. Rows missing the value or the date are
// dropped. The result is sorted by date with one point per day.
func PrepareSeries(t *domain.Table, valueCol string) []Point {
	if !t.HasAll(domain.ColDate, valueCol) {
		return nil
	}
	byDay := make(map[time.Time]float64)
	for _, rec := range t.Records {
		v, ok := rec.Number(valueCol)
		if !ok {
			continue
		}
		d, ok := rec.Date(domain.ColDate)
		if !ok {
			continue
		}
		byDay[domain.TruncateDay(d)] += v
	}

	series := make([]Point, 0, len(byDay))
	for d, v := range byDay {
		series = append(series, Point{Date: d, Value: v})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series
}

// Tail returns the last n points of series.
func Tail(series []Point, n int) []Point {
	if n <= 0 || len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}
