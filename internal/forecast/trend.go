package forecast

import (
	"context"
	"errors"
	"math"
	"time"
)

// z-score of an 80% two-sided interval.
const interval80 = 1.2816

// TrendSeasonalForecaster fits a least-squares linear trend plus an additive
// day-of-week effect. The interval is the fitted value ± z·σ of the residuals.
type TrendSeasonalForecaster struct{}

// NewTrendSeasonalForecaster creates the built-in forecaster.
func NewTrendSeasonalForecaster() *TrendSeasonalForecaster {
	return &TrendSeasonalForecaster{}
}

// Forecast implements Forecaster.
func (f *TrendSeasonalForecaster) Forecast(ctx context.Context, series []Point, horizon int) ([]Prediction, error) {
	if len(series) == 0 {
		return nil, errors.New("empty series")
	}
	if horizon <= 0 {
		return nil, errors.New("horizon must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	origin := series[0].Date
	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = daysBetween(origin, p.Date)
		ys[i] = p.Value
	}

	// 1. Linear trend
	intercept, slope := leastSquares(xs, ys)

	// 2. Day-of-week effect on the detrended values, centred on zero
	var sums [7]float64
	var counts [7]int
	for i, p := range series {
		wd := p.Date.Weekday()
		sums[wd] += ys[i] - (intercept + slope*xs[i])
		counts[wd]++
	}
	var season [7]float64
	mean, present := 0.0, 0
	for wd := range season {
		if counts[wd] > 0 {
			season[wd] = sums[wd] / float64(counts[wd])
			mean += season[wd]
			present++
		}
	}
	if present > 0 {
		mean /= float64(present)
		for wd := range season {
			if counts[wd] > 0 {
				season[wd] -= mean
			}
		}
	}

	fit := func(x float64, d time.Time) float64 {
		return intercept + slope*x + season[d.Weekday()]
	}

	// 3. Residual spread
	sq := 0.0
	for i, p := range series {
		r := ys[i] - fit(xs[i], p.Date)
		sq += r * r
	}
	dof := len(series) - 2
	if dof < 1 {
		dof = 1
	}
	band := interval80 * math.Sqrt(sq/float64(dof))

	// 4. History followed by the future days
	out := make([]Prediction, 0, len(series)+horizon)
	for i, p := range series {
		y := fit(xs[i], p.Date)
		out = append(out, Prediction{Date: p.Date, Yhat: y, YhatLower: y - band, YhatUpper: y + band})
	}
	last := series[len(series)-1].Date
	for h := 1; h <= horizon; h++ {
		d := last.AddDate(0, 0, h)
		y := fit(daysBetween(origin, d), d)
		out = append(out, Prediction{Date: d, Yhat: y, YhatLower: y - band, YhatUpper: y + band})
	}
	return out, nil
}

func daysBetween(from, to time.Time) float64 {
	return math.Round(to.Sub(from).Hours() / 24)
}

func leastSquares(xs, ys []float64) (intercept, slope float64) {
	n := float64(len(xs))
	var sx, sy, sxx, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return sy / n, 0
	}
	slope = (n*sxy - sx*sy) / den
	intercept = (sy - slope*sx) / n
	return intercept, slope
}
