package forecast

import (
	"context"
	"fmt"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/format"
	"github.com/rs/zerolog/log"
)

// DefaultMinPoints is the shortest daily series the adapter will forecast.
const DefaultMinPoints = 20

// DisplayDateLayout formats prediction dates.
const DisplayDateLayout = "2006-01-02"

// Forecaster fits a daily series and predicts horizon future days. The returned
// predictions cover the history followed by the future days.
type Forecaster interface {
	Forecast(ctx context.Context, series []Point, horizon int) ([]Prediction, error)
}

// Status tells how a forecast run ended.
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusComputationError Status = "computation_error"
)

// Result is the outcome of a forecast run. Predictions is only set for StatusOK.
type Result struct {
	Status      Status
	Message     string
	Predictions []Prediction
}

// Adapter runs a Forecaster behind the minimum-length precondition.
type Adapter struct {
	forecaster Forecaster
	minPoints  int
}

// NewAdapter wraps f. minPoints <= 0 uses DefaultMinPoints.
func NewAdapter(f Forecaster, minPoints int) *Adapter {
	if minPoints <= 0 {
		minPoints = DefaultMinPoints
	}
	return &Adapter{forecaster: f, minPoints: minPoints}
}

// MinPoints returns the configured minimum series length.
func (a *Adapter) MinPoints() int {
	return a.minPoints
}

// Run forecasts horizon days after series. A series shorter than the minimum is
// reported as insufficient data without calling the forecaster. Errors and panics
// of the forecaster become a computation error. The predictions returned are the last
// horizon rows of the forecaster output.
func (a *Adapter) Run(ctx context.Context, series []Point, horizon int) Result {
	if len(series) < a.minPoints {
		return Result{
			Status: StatusInsufficientData,
			Message: fmt.Sprintf("insufficient historical data: %d daily points, at least %d required",
				len(series), a.minPoints),
		}
	}
	if horizon <= 0 {
		return Result{Status: StatusComputationError, Message: "forecast horizon must be positive"}
	}

	preds, err := a.call(ctx, series, horizon)
	if err != nil {
		log.Error().Err(err).Int("points", len(series)).Int("horizon", horizon).Msg("forecast failed")
		return Result{Status: StatusComputationError, Message: err.Error()}
	}

	if len(preds) > horizon {
		preds = preds[len(preds)-horizon:]
	}
	return Result{Status: StatusOK, Predictions: preds}
}

func (a *Adapter) call(ctx context.Context, series []Point, horizon int) (preds []Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("forecaster panicked: %v", r)
		}
	}()
	return a.forecaster.Forecast(ctx, series, horizon)
}

// Rows turns predictions into display rows.
func Rows(preds []Prediction) []domain.ForecastRow {
	rows := make([]domain.ForecastRow, 0, len(preds))
	for _, p := range preds {
		rows = append(rows, domain.ForecastRow{
			Date:         p.Date.Format(DisplayDateLayout),
			Yhat:         p.Yhat,
			YhatLower:    p.YhatLower,
			YhatUpper:    p.YhatUpper,
			YhatDisplay:  format.INR(p.Yhat),
			LowerDisplay: format.INR(p.YhatLower),
			UpperDisplay: format.INR(p.YhatUpper),
		})
	}
	return rows
}
