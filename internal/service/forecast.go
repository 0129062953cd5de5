package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/forecast"
	"github.com/andresuchdata/salesdash/internal/format"
	"github.com/rs/zerolog/log"
)

const (
	AllProducts   = "All Products"
	AllCategories = "All Categories"

	historyPreviewDays = 5
)

// ForecastRequest picks what to forecast. An empty Product or Category means "all";
// a specific product wins over a specific category. Horizon 0 uses the default.
type ForecastRequest struct {
	Product  string
	Category string
	Horizon  int
}

func (r ForecastRequest) key() string {
	payload, _ := json.Marshal(r)
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])
}

// normalize resolves the "all" placeholders and the product over category precedence.
func (r ForecastRequest) normalize() ForecastRequest {
	r.Product = strings.TrimSpace(r.Product)
	r.Category = strings.TrimSpace(r.Category)
	if r.Product == AllProducts {
		r.Product = ""
	}
	if r.Category == AllCategories {
		r.Category = ""
	}
	if r.Product != "" {
		r.Category = ""
	}
	return r
}

func (r ForecastRequest) label() string {
	switch {
	case r.Product != "":
		return "Sales for Product: " + r.Product
	case r.Category != "":
		return "Sales for Category: " + r.Category
	default:
		return "Overall Sales"
	}
}

// Forecast predicts daily Final Sale for the requested scope. Dashboard filters do not
// apply; the series is built from the whole table. Only successful runs are cached.
func (s *DashboardService) Forecast(ctx context.Context, req ForecastRequest) (*domain.ForecastPage, error) {
	req = req.normalize()
	if req.Horizon == 0 {
		req.Horizon = s.horizons.Default
	}
	if req.Horizon < s.horizons.Min || req.Horizon > s.horizons.Max {
		return nil, fmt.Errorf("%w: forecast horizon %d outside %d-%d days",
			domain.ErrInvalidSelection, req.Horizon, s.horizons.Min, s.horizons.Max)
	}

	t, gen, err := s.tables.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.schema.Requires(t, domain.ColDate, domain.ColFinalSale); err != nil {
		return nil, err
	}

	key := req.key()
	var cached domain.ForecastPage
	if ok, err := s.pages.Get(ctx, PageForecast, gen, key, &cached); err == nil && ok {
		return &cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("page", PageForecast).Msg("dashboard: cache get failed")
	}

	page := s.buildForecast(ctx, t, req)

	if page.Status == string(forecast.StatusOK) {
		if err := s.pages.Set(ctx, PageForecast, gen, key, page); err != nil {
			log.Warn().Err(err).Str("page", PageForecast).Msg("dashboard: cache set failed")
		}
	}
	return &page, nil
}

func (s *DashboardService) buildForecast(ctx context.Context, t *domain.Table, req ForecastRequest) domain.ForecastPage {
	label := req.label()
	page := domain.ForecastPage{
		ItemLabel:   label,
		Horizon:     req.Horizon,
		Predictions: []domain.ForecastRow{},
		History:     []domain.ChartPoint{},
	}

	// 1. Narrow to the product or category
	scoped := t
	switch {
	case req.Product != "":
		scoped = matching(t, domain.ColProduct, req.Product)
	case req.Category != "":
		scoped = matching(t, domain.ColCategory, req.Category)
	}

	// 2. Daily series and preview
	series := forecast.PrepareSeries(scoped, domain.ColFinalSale)
	page.Points = len(series)
	for _, p := range forecast.Tail(series, historyPreviewDays) {
		page.History = append(page.History, domain.ChartPoint{
			Label:   p.Date.Format(forecast.DisplayDateLayout),
			Value:   p.Value,
			Display: format.INR(p.Value),
		})
	}

	// 3. Run the model
	result := s.adapter.Run(ctx, series, req.Horizon)
	page.Status = string(result.Status)
	switch result.Status {
	case forecast.StatusOK:
		page.Predictions = forecast.Rows(result.Predictions)
	case forecast.StatusInsufficientData:
		page.Message = fmt.Sprintf("Not enough historical data for %s to generate a reliable forecast "+
			"(need at least %d daily data points).", label, s.adapter.MinPoints())
	default:
		page.Message = "Error during forecasting: " + result.Message
	}
	return page
}

// matching keeps rows whose col equals value. A missing column matches nothing.
func matching(t *domain.Table, col, value string) *domain.Table {
	var recs []domain.Record
	if t.Has(col) {
		for _, rec := range t.Records {
			if rec.Str(col) == value {
				recs = append(recs, rec)
			}
		}
	}
	return t.WithRecords(recs)
}
