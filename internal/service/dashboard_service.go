package service

import (
	"context"
	"fmt"

	"github.com/andresuchdata/salesdash/internal/cache"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/filter"
	"github.com/andresuchdata/salesdash/internal/forecast"
	"github.com/andresuchdata/salesdash/internal/lookup"
	"github.com/andresuchdata/salesdash/internal/pipeline"
	"github.com/rs/zerolog/log"
)

// Page names, used as cache key segments.
const (
	PageSales            = "sales"
	PageInventory        = "inventory"
	PageCustomerSupplier = "customer_supplier"
	PageForecast         = "forecast"
)

// FilterableColumns are the columns the filter widgets offer values for.
var FilterableColumns = []string{
	domain.ColDayType,
	domain.ColProduct,
	domain.ColCategory,
	domain.ColCustomerName,
	domain.ColSupplier,
	domain.ColStockAlert,
	domain.ColRegion,
	domain.ColCustomerFlag,
	domain.ColPaymentMethod,
	domain.ColOrderStatus,
}

// TableSource hands out the current normalized table and reloads it on demand.
type TableSource interface {
	Get(ctx context.Context) (*domain.Table, uint64, error)
	Refresh(ctx context.Context) (pipeline.Summary, error)
}

// HorizonLimits bounds the forecast horizon in days.
type HorizonLimits struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

type DashboardService struct {
	tables   TableSource
	pages    cache.PageCache
	adapter  *forecast.Adapter
	schema   domain.Schema
	horizons HorizonLimits
}

func NewDashboardService(tables TableSource, pages cache.PageCache, adapter *forecast.Adapter, schema domain.Schema, horizons HorizonLimits) *DashboardService {
	if pages == nil {
		pages = cache.NewNoopPageCache()
	}
	if adapter == nil {
		adapter = forecast.NewAdapter(forecast.NewTrendSeasonalForecaster(), forecast.DefaultMinPoints)
	}
	if horizons.Min <= 0 {
		horizons.Min = 7
	}
	if horizons.Max < horizons.Min {
		horizons.Max = 730
	}
	if horizons.Default < horizons.Min || horizons.Default > horizons.Max {
		horizons.Default = 30
	}
	return &DashboardService{
		tables:   tables,
		pages:    pages,
		adapter:  adapter,
		schema:   schema,
		horizons: horizons,
	}
}

// Horizons returns the accepted forecast horizon range.
func (s *DashboardService) Horizons() HorizonLimits {
	return s.horizons
}

// cachedPage serves page from the page cache, building and storing it on a miss.
// Cache failures are logged and never fail the request.
func cachedPage[T any](ctx context.Context, s *DashboardService, page string, gen uint64, key string, build func() T) T {
	var cached T
	if ok, err := s.pages.Get(ctx, page, gen, key, &cached); err == nil && ok {
		return cached
	} else if err != nil {
		log.Warn().Err(err).Str("page", page).Msg("dashboard: cache get failed")
	}

	result := build()

	if err := s.pages.Set(ctx, page, gen, key, result); err != nil {
		log.Warn().Err(err).Str("page", page).Msg("dashboard: cache set failed")
	}
	return result
}

// SalesOverview builds the sales overview page for sel.
func (s *DashboardService) SalesOverview(ctx context.Context, sel domain.FilterSelection) (*domain.SalesOverview, error) {
	t, gen, err := s.tables.Get(ctx)
	if err != nil {
		return nil, err
	}
	page := cachedPage(ctx, s, PageSales, gen, sel.Hash(), func() domain.SalesOverview {
		return BuildSalesOverview(filter.Apply(t, sel), s.schema)
	})
	return &page, nil
}

// Inventory builds the inventory analysis page for sel.
func (s *DashboardService) Inventory(ctx context.Context, sel domain.FilterSelection) (*domain.Inventory, error) {
	t, gen, err := s.tables.Get(ctx)
	if err != nil {
		return nil, err
	}
	page := cachedPage(ctx, s, PageInventory, gen, sel.Hash(), func() domain.Inventory {
		return BuildInventory(filter.Apply(t, sel), s.schema)
	})
	return &page, nil
}

// CustomerSupplier builds the customer and supplier page. A non-empty focus narrows
// the page to that one customer.
func (s *DashboardService) CustomerSupplier(ctx context.Context, sel domain.FilterSelection, focus string) (*domain.CustomerSupplier, error) {
	t, gen, err := s.tables.Get(ctx)
	if err != nil {
		return nil, err
	}
	if focus != "" && t.Has(domain.ColCustomerName) {
		sel = sel.WithSingle(domain.ColCustomerName, focus)
	} else {
		focus = ""
	}
	page := cachedPage(ctx, s, PageCustomerSupplier, gen, sel.Hash(), func() domain.CustomerSupplier {
		return BuildCustomerSupplier(filter.Apply(t, sel), s.schema, focus)
	})
	return &page, nil
}

// OrderLookup finds an invoice and summarizes it.
func (s *DashboardService) OrderLookup(ctx context.Context, invoiceID string) (*domain.OrderLookup, error) {
	t, _, err := s.tables.Get(ctx)
	if err != nil {
		return nil, err
	}
	items, err := lookup.FindInvoice(t, invoiceID)
	if err != nil {
		return nil, err
	}
	summary := lookup.Summarize(invoiceID, items)
	return &summary, nil
}

// FilterOptions lists the values and date bounds the filter widgets offer.
func (s *DashboardService) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	t, _, err := s.tables.Get(ctx)
	if err != nil {
		return nil, err
	}

	opts := &domain.FilterOptions{
		Values: make(map[string][]string, len(FilterableColumns)),
		Rows:   t.Len(),
	}
	for _, col := range FilterableColumns {
		if values := filter.Options(t, col); values != nil {
			opts.Values[col] = values
		}
	}
	if minDate, maxDate, ok := filter.DateBounds(t); ok {
		opts.MinDate, opts.MaxDate = minDate, maxDate
	}
	return opts, nil
}

// Refresh reloads the table from the source and drops every cached page.
func (s *DashboardService) Refresh(ctx context.Context) (pipeline.Summary, error) {
	summary, err := s.tables.Refresh(ctx)
	if err != nil {
		return summary, fmt.Errorf("refresh failed: %w", err)
	}
	if err := s.pages.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache invalidate failed")
	}
	return summary, nil
}
