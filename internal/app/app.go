// Package app wires configuration into a ready dashboard service.
package app

import (
	"context"
	"fmt"

	"github.com/andresuchdata/salesdash/internal/cache"
	"github.com/andresuchdata/salesdash/internal/config"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/forecast"
	"github.com/andresuchdata/salesdash/internal/pipeline"
	"github.com/andresuchdata/salesdash/internal/service"
	"github.com/andresuchdata/salesdash/internal/source"
	"github.com/rs/zerolog/log"
)

// App holds the long-lived pieces a binary needs.
type App struct {
	Config    *config.Config
	Tables    *cache.TableCache
	Dashboard *service.DashboardService

	closeSource func() error
}

// New builds the source, loader, caches, forecaster and dashboard service from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// 1. Raw record source
	src, closeSource, err := source.FromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build %s source: %w", cfg.Source.Kind, err)
	}

	// 2. Loader and table memo
	schema := domain.DefaultSchema()
	loader := pipeline.NewLoader(cfg.Source.Kind, src, schema, cfg.Source.FetchTimeout)
	tables := cache.NewTableCache(loader)

	// 3. Page cache; a broken redis config falls back to no caching
	pages, err := cache.NewPageCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("page cache disabled")
		pages = cache.NewNoopPageCache()
	}

	// 4. Forecaster
	var forecaster forecast.Forecaster = forecast.NewTrendSeasonalForecaster()
	if cfg.Forecast.URL != "" {
		forecaster = forecast.NewHTTPForecaster(cfg.Forecast.URL, cfg.Forecast.Timeout)
		log.Info().Str("url", cfg.Forecast.URL).Msg("using remote forecaster")
	}
	adapter := forecast.NewAdapter(forecaster, cfg.Forecast.MinPoints)

	dashboard := service.NewDashboardService(tables, pages, adapter, schema, service.HorizonLimits{
		Min:     cfg.Forecast.MinHorizon,
		Max:     cfg.Forecast.MaxHorizon,
		Default: cfg.Forecast.DefaultHorizon,
	})

	return &App{
		Config:      cfg,
		Tables:      tables,
		Dashboard:   dashboard,
		closeSource: closeSource,
	}, nil
}

// Close releases the source connection, if any.
func (a *App) Close() error {
	return a.closeSource()
}
