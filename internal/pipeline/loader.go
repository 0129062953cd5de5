// Package pipeline turns the raw rows of a source into the normalized table every
// dashboard page reads from.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/metrics"
	"github.com/andresuchdata/salesdash/internal/normalize"
	"github.com/andresuchdata/salesdash/internal/source"
	"github.com/rs/zerolog/log"
)

// Loader fetches, normalizes and enriches the sheet.
type Loader struct {
	name       string
	src        source.RawRecordSource
	normalizer *normalize.Normalizer
	engine     *metrics.Engine
	timeout    time.Duration
}

// NewLoader creates a Loader. name labels the source in logs and summaries; a zero
// timeout leaves the fetch bounded only by ctx.
func NewLoader(name string, src source.RawRecordSource, schema domain.Schema, timeout time.Duration) *Loader {
	return &Loader{
		name:       name,
		src:        src,
		normalizer: normalize.New(schema),
		engine:     metrics.NewEngine(),
		timeout:    timeout,
	}
}

// Load runs one full pass. The returned table is new on every call and never
// shared with an earlier load.
func (l *Loader) Load(ctx context.Context) (*domain.Table, Summary, error) {
	summary := Summary{Source: l.name, StartedAt: time.Now()}
	finish := func(err error) Summary {
		summary.CompletedAt = time.Now()
		summary.Duration = summary.CompletedAt.Sub(summary.StartedAt)
		summary.Status = StatusCompleted
		if err != nil {
			summary.Status = StatusFailed
			summary.Error = err.Error()
		}
		return summary
	}

	fetchCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	// 1. Fetch raw rows
	headers, rows, err := l.src.FetchRawRows(fetchCtx)
	if err != nil {
		err = fmt.Errorf("load %s: %w", l.name, err)
		log.Error().Err(err).Str("source", l.name).Msg("failed to fetch raw rows")
		return nil, finish(err), err
	}

	// 2. Normalize
	table, report := l.normalizer.Normalize(domain.FromRows(headers, rows))
	summary.Normalize = report

	// 3. Derive metrics
	table = l.engine.Apply(table)

	summary.Columns = len(table.Columns())
	summary.Rows = table.Len()
	summary = finish(nil)

	log.Info().
		Str("source", l.name).
		Int("input_rows", report.InputRows).
		Int("rows", summary.Rows).
		Int("dropped_rows", report.DroppedRows).
		Dur("duration", summary.Duration).
		Msg("dashboard table loaded")

	return table, summary, nil
}
