package cache

import (
	"context"
	"sync"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/pipeline"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// TableLoader produces a fresh normalized table.
type TableLoader interface {
	Load(ctx context.Context) (*domain.Table, pipeline.Summary, error)
}

// TableCache memoizes the normalized table in process. Concurrent first reads share
// one load. Invalidate drops the table and bumps the generation.
type TableCache struct {
	loader TableLoader
	group  singleflight.Group

	mu         sync.RWMutex
	table      *domain.Table
	summary    pipeline.Summary
	generation uint64
}

func NewTableCache(loader TableLoader) *TableCache {
	return &TableCache{loader: loader, generation: 1}
}

// Get returns the cached table, loading it when absent. The table is shared and
// must be treated as read-only.
func (c *TableCache) Get(ctx context.Context) (*domain.Table, uint64, error) {
	c.mu.RLock()
	table, gen := c.table, c.generation
	c.mu.RUnlock()
	if table != nil {
		return table, gen, nil
	}

	type loaded struct {
		table *domain.Table
		gen   uint64
	}

	// the load outlives any single caller; each caller still stops waiting on its own ctx
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("table", func() (any, error) {
		c.mu.RLock()
		table, gen := c.table, c.generation
		c.mu.RUnlock()
		if table != nil {
			return loaded{table, gen}, nil
		}

		table, summary, err := c.loader.Load(loadCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		// a load that raced with Invalidate is returned but not kept
		if c.generation == gen {
			c.table = table
			c.summary = summary
		}
		return loaded{table, gen}, nil
	})

	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, 0, res.Err
		}
		v := res.Val.(loaded)
		return v.table, v.gen, nil
	}
}

// Invalidate drops the memoized table and returns the new generation.
func (c *TableCache) Invalidate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = nil
	c.generation++
	c.group.Forget("table")
	log.Info().Uint64("generation", c.generation).Msg("dashboard table invalidated")
	return c.generation
}

// Refresh invalidates and loads again, returning the summary of the new load.
func (c *TableCache) Refresh(ctx context.Context) (pipeline.Summary, error) {
	c.Invalidate()
	if _, _, err := c.Get(ctx); err != nil {
		return pipeline.Summary{}, err
	}
	summary, _ := c.Summary()
	return summary, nil
}

// Generation is the counter page cache keys are scoped by.
func (c *TableCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Summary returns the summary of the last successful load.
func (c *TableCache) Summary() (pipeline.Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.summary, c.table != nil
}
