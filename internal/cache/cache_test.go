package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andresuchdata/salesdash/internal/config"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/pipeline"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (l *countingLoader) Load(ctx context.Context) (*domain.Table, pipeline.Summary, error) {
	n := l.calls.Add(1)
	time.Sleep(l.delay)
	if l.err != nil {
		return nil, pipeline.Summary{}, l.err
	}
	t := domain.NewTable(domain.Column{Name: domain.ColDate, Kind: domain.KindDate})
	return t, pipeline.Summary{Source: "stub", Rows: int(n)}, nil
}

func TestTableCacheLoadsOnceForConcurrentReaders(t *testing.T) {
	loader := &countingLoader{delay: 20 * time.Millisecond}
	c := NewTableCache(loader)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, gen, err := c.Get(context.Background())
			assert.NoError(t, err)
			assert.NotNil(t, table)
			assert.Equal(t, uint64(1), gen)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())

	_, _, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), loader.calls.Load(), "memoized table is reused")
}

func TestTableCacheInvalidateBumpsGeneration(t *testing.T) {
	loader := &countingLoader{}
	c := NewTableCache(loader)

	first, gen, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)

	assert.Equal(t, uint64(2), c.Invalidate())

	second, gen, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), gen)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestTableCacheRefreshReturnsSummary(t *testing.T) {
	c := NewTableCache(&countingLoader{})

	summary, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stub", summary.Source)
	assert.Equal(t, uint64(2), c.Generation())
}

func TestTableCacheDoesNotKeepFailures(t *testing.T) {
	loader := &countingLoader{err: domain.ErrSourceUnavailable}
	c := NewTableCache(loader)

	_, _, err := c.Get(context.Background())
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))

	_, ok := c.Summary()
	assert.False(t, ok)

	_, _, _ = c.Get(context.Background())
	assert.Equal(t, int32(2), loader.calls.Load(), "a failed load is retried on the next read")
}

type gatedLoader struct {
	started chan struct{}
	release chan struct{}
	ctxErr  error
}

func (l *gatedLoader) Load(ctx context.Context) (*domain.Table, pipeline.Summary, error) {
	close(l.started)
	<-l.release
	if err := ctx.Err(); err != nil {
		l.ctxErr = err
		return nil, pipeline.Summary{}, err
	}
	return domain.NewTable(domain.Column{Name: domain.ColDate, Kind: domain.KindDate}), pipeline.Summary{Source: "gated"}, nil
}

func TestTableCacheLoadSurvivesCancelledCaller(t *testing.T) {
	loader := &gatedLoader{started: make(chan struct{}), release: make(chan struct{})}
	c := NewTableCache(loader)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.Get(ctx)
		firstErr <- err
	}()
	<-loader.started

	second := make(chan error, 1)
	go func() {
		_, _, err := c.Get(context.Background())
		second <- err
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(loader.release)
	require.NoError(t, <-second)
	assert.NoError(t, loader.ctxErr)

	table, gen, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, table)
	assert.Equal(t, uint64(1), gen)
}

func TestBuildPageKey(t *testing.T) {
	assert.Equal(t, "salesdash:page:sales:3:default", buildPageKey("sales", 3, ""))
	assert.Equal(t, "salesdash:page:inventory:1:abc", buildPageKey("inventory", 1, "abc"))
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@redis.local:6379/1"})
	require.NoError(t, err)
	assert.Equal(t, "redis.local:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}

func TestNewPageCacheDisabledIsNoop(t *testing.T) {
	c, err := NewPageCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	require.NoError(t, c.Set(context.Background(), "sales", 1, "x", map[string]int{"a": 1}))
	var dest map[string]int
	hit, err := c.Get(context.Background(), "sales", 1, "x", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.InvalidateAll(context.Background()))
}

func TestRedisPageCacheSurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := &redisPageCache{client: client, ttl: time.Minute}

	var dest map[string]int
	hit, err := c.Get(context.Background(), "sales", 1, "x", &dest)
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Error(t, c.Set(context.Background(), "sales", 1, "x", dest))
}
