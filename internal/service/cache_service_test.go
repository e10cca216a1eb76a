package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-performance-api/pkg/errors"
)

type brokenCacheRepo struct{}

func (brokenCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("connection reset")
}

func (brokenCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection reset")
}

func (brokenCacheRepo) DeleteByPattern(context.Context, string) error {
	return errors.New("connection reset")
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "transcript:s1", CacheKey(CacheKindTranscript, "s1"))
	assert.Equal(t, "class_report:10A:2024:all", CacheKey(CacheKindClassReport, "10A", "2024", "all"))
}

func TestCacheServiceStoreAndLookup(t *testing.T) {
	repo := &memoryCacheRepo{}
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()

	var got []int
	assert.False(t, cache.Lookup(ctx, CacheKindMonthly, &got, "s1", "2024"))

	cache.Store(ctx, CacheKindMonthly, []int{1, 2, 3}, "s1", "2024")
	require.Contains(t, repo.store, "monthly:s1:2024")
	assert.True(t, cache.Lookup(ctx, CacheKindMonthly, &got, "s1", "2024"))
	assert.Equal(t, []int{1, 2, 3}, got)

	snap := metrics.Snapshot()
	assert.EqualValues(t, 1, snap.CacheHits)
	assert.EqualValues(t, 1, snap.CacheMisses)

	require.NoError(t, cache.Purge(ctx, CacheKindMonthly, "s1"))
	assert.Equal(t, []string{"monthly:s1", "monthly:s1:*"}, repo.deleted)
}

func TestCacheServicePurgeStopsAtKeyBoundary(t *testing.T) {
	repo := &memoryCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	cache.Store(ctx, CacheKindMonthly, 1, "s1", "2024")
	cache.Store(ctx, CacheKindMonthly, 2, "s10", "2024")
	cache.Store(ctx, CacheKindTranscript, 3, "s1")
	cache.Store(ctx, CacheKindTranscript, 4, "s12")

	require.NoError(t, cache.Purge(ctx, CacheKindMonthly, "s1"))
	require.NoError(t, cache.Purge(ctx, CacheKindTranscript, "s1"))

	assert.NotContains(t, repo.store, "monthly:s1:2024")
	assert.NotContains(t, repo.store, "transcript:s1")
	assert.Contains(t, repo.store, "monthly:s10:2024")
	assert.Contains(t, repo.store, "transcript:s12")
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &memoryCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)
	ctx := context.Background()

	cache.Store(ctx, CacheKindTranscript, "x", "s1")
	var out string
	assert.False(t, cache.Lookup(ctx, CacheKindTranscript, &out, "s1"))
	assert.NoError(t, cache.Purge(ctx, CacheKindTranscript, "s1"))
	assert.Empty(t, repo.store)
	assert.Empty(t, repo.deleted)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.False(t, nilCache.Lookup(ctx, CacheKindTranscript, &out, "s1"))
}

func TestCacheServiceBackendFailures(t *testing.T) {
	cache := NewCacheService(brokenCacheRepo{}, NewMetricsService(), time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out string
	assert.False(t, cache.Lookup(ctx, CacheKindTranscript, &out, "s1"))
	cache.Store(ctx, CacheKindTranscript, "x", "s1")

	err := cache.Purge(ctx, CacheKindTranscript, "s1")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)
}
