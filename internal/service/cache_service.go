package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-performance-api/pkg/errors"
)

// Result kinds kept in the cache. Each kind is the first segment of its keys.
const (
	CacheKindTranscript  = "transcript"
	CacheKindMonthly     = "monthly"
	CacheKindClassReport = "class_report"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService stores computed results as JSON under "<kind>:<part>:<part>..." keys.
// A disabled service reports every lookup as a miss and drops writes.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// CacheKey joins a result kind and its identifying parts.
func CacheKey(kind string, parts ...string) string {
	return strings.Join(append([]string{kind}, parts...), ":")
}

// Lookup decodes the cached result into dest and reports whether it was found.
// Backend failures are logged and treated as misses.
func (s *CacheService) Lookup(ctx context.Context, kind string, dest interface{}, parts ...string) bool {
	if !s.Enabled() {
		return false
	}
	key := CacheKey(kind, parts...)
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	s.metrics.RecordCacheLookup(kind, hit, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	return hit
}

// Store caches value for the configured TTL. Failures are logged only.
func (s *CacheService) Store(ctx context.Context, kind string, value interface{}, parts ...string) {
	if !s.Enabled() {
		return
	}
	key := CacheKey(kind, parts...)
	start := time.Now()
	err := s.repo.Set(ctx, key, value, s.ttl)
	s.metrics.ObserveCacheOp(kind, "set", time.Since(start))
	if err != nil {
		s.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
}

// Purge removes the entry keyed by parts and every entry nested under it.
// "monthly:s1" purges "monthly:s1:2024" but never "monthly:s10".
func (s *CacheService) Purge(ctx context.Context, kind string, parts ...string) error {
	if !s.Enabled() {
		return nil
	}
	key := CacheKey(kind, parts...)
	start := time.Now()
	defer func() { s.metrics.ObserveCacheOp(kind, "purge", time.Since(start)) }()
	for _, pattern := range []string{key, key + ":*"} {
		if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("cache purge failed", zap.String("pattern", pattern), zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to purge cached results")
		}
	}
	return nil
}
