package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"freight-tracker/internal/core/cache"
	"freight-tracker/internal/core/logger"
	"freight-tracker/internal/features/tracking/domain"
	"freight-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
)

// CachedAdapter is a read-through cache in front of a CarrierAdapter.
// Cache failures are logged and bypassed; they never fail a fetch.
type CachedAdapter struct {
	next   ports.CarrierAdapter
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedAdapter wraps next with cache c. Results are kept for ttl.
func NewCachedAdapter(next ports.CarrierAdapter, c cache.Cache, ttl time.Duration) *CachedAdapter {
	return &CachedAdapter{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: logger.Get(),
	}
}

// CacheKey returns the key under which a carrier answer is stored.
func CacheKey(carrier domain.Carrier, trackingID string) string {
	return fmt.Sprintf("tracking:%s:%s", carrier, trackingID)
}

// CacheKeyPattern matches every cached answer for carrier, or for all carriers
// when carrier is empty.
func CacheKeyPattern(carrier domain.Carrier) string {
	if carrier == "" {
		return "tracking:*"
	}
	return fmt.Sprintf("tracking:%s:*", carrier)
}

// Carrier implements ports.CarrierAdapter.
func (a *CachedAdapter) Carrier() domain.Carrier {
	return a.next.Carrier()
}

// Fetch implements ports.CarrierAdapter.
func (a *CachedAdapter) Fetch(ctx context.Context, trackingID string) (*domain.FetchResult, error) {
	key := CacheKey(a.next.Carrier(), trackingID)
	log := a.logger.With(zap.String("key", key))

	if data, err := a.cache.Get(ctx, key); err == nil {
		var cached domain.FetchResult
		if err := json.Unmarshal(data, &cached); err == nil {
			log.Debug("Cache hit")
			return &cached, nil
		}
		log.Warn("Discarding unreadable cache entry")
	} else if !errors.Is(err, cache.ErrNotFound) {
		log.Warn("Cache read failed", zap.Error(err))
	}

	result, err := a.next.Fetch(ctx, trackingID)
	if err != nil || result == nil {
		return result, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		log.Warn("Failed to encode result for cache", zap.Error(err))
		return result, nil
	}
	if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
		log.Warn("Cache write failed", zap.Error(err))
	}
	return result, nil
}
