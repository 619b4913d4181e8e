package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dormbill/backend/internal/domain/metering"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ratesKeyPrefix = "dormbill:rates:"

// CachedRateReader is a read-through redis cache in front of a
// UtilityRateReader. Cache failures are logged and the inner reader answers.
type CachedRateReader struct {
	inner  metering.UtilityRateReader
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCachedRateReader wraps inner. A non-positive ttl defaults to five minutes.
func NewCachedRateReader(inner metering.UtilityRateReader, client redis.UniversalClient, ttl time.Duration) *CachedRateReader {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRateReader{inner: inner, client: client, ttl: ttl}
}

// CurrentRates returns the cached tariffs of propertyID, loading and caching
// them on a miss
func (c *CachedRateReader) CurrentRates(ctx context.Context, propertyID uuid.UUID) (metering.UtilityRates, error) {
	key := ratesKeyPrefix + propertyID.String()

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rates metering.UtilityRates
		if jsonErr := json.Unmarshal(raw, &rates); jsonErr == nil {
			return rates, nil
		}
		logger.L(ctx).Warn("Discarding undecodable cached rates", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		logger.L(ctx).Warn("Rate cache read failed", zap.Error(err))
	}

	rates, err := c.inner.CurrentRates(ctx, propertyID)
	if err != nil {
		return metering.UtilityRates{}, err
	}

	if encoded, err := json.Marshal(rates); err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			logger.L(ctx).Warn("Rate cache write failed", zap.Error(err))
		}
	}
	return rates, nil
}

// Invalidate drops the cached tariffs of propertyID
func (c *CachedRateReader) Invalidate(ctx context.Context, propertyID uuid.UUID) error {
	return c.client.Del(ctx, ratesKeyPrefix+propertyID.String()).Err()
}

var _ metering.UtilityRateReader = (*CachedRateReader)(nil)
