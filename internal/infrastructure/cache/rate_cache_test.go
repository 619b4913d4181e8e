package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dormbill/backend/internal/domain/metering"
	"github.com/dormbill/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	calls int
	rates metering.UtilityRates
	err   error
}

func (r *countingReader) CurrentRates(context.Context, uuid.UUID) (metering.UtilityRates, error) {
	r.calls++
	return r.rates, r.err
}

// unreachableClient points at a closed port so every command fails fast
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCachedRateReader_FallsBackWhenRedisIsDown(t *testing.T) {
	inner := &countingReader{rates: metering.UtilityRates{
		Water:    decimal.NewFromInt(15),
		Electric: decimal.NewFromInt(8),
	}}
	reader := NewCachedRateReader(inner, unreachableClient(t), 0)
	assert.Equal(t, 5*time.Minute, reader.ttl)

	rates, err := reader.CurrentRates(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15).Equal(rates.Water))
	assert.Equal(t, 1, inner.calls)
}

func TestCachedRateReader_PropagatesInnerError(t *testing.T) {
	inner := &countingReader{err: errors.New("no tariff")}
	reader := NewCachedRateReader(inner, unreachableClient(t), time.Minute)

	_, err := reader.CurrentRates(context.Background(), uuid.New())
	assert.EqualError(t, err, "no tariff")
}

func TestIdempotencyStoreFactory(t *testing.T) {
	ctx := context.Background()

	t.Run("redis disabled", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{}).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("unreachable redis falls back", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(unreachable).CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fallback disabled", func(t *testing.T) {
		_, err := NewIdempotencyStoreFactory(unreachable, WithInMemoryFallback(false)).CreateStore(ctx)
		assert.Error(t, err)
	})
}
