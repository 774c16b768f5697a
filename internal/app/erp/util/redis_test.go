package util

import (
	"context"
	"testing"
	"time"

	"cedarworks/internal/app/erp/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestCache(t *testing.T) (*RateCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRateCacheWithClient(client, 30*time.Minute), mr
}

func TestRateCache_LatestRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	rate := &entity.ExchangeRate{
		CurrencyCode: "KRW",
		Rate:         1310.5,
		RateDate:     time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
	}

	assert.NoError(t, cache.SetLatest(ctx, rate))

	got, err := cache.GetLatest(ctx, "KRW")
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.InDelta(t, 1310.5, got.Rate, 0.0001)
	assert.Equal(t, "KRW", got.CurrencyCode)
}

func TestRateCache_MissIsNotError(t *testing.T) {
	cache, _ := newTestCache(t)

	got, err := cache.GetLatest(context.Background(), "VND")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRateCache_LatestExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	assert.NoError(t, cache.SetLatest(ctx, &entity.ExchangeRate{CurrencyCode: "KRW", Rate: 1300}))

	mr.FastForward(31 * time.Minute)

	got, err := cache.GetLatest(ctx, "KRW")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRateCache_SetLatestBatch(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	rates := []entity.ExchangeRate{
		{CurrencyCode: "KRW", Rate: 1310},
		{CurrencyCode: "VND", Rate: 24100},
		{CurrencyCode: "IDR", Rate: 15600},
	}

	assert.NoError(t, cache.SetLatestBatch(ctx, rates))

	for _, r := range rates {
		got, err := cache.GetLatest(ctx, r.CurrencyCode)
		assert.NoError(t, err)
		assert.NotNil(t, got)
		assert.InDelta(t, r.Rate, got.Rate, 0.0001)
	}
}

func TestRateCache_PeriodAverage(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.GetPeriodAverage(ctx, "KRW", "2026Q1")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, cache.SetPeriodAverage(ctx, "KRW", "2026Q1", 1320.25))

	avg, ok, err := cache.GetPeriodAverage(ctx, "KRW", "2026Q1")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 1320.25, avg, 0.0001)
}

func TestPeriodKey(t *testing.T) {
	assert.Equal(t, "2026Q1", PeriodKey(2026, 1, 0))
	assert.Equal(t, "2026M02", PeriodKey(2026, 0, 2))
	assert.Equal(t, "2026M11", PeriodKey(2026, 0, 11))
}
