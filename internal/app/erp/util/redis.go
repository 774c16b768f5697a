package util

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName         = "erp"
	rateLatestPrefix    = "rate:latest:"
	ratePeriodAvgPrefix = "rate:avg:"
)

// RateCache - кеш курсов валют в Redis
// Свежий курс и средние за период кешируются с TTL чтобы страницы
// не ходили в БД на каждую конвертацию
type RateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRateCache подключается к Redis и возвращает кеш курсов
func NewRateCache(addr, password string, db int, ttl time.Duration) (*RateCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RateCache{client: client, ttl: ttl}, nil
}

// NewRateCacheWithClient оборачивает готовый клиент (используется в тестах)
func NewRateCacheWithClient(client *redis.Client, ttl time.Duration) *RateCache {
	return &RateCache{client: client, ttl: ttl}
}

// GetLatest получает свежий курс валюты из кеша
// Промах кеша - (nil, nil), не ошибка
func (c *RateCache) GetLatest(ctx context.Context, currencyCode string) (*entity.ExchangeRate, error) {
	key := rateLatestPrefix + currencyCode

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss(serviceName, rateLatestPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, "get")
		return nil, fmt.Errorf("failed to get rate from cache: %w", err)
	}

	var rate entity.ExchangeRate
	if err := json.Unmarshal(data, &rate); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached rate: %w", err)
	}

	metrics.RecordCacheHit(serviceName, rateLatestPrefix)
	return &rate, nil
}

// SetLatest кеширует свежий курс валюты
func (c *RateCache) SetLatest(ctx context.Context, rate *entity.ExchangeRate) error {
	key := rateLatestPrefix + rate.CurrencyCode

	data, err := json.Marshal(rate)
	if err != nil {
		return fmt.Errorf("failed to marshal rate: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, "set")
		return fmt.Errorf("failed to cache rate: %w", err)
	}
	return nil
}

// SetLatestBatch кеширует несколько курсов одним pipeline
func (c *RateCache) SetLatestBatch(ctx context.Context, rates []entity.ExchangeRate) error {
	pipe := c.client.Pipeline()

	for i := range rates {
		data, err := json.Marshal(&rates[i])
		if err != nil {
			return fmt.Errorf("failed to marshal rate for %s: %w", rates[i].CurrencyCode, err)
		}
		pipe.Set(ctx, rateLatestPrefix+rates[i].CurrencyCode, data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordRedisError(serviceName, "set")
		return fmt.Errorf("failed to cache rates batch: %w", err)
	}
	return nil
}

// PeriodKey собирает ключ периода: 2026Q1 либо 2026M02
func PeriodKey(year, quarter, month int) string {
	if quarter > 0 {
		return fmt.Sprintf("%dQ%d", year, quarter)
	}
	return fmt.Sprintf("%dM%02d", year, month)
}

// GetPeriodAverage получает средний курс за период из кеша
// Промах - (0, false, nil)
func (c *RateCache) GetPeriodAverage(ctx context.Context, currencyCode, periodKey string) (float64, bool, error) {
	key := ratePeriodAvgPrefix + currencyCode + ":" + periodKey

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss(serviceName, ratePeriodAvgPrefix)
			return 0, false, nil
		}
		metrics.RecordRedisError(serviceName, "get")
		return 0, false, fmt.Errorf("failed to get period average from cache: %w", err)
	}

	avg, err := strconv.ParseFloat(data, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse cached average: %w", err)
	}

	metrics.RecordCacheHit(serviceName, ratePeriodAvgPrefix)
	return avg, true, nil
}

// SetPeriodAverage кеширует средний курс за период
// Завершенные периоды неизменны, поэтому TTL здесь длиннее обычного
func (c *RateCache) SetPeriodAverage(ctx context.Context, currencyCode, periodKey string, avg float64) error {
	key := ratePeriodAvgPrefix + currencyCode + ":" + periodKey

	value := strconv.FormatFloat(avg, 'f', -1, 64)
	if err := c.client.Set(ctx, key, value, 24*time.Hour).Err(); err != nil {
		metrics.RecordRedisError(serviceName, "set")
		return fmt.Errorf("failed to cache period average: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (c *RateCache) Close() error {
	return c.client.Close()
}
