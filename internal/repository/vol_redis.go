package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	drepo "GoldPulse/internal/domain/repository"
	"GoldPulse/pkg/cache"
)

const volKeyPrefix = "vol"

// volReading is the payload shared through Redis.
type volReading struct {
	Symbol     string  `json:"symbol"`
	Volatility float64 `json:"volatility"`
	Ts         int64   `json:"ts"` // unix millis
}

// RedisVolFeed shares the latest volatility reading per symbol through
// Redis so sibling processes see the same risk context. Readings
// expire after twice the staleness window; Latest additionally checks
// the embedded timestamp so clock-skewed writers cannot serve stale
// data forever.
type RedisVolFeed struct {
	cache  cache.Service
	expiry time.Duration
	now    func() time.Time
}

// NewRedisVolFeed builds the feed. A non-positive expiry falls back to
// 120 seconds.
func NewRedisVolFeed(c cache.Service, expiry time.Duration) *RedisVolFeed {
	if expiry <= 0 {
		expiry = 120 * time.Second
	}
	return &RedisVolFeed{cache: c, expiry: expiry, now: time.Now}
}

func (f *RedisVolFeed) Publish(ctx context.Context, symbol string, vol float64) error {
	reading := volReading{Symbol: symbol, Volatility: vol, Ts: f.now().UnixMilli()}
	if err := f.cache.Set(ctx, cache.GenerateKey(volKeyPrefix, symbol), reading, 2*f.expiry); err != nil {
		return fmt.Errorf("publish volatility for %s: %w", symbol, err)
	}
	return nil
}

func (f *RedisVolFeed) Latest(ctx context.Context, symbol string) (float64, time.Duration, error) {
	var reading volReading
	if err := f.cache.Get(ctx, cache.GenerateKey(volKeyPrefix, symbol), &reading); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return 0, 0, drepo.ErrStaleVolatility
		}
		return 0, 0, fmt.Errorf("read volatility for %s: %w", symbol, err)
	}
	age := f.now().Sub(time.UnixMilli(reading.Ts))
	if age > f.expiry {
		return 0, age, drepo.ErrStaleVolatility
	}
	return reading.Volatility, age, nil
}
