package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	drepo "GoldPulse/internal/domain/repository"
	"GoldPulse/pkg/cache"
)

// fakeCache implements the cache.Service surface the vol feed touches.
type fakeCache struct {
	data map[string][]byte
	err  error
}

func newFakeCache() *fakeCache { return &fakeCache{data: make(map[string][]byte)} }

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = b
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	if f.err != nil {
		return f.err
	}
	b, ok := f.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeCache) Exists(_ context.Context, keys ...string) (bool, error) {
	for _, k := range keys {
		if _, ok := f.data[k]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakeCache) Expire(_ context.Context, _ string, _ time.Duration) (bool, error) {
	return true, nil
}

func (f *fakeCache) TryLock(_ context.Context, _ string, _ time.Duration) (bool, error) {
	return true, nil
}

func (f *fakeCache) Unlock(_ context.Context, _ string) error { return nil }

func TestVolFeedRoundTrip(t *testing.T) {
	c := newFakeCache()
	feed := NewRedisVolFeed(c, time.Minute)
	ctx := context.Background()

	if err := feed.Publish(ctx, "XAUUSD", 0.023); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	vol, age, err := feed.Latest(ctx, "XAUUSD")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if vol != 0.023 {
		t.Fatalf("vol = %v, want 0.023", vol)
	}
	if age < 0 || age > time.Minute {
		t.Fatalf("unexpected age %v", age)
	}
}

func TestVolFeedMissingReadingIsStale(t *testing.T) {
	feed := NewRedisVolFeed(newFakeCache(), time.Minute)
	_, _, err := feed.Latest(context.Background(), "XAUUSD")
	if !errors.Is(err, drepo.ErrStaleVolatility) {
		t.Fatalf("missing reading error = %v, want ErrStaleVolatility", err)
	}
}

func TestVolFeedExpiredReadingIsStale(t *testing.T) {
	c := newFakeCache()
	feed := NewRedisVolFeed(c, time.Minute)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	feed.now = func() time.Time { return base }
	if err := feed.Publish(ctx, "XAUUSD", 0.02); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	feed.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, age, err := feed.Latest(ctx, "XAUUSD")
	if !errors.Is(err, drepo.ErrStaleVolatility) {
		t.Fatalf("expired reading error = %v, want ErrStaleVolatility", err)
	}
	if age != 2*time.Minute {
		t.Fatalf("age = %v, want 2m", age)
	}
}

func TestVolFeedBackendErrorWrapped(t *testing.T) {
	c := newFakeCache()
	c.err = errors.New("redis unavailable")
	feed := NewRedisVolFeed(c, time.Minute)

	if err := feed.Publish(context.Background(), "XAUUSD", 0.02); err == nil {
		t.Fatalf("backend failure must surface on publish")
	}
	_, _, err := feed.Latest(context.Background(), "XAUUSD")
	if err == nil || errors.Is(err, drepo.ErrStaleVolatility) {
		t.Fatalf("backend failure must not read as staleness, got %v", err)
	}
}

func TestVolFeedDefaultExpiry(t *testing.T) {
	feed := NewRedisVolFeed(newFakeCache(), 0)
	if feed.expiry != 120*time.Second {
		t.Fatalf("default expiry = %v, want 120s", feed.expiry)
	}
}
