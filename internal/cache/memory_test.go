package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketForecast/internal/model"
)

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "AAPL"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get(empty) error = %v, want ErrCacheMiss", err)
	}

	res := &model.ForecastResult{Ticker: "AAPL"}
	if err := s.Set(ctx, "AAPL", res, time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := s.Get(ctx, "AAPL")
	if err != nil || got != res {
		t.Fatalf("Get() = %v, %v", got, err)
	}

	if err := s.Delete(ctx, "AAPL"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Get(ctx, "AAPL"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(deleted) error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	s.Set(ctx, "MSFT", &model.ForecastResult{Ticker: "MSFT"}, time.Hour)
	s.Set(ctx, "NVDA", &model.ForecastResult{Ticker: "NVDA"}, 0)

	now = now.Add(59 * time.Minute)
	if _, err := s.Get(ctx, "MSFT"); err != nil {
		t.Errorf("Get() before expiry error: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Get(ctx, "MSFT"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}
	if _, err := s.Get(ctx, "NVDA"); err != nil {
		t.Errorf("Get() with no ttl error: %v", err)
	}
}

func TestMemoryStore_ExpiryKeepsConcurrentSet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	s.Set(ctx, "AAPL", &model.ForecastResult{Ticker: "AAPL"}, time.Minute)
	now = now.Add(2 * time.Minute)

	fresh := &model.ForecastResult{Ticker: "AAPL", LastUpdated: now}
	refreshed := false
	s.now = func() time.Time {
		// Runs inside Get between the expiry read and the delete.
		if !refreshed {
			refreshed = true
			s.Set(ctx, "AAPL", fresh, time.Hour)
		}
		return now
	}

	if _, err := s.Get(ctx, "AAPL"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() on expired entry error = %v, want ErrCacheMiss", err)
	}
	got, err := s.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("entry written during expiry was removed: %v", err)
	}
	if got != fresh {
		t.Errorf("Get() = %+v, want the fresh entry", got)
	}
}
