// Package cache stores finished forecast results keyed by ticker.
package cache

import (
	"context"
	"errors"
	"time"

	"MarketForecast/internal/model"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Store is a TTL cache of forecast results. Cached results must be treated
// as read-only by callers.
type Store interface {
	Get(ctx context.Context, ticker string) (*model.ForecastResult, error)
	Set(ctx context.Context, ticker string, res *model.ForecastResult, ttl time.Duration) error
	Delete(ctx context.Context, ticker string) error
	Close() error
}
