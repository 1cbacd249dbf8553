package collector

import (
	"context"
	"errors"

	"MarketForecast/internal/model"
)

// ErrProvider marks a failure reported by a market-data provider.
var ErrProvider = errors.New("provider error")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	FetchIntradayBars(ctx context.Context, symbol string) ([]model.OHLCV, error)
	Name() string
}
