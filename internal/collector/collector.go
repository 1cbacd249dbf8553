package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"MarketForecast/internal/forecast"
	"MarketForecast/internal/metrics"
	"MarketForecast/internal/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price        float64
	DailyData    []model.OHLCV
	IntradayData []model.OHLCV
	Err          error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, days), nil
}

func (m *MockFetcher) FetchIntradayBars(_ context.Context, _ string) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.IntradayData, nil
}

// generateMockBars returns count consecutive business-day bars ending
// yesterday, oscillating around basePrice.
func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, 0, count)
	day := time.Now().UTC().Truncate(24 * time.Hour)
	for len(bars) < count {
		day = day.AddDate(0, 0, -1)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		bars = append(bars, model.OHLCV{Time: day})
	}
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	for i := range bars {
		bar := &bars[i]
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/7) + float64(i)*0.0005)
		bar.Open = p * 0.999
		bar.High = p * 1.005
		bar.Low = p * 0.995
		bar.Close = p
		bar.AdjClose = p
		bar.Volume = 1000000
	}
	return bars
}

// RetryPolicy bounds provider retries. Delays double from BaseDelay.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Collector fetches ticker history through a Fetcher with rate limiting
// and exponential backoff.
type Collector struct {
	Fetcher     Fetcher
	HistoryDays int
	Intraday    bool
	Retry       RetryPolicy
	limiter     *rate.Limiter
}

// NewCollector creates a new Collector. rps <= 0 disables rate limiting.
func NewCollector(fetcher Fetcher, historyDays int, rps float64, retry RetryPolicy) *Collector {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Collector{
		Fetcher:     fetcher,
		HistoryDays: historyDays,
		Intraday:    true,
		Retry:       retry,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

// withRetry calls fn until it returns non-empty bars, the retries are
// exhausted or ctx is done.
func (c *Collector) withRetry(ctx context.Context, what string, fn func(context.Context) ([]model.OHLCV, error)) ([]model.OHLCV, error) {
	var lastErr error
	for i := 0; i <= c.Retry.MaxRetries; i++ {
		if i > 0 {
			delay := c.Retry.BaseDelay * time.Duration(1<<(i-1))
			log.Warn().Err(lastErr).Str("fetch", what).Int("attempt", i).Dur("backoff", delay).Msg("retrying provider")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		bars, err := fn(ctx)
		switch {
		case err == nil && len(bars) > 0:
			metrics.ProviderAttempts.WithLabelValues(c.Fetcher.Name(), "ok").Inc()
			return bars, nil
		case err == nil:
			lastErr = errors.New("empty response")
			metrics.ProviderAttempts.WithLabelValues(c.Fetcher.Name(), "empty").Inc()
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			metrics.ProviderAttempts.WithLabelValues(c.Fetcher.Name(), "error").Inc()
		}
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %v", forecast.ErrDataUnavailable, what, c.Retry.MaxRetries+1, lastErr)
}

// Collect fetches the daily close series of ticker and, when enabled, its
// intraday bars. Intraday failures are logged and yield a nil series.
func (c *Collector) Collect(ctx context.Context, ticker string) (*model.PriceSeries, *model.IntradaySeries, error) {
	daily, err := c.withRetry(ctx, "daily bars", func(ctx context.Context) ([]model.OHLCV, error) {
		return c.Fetcher.FetchDailyBars(ctx, ticker, c.HistoryDays)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ticker, err)
	}
	series := model.SeriesFromBars(ticker, daily)

	if !c.Intraday {
		return series, nil, nil
	}
	bars, err := c.Fetcher.FetchIntradayBars(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("intraday fetch failed")
		return series, nil, nil
	}
	return series, model.IntradayFromBars(bars), nil
}
