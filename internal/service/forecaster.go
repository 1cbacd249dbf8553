// Package service applies the caller-side policy around a forecast run:
// result caching, single-flight per ticker, fetching and run history.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"MarketForecast/internal/cache"
	"MarketForecast/internal/forecast"
	"MarketForecast/internal/metrics"
	"MarketForecast/internal/model"
	"MarketForecast/internal/recorder"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Source supplies the price history of a ticker.
type Source interface {
	Collect(ctx context.Context, ticker string) (*model.PriceSeries, *model.IntradaySeries, error)
}

// Forecaster serves forecast results, computing each ticker at most once
// at a time and caching the result for TTL.
type Forecaster struct {
	source   Source
	store    cache.Store
	recorder recorder.Recorder
	cfg      forecast.Config
	ttl      time.Duration
	group    singleflight.Group
}

// NewForecaster creates a Forecaster. A nil recorder disables run history.
func NewForecaster(source Source, store cache.Store, rec recorder.Recorder, cfg forecast.Config, ttl time.Duration) *Forecaster {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Forecaster{source: source, store: store, recorder: rec, cfg: cfg, ttl: ttl}
}

// Get returns the forecast for ticker, from cache unless refresh is set.
// The shared computation outlives a cancelled caller so other waiters
// still get the result.
func (f *Forecaster) Get(ctx context.Context, ticker string, refresh bool) (*model.ForecastResult, error) {
	if !refresh {
		res, err := f.store.Get(ctx, ticker)
		switch {
		case err == nil:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return res, nil
		case errors.Is(err, cache.ErrCacheMiss):
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		default:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("ticker", ticker).Msg("cache lookup failed")
		}
	}

	ch := f.group.DoChan(ticker, func() (any, error) {
		return f.compute(context.WithoutCancel(ctx), ticker)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*model.ForecastResult), nil
	}
}

// Refresh recomputes ticker and overwrites its cache entry.
func (f *Forecaster) Refresh(ctx context.Context, ticker string) (*model.ForecastResult, error) {
	return f.Get(ctx, ticker, true)
}

// Invalidate drops the cached result for ticker so the next Get recomputes it.
func (f *Forecaster) Invalidate(ctx context.Context, ticker string) error {
	if err := f.store.Delete(ctx, ticker); err != nil {
		return fmt.Errorf("invalidate %s: %w", ticker, err)
	}
	log.Info().Str("ticker", ticker).Msg("cache invalidated")
	return nil
}

func (f *Forecaster) compute(ctx context.Context, ticker string) (*model.ForecastResult, error) {
	start := time.Now()
	run := &recorder.ForecastRun{
		Time:         start,
		Ticker:       ticker,
		LastPrice:    math.NaN(),
		HorizonPrice: math.NaN(),
		MSE:          math.NaN(),
		MAPE:         math.NaN(),
		FinalLoss:    math.NaN(),
	}
	defer func() {
		run.Duration = time.Since(start)
		if err := f.recorder.RecordForecast(run); err != nil {
			log.Error().Err(err).Str("ticker", ticker).Msg("record forecast run failed")
		}
	}()

	outcome, err := f.run(ctx, ticker)
	if err != nil {
		kind := forecast.ErrorKind(err)
		run.Status = kind
		run.Error = err.Error()
		metrics.ForecastErrors.WithLabelValues(kind).Inc()
		metrics.ForecastDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		log.Error().Err(err).Str("ticker", ticker).Str("kind", kind).Msg("forecast failed")
		return nil, err
	}

	res := outcome.Result
	run.Status = "ok"
	run.LastPrice = res.LastPrice()
	run.HorizonPrice = res.HorizonPrice()
	run.MSE = float64(res.Metrics.MSE)
	run.MAPE = float64(res.Metrics.MAPE)
	run.FinalLoss = outcome.Training.FinalLoss
	run.Epochs = outcome.Training.Epochs
	run.TrainSamples = outcome.TrainSamples
	run.TestSamples = outcome.TestSamples

	metrics.ForecastDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	metrics.FinalLoss.WithLabelValues(ticker).Set(outcome.Training.FinalLoss)

	if err := f.store.Set(ctx, ticker, res, f.ttl); err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("cache store failed")
	}
	return res, nil
}

func (f *Forecaster) run(ctx context.Context, ticker string) (*forecast.Outcome, error) {
	series, intraday, err := f.source.Collect(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return forecast.Run(ctx, ticker, series, intraday, f.cfg)
}
