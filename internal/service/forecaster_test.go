package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MarketForecast/internal/cache"
	"MarketForecast/internal/collector"
	"MarketForecast/internal/forecast"
	"MarketForecast/internal/model"
	"MarketForecast/internal/recorder"
)

type countingSource struct {
	inner   Source
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func (s *countingSource) Collect(ctx context.Context, ticker string) (*model.PriceSeries, *model.IntradaySeries, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
		<-s.release
	}
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.inner.Collect(ctx, ticker)
}

type memRecorder struct {
	recorder.NoopRecorder
	mu   sync.Mutex
	runs []recorder.ForecastRun
}

func (r *memRecorder) RecordForecast(run *recorder.ForecastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *run)
	return nil
}

func testConfig() forecast.Config {
	return forecast.Config{
		SeqLength:     20,
		Epochs:        2,
		FutureHorizon: 5,
		HiddenSize:    4,
		MAWindows:     []int{5},
		ExtremaOrder:  3,
		Seed:          1,
	}
}

func newSource() *countingSource {
	c := collector.NewCollector(&collector.MockFetcher{Price: 100}, 150, 0, collector.RetryPolicy{})
	c.Intraday = false
	return &countingSource{inner: c}
}

func TestForecaster_CachesResult(t *testing.T) {
	src := newSource()
	rec := &memRecorder{}
	f := NewForecaster(src, cache.NewMemoryStore(), rec, testConfig(), time.Hour)
	ctx := context.Background()

	first, err := f.Get(ctx, "AAPL", false)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(first.Forecast) != 5 {
		t.Errorf("forecast len = %d, want 5", len(first.Forecast))
	}

	second, err := f.Get(ctx, "AAPL", false)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if second != first {
		t.Error("second Get() did not return the cached result")
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("source calls = %d, want 1", got)
	}

	if _, err := f.Refresh(ctx, "AAPL"); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("source calls after refresh = %d, want 2", got)
	}

	if len(rec.runs) != 2 || rec.runs[0].Status != "ok" || rec.runs[0].TestSamples == 0 {
		t.Errorf("recorded runs = %+v", rec.runs)
	}
}

func TestForecaster_SingleFlight(t *testing.T) {
	src := newSource()
	src.started = make(chan struct{}, 4)
	src.release = make(chan struct{})
	f := NewForecaster(src, cache.NewMemoryStore(), nil, testConfig(), time.Hour)

	const callers = 4
	var wg sync.WaitGroup
	results := make([]*model.ForecastResult, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.Get(context.Background(), "MSFT", true)
		}(i)
	}

	<-src.started
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Errorf("source calls = %d, want 1", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Errorf("caller %d got a different result", i)
		}
	}
}

func TestForecaster_ErrorNotCached(t *testing.T) {
	src := newSource()
	src.err = fmt.Errorf("ZZZZ: %w", forecast.ErrDataUnavailable)
	rec := &memRecorder{}
	store := cache.NewMemoryStore()
	f := NewForecaster(src, store, rec, testConfig(), time.Hour)

	_, err := f.Get(context.Background(), "ZZZZ", false)
	if !errors.Is(err, forecast.ErrDataUnavailable) {
		t.Fatalf("Get() error = %v, want ErrDataUnavailable", err)
	}
	if _, err := store.Get(context.Background(), "ZZZZ"); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("failed run was cached: %v", err)
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != "data_unavailable" {
		t.Errorf("recorded runs = %+v", rec.runs)
	}

	if _, err := f.Get(context.Background(), "ZZZZ", false); err == nil {
		t.Error("second Get() succeeded, want error")
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("source calls = %d, want 2", got)
	}
}

func TestForecaster_CallerCancelled(t *testing.T) {
	src := newSource()
	src.started = make(chan struct{}, 1)
	src.release = make(chan struct{})
	store := cache.NewMemoryStore()
	f := NewForecaster(src, store, nil, testConfig(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.Get(ctx, "NVDA", false)
		done <- err
	}()
	<-src.started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Get() error = %v, want context.Canceled", err)
	}

	close(src.release)
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := store.Get(context.Background(), "NVDA"); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("shared computation did not finish after the caller left")
}

func TestForecaster_Invalidate(t *testing.T) {
	src := newSource()
	store := cache.NewMemoryStore()
	f := NewForecaster(src, store, nil, testConfig(), time.Hour)
	ctx := context.Background()

	if _, err := f.Get(ctx, "AMD", false); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if err := f.Invalidate(ctx, "AMD"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if _, err := store.Get(ctx, "AMD"); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("cache entry survived Invalidate: %v", err)
	}
	if _, err := f.Get(ctx, "AMD", false); err != nil {
		t.Fatalf("Get() after Invalidate error: %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("source calls = %d, want 2", got)
	}
}
