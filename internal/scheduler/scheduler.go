package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"MarketForecast/internal/forecast"
	"MarketForecast/internal/model"
	"MarketForecast/internal/notifier"
	"MarketForecast/internal/recorder"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Forecaster serves forecast results; refresh bypasses any cache.
type Forecaster interface {
	Get(ctx context.Context, ticker string, refresh bool) (*model.ForecastResult, error)
}

// Sender delivers messages to the operator.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the cron-driven watchlist refresh.
type Scheduler struct {
	Cron       *cron.Cron
	Forecaster Forecaster
	Notifier   Sender // nil disables digests
	Recorder   recorder.Recorder
	Watchlist  []string
	Ctx        context.Context

	mu sync.Mutex // serialises refresh passes
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, f Forecaster, tn Sender, rec recorder.Recorder, watchlist []string) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Forecaster: f,
		Notifier:   tn,
		Recorder:   rec,
		Watchlist:  watchlist,
		Ctx:        ctx,
	}
}

// Register registers the watchlist refresh task.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() { s.refreshTask() }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("tickers", len(s.Watchlist)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately (for RUN_ON_START).
func (s *Scheduler) RunRefreshNow() *recorder.RefreshRun {
	return s.refreshTask()
}

// refreshTask recomputes every watchlist ticker one at a time.
func (s *Scheduler) refreshTask() *recorder.RefreshRun {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info().Int("tickers", len(s.Watchlist)).Msg("running refresh task")
	run := &recorder.RefreshRun{Started: time.Now(), Tickers: len(s.Watchlist)}
	var (
		results  []*model.ForecastResult
		failures []notifier.DigestFailure
	)
	for _, ticker := range s.Watchlist {
		if s.Ctx.Err() != nil {
			log.Warn().Msg("refresh task interrupted")
			break
		}
		res, err := s.Forecaster.Get(s.Ctx, ticker, true)
		if err != nil {
			failures = append(failures, notifier.DigestFailure{Ticker: ticker, Kind: forecast.ErrorKind(err)})
			continue
		}
		results = append(results, res)
	}
	run.Finished = time.Now()
	run.Succeeded = len(results)
	run.Failed = len(failures)

	log.Info().Int("ok", run.Succeeded).Int("failed", run.Failed).
		Dur("elapsed", run.Finished.Sub(run.Started)).Msg("refresh task done")

	if err := s.Recorder.RecordRefresh(run); err != nil {
		log.Error().Err(err).Msg("record refresh")
	}
	if len(results) > 0 || len(failures) > 0 {
		s.trySend(notifier.FormatDigest(results, failures, run.Finished))
	}
	return run
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	arg, valid := "", false
	if len(fields) > 1 {
		arg, valid = forecast.NormalizeTicker(fields[1])
	}

	switch fields[0] {
	case "/forecast":
		if !valid {
			return "Usage: /forecast TICKER"
		}
		res, err := s.Forecaster.Get(ctx, arg, false)
		if err != nil {
			return fmt.Sprintf("❌ %s: %s", arg, forecast.ErrorKind(err))
		}
		return notifier.FormatForecast(res)
	case "/runs":
		if !valid {
			return "Usage: /runs TICKER"
		}
		runs, err := s.Recorder.RecentRuns(arg, 10)
		if err != nil {
			log.Error().Err(err).Str("ticker", arg).Msg("load runs")
			return "❌ run history unavailable"
		}
		return notifier.FormatRuns(arg, runs)
	case "/watchlist":
		return "Watchlist: " + strings.Join(s.Watchlist, ", ")
	default:
		return helpText
	}
}

const helpText = "Commands:\n• /forecast TICKER\n• /runs TICKER\n• /watchlist"

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
