package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"MarketForecast/internal/api"
	"MarketForecast/internal/cache"
	"MarketForecast/internal/collector"
	"MarketForecast/internal/config"
	"MarketForecast/internal/logger"
	"MarketForecast/internal/metrics"
	"MarketForecast/internal/notifier"
	"MarketForecast/internal/recorder"
	"MarketForecast/internal/scheduler"
	"MarketForecast/internal/service"

	"github.com/rs/zerolog/log"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("config", cfgPath).Msg("forecaster starting")
	metrics.Register()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Provider == "mock" {
		fetcher = &collector.MockFetcher{Price: 100}
	} else {
		fetcher = collector.NewYahooFetcher(cfg.DataSource.Proxy)
	}
	log.Info().Str("provider", fetcher.Name()).Msg("data source ready")

	col := collector.NewCollector(fetcher, cfg.DataSource.HistoryDays, cfg.DataSource.RequestsPerSecond, collector.RetryPolicy{
		MaxRetries: cfg.RetryAttempts(),
		BaseDelay:  cfg.DataSource.RetryBaseDelay,
	})
	col.Intraday = cfg.IntradayEnabled()

	// Init result cache
	var store cache.Store
	if cfg.Cache.RedisAddr != "" {
		rs, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("init redis cache failed, using memory")
			store = cache.NewMemoryStore()
		} else {
			store = rs
			log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("redis cache ready")
		}
	} else {
		store = cache.NewMemoryStore()
	}
	defer store.Close()

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Warn().Err(err).Msg("create database directory")
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	forecaster := service.NewForecaster(col, store, rec, cfg.Forecast, cfg.Cache.TTL)

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy)
		sender = tn
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, forecaster, sender, rec, cfg.Watchlist)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	// Optional: run immediately on start
	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, refreshing watchlist now")
		go sched.RunRefreshNow()
	}

	// HTTP server
	srv := api.NewServer(api.NewHandler(forecaster, rec, cfg.Watchlist), api.ServerConfig{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		CORS:         cfg.Server.CORS,
	})
	srv.Start()

	log.Info().Msg("forecaster is running, press Ctrl+C to stop")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	sched.Stop()
	log.Info().Msg("forecaster stopped")
}
