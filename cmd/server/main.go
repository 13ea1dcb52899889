package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PortfolioLedger/internal/api"
	"PortfolioLedger/internal/collector"
	"PortfolioLedger/internal/config"
	"PortfolioLedger/internal/directory"
	"PortfolioLedger/internal/fund"
	"PortfolioLedger/internal/logging"
	"PortfolioLedger/internal/notifier"
	"PortfolioLedger/internal/recorder"
	"PortfolioLedger/internal/scheduler"
	"PortfolioLedger/internal/service"
	"PortfolioLedger/internal/store"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, nil)
	srvLog := logging.Component(log, "server")
	srvLog.Info().Msg("PortfolioLedger starting...")
	if err := cfg.Validate(); err != nil {
		srvLog.Fatal().Err(err).Msg("config validation")
	}

	dir, err := directory.Load(cfg.Directory.ListingFile)
	if err != nil {
		srvLog.Fatal().Err(err).Msg("load symbol directory")
	}
	srvLog.Info().Int("symbols", dir.Len()).Msg("symbol directory loaded")

	cache := collector.NewCache(cfg.DataSource.CacheTTL)
	feed := collector.NewFeed(newFetcher(cfg), cache, log)
	srvLog.Info().Str("provider", feed.Fetcher.Name()).Msg("data source ready")

	repo, closeRepo, err := newRepository(cfg, dir)
	if err != nil {
		srvLog.Fatal().Err(err).Msg("init portfolio store")
	}
	defer closeRepo()

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			srvLog.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	svc := service.New(repo, dir, feed, rec, log)

	fm, err := fund.NewManager(cfg.Fund.StateFile, log)
	if err != nil {
		srvLog.Fatal().Err(err).Msg("init fund manager")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var n notifier.Notifier = notifier.NewLogNotifier(log)
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		n = tn
	}

	plans, err := schedulerPlans(cfg)
	if err != nil {
		srvLog.Fatal().Err(err).Msg("build plans")
	}
	sched := scheduler.NewScheduler(ctx, svc, fm, n, rec, log)
	if err := sched.RegisterAll(plans, cfg.Schedule.DigestCron); err != nil {
		srvLog.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		srvLog.Info().Msg("telegram polling started")
	}

	// Evict stale series once an hour.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := cache.Purge(); evicted > 0 {
					srvLog.Debug().Int("evicted", evicted).Msg("price cache purged")
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(svc, cfg.Server.CORSOrigins, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		srvLog.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvLog.Error().Err(err).Msg("http server")
			cancel()
		}
	}()

	srvLog.Info().Msg("PortfolioLedger is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		srvLog.Info().Msg("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		srvLog.Error().Err(err).Msg("http shutdown")
	}
	cancel()
	srvLog.Info().Msg("PortfolioLedger stopped")
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	if cfg.DataSource.Provider == config.ProviderYahoo {
		f := collector.NewYahooFetcher(cfg.Proxy)
		if cfg.DataSource.BaseURL != "" {
			f.BaseURL = cfg.DataSource.BaseURL
		}
		return f
	}
	return collector.NewAlphaVantageFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
}

func newRepository(cfg *config.Config, dir *directory.Directory) (store.Repository, func(), error) {
	if cfg.Storage.Backend == config.BackendSQLite {
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath, dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	s, err := store.NewFileStore(cfg.Storage.Dir, dir)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {}, nil
}

func schedulerPlans(cfg *config.Config) ([]scheduler.Plan, error) {
	plans := make([]scheduler.Plan, 0, len(cfg.Schedule.Plans))
	for _, p := range cfg.Schedule.Plans {
		allocs, err := p.Allocations()
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", p.ID, err)
		}
		plans = append(plans, scheduler.Plan{
			ID:          p.ID,
			Portfolio:   p.Portfolio,
			Cron:        p.Cron,
			Amount:      p.Amount,
			FeePercent:  p.FeePercent,
			Allocations: allocs,
		})
	}
	return plans, nil
}
