package main

import (
	"fmt"
	"os"

	"PortfolioLedger/internal/collector"
	"PortfolioLedger/internal/config"
	"PortfolioLedger/internal/directory"
	"PortfolioLedger/internal/logging"
	"PortfolioLedger/internal/recorder"
	"PortfolioLedger/internal/service"
	"PortfolioLedger/internal/store"

	"github.com/google/subcommands"
)

// env is the service stack shared by every subcommand.
type env struct {
	svc     *service.Service
	closers []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func openEnv() (*env, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logging.New(cfg.Log.Level, nil)

	dir, err := directory.Load(cfg.Directory.ListingFile)
	if err != nil {
		return nil, err
	}

	var fetcher collector.Fetcher
	if cfg.DataSource.Provider == config.ProviderYahoo {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	} else {
		fetcher = collector.NewAlphaVantageFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	feed := collector.NewFeed(fetcher, collector.NewCache(cfg.DataSource.CacheTTL), log)

	e := &env{}
	var repo store.Repository
	if cfg.Storage.Backend == config.BackendSQLite {
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath, dir)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, s.Close)
		repo = s
	} else {
		if repo, err = store.NewFileStore(cfg.Storage.Dir, dir); err != nil {
			return nil, err
		}
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			e.closers = append(e.closers, sr.Close)
			rec = sr
		}
	}

	e.svc = service.New(repo, dir, feed, rec, log)
	return e, nil
}

// withService opens the stack, runs fn and reports its error.
func withService(fn func(svc *service.Service) error) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.Close()
	if err := fn(e.svc); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
