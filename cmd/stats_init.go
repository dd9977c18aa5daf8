package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/campuscode/leetboard/internal/fetch"
	"github.com/campuscode/leetboard/internal/report"
	"github.com/campuscode/leetboard/internal/resilience"
	"github.com/campuscode/leetboard/internal/source"
	"github.com/campuscode/leetboard/internal/stats"
	"github.com/campuscode/leetboard/internal/store"
)

// statsEnv holds the initialized store, fetcher and refresher shared by
// the refresh/serve/export/report commands.
type statsEnv struct {
	Store     store.Store
	Sources   []source.Source
	Breaker   *resilience.Breaker
	Fetcher   *fetch.Fetcher
	Refresher *stats.Refresher
	Mailer    report.Mailer
}

// Close releases resources held by the stats environment.
func (se *statsEnv) Close() {
	if se.Store != nil {
		_ = se.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leetboard.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// fetchOptions maps the config knobs onto fetcher options.
func fetchOptions() fetch.Options {
	backoff := make([]time.Duration, 0, len(cfg.Fetch.BackoffMs))
	for _, ms := range cfg.Fetch.BackoffMs {
		backoff = append(backoff, time.Duration(ms)*time.Millisecond)
	}
	return fetch.Options{
		Timeout:     time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:  cfg.Fetch.MaxRetries,
		Backoff:     backoff,
		Concurrency: cfg.Fetch.Concurrency,
		PerHostRPS:  rate.Limit(cfg.Fetch.PerHostRPS),
	}
}

func newMailer() report.Mailer {
	return report.Mailer{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		To:       cfg.SMTP.To,
	}
}

// initStats sets up the store, source list, breaker, fetcher and
// refresher for the given run mode. Callers should defer env.Close().
func initStats(ctx context.Context, mode string) (*statsEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	sources, err := source.Load(cfg.Sources.File)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		FailureThreshold: cfg.Fetch.BreakerThreshold,
		Cooldown:         time.Duration(cfg.Fetch.BreakerCooldownSecs) * time.Second,
	})
	fetcher := fetch.New(sources, breaker, fetchOptions())
	refresher := stats.New(st, fetcher, stats.Options{
		CacheTTL: time.Duration(cfg.Fetch.CacheTTLSecs) * time.Second,
	})

	zap.L().Info("stats pipeline ready",
		zap.Int("sources", len(sources)),
		zap.String("store_driver", cfg.Store.Driver),
	)

	return &statsEnv{
		Store:     st,
		Sources:   sources,
		Breaker:   breaker,
		Fetcher:   fetcher,
		Refresher: refresher,
		Mailer:    newMailer(),
	}, nil
}
