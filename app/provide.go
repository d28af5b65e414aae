package app

import (
	"context"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aquaregwatch/regwatch/config"
	"github.com/aquaregwatch/regwatch/lib/detect"
	"github.com/aquaregwatch/regwatch/lib/emit"
	"github.com/aquaregwatch/regwatch/lib/fetch"
	"github.com/aquaregwatch/regwatch/lib/normalize"
	"github.com/aquaregwatch/regwatch/lib/scheduler"
	"github.com/aquaregwatch/regwatch/lib/store"
)

func NewStore(db *gorm.DB, log *zap.Logger) *store.Store {
	return store.New(db, log)
}

func NewRules(cfg *config.Config) (*normalize.Rules, error) {
	return normalize.NewRules(cfg.NoisePatterns()...)
}

func NewFetcher(cfg *config.Config, log *zap.Logger, transport http.RoundTripper) *fetch.Fetcher {
	return fetch.NewFetcher(log, transport, fetch.Options{
		Timeout:      cfg.FetchTimeout(),
		MaxRetries:   cfg.FetchMaxRetries,
		RetryBase:    cfg.FetchRetryBase(),
		HostInterval: cfg.HostInterval(),
	})
}

func NewDetector(cfg *config.Config, st *store.Store, log *zap.Logger) *detect.Detector {
	classifier := detect.NewClassifier(cfg.LargeChangePercent)
	return detect.NewDetector(st, classifier, cfg.Keywords(), log)
}

func NewScheduler(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	fetcher *fetch.Fetcher,
	rules *normalize.Rules,
	detector *detect.Detector,
	subscribers emit.Registry,
) *scheduler.Scheduler {
	sched := scheduler.New(scheduler.Params{
		Log:         log,
		Fetcher:     fetcher,
		Rules:       rules,
		Detector:    detector,
		Subscribers: subscribers,
		Health:      scheduler.NewLogObserver(log),
		Options: scheduler.Options{
			WakeupInterval:    cfg.WakeupInterval(),
			Concurrency:       cfg.Concurrency,
			BackoffBase:       cfg.BackoffBase(),
			BackoffMax:        cfg.BackoffMax(),
			DegradedThreshold: cfg.DegradedThreshold,
		},
		Sources: cfg.Sources(),
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sched.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("trying to stop scheduler")
			return sched.Stop(ctx)
		},
	})

	return sched
}
