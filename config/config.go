// Package config loads runtime settings from the environment and the
// source catalogue from a YAML file. Malformed definitions are fatal at
// startup; a reload produces a fresh generation of sources.
package config

import (
	"fmt"
	"sync"
	"time"

	env "github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/aquaregwatch/regwatch/lib/models"
)

type Config struct {
	Env          string `env:"ENVIRONMENT"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"regwatch.sqlite"`
	ServerPort   int    `env:"SERVER_PORT" envDefault:"8080"`
	SourcesPath  string `env:"SOURCES_PATH" envDefault:"sources.yaml"`

	FetchTimeoutSecs      int `env:"FETCH_TIMEOUT_SECS" envDefault:"30"`
	FetchMaxRetries       int `env:"FETCH_MAX_RETRIES" envDefault:"3"`
	FetchRetryBaseSecs    int `env:"FETCH_RETRY_BASE_SECS" envDefault:"2"`
	HostRequestsPerMinute int `env:"HOST_REQUESTS_PER_MINUTE" envDefault:"10"`

	WakeupIntervalSecs int `env:"SCHEDULER_WAKEUP_SECS" envDefault:"5"`
	Concurrency        int `env:"SCHEDULER_CONCURRENCY" envDefault:"5"`
	BackoffBaseSecs    int `env:"BACKOFF_BASE_SECS" envDefault:"60"`
	BackoffMaxSecs     int `env:"BACKOFF_MAX_SECS" envDefault:"3600"`
	DegradedThreshold  int `env:"DEGRADED_THRESHOLD" envDefault:"5"`

	LargeChangePercent float64 `env:"LARGE_CHANGE_PERCENT" envDefault:"20"`

	log *zap.Logger

	mu            sync.Mutex
	generation    int
	sources       models.Sources
	keywords      []models.Keyword
	noisePatterns []string
}

func NewConfig(log *zap.Logger) (*Config, error) {
	cfg := &Config{log: log}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	if err := cfg.load(); err != nil {
		return nil, err
	}

	log.Sugar().Infow("configuration loaded",
		"sources", len(cfg.sources), "keywords", len(cfg.keywords), "path", cfg.SourcesPath)
	return cfg, nil
}

// ReloadSources re-reads the catalogue file as a new generation. Unmatched
// sources from the previous generation are orphaned, not deleted; their
// persisted history stays. On error the previous generation stays active.
func (cfg *Config) ReloadSources() (models.Sources, error) {
	if err := cfg.load(); err != nil {
		return nil, err
	}
	cfg.log.Sugar().Infow("sources reloaded", "generation", cfg.Generation())
	return cfg.Sources(), nil
}

func (cfg *Config) Sources() models.Sources {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	return cfg.sources
}

func (cfg *Config) Keywords() []models.Keyword {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	return cfg.keywords
}

func (cfg *Config) NoisePatterns() []string {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	return cfg.noisePatterns
}

func (cfg *Config) Generation() int {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	return cfg.generation
}

func (cfg *Config) FetchTimeout() time.Duration   { return time.Duration(cfg.FetchTimeoutSecs) * time.Second }
func (cfg *Config) FetchRetryBase() time.Duration { return time.Duration(cfg.FetchRetryBaseSecs) * time.Second }
func (cfg *Config) BackoffBase() time.Duration    { return time.Duration(cfg.BackoffBaseSecs) * time.Second }
func (cfg *Config) BackoffMax() time.Duration     { return time.Duration(cfg.BackoffMaxSecs) * time.Second }
func (cfg *Config) WakeupInterval() time.Duration { return time.Duration(cfg.WakeupIntervalSecs) * time.Second }

// HostInterval is the minimum spacing between requests to one host.
func (cfg *Config) HostInterval() time.Duration {
	perMinute := cfg.HostRequestsPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	return time.Minute / time.Duration(perMinute)
}

func (cfg *Config) load() error {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()

	gen := cfg.generation + 1
	sources, keywords, patterns, err := loadCatalogue(cfg.SourcesPath, gen)
	if err != nil {
		return err
	}

	cfg.generation = gen
	cfg.sources = sources
	cfg.keywords = keywords
	cfg.noisePatterns = patterns
	return nil
}
