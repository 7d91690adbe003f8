package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MARQUE_CONFIG is set
//  3. env (prefix MARQUE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("MARQUE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: MARQUE_ADDR, MARQUE_DATABASE_DSN, ...
	// Watcher settings nest under a watcher_ prefix:
	// MARQUE_WATCHER_LOG_PATH -> watcher.log_path
	envProvider := env.Provider("MARQUE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "marque_")
		if rest, ok := strings.CutPrefix(s, "watcher_"); ok {
			return "watcher." + rest
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DatabaseDSN == "":
		return fmt.Errorf("%w: database_dsn must not be empty", ErrInvalidConfig)
	case c.MaxBountyLimit < 1:
		return fmt.Errorf("%w: max_bounty_limit must be positive", ErrInvalidConfig)
	case c.EnrichmentQueueSize < 1:
		return fmt.Errorf("%w: enrichment_queue_size must be positive", ErrInvalidConfig)
	case c.EnrichmentWorkerCount < 1:
		return fmt.Errorf("%w: enrichment_worker_count must be positive", ErrInvalidConfig)
	case c.Watcher.PollIntervalMS < 1:
		return fmt.Errorf("%w: watcher.poll_interval_ms must be positive", ErrInvalidConfig)
	case c.Watcher.DedupeSize < 1:
		return fmt.Errorf("%w: watcher.dedupe_size must be positive", ErrInvalidConfig)
	}
	return nil
}
