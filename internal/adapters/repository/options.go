package repository

import (
	"time"

	"marque/internal/domain/scoring"
)

// Option applies a configuration option to the GormStore.
type Option func(*GormStore)

// WithScorer replaces the default bounty scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(g *GormStore) {
		if s != nil {
			g.scorer = s
		}
	}
}

// WithClock replaces the wall clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(g *GormStore) {
		if now != nil {
			g.now = now
		}
	}
}
