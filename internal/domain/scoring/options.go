package scoring

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithKillWeight sets the per-kill weight.
func WithKillWeight(w float64) Option {
	return func(s *Scorer) {
		if w > 0 {
			s.killWeight = w
		}
	}
}

// WithAttackWeight sets the per-attack weight.
func WithAttackWeight(w float64) Option {
	return func(s *Scorer) {
		if w > 0 {
			s.attackWeight = w
		}
	}
}

// WithValueDivisor sets the divisor applied to destroyed value.
func WithValueDivisor(d float64) Option {
	return func(s *Scorer) {
		if d > 0 {
			s.valueDivisor = d
		}
	}
}

// WithDecayPerDay sets the idle decay rate.
func WithDecayPerDay(rate float64) Option {
	return func(s *Scorer) {
		if rate >= 0 {
			s.decayPerDay = rate
		}
	}
}
