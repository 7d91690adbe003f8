// Package scoring computes time-decayed bounty scores from player aggregates.
package scoring

import "time"

// Default scoring weights. A kill is worth two attacks; destroyed value
// counts per 100k; idle players lose 0.05 per day since last activity.
const (
	defaultKillWeight   = 2.0
	defaultAttackWeight = 1.0
	defaultValueDivisor = 100_000.0
	defaultDecayPerDay  = 0.05

	hoursPerDay = 24.0
)

// Input carries the aggregates a score is derived from.
type Input struct {
	TotalKills     int64
	TotalAttacks   int64
	ValueDestroyed float64
	LastSeen       time.Time
}

// Scorer turns player aggregates into a ranking score. The computation is
// deterministic given the input and the supplied clock reading.
type Scorer struct {
	killWeight   float64
	attackWeight float64
	valueDivisor float64
	decayPerDay  float64
}

// New creates a Scorer with configuration options.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		killWeight:   defaultKillWeight,
		attackWeight: defaultAttackWeight,
		valueDivisor: defaultValueDivisor,
		decayPerDay:  defaultDecayPerDay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the bounty score at the given instant. The score grows with
// activity and decays linearly with idle days.
func (s *Scorer) Score(in Input, now time.Time) float64 {
	return s.killWeight*float64(in.TotalKills) +
		s.attackWeight*float64(in.TotalAttacks) +
		in.ValueDestroyed/s.valueDivisor -
		s.Decay(in.LastSeen, now)
}

// Decay returns the idle-time penalty. Clock skew that puts last-seen in the
// future clamps to zero rather than rewarding it.
func (s *Scorer) Decay(lastSeen, now time.Time) float64 {
	days := now.Sub(lastSeen).Hours() / hoursPerDay
	if days < 0 {
		days = 0
	}
	return s.decayPerDay * days
}
