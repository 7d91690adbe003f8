// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "marque/internal/adapters/mq/queue"
	workerpool "marque/internal/adapters/mq/worker"
	"marque/internal/adapters/repository"
	"marque/internal/domain/model"
	"marque/internal/enrich"
	"marque/pkg/logger"
	"marque/pkg/metrics"
)

const (
	defaultQueueSize      = 1000
	defaultWorkerCount    = 4
	defaultBountyLimit    = 10
	defaultMaxBountyLimit = 100
)

// Service implements the API dependencies for the bounty tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	directory  enrich.Directory
	jobQueue   jobqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	maxBountyLimit int
	orgTag         string
	rosterMembers  []string

	// State
	started bool
	now     func() time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Required before Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithDirectory sets the community directory used for org enrichment.
// Without one, enrichment jobs are never scheduled.
func WithDirectory(directory enrich.Directory) Option {
	return func(s *Service) {
		s.directory = directory
	}
}

// WithWorkerCount sets the number of enrichment worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the enrichment queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxBountyLimit caps the limit a bounty read may request.
func WithMaxBountyLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxBountyLimit = limit
		}
	}
}

// WithOrgTag sets the org tag whose members form the tracked roster.
func WithOrgTag(tag string) Option {
	return func(s *Service) {
		s.orgTag = tag
	}
}

// WithRosterMembers sets the static fallback roster.
func WithRosterMembers(members []string) Option {
	return func(s *Service) {
		s.rosterMembers = members
	}
}

// WithClock replaces the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    defaultWorkerCount,
		queueSize:      defaultQueueSize,
		maxBountyLimit: defaultMaxBountyLimit,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return fmt.Errorf("start service: no store configured")
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting bounty tracker service...")

	if s.directory != nil {
		s.jobQueue = jobqueue.NewInMemoryQueue(
			jobqueue.WithCapacity(s.queueSize),
			jobqueue.WithBufferSize(s.queueSize),
		)
		s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.directory, s.store)
		s.workerPool.Start(ctx)
	} else {
		s.logger.Warn(ctx, "no directory configured, org enrichment disabled")
	}

	s.started = true
	s.logger.Info(ctx, "bounty tracker service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Stop gracefully shuts down the service, draining queued enrichment jobs.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping bounty tracker service...")

	if s.workerPool != nil {
		// Shutdown closes the queue first so workers drain what is left.
		_ = s.workerPool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "bounty tracker service stopped")
}

// Ingest validates and persists an event submission, then schedules org
// enrichment for attackers whose org is still unknown.
func (s *Service) Ingest(ctx context.Context, sub model.EventSubmission) (*model.Event, error) {
	if err := validateSubmission(sub); err != nil {
		metrics.RecordEventRejected()
		return nil, err
	}

	res, err := s.store.IngestEvent(ctx, sub)
	if err != nil {
		metrics.RecordErrorByComponent("service", "ingest_error")
		return nil, fmt.Errorf("ingest event: %w", err)
	}

	metrics.RecordEventIngested()
	if res.Kill {
		metrics.RecordKill()
	}

	s.logger.Info(ctx, "event ingested",
		logger.Int64("eventID", int64(res.Event.EventID)),
		logger.String("attacker", res.Attacker.Name),
		logger.String("victim", res.Victim.Name),
		logger.Bool("kill", res.Kill),
	)

	s.maybeEnrich(ctx, sub, res.Attacker)

	return res.Event, nil
}

// maybeEnrich schedules an org lookup when the submission carried no org
// tag for the attacker. The gate is the request, not the stored player: an
// org adopted from an earlier inline tag may be stale, and the directory is
// the authority for org-less sightings. Best effort: a full queue drops the
// job and only logs.
func (s *Service) maybeEnrich(ctx context.Context, sub model.EventSubmission, p *model.Player) {
	if s.jobQueue == nil {
		return
	}
	if sub.AttackerOrg != nil && *sub.AttackerOrg != "" {
		return
	}

	job := enrich.Job{
		ID:       uuid.NewString(),
		Handle:   p.Name,
		PlayerID: p.ID,
	}
	if !s.jobQueue.Enqueue(ctx, job) {
		s.logger.Warn(ctx, "enrichment queue full, dropping job",
			logger.String("handle", p.Name),
		)
	}
}

func validateSubmission(sub model.EventSubmission) error {
	switch {
	case sub.AttackerName == "":
		return fmt.Errorf("%w: missing attacker_name", ErrInvalidEvent)
	case sub.VictimName == "":
		return fmt.Errorf("%w: missing victim_name", ErrInvalidEvent)
	case sub.DamageType == "":
		return fmt.Errorf("%w: missing damage_type", ErrInvalidEvent)
	case sub.Timestamp == "":
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	case sub.Coords == nil:
		return fmt.Errorf("%w: missing coords", ErrInvalidEvent)
	}
	return nil
}

// Confirm marks an event confirmed.
func (s *Service) Confirm(ctx context.Context, eventID uint64) (*model.Event, error) {
	ev, err := s.store.ConfirmEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	metrics.RecordEventConfirmed()
	return ev, nil
}

// Bounties recomputes scores as of now and returns the ranked list.
func (s *Service) Bounties(ctx context.Context, limit int) ([]model.BountyEntry, error) {
	if limit < 1 {
		limit = defaultBountyLimit
	}
	if limit > s.maxBountyLimit {
		limit = s.maxBountyLimit
	}

	start := time.Now()
	if err := s.store.RecomputeScores(ctx, s.now()); err != nil {
		metrics.RecordErrorByComponent("service", "recompute_error")
		return nil, fmt.Errorf("recompute scores: %w", err)
	}
	metrics.RecordScoreRecomputeDuration(float64(time.Since(start).Milliseconds()))

	return s.store.TopBounties(ctx, limit)
}

// PlayerByID returns one player profile with its org memberships.
func (s *Service) PlayerByID(ctx context.Context, id uint64) (*model.Player, []model.PlayerOrganization, error) {
	p, err := s.store.PlayerByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	links, err := s.store.PlayerOrganizations(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	return p, links, nil
}

// PlayerByName returns one player profile with its org memberships.
func (s *Service) PlayerByName(ctx context.Context, name string) (*model.Player, []model.PlayerOrganization, error) {
	p, err := s.store.PlayerByName(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	links, err := s.store.PlayerOrganizations(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	return p, links, nil
}

// Roster returns the tracked member handles. With an org tag configured the
// roster comes from stored players carrying the tag; the static member list
// fills in when the tag yields nothing.
func (s *Service) Roster(ctx context.Context) ([]string, error) {
	if s.orgTag != "" {
		names, err := s.store.RosterNames(ctx, s.orgTag)
		if err != nil {
			return nil, err
		}
		if len(names) > 0 {
			return names, nil
		}
	}
	// Copy so callers cannot mutate the configured list.
	roster := make([]string, len(s.rosterMembers))
	copy(roster, s.rosterMembers)
	return roster, nil
}

// Heatmap buckets confirmed event coordinates by nearest body.
func (s *Service) Heatmap(ctx context.Context) ([]Hotspot, error) {
	coords, err := s.store.ConfirmedEventCoords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load event coordinates: %w", err)
	}
	return bucketCoords(coords), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	if s.started {
		if s.jobQueue != nil {
			stats["queueLength"] = s.jobQueue.Len(ctx)
		}
		if count, err := s.store.CountPlayers(ctx); err == nil {
			stats["totalPlayers"] = count
			metrics.UpdatePlayersTracked(count)
		}
	}

	return stats
}
