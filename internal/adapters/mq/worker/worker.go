// Package worker defines worker contracts for asynchronous organization
// enrichment.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"marque/internal/domain/model"
	"marque/internal/enrich"
	"marque/pkg/logger"
	"marque/pkg/metrics"
)

// Default worker configuration constants.
const (
	// Enrichment is bound by the external directory, not the CPU, so the
	// default pool stays small.
	defaultWorkerCount    = 4
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second

	// membershipSource tags membership rows written by directory lookups.
	membershipSource = "directory"
)

// Job abstracts what workers read off the queue.
type Job = enrich.Job

// Linker persists the organization metadata and membership a lookup yields.
type Linker interface {
	UpsertOrganization(ctx context.Context, meta model.OrgMetadata) error
	LinkPlayerOrganization(ctx context.Context, playerID uint64, sid string, rank *string, source string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes enrichment jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining jobs before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing enrichment jobs.
type InMemoryWorker struct {
	queue     Queue
	directory enrich.Directory
	linker    Linker
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, directory enrich.Directory, linker Linker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		directory: directory,
		linker:    linker,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			// Enrichment is best effort: a failed job is logged and
			// counted, never retried or propagated.
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing enrichment job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob handles a single enrichment job.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordEnrichmentLatency(float64(latency))
	}()

	org, err := w.directory.FetchPlayerOrg(ctx, job.Handle)
	if err != nil {
		metrics.RecordEnrichmentFailure()
		metrics.RecordErrorByComponent("worker", "directory_error")
		w.logger.Error(ctx, "directory lookup failed",
			logger.String("jobID", job.ID),
			logger.String("handle", job.Handle),
			logger.Error(err),
		)
		return fmt.Errorf("lookup handle %q: %w", job.Handle, err)
	}
	if org == nil {
		// A handle without an org is a terminal outcome, not a failure.
		metrics.RecordEnrichmentOrgless()
		w.logger.Debug(ctx, "handle has no organization",
			logger.String("handle", job.Handle),
		)
		return nil
	}

	meta, err := w.directory.FetchOrgInfo(ctx, org.SID)
	if err != nil || meta == nil {
		if err != nil {
			w.logger.Warn(ctx, "organization detail lookup failed, keeping membership summary",
				logger.String("sid", org.SID),
				logger.Error(err),
			)
		}
		// The membership lookup already named the org; that much survives
		// a failed detail fetch.
		fallback := model.OrgMetadata{SID: org.SID}
		if org.Name != "" {
			name := org.Name
			fallback.Name = &name
		}
		meta = &fallback
	}

	if err := w.linker.UpsertOrganization(ctx, *meta); err != nil {
		metrics.RecordEnrichmentFailure()
		metrics.RecordErrorByComponent("worker", "org_upsert_error")
		w.logger.Error(ctx, "organization upsert failed",
			logger.String("sid", org.SID),
			logger.Error(err),
		)
		return fmt.Errorf("upsert organization %q: %w", org.SID, err)
	}

	if err := w.linker.LinkPlayerOrganization(ctx, job.PlayerID, org.SID, org.Rank, membershipSource); err != nil {
		metrics.RecordEnrichmentFailure()
		metrics.RecordErrorByComponent("worker", "membership_link_error")
		w.logger.Error(ctx, "membership link failed",
			logger.String("sid", org.SID),
			logger.String("handle", job.Handle),
			logger.Error(err),
		)
		return fmt.Errorf("link membership for %q: %w", job.Handle, err)
	}

	metrics.RecordEnrichmentJob()
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	directory enrich.Directory
	linker    Linker

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, directory enrich.Directory, linker Linker) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     queue,
		directory: directory,
		linker:    linker,
		shutdown:  make(chan struct{}),
		logger:    logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			directory,
			linker,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue so drained workers see the closed channel and
	// stop on their own.
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
