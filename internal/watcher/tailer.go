package watcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"marque/internal/domain/dedupe"
	"marque/internal/domain/parse"
	"marque/pkg/logger"
	"marque/pkg/metrics"
)

// Default tailer configuration constants.
const (
	defaultPollInterval = 200 * time.Millisecond
	reopenBackoffMin    = 200 * time.Millisecond
	reopenBackoffMax    = 5 * time.Second
)

// Tailer follows a game log from its current end and forwards matching
// kill events to the tracker.
type Tailer struct {
	path      string
	submitter Submitter
	roster    Roster
	deduper   dedupe.Deduper

	pollInterval time.Duration
	shipValue    float64

	logger logger.Logger
}

// TailerOption applies a configuration option to the Tailer.
type TailerOption func(*Tailer)

// WithPollInterval sets how long the tailer sleeps at end of file.
func WithPollInterval(d time.Duration) TailerOption {
	return func(t *Tailer) {
		if d > 0 {
			t.pollInterval = d
		}
	}
}

// WithRoster sets the member filter.
func WithRoster(r Roster) TailerOption {
	return func(t *Tailer) {
		t.roster = r
	}
}

// WithDeduper replaces the duplicate suppression window.
func WithDeduper(d dedupe.Deduper) TailerOption {
	return func(t *Tailer) {
		if d != nil {
			t.deduper = d
		}
	}
}

// WithShipValueEstimate sets the value attached to each submission.
func WithShipValueEstimate(v float64) TailerOption {
	return func(t *Tailer) {
		if v >= 0 {
			t.shipValue = v
		}
	}
}

// WithTailerLogger sets a custom logger for the tailer.
func WithTailerLogger(l logger.Logger) TailerOption {
	return func(t *Tailer) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTailer creates a tailer for the given log path.
func NewTailer(path string, submitter Submitter, opts ...TailerOption) *Tailer {
	t := &Tailer{
		path:         path,
		submitter:    submitter,
		deduper:      dedupe.New(),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logger.Get().Named("tailer")
	}
	return t
}

// Run tails the log until ctx is canceled. A missing log file at start is
// fatal; read failures after that reopen the file by path with backoff, so
// a log rotated underneath keeps being followed.
func (t *Tailer) Run(ctx context.Context) error {
	file, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		file.Close()
		return fmt.Errorf("seek log end: %w", err)
	}
	t.logger.Info(ctx, "watching log", logger.String("path", t.path))

	reader := bufio.NewReader(file)
	pending := ""

	defer func() { file.Close() }()

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			pending += line
			if strings.HasSuffix(pending, "\n") {
				t.handleLine(ctx, strings.TrimRight(pending, "\r\n"))
				pending = ""
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(t.pollInterval):
			}
			continue
		}

		// Mid-run IO error: the handle may be stale after a rotation.
		t.logger.Warn(ctx, "log read failed, reopening",
			logger.String("path", t.path),
			logger.Error(err),
		)
		file.Close()
		file, reader, err = t.reopen(ctx)
		if err != nil {
			return err
		}
		pending = ""
	}
}

// reopen retries opening the log path with exponential backoff until it
// succeeds or ctx is canceled. The new handle starts at the end of file.
func (t *Tailer) reopen(ctx context.Context) (*os.File, *bufio.Reader, error) {
	backoff := reopenBackoffMin
	for {
		file, err := os.Open(t.path)
		if err == nil {
			if _, err := file.Seek(0, io.SeekEnd); err != nil {
				file.Close()
				return nil, nil, fmt.Errorf("seek log end: %w", err)
			}
			return file, bufio.NewReader(file), nil
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > reopenBackoffMax {
			backoff = reopenBackoffMax
		}
	}
}

// handleLine runs one line through parse, filter, dedupe and submit.
func (t *Tailer) handleLine(ctx context.Context, line string) {
	metrics.RecordWatcherLine()

	kill, ok := parse.Parse(line)
	if !ok {
		return
	}
	metrics.RecordWatcherMatch()

	// Keep events where a roster member was hit by an outsider. With an
	// empty roster nothing is forwarded.
	if t.roster.Len() == 0 {
		return
	}
	if !t.roster.Contains(kill.VictimName) || t.roster.Contains(kill.AttackerName) {
		return
	}

	key := kill.Timestamp + "|" + kill.AttackerName + "|" + kill.VictimName
	if t.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordWatcherDuplicate()
		return
	}

	sub := kill.Submission(t.shipValue)
	if err := t.submitter.Submit(ctx, sub); err != nil {
		// Drop on failure; the dedupe window still holds the key so a
		// rotated line does not double-submit later.
		metrics.RecordWatcherSubmitError()
		t.logger.Error(ctx, "event submission failed",
			logger.String("attacker", kill.AttackerName),
			logger.String("victim", kill.VictimName),
			logger.Error(err),
		)
		return
	}
	t.logger.Info(ctx, "event submitted",
		logger.String("attacker", kill.AttackerName),
		logger.String("victim", kill.VictimName),
		logger.String("zone", kill.Zone),
	)
}
