// Command watcher tails a Star Citizen Game.log, filters kill lines against
// the squad roster and submits confirmed hits to the tracker backend.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marque/internal/config"
	"marque/internal/domain/dedupe"
	"marque/internal/watcher"
	"marque/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	logPath := flag.String("log", "", "path to Game.log (overrides config)")
	serverURL := flag.String("url", "", "tracker base URL (overrides config)")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to flush logs: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get().Named("watcher")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	path := cfg.Watcher.LogPath
	if *logPath != "" {
		path = *logPath
	}
	if path == "" {
		os.Stderr.WriteString("no log path configured; set -log or MARQUE_WATCHER_LOG_PATH\n")
		os.Exit(1)
	}

	baseURL := cfg.Watcher.ServerURL
	if *serverURL != "" {
		baseURL = *serverURL
	}

	roster := loadRoster(ctx, cfg, baseURL, loggerInstance)
	if roster.Len() == 0 {
		loggerInstance.Warn(ctx, "empty roster; every kill line will be dropped")
	}

	submitter := watcher.NewHTTPSubmitter(baseURL, cfg.ClientAPIKey)

	tailer := watcher.NewTailer(path, submitter,
		watcher.WithRoster(roster),
		watcher.WithDeduper(dedupe.New(dedupe.WithMaxSize(cfg.Watcher.DedupeSize))),
		watcher.WithPollInterval(time.Duration(cfg.Watcher.PollIntervalMS)*time.Millisecond),
		watcher.WithShipValueEstimate(cfg.Watcher.ShipValueEstimate),
		watcher.WithTailerLogger(loggerInstance),
	)

	loggerInstance.Info(ctx, "watching log",
		logger.String("session", uuid.NewString()),
		logger.String("path", path),
		logger.String("server", baseURL),
		logger.Int("roster_size", roster.Len()),
	)

	if err := tailer.Run(ctx); err != nil && ctx.Err() == nil {
		loggerInstance.Error(ctx, "tailer stopped", logger.Error(err))
		os.Exit(1)
	}

	loggerInstance.Info(ctx, "watcher stopped")
}

// loadRoster prefers the server's live roster and falls back to the locally
// configured member list when the fetch fails or is disabled.
func loadRoster(ctx context.Context, cfg *config.Config, baseURL string, log logger.Logger) watcher.Roster {
	if cfg.Watcher.FetchRoster {
		names, err := watcher.FetchRoster(ctx, baseURL)
		if err != nil {
			log.Warn(ctx, "roster fetch failed; using configured members", logger.Error(err))
		} else if len(names) > 0 {
			return watcher.NewRoster(names)
		}
	}
	return watcher.NewRoster(cfg.RosterMembers)
}
