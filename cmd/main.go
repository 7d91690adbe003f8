package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marque/internal/adapters/http/api"
	"marque/internal/adapters/repository"
	service "marque/internal/app"
	"marque/internal/config"
	"marque/internal/enrich"
	"marque/pkg/logger"
	"marque/pkg/metrics"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Local development keys live in .env; absence is fine.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to flush logs: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	db, err := repository.OpenDB(cfg.DatabaseDSN)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open database", logger.Error(err))
		return
	}
	store := repository.NewGormStore(db)
	if err := store.Migrate(); err != nil {
		loggerInstance.Error(ctx, "failed to run migrations", logger.Error(err))
		return
	}

	// Org enrichment stays off unless a directory key is configured; events
	// still ingest, players just keep a nil org until one shows up inline.
	var directory enrich.Directory
	if cfg.DirectoryAPIKey != "" {
		directory = enrich.NewClient(cfg.DirectoryBaseURL, cfg.DirectoryAPIKey, enrich.WithMode(cfg.DirectoryMode))
	} else {
		loggerInstance.Warn(ctx, "no directory API key configured; org enrichment disabled")
	}

	svc := service.New(
		service.WithStore(store),
		service.WithDirectory(directory),
		service.WithWorkerCount(cfg.EnrichmentWorkerCount),
		service.WithQueueSize(cfg.EnrichmentQueueSize),
		service.WithMaxBountyLimit(cfg.MaxBountyLimit),
		service.WithOrgTag(cfg.OrgTag),
		service.WithRosterMembers(cfg.RosterMembers),
		service.WithLogger(loggerInstance),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Start service metrics updater.
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	apiServer := api.NewServer(svc, svc,
		api.WithClientKey(cfg.ClientAPIKey),
		api.WithAdminKey(cfg.AdminAPIKey),
	)
	apiServer.Register(ctx, mux)

	// The squad dashboard is served from another origin.
	handler := cors.AllowAll().Handler(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater starts a background goroutine that refreshes
// gauge metrics from the service stats snapshot.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}

	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
