package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/goquant/quotewatch/internal/config"
	"github.com/goquant/quotewatch/internal/database"
	"github.com/goquant/quotewatch/internal/gomarket"
	"github.com/goquant/quotewatch/internal/monitor"
	"github.com/goquant/quotewatch/internal/notify"
	"github.com/goquant/quotewatch/internal/store"
	"github.com/goquant/quotewatch/internal/telegram"
	"github.com/goquant/quotewatch/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/quotewatch.local.yaml", "path to config file")
	flag.Parse()

	// .env is optional; real deployments export the variables directly.
	godotenv.Load()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting quotewatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.BaseURL,
		"venues", cfg.Monitor.Venues,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// Create quote API client
	quoteClient := gomarket.NewClient(
		cfg.API.BaseURL,
		gomarket.WithLogger(logger),
		gomarket.WithTimeout(cfg.API.Timeout),
		gomarket.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	// Create Telegram client and notifier
	tgClient := telegram.NewClient(
		cfg.Telegram.Token,
		telegram.WithBaseURL(cfg.Telegram.BaseURL),
		telegram.WithLogger(logger),
	)
	notifier := notify.New(telegram.NewTransport(tgClient), cfg.Monitor.RenotifyDelta, logger)

	// Wire the monitor service
	stores := store.NewPostgres(pool)
	svc := monitor.New(cfg.Monitor, quoteClient, stores, notifier, logger)
	defer svc.Shutdown()

	// Live quote streams are best-effort; polling covers venues without one.
	var streams []*gomarket.Stream
	if cfg.API.WSURL != "" {
		for _, venue := range cfg.Monitor.Venues {
			stream := gomarket.NewStream(gomarket.StreamConfig{
				URL:     cfg.API.WSURL,
				Venue:   venue,
				Symbols: cfg.Monitor.Symbols,
			}, svc.IngestQuote, logger)
			if err := stream.Connect(ctx); err != nil {
				logger.Warn("quote stream unavailable", "venue", venue, "error", err)
				continue
			}
			streams = append(streams, stream)
		}
	}
	defer func() {
		for _, stream := range streams {
			stream.Close()
		}
	}()

	// Start health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(cfg.Health.Path, pool, svc),
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Start the Telegram command loop
	bot := telegram.NewBot(tgClient, svc, cfg.Telegram.PollTimeout, logger)
	bot.Start(ctx)
	defer bot.Stop()

	logger.Info("quotewatch running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("quotewatch stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(path string, pool interface {
	Ping(ctx context.Context) error
}, svc *monitor.Service) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Version    string         `json:"version"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Version:    version.String(),
			Components: make(map[string]any),
		}

		// Check database
		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		// Report polling loops
		running := svc.Running()
		health.Components["polling_loops"] = map[string]any{
			"count": len(running),
			"keys":  running,
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
