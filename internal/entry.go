// Package internal provides the application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/notepdf/internal/api"
	"github.com/starford/notepdf/internal/apperr"
	"github.com/starford/notepdf/internal/cache"
	"github.com/starford/notepdf/internal/convert"
	"github.com/starford/notepdf/internal/mcpserver"
	"github.com/starford/notepdf/internal/models"
	"github.com/starford/notepdf/internal/notesync"
	"github.com/starford/notepdf/internal/sse"
	"github.com/starford/notepdf/internal/storage"
)

// Run converts every new or changed note once and, in watch mode, keeps
// converting until ctx is cancelled or the process receives SIGINT/SIGTERM.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	var out io.Writer = os.Stdout
	if app.logOutput != nil {
		out = app.logOutput
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("source", cfg.Source.Path),
		slog.String("dest", cfg.Dest.Path),
		slog.String("cache", cfg.Cache.Path),
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := storage.NewFS(cfg.Source.Path, cfg.Source.Extension)
	if err != nil {
		return fmt.Errorf("open source: %w: %w", apperr.ErrTraversal, err)
	}

	if err := os.MkdirAll(cfg.Dest.Path, 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w: %w", apperr.ErrIOWrite, err)
	}
	dest, err := storage.NewFS(cfg.Dest.Path, convert.PDFExt)
	if err != nil {
		return fmt.Errorf("open dest: %w", err)
	}

	store, err := cache.Open(cfg.Cache.Backend, cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()
	logger.Info("Cache loaded", slog.String("path", cfg.Cache.Path), slog.Int("entries", store.Len()))

	renderer := app.converter
	if renderer == nil {
		tool, err := convert.NewSupernoteTool(cfg.Converter.SupernoteOptions())
		if err != nil {
			return err
		}
		renderer = tool
	}

	var broker *sse.Broker
	if cfg.Watch.Enabled && cfg.App.HTTP.Enabled() {
		broker = sse.NewBroker(2 * time.Second)
		defer broker.Close()
	}

	syncer, err := notesync.New(notesync.Options{
		Source:     source,
		Dest:       dest,
		Cache:      store,
		Converter:  convert.Bounded(renderer, cfg.Converter.Timeout),
		Logger:     logger,
		VerifyDest: cfg.Dest.Verify,
		OnEvent: func(ev models.ConversionEvent) {
			if broker != nil {
				broker.PublishConversion(ev)
			}
		},
		OnRun: func(phase notesync.RunPhase, stats models.Stats) {
			if broker != nil {
				broker.Publish(sse.Event{Type: "sync." + string(phase), Data: stats})
			}
		},
	})
	if err != nil {
		return err
	}

	if !cfg.Watch.Enabled {
		stats, err := syncer.Run(ctx)
		if errors.Is(err, context.Canceled) {
			logger.Info("Interrupted", slog.Int("converted", stats.Converted))
			return nil
		}
		if err != nil {
			return err
		}
		logSummary(logger, stats)
		return nil
	}

	return runWatch(ctx, cfg, logger, syncer, broker)
}

func runWatch(ctx context.Context, cfg *Config, logger *slog.Logger, syncer *notesync.Syncer, broker *sse.Broker) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := syncer.Run(gCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("initial sync: %w", err)
		}
		if err == nil {
			logSummary(logger, stats)
		}
		return syncer.Watch(gCtx, cfg.Watch.Debounce)
	})

	if broker != nil {
		h := api.NewHandler(syncer, broker, cfg.Source.Path, cfg.Dest.Path, true)
		var mcpHandler http.Handler
		if cfg.App.HTTP.MCP {
			mcpHandler = mcpserver.New(syncer).Handler()
		}
		httpServer := &http.Server{
			Addr:              cfg.App.HTTP.Address(),
			Handler:           api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, mcpHandler),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			logger.Info("Starting status server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down status server...")
			// SSE handlers only return once the broker closes.
			broker.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watcher stopped")
	return nil
}

// logSummary reports a finished pass. Per-note failures do not fail the
// process; they are surfaced here as a warning.
func logSummary(logger *slog.Logger, stats models.Stats) {
	attrs := []any{
		slog.Int("converted", stats.Converted),
		slog.Int("skipped", stats.Skipped),
		slog.Int("empty", stats.Empty),
		slog.Int("failed", stats.Failed),
		slog.Duration("took", stats.FinishedAt.Sub(stats.StartedAt)),
	}
	if stats.HasFailures() {
		logger.Warn("Sync finished with failures", attrs...)
		return
	}
	logger.Info("Sync complete", attrs...)
}
