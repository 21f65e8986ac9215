package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/rowstore/internal/config"
	"github.com/JonMunkholm/rowstore/internal/core"
	"github.com/JonMunkholm/rowstore/internal/grid"
	_ "github.com/JonMunkholm/rowstore/internal/grid/memgrid"
	_ "github.com/JonMunkholm/rowstore/internal/grid/pggrid"
	_ "github.com/JonMunkholm/rowstore/internal/grid/sqlitegrid"
	"github.com/JonMunkholm/rowstore/internal/logging"
	"github.com/JonMunkholm/rowstore/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	wb, err := grid.Open(ctx, cfg.Store.Driver, cfg.Store.GridOptions())
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err, "code", core.MapError(err).Code)
		os.Exit(1)
	}

	if err := wb.Ping(ctx); err != nil {
		slog.Error("failed to ping store", "error", err)
		os.Exit(1)
	}
	slog.Info("store ready", "driver", cfg.Store.Driver)

	ids, err := core.NewIDGenerator(cfg.IDs.Generator)
	if err != nil {
		slog.Error("invalid id generator", "error", err)
		os.Exit(1)
	}

	service := core.NewService(wb, core.Config{
		IDs:     ids,
		Limiter: core.NewWriteLimiter(cfg.Write.MaxConcurrent, cfg.Write.MaxWaitTime),
	})
	defer service.Close()

	if cfg.Seed.File != "" {
		f, err := core.LoadSeedFile(cfg.Seed.File)
		if err != nil {
			slog.Error("failed to load seed file", "file", cfg.Seed.File, "error", err)
			os.Exit(1)
		}
		created, err := service.Seed(ctx, f)
		if err != nil {
			slog.Error("seeding failed", "error", err)
			os.Exit(1)
		}
		slog.Info("seed applied", "file", cfg.Seed.File, "created", created)
	}

	if names, err := service.ListTables(ctx); err == nil {
		slog.Info("tables available", "count", len(names), "tables", names)
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Let writes that were already admitted finish before the store closes.
		if status := service.WriteLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for writes to complete", "active", status.Active)
			if err := service.WaitForWrites(shutdownCtx); err != nil {
				slog.Warn("writes did not complete in time", "error", err)
			} else {
				slog.Info("all writes completed")
			}
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
