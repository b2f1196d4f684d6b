package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/stevemurr/laws/database"
	"github.com/stevemurr/laws/handler"
	"github.com/stevemurr/laws/snapshot"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// autosave saves db every interval until ctx is done.
func autosave(ctx context.Context, db *database.Database, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := db.Save(); err != nil {
				logger.Error("autosave failed", "error", err)
			}
		}
	}
}

func main() {
	host := env("HOST", "::1")
	port := env("PORT", "6969")
	dataDir := env("DATA_DIR", "./data")
	backend := env("SNAPSHOT_BACKEND", "json")

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(env("LOG_LEVEL", "info")),
	}))
	slog.SetDefault(logger)

	if err := run(host, port, dataDir, backend, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(host, port, dataDir, backend string, logger *slog.Logger) error {
	recovery, err := database.ParseRecovery(env("RECOVERY", "quarantine"))
	if err != nil {
		return err
	}
	interval, err := time.ParseDuration(env("AUTOSAVE_INTERVAL", "0"))
	if err != nil {
		return fmt.Errorf("invalid AUTOSAVE_INTERVAL: %w", err)
	}

	sink, err := snapshot.New(backend, dataDir)
	if err != nil {
		return fmt.Errorf("failed to create snapshot sink (backend=%s): %w", backend, err)
	}
	db, err := database.Load(database.Options{
		Sink:     sink,
		Recovery: recovery,
		Logger:   logger,
	})
	if err != nil {
		sink.Close()
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if interval > 0 {
		go autosave(ctx, db, interval, logger)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           handler.New(db, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", srv.Addr,
			"backend", backend,
			"data", dataDir,
			"recovery", recovery.String(),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}
	return db.Save()
}
