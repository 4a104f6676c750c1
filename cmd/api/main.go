package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-feedback/internal/bootstrap"
	"resume-feedback/internal/shared/config"
	"resume-feedback/internal/shared/server"
	"resume-feedback/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer telemetry.Sync()

	if err := cfg.Validate(); err != nil {
		telemetry.Error("config invalid", map[string]any{"error": err})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		telemetry.Error("bootstrap failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		telemetry.Info("starting API server", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Error("server error", map[string]any{"error": err})
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("shutdown failed", map[string]any{"error": err})
	}
}
