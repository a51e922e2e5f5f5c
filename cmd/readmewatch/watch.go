package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/abdulachik/readmewatch/internal/app"
	"github.com/abdulachik/readmewatch/internal/config"
	"github.com/abdulachik/readmewatch/internal/scheduler"
)

func runWatch(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cfg.ValidateForWatch(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("starting readmewatch",
		"profile", a.Profile.Name,
		"environment", cfg.Environment(),
		"history", a.Store != nil,
	)

	// Run the monitor in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Scheduler.Run(ctx)
	}()

	// Wait for shutdown signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("monitor: %w", err)
		}
	}

	logHealth(a.Scheduler.Health())
	slog.Info("monitor stopped")
	return nil
}

func logHealth(h *scheduler.Health) {
	slog.Info("monitor health", "healthy", h.IsOverallHealthy())
	for _, name := range h.Components() {
		status := h.GetStatus(name)
		slog.Info("component status",
			"component", name,
			"healthy", status.Healthy,
			"message", status.Message,
			"consecutive_failures", status.ConsecutiveFailures,
		)
	}
}
