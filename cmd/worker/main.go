package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"litreview/internal/activities"
	"litreview/internal/app"
	"litreview/internal/config"
	"litreview/internal/observability"
	"litreview/internal/workflows"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(observability.LoggingConfig(cfg.Logging)).
		With().Str("component", "worker").Logger()
	metrics := observability.NewMetrics(cfg.Metrics.Namespace, prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.RequireQuestions(); err != nil {
		return err
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
		Logger:    observability.NewTemporalLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("dial temporal: %w", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(a.Parser, a.Runner, cfg.Extract.Overwrite, logger, metrics))

	logger.Info().
		Str("address", cfg.Temporal.Address).
		Str("queue", cfg.Temporal.TaskQueue).
		Str("llm_providers", cfg.Providers.LLM).
		Str("embed_providers", cfg.Providers.Embedding).
		Int("questions", len(a.Questions)).
		Msg("litreview worker listening")
	return w.Run(worker.InterruptCh())
}
