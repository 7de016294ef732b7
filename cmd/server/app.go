package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/flashforge/internal/api"
	"github.com/phrazzld/flashforge/internal/config"
	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/phrazzld/flashforge/internal/platform/gemini"
	"github.com/phrazzld/flashforge/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds the shared dependencies of the server.
type application struct {
	config *config.Config
	logger *slog.Logger

	registry *prometheus.Registry
	metrics  *metrics.Collector

	generator        generation.Generator
	flashcardHandler *api.FlashcardHandler
}

// newApplication wires configuration, metrics, the Gemini invoker and the
// generation service into HTTP handlers. Extra invoker options are applied
// after the metrics observer.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	registry *prometheus.Registry,
	invokerOpts ...gemini.Option,
) (*application, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if registry == nil {
		return nil, errors.New("metrics registry cannot be nil")
	}

	app := &application{
		config:   cfg,
		logger:   logger,
		registry: registry,
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.NewCollector(registry)

	if !cfg.LLM.HasCredential() {
		logger.Warn("Gemini API key is not configured; generation requests will return no cards",
			"env", config.LegacyAPIKeyEnv)
	}

	opts := append([]gemini.Option{gemini.WithAttemptObserver(app.metrics)}, invokerOpts...)
	invoker, err := gemini.New(ctx, cfg.LLM, logger.With("component", "gemini_invoker"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini invoker: %w", err)
	}

	app.generator, err = generation.NewService(
		invoker,
		logger.With("component", "generation_service"),
		generation.WithParser(generation.Parser{Strict: cfg.LLM.StrictParsing}),
		generation.WithObserver(app.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	app.flashcardHandler, err = api.NewFlashcardHandler(app.generator, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create flashcard handler: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
