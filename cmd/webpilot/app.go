package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"webpilot-go/application"
	"webpilot-go/core/eventbus"
	"webpilot-go/domain/prompt"
	"webpilot-go/domain/run"
	"webpilot-go/infrastructure/browser"
	"webpilot-go/infrastructure/logging"
	"webpilot-go/infrastructure/oracle"
	"webpilot-go/infrastructure/repository"
	"webpilot-go/resources"
)

const shutdownTimeout = 10 * time.Second

// app holds the wired runtime shared by all subcommands.
type app struct {
	cfg         *Config
	logger      *slog.Logger
	eventBus    eventbus.EventBus
	coordinator *application.Coordinator
	journal     *run.Service

	closers []func()
}

// setupLogging loads the logging configuration and installs the global logger.
func setupLogging(cfg *Config) (*slog.Logger, func() error, error) {
	logger, closeLog, err := logging.Setup(cfg.LoggingConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return logger, closeLog, nil
}

// newApp wires the browser, oracle, journal and coordinator from cfg.
// The browser is not launched until Start.
func newApp(ctx context.Context, cfg *Config) (*app, error) {
	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = closeLog() })

	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	prompts := prompt.NewRegistry()
	if err := prompt.NewLoader(prompts).LoadFromFS(resources.PromptFiles); err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	a.logger.Debug("Prompts loaded", "count", prompts.Count())

	client, err := a.newOracle(ctx)
	if err != nil {
		return err
	}

	if a.cfg.Journal.Enabled {
		journal, err := a.openJournal(ctx)
		if err != nil {
			return err
		}
		a.journal = journal
	}

	a.eventBus = eventbus.New(256, eventbus.WithLogger(a.logger))
	a.closers = append(a.closers, a.eventBus.Close)

	coordinator, err := application.NewCoordinator(&application.CoordinatorConfig{
		Driver:   browser.NewChromeDPDriver(a.cfg.DriverConfig()),
		Oracle:   client,
		Prompts:  prompts,
		EventBus: a.eventBus,
		Journal:  a.journal,
		Logger:   a.logger,
		SaveDir:  a.cfg.Capture.SaveDir,
	})
	if err != nil {
		return err
	}
	a.coordinator = coordinator
	a.closers = append(a.closers, coordinator.Stop)
	return nil
}

func (a *app) newOracle(ctx context.Context) (oracle.Client, error) {
	switch a.cfg.Oracle.Provider {
	case providerOpenAI:
		client := oracle.NewHTTPClient(a.cfg.HTTPConfig())
		a.closers = append(a.closers, client.Close)
		a.logger.Info("Using OpenAI-compatible oracle", "base_url", a.cfg.HTTPConfig().BaseURL, "healthy", client.IsHealthy())
		return client, nil
	default:
		client, err := oracle.NewGeminiClient(ctx, a.cfg.GeminiConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create oracle: %w", err)
		}
		a.logger.Info("Using Gemini oracle", "model", a.cfg.GeminiConfig().Model)
		return client, nil
	}
}

func (a *app) openJournal(ctx context.Context) (*run.Service, error) {
	db, err := repository.NewMongoDB(ctx, a.cfg.MongoDBConfig(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	a.closers = append(a.closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = db.Close(closeCtx)
	})

	repo := repository.NewMongoRunRepository(db, a.logger)
	if err := repo.EnsureIndexes(ctx); err != nil {
		a.logger.Warn("Journal index not created", "error", err)
	}
	return run.NewService(repo), nil
}

// Start launches the browser and the agent.
func (a *app) Start(ctx context.Context) error {
	return a.coordinator.Start(ctx)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
