// Package application wires the browser, the reasoning service and the
// agent into one runnable unit.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"webpilot-go/application/agent"
	"webpilot-go/application/journal"
	"webpilot-go/core/event"
	"webpilot-go/core/eventbus"
	"webpilot-go/domain/prompt"
	"webpilot-go/domain/run"
	"webpilot-go/infrastructure/browser"
	"webpilot-go/infrastructure/oracle"
)

// stopTimeout bounds browser shutdown.
const stopTimeout = 5 * time.Second

// Coordinator owns the browser lifecycle and the agent that drives it.
type Coordinator struct {
	driver   browser.Driver
	agent    *agent.Agent
	recorder *journal.Recorder
	eventBus eventbus.EventBus
	logger   *slog.Logger

	subscriptionID string

	mu      sync.Mutex
	started bool
	stopped bool
}

// CoordinatorConfig holds configuration for the Coordinator.
type CoordinatorConfig struct {
	Driver   browser.Driver
	Oracle   oracle.Client
	Prompts  *prompt.Registry
	EventBus eventbus.EventBus
	// Journal, when set, records every finished run.
	Journal *run.Service
	Logger  *slog.Logger
	SaveDir string
}

// NewCoordinator creates a coordinator and its agent.
func NewCoordinator(cfg *CoordinatorConfig) (*Coordinator, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Journal != nil && cfg.EventBus == nil {
		return nil, errors.New("journal requires an event bus")
	}

	a, err := agent.New(&agent.Config{
		Driver:   cfg.Driver,
		Oracle:   cfg.Oracle,
		Prompts:  cfg.Prompts,
		EventBus: cfg.EventBus,
		Logger:   cfg.Logger,
		SaveDir:  cfg.SaveDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	c := &Coordinator{
		driver:   cfg.Driver,
		agent:    a,
		eventBus: cfg.EventBus,
		logger:   cfg.Logger,
	}
	if cfg.Journal != nil {
		c.recorder = journal.NewRecorder(cfg.Journal, cfg.Logger)
	}
	return c, nil
}

// Start launches the browser when needed and starts the agent.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	if c.stopped {
		return agent.ErrStopped
	}

	if !c.driver.IsRunning() {
		if err := c.driver.Start(ctx); err != nil {
			return fmt.Errorf("failed to start browser: %w", err)
		}
		c.logger.Info("Browser started")
	}

	if c.eventBus != nil {
		c.subscriptionID = c.eventBus.SubscribeAgent(c.agent.ID(), c.handleEvent)
	}
	if c.recorder != nil {
		c.recorder.Attach(c.eventBus)
	}

	c.agent.Start()
	c.started = true
	c.logger.Info("Coordinator started", "agent_id", c.agent.ID())
	return nil
}

// Stop stops the agent and shuts the browser down.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	started := c.started
	c.mu.Unlock()

	if started {
		c.agent.Stop()
	}
	// The recorder stays subscribed so events still queued on the bus are
	// journaled when the bus owner closes it.
	if c.eventBus != nil && c.subscriptionID != "" {
		c.eventBus.Unsubscribe(c.subscriptionID)
	}

	done := make(chan error, 1)
	go func() {
		done <- c.driver.Stop()
	}()

	select {
	case err := <-done:
		if err != nil {
			c.logger.Warn("Browser stop failed", "error", err)
		}
	case <-time.After(stopTimeout):
		c.logger.Warn("Browser stop timeout, the process may not have exited cleanly")
	}

	c.logger.Info("Coordinator stopped")
}

// AgentID returns the ID of the managed agent.
func (c *Coordinator) AgentID() string {
	return c.agent.ID()
}

// OpenPage navigates the browser to url.
func (c *Coordinator) OpenPage(ctx context.Context, url string) string {
	return c.agent.OpenPage(ctx, url)
}

// PerformAction pursues objective on the current page.
func (c *Coordinator) PerformAction(ctx context.Context, objective string) string {
	return c.agent.PerformAction(ctx, objective)
}

func (c *Coordinator) handleEvent(e event.Event) {
	switch evt := e.(type) {
	case *event.RunFinished:
		c.logger.Info("Run completed",
			"run_id", evt.RunID,
			"state", evt.State,
			"ticks", evt.Ticks,
		)
	case *event.AgentStopped:
		c.logger.Debug("Agent stopped", "agent_id", evt.AgentID())
	}
}
