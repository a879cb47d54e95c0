package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"webpilot-go/core/command"
	"webpilot-go/core/event"
	"webpilot-go/core/eventbus"
	"webpilot-go/core/state"
	"webpilot-go/domain/action"
	"webpilot-go/domain/prompt"
	"webpilot-go/infrastructure/browser"
	"webpilot-go/infrastructure/logging"
	"webpilot-go/infrastructure/oracle"
)

// Reply messages.
const (
	PageOpenedMessage  = "Web page opened. You may now perform actions."
	openFailedPrefix   = "Failed to open web page: "
	actionFailedPrefix = "Failed to perform action: "
)

// ErrStopped is returned for commands sent to a stopped agent.
var ErrStopped = errors.New("agent is stopped")

// Agent owns one action loop and processes OpenPage and PerformAction
// commands serially. The driver and oracle are owned by the caller.
type Agent struct {
	id string

	state   state.AgentState
	stateMu sync.RWMutex

	driver   browser.Driver
	loop     *LoopController
	eventBus eventbus.EventBus
	logger   *slog.Logger

	cmdChan  chan command.Command
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Config holds configuration for creating a new Agent.
type Config struct {
	// ID identifies the agent in events and logs. Generated when empty.
	ID       string
	Driver   browser.Driver
	Oracle   oracle.Client
	Prompts  *prompt.Registry
	EventBus eventbus.EventBus
	Logger   *slog.Logger
	// SaveDir, when set, receives every snapshot as a PNG file.
	SaveDir string
	// CommandBuffer bounds the command queue; callers beyond it wait.
	CommandBuffer int
}

// New creates a new Agent. Call Start before sending commands.
func New(cfg *Config) (*Agent, error) {
	if cfg.Driver == nil {
		return nil, errors.New("agent requires a browser driver")
	}
	if cfg.Oracle == nil {
		return nil, errors.New("agent requires an oracle client")
	}
	if cfg.Prompts == nil {
		return nil, errors.New("agent requires a prompt registry")
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 16
	}

	logger := cfg.Logger.With("agent_id", cfg.ID)

	capture := NewPageCapture(cfg.Driver, logger)
	capture.SetSaveDir(cfg.SaveDir)

	decider, err := NewDecisionClient(cfg.Oracle, cfg.Prompts, logger)
	if err != nil {
		return nil, err
	}
	resolver, err := NewElementResolver(cfg.Oracle, cfg.Prompts)
	if err != nil {
		return nil, err
	}
	executor := NewActionExecutor(cfg.Driver, NewElementIndex(cfg.Driver), resolver, logger)

	return &Agent{
		id:       cfg.ID,
		state:    state.AgentIdle,
		driver:   cfg.Driver,
		loop:     NewLoopController(capture, decider, executor),
		eventBus: cfg.EventBus,
		logger:   logger,
		cmdChan:  make(chan command.Command, cfg.CommandBuffer),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Start begins the agent's command processing loop.
func (a *Agent) Start() {
	a.wg.Add(1)
	go a.run()
	a.logger.Info("Agent started")
}

// Stop terminates the command loop after the current command finishes.
// Queued commands are answered with a failure.
func (a *Agent) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
		a.wg.Wait()
		a.drain()
		close(a.stopped)
		a.transitionTo(state.AgentStopped)
		a.publishEvent(event.NewAgentStopped(a.id))
		a.logger.Info("Agent stopped")
	})
}

// ID returns the agent ID.
func (a *Agent) ID() string {
	return a.id
}

// State returns the current agent state.
func (a *Agent) State() state.AgentState {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state
}

// OpenPage navigates the browser to url and returns a confirmation or a
// failure message.
func (a *Agent) OpenPage(ctx context.Context, url string) string {
	cmd := command.NewOpenPage(ctx, url)
	if err := a.send(ctx, cmd); err != nil {
		return openFailedPrefix + err.Error()
	}
	return a.await(ctx, cmd.Result(), openFailedPrefix)
}

// PerformAction pursues objective on the current page and returns the
// termination message, the exhaustion message, or a failure message.
func (a *Agent) PerformAction(ctx context.Context, objective string) string {
	cmd := command.NewPerformAction(ctx, objective)
	if err := a.send(ctx, cmd); err != nil {
		return actionFailedPrefix + err.Error()
	}
	return a.await(ctx, cmd.Result(), actionFailedPrefix)
}

// send queues cmd, waiting for room while the agent is busy.
func (a *Agent) send(ctx context.Context, cmd command.Command) error {
	select {
	case <-a.done:
		return ErrStopped
	default:
	}
	select {
	case a.cmdChan <- cmd:
		return nil
	case <-a.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Agent) await(ctx context.Context, result <-chan string, failPrefix string) string {
	select {
	case msg := <-result:
		return msg
	case <-ctx.Done():
		return failPrefix + ctx.Err().Error()
	case <-a.stopped:
		select {
		case msg := <-result:
			return msg
		default:
			return failPrefix + ErrStopped.Error()
		}
	}
}

// run is the main command processing loop.
func (a *Agent) run() {
	defer a.wg.Done()

	for {
		select {
		case <-a.done:
			return
		case cmd := <-a.cmdChan:
			a.processCommand(cmd)
		}
	}
}

// drain answers commands still queued when the agent stops.
// It runs after the command loop has exited.
func (a *Agent) drain() {
	for {
		select {
		case cmd := <-a.cmdChan:
			if req, ok := cmd.(command.Request); ok {
				req.Reply(replyPrefix(cmd) + ErrStopped.Error())
			}
		default:
			return
		}
	}
}

func replyPrefix(cmd command.Command) string {
	if _, ok := cmd.(*command.OpenPage); ok {
		return openFailedPrefix
	}
	return actionFailedPrefix
}

// processCommand handles a single command.
func (a *Agent) processCommand(cmd command.Command) {
	a.logger.Debug("Processing command", "command", cmd.CommandName())

	switch c := cmd.(type) {
	case *command.OpenPage:
		c.Reply(a.handleOpenPage(c))
	case *command.PerformAction:
		c.Reply(a.handlePerformAction(c))
	default:
		a.logger.Warn("Unknown command", "command", fmt.Sprintf("%T", cmd))
	}
}

func (a *Agent) handleOpenPage(cmd *command.OpenPage) string {
	ctx := cmd.Context()
	if err := ctx.Err(); err != nil {
		return openFailedPrefix + err.Error()
	}

	a.logger.Info("Navigating", "url", cmd.URL)
	err := a.openPage(ctx, cmd.URL)
	a.publishEvent(event.NewPageOpened(a.id, cmd.URL, err))
	if err != nil {
		a.logger.Error("Failed to open page", "url", cmd.URL, "error", err)
		return openFailedPrefix + err.Error()
	}

	a.transitionTo(state.AgentReady)
	return PageOpenedMessage
}

func (a *Agent) openPage(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("empty url")
	}
	if err := a.driver.Navigate(ctx, url); err != nil {
		return err
	}

	roots, err := a.driver.Elements(ctx, DefaultRootSelector)
	if err != nil {
		return fmt.Errorf("%w: %w", action.ErrCapture, err)
	}
	if len(roots) == 0 {
		return fmt.Errorf("%w: page has no %s element", action.ErrCapture, DefaultRootSelector)
	}
	return nil
}

func (a *Agent) handlePerformAction(cmd *command.PerformAction) string {
	ctx := cmd.Context()
	if err := ctx.Err(); err != nil {
		return actionFailedPrefix + err.Error()
	}
	if strings.TrimSpace(cmd.Objective) == "" {
		return actionFailedPrefix + "empty objective"
	}

	runID := uuid.NewString()
	runLogger := a.logger.With("run_id", runID)
	ctx = logging.With(ctx, runLogger)

	prev := a.State()
	a.transitionTo(state.AgentActing)
	defer a.transitionTo(state.AgentReady)
	if prev == state.AgentIdle {
		runLogger.Warn("No page opened by this agent, acting on the current page")
	}

	a.publishEvent(event.NewRunStarted(a.id, runID, cmd.Objective, time.Now()))
	runLogger.Info("Run started", "objective", cmd.Objective)

	outcome, err := a.loop.Run(ctx, cmd.Objective, &runObserver{agent: a, runID: runID})

	msg := outcome.Message
	if err != nil {
		msg = actionFailedPrefix + err.Error()
		runLogger.Error("Run failed", "ticks", outcome.Ticks, "error", err)
	} else {
		runLogger.Info("Run finished", "state", outcome.State, "ticks", outcome.Ticks)
	}

	a.publishEvent(event.NewRunFinished(a.id, runID, outcome.State, msg, outcome.Ticks, err, time.Now()))
	return msg
}

// State transition helpers

func (a *Agent) transitionTo(newState state.AgentState) error {
	a.stateMu.Lock()
	oldState := a.state

	if !oldState.CanTransitionTo(newState) {
		a.stateMu.Unlock()
		return state.NewTransitionError(oldState, newState, "invalid transition")
	}

	a.state = newState
	a.stateMu.Unlock()

	if oldState != newState {
		a.publishEvent(event.NewAgentStateChanged(a.id, oldState, newState))
		a.logger.Debug("State changed", "from", oldState, "to", newState)
	}
	return nil
}

func (a *Agent) publishEvent(e event.Event) {
	if a.eventBus != nil {
		a.eventBus.Publish(e)
	}
}

// runObserver publishes loop progress as events.
type runObserver struct {
	agent *Agent
	runID string
}

func (o *runObserver) TickStarted(tick int) {
	o.agent.publishEvent(event.NewTickStarted(o.agent.id, o.runID, tick))
}

func (o *runObserver) DecisionMade(tick int, d action.Decision) {
	o.agent.publishEvent(event.NewDecisionMade(o.agent.id, o.runID, tick, string(d.Kind), d.Target, d.Content))
}

func (o *runObserver) ActionExecuted(tick int, result string) {
	o.agent.publishEvent(event.NewActionExecuted(o.agent.id, o.runID, tick, result))
}
