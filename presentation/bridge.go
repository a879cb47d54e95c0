// Package presentation exposes the agent to its callers: an event bridge
// for progress reporting and an MCP tool server for chat models.
package presentation

import (
	"log/slog"
	"sync"

	"webpilot-go/core/event"
	"webpilot-go/core/eventbus"
	"webpilot-go/core/state"
)

// ProgressBridge routes agent events to caller-supplied callbacks.
type ProgressBridge struct {
	eventBus eventbus.EventBus
	logger   *slog.Logger

	callbacks   *Callbacks
	callbacksMu sync.RWMutex

	subscriptionID string
}

// Callbacks contains callbacks for progress updates. Nil callbacks are skipped.
type Callbacks struct {
	OnPageOpened     func(url string, err error)
	OnStateChanged   func(oldState, newState state.AgentState)
	OnRunStarted     func(runID, objective string)
	OnTickStarted    func(runID string, tick int)
	OnDecisionMade   func(runID string, tick int, action, target, content string)
	OnActionExecuted func(runID string, tick int, result string)
	OnRunFinished    func(runID string, st state.LoopState, outcome string, ticks int, err error)
}

// BridgeConfig holds configuration for ProgressBridge.
type BridgeConfig struct {
	EventBus eventbus.EventBus
	// AgentID restricts the bridge to one agent. Empty receives all agents.
	AgentID string
	Logger  *slog.Logger
}

// NewProgressBridge creates a bridge subscribed to the event bus.
func NewProgressBridge(cfg *BridgeConfig) *ProgressBridge {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	b := &ProgressBridge{
		eventBus:  cfg.EventBus,
		logger:    cfg.Logger,
		callbacks: &Callbacks{},
	}

	if b.eventBus != nil {
		if cfg.AgentID != "" {
			b.subscriptionID = b.eventBus.SubscribeAgent(cfg.AgentID, b.handleEvent)
		} else {
			b.subscriptionID = b.eventBus.Subscribe(b.handleEvent)
		}
	}

	return b
}

// SetCallbacks sets the progress callbacks.
func (b *ProgressBridge) SetCallbacks(callbacks *Callbacks) {
	b.callbacksMu.Lock()
	defer b.callbacksMu.Unlock()
	b.callbacks = callbacks
}

// Close unsubscribes from the event bus.
func (b *ProgressBridge) Close() {
	if b.eventBus != nil && b.subscriptionID != "" {
		b.eventBus.Unsubscribe(b.subscriptionID)
	}
}

func (b *ProgressBridge) handleEvent(e event.Event) {
	b.callbacksMu.RLock()
	callbacks := b.callbacks
	b.callbacksMu.RUnlock()

	if callbacks == nil {
		return
	}

	switch evt := e.(type) {
	case *event.PageOpened:
		if callbacks.OnPageOpened != nil {
			callbacks.OnPageOpened(evt.URL, evt.Error)
		}

	case *event.AgentStateChanged:
		if callbacks.OnStateChanged != nil {
			callbacks.OnStateChanged(evt.OldState, evt.NewState)
		}

	case *event.RunStarted:
		if callbacks.OnRunStarted != nil {
			callbacks.OnRunStarted(evt.RunID, evt.Objective)
		}

	case *event.TickStarted:
		if callbacks.OnTickStarted != nil {
			callbacks.OnTickStarted(evt.RunID, evt.Tick)
		}

	case *event.DecisionMade:
		if callbacks.OnDecisionMade != nil {
			callbacks.OnDecisionMade(evt.RunID, evt.Tick, evt.Action, evt.Target, evt.Content)
		}

	case *event.ActionExecuted:
		if callbacks.OnActionExecuted != nil {
			callbacks.OnActionExecuted(evt.RunID, evt.Tick, evt.Result)
		}

	case *event.RunFinished:
		if callbacks.OnRunFinished != nil {
			callbacks.OnRunFinished(evt.RunID, evt.State, evt.Outcome, evt.Ticks, evt.Error)
		}

	default:
		b.logger.Debug("Event not bridged", "event", e.EventName())
	}
}
