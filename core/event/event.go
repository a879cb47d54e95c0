// Package event defines all events that can be published by the application.
// Events represent state changes and are consumed by subscribers such as the
// run journal and the CLI progress printer.
package event

import "webpilot-go/core/state"

// Event is the base interface for all events.
// Events are published by the application layer and consumed by subscribers.
type Event interface {
	// EventName returns the name of the event for logging/debugging
	EventName() string
}

// AgentEvent is an event that originates from a specific agent.
type AgentEvent interface {
	Event
	// AgentID returns the source agent ID
	AgentID() string
}

// baseAgentEvent provides common implementation for agent events.
type baseAgentEvent struct {
	agentID string
}

func (e *baseAgentEvent) AgentID() string {
	return e.agentID
}

// AgentStateChanged is published when an agent's state changes.
type AgentStateChanged struct {
	baseAgentEvent
	OldState state.AgentState
	NewState state.AgentState
}

func NewAgentStateChanged(agentID string, oldState, newState state.AgentState) *AgentStateChanged {
	return &AgentStateChanged{
		baseAgentEvent: baseAgentEvent{agentID: agentID},
		OldState:       oldState,
		NewState:       newState,
	}
}

func (e *AgentStateChanged) EventName() string {
	return "AgentStateChanged"
}

// AgentStopped is published when an agent shuts down.
type AgentStopped struct {
	baseAgentEvent
}

func NewAgentStopped(agentID string) *AgentStopped {
	return &AgentStopped{baseAgentEvent{agentID: agentID}}
}

func (e *AgentStopped) EventName() string {
	return "AgentStopped"
}
