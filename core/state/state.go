// Package state defines the agent and action loop state machines.
package state

import (
	"fmt"
	"slices"
)

// AgentState represents the state of an agent.
type AgentState int

const (
	// AgentIdle is the initial state before any page is opened.
	AgentIdle AgentState = iota
	// AgentReady indicates a page is open and the agent accepts objectives.
	AgentReady
	// AgentActing indicates an action loop is in progress.
	AgentActing
	// AgentStopped indicates the agent has been shut down.
	AgentStopped
)

// String returns the string representation of the state.
func (s AgentState) String() string {
	switch s {
	case AgentIdle:
		return "Idle"
	case AgentReady:
		return "Ready"
	case AgentActing:
		return "Acting"
	case AgentStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// agentTransitions defines the allowed agent state transitions.
// PerformAction is accepted while Idle: the browser may already show a page
// the caller navigated to.
var agentTransitions = map[AgentState][]AgentState{
	AgentIdle:    {AgentReady, AgentActing, AgentStopped},
	AgentReady:   {AgentReady, AgentActing, AgentStopped},
	AgentActing:  {AgentReady, AgentStopped},
	AgentStopped: {},
}

// CanTransitionTo checks if transitioning from the current state to the target state is valid.
func (s AgentState) CanTransitionTo(target AgentState) bool {
	return slices.Contains(agentTransitions[s], target)
}

// IsTerminal returns true if the agent accepts no further commands.
func (s AgentState) IsTerminal() bool {
	return s == AgentStopped
}

// LoopState represents the state of one action loop run.
type LoopState int

const (
	// LoopRunning is the state while ticks are being executed.
	LoopRunning LoopState = iota
	// LoopTerminated indicates the oracle returned a terminal decision.
	LoopTerminated
	// LoopExhausted indicates the tick budget ran out.
	LoopExhausted
	// LoopFailed indicates a component error aborted the run.
	LoopFailed
)

// String returns the string representation of the state.
func (s LoopState) String() string {
	switch s {
	case LoopRunning:
		return "Running"
	case LoopTerminated:
		return "Terminated"
	case LoopExhausted:
		return "Exhausted"
	case LoopFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

var loopTransitions = map[LoopState][]LoopState{
	LoopRunning:    {LoopRunning, LoopTerminated, LoopExhausted, LoopFailed},
	LoopTerminated: {},
	LoopExhausted:  {},
	LoopFailed:     {},
}

// CanTransitionTo checks if transitioning from the current state to the target state is valid.
func (s LoopState) CanTransitionTo(target LoopState) bool {
	return slices.Contains(loopTransitions[s], target)
}

// IsTerminal returns true if the run has finished.
func (s LoopState) IsTerminal() bool {
	return s != LoopRunning
}

// TransitionError represents an invalid state transition attempt.
type TransitionError struct {
	From   fmt.Stringer
	To     fmt.Stringer
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid state transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, to fmt.Stringer, reason string) *TransitionError {
	return &TransitionError{From: from, To: to, Reason: reason}
}
