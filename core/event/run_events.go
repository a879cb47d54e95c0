package event

import (
	"time"

	"webpilot-go/core/state"
)

// PageOpened is published after a navigation attempt.
type PageOpened struct {
	baseAgentEvent
	URL   string
	Error error // nil on success
}

func NewPageOpened(agentID, url string, err error) *PageOpened {
	return &PageOpened{
		baseAgentEvent: baseAgentEvent{agentID: agentID},
		URL:            url,
		Error:          err,
	}
}

func (e *PageOpened) EventName() string {
	return "PageOpened"
}

// RunStarted is published when an objective is accepted.
type RunStarted struct {
	baseAgentEvent
	RunID     string
	Objective string
	StartedAt time.Time
}

func NewRunStarted(agentID, runID, objective string, startedAt time.Time) *RunStarted {
	return &RunStarted{
		baseAgentEvent: baseAgentEvent{agentID: agentID},
		RunID:          runID,
		Objective:      objective,
		StartedAt:      startedAt,
	}
}

func (e *RunStarted) EventName() string {
	return "RunStarted"
}

// TickStarted is published at the start of each loop iteration.
type TickStarted struct {
	baseAgentEvent
	RunID string
	Tick  int
}

func NewTickStarted(agentID, runID string, tick int) *TickStarted {
	return &TickStarted{
		baseAgentEvent: baseAgentEvent{agentID: agentID},
		RunID:          runID,
		Tick:           tick,
	}
}

func (e *TickStarted) EventName() string {
	return "TickStarted"
}

// DecisionMade is published when the oracle returns a next action.
type DecisionMade struct {
	baseAgentEvent
	RunID   string
	Tick    int
	Action  string
	Target  string
	Content string
}

func NewDecisionMade(agentID, runID string, tick int, action, target, content string) *DecisionMade {
	return &DecisionMade{
		baseAgentEvent: baseAgentEvent{agentID: agentID},
		RunID:          runID,
		Tick:           tick,
		Action:         action,
		Target:         target,
		Content:        content,
	}
}

func (e *DecisionMade) EventName() string {
	return "DecisionMade"
}

// ActionExecuted is published after the executor applies a decision.
type ActionExecuted struct {
	baseAgentEvent
	RunID  string
	Tick   int
	Result string
}

func NewActionExecuted(agentID, runID string, tick int, result string) *ActionExecuted {
	return &ActionExecuted{
		baseAgentEvent: baseAgentEvent{agentID: agentID},
		RunID:          runID,
		Tick:           tick,
		Result:         result,
	}
}

func (e *ActionExecuted) EventName() string {
	return "ActionExecuted"
}

// RunFinished is published when a run reaches a terminal state.
type RunFinished struct {
	baseAgentEvent
	RunID      string
	State      state.LoopState
	Outcome    string
	Ticks      int
	Error      error // non-nil when State is LoopFailed
	FinishedAt time.Time
}

func NewRunFinished(agentID, runID string, st state.LoopState, outcome string, ticks int, err error, finishedAt time.Time) *RunFinished {
	return &RunFinished{
		baseAgentEvent: baseAgentEvent{agentID: agentID},
		RunID:          runID,
		State:          st,
		Outcome:        outcome,
		Ticks:          ticks,
		Error:          err,
		FinishedAt:     finishedAt,
	}
}

func (e *RunFinished) EventName() string {
	return "RunFinished"
}
