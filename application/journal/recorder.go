// Package journal turns agent run events into audit records.
package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"webpilot-go/core/event"
	"webpilot-go/core/eventbus"
	"webpilot-go/core/state"
	"webpilot-go/domain/run"
)

// DefaultWriteTimeout bounds a single journal write.
const DefaultWriteTimeout = 5 * time.Second

// Recorder aggregates run events from the event bus and records each
// finished run through the run service.
type Recorder struct {
	service *run.Service
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*run.Run

	bus   eventbus.EventBus
	subID string
}

// NewRecorder creates a recorder. Call Attach to start receiving events.
func NewRecorder(service *run.Service, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		service: service,
		logger:  logger.With("component", "journal"),
		timeout: DefaultWriteTimeout,
		pending: make(map[string]*run.Run),
	}
}

// Attach subscribes the recorder to all agent events on bus.
func (r *Recorder) Attach(bus eventbus.EventBus) {
	r.bus = bus
	r.subID = bus.Subscribe(r.HandleEvent)
}

// Detach removes the subscription created by Attach.
func (r *Recorder) Detach() {
	if r.bus != nil && r.subID != "" {
		r.bus.Unsubscribe(r.subID)
		r.subID = ""
	}
}

// Pending returns the number of runs that have started but not finished.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// HandleEvent folds e into the pending run it belongs to.
func (r *Recorder) HandleEvent(e event.Event) {
	switch ev := e.(type) {
	case *event.RunStarted:
		r.mu.Lock()
		r.pending[ev.RunID] = &run.Run{
			ID:        ev.RunID,
			AgentID:   ev.AgentID(),
			Objective: ev.Objective,
			Status:    run.StatusRunning,
			StartedAt: ev.StartedAt,
		}
		r.mu.Unlock()

	case *event.DecisionMade:
		r.update(ev.RunID, func(rec *run.Run) {
			rec.Steps = append(rec.Steps, run.Step{
				Tick:    ev.Tick,
				Action:  ev.Action,
				Target:  ev.Target,
				Content: ev.Content,
			})
		})

	case *event.ActionExecuted:
		r.update(ev.RunID, func(rec *run.Run) {
			for i := len(rec.Steps) - 1; i >= 0; i-- {
				if rec.Steps[i].Tick == ev.Tick {
					rec.Steps[i].Result = ev.Result
					return
				}
			}
		})

	case *event.RunFinished:
		r.mu.Lock()
		rec, ok := r.pending[ev.RunID]
		delete(r.pending, ev.RunID)
		r.mu.Unlock()
		if !ok {
			r.logger.Warn("Finished run was never started", "run_id", ev.RunID)
			return
		}

		rec.Status = statusOf(ev.State)
		rec.Outcome = ev.Outcome
		rec.FinishedAt = ev.FinishedAt
		if ev.Error != nil {
			rec.Error = ev.Error.Error()
		}
		r.record(rec)
	}
}

func (r *Recorder) update(runID string, fn func(rec *run.Run)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.pending[runID]; ok {
		fn(rec)
	}
}

func (r *Recorder) record(rec *run.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.service.Record(ctx, rec); err != nil {
		r.logger.Error("Failed to record run", "run_id", rec.ID, "error", err)
		return
	}
	r.logger.Debug("Run recorded", "run", rec.Summary())
}

func statusOf(s state.LoopState) run.Status {
	switch s {
	case state.LoopTerminated:
		return run.StatusTerminated
	case state.LoopExhausted:
		return run.StatusExhausted
	case state.LoopFailed:
		return run.StatusFailed
	default:
		return run.StatusRunning
	}
}
