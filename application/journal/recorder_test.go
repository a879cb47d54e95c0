package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"webpilot-go/core/event"
	"webpilot-go/core/eventbus"
	"webpilot-go/core/state"
	"webpilot-go/domain/run"
)

type memoryRepository struct {
	mu        sync.Mutex
	runs      []*run.Run
	insertErr error
}

func (m *memoryRepository) Insert(ctx context.Context, r *run.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.runs = append(m.runs, r.Clone())
	return nil
}

func (m *memoryRepository) FindByID(ctx context.Context, id string) (*run.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memoryRepository) FindRecent(ctx context.Context, limit int) ([]*run.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*run.Run(nil), m.runs...), nil
}

func (m *memoryRepository) stored() []*run.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*run.Run(nil), m.runs...)
}

func TestRecorder_RecordsTerminatedRun(t *testing.T) {
	repo := &memoryRepository{}
	rec := NewRecorder(run.NewService(repo), nil)

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Second)

	events := []event.Event{
		event.NewRunStarted("a1", "r1", "find the contact email", start),
		event.NewTickStarted("a1", "r1", 1),
		event.NewDecisionMade("a1", "r1", 1, "click", "Accept cookies", ""),
		event.NewActionExecuted("a1", "r1", 1, `Clicked the element: <button text="Accept cookies">`),
		event.NewTickStarted("a1", "r1", 2),
		event.NewDecisionMade("a1", "r1", 2, "none", "", ""),
		event.NewRunFinished("a1", "r1", state.LoopTerminated, "contact@example.com", 2, nil, end),
	}
	for _, e := range events {
		rec.HandleEvent(e)
	}

	stored := repo.stored()
	if len(stored) != 1 {
		t.Fatalf("stored runs = %d, want 1", len(stored))
	}

	want := &run.Run{
		ID:        "r1",
		AgentID:   "a1",
		Objective: "find the contact email",
		Status:    run.StatusTerminated,
		Outcome:   "contact@example.com",
		Steps: []run.Step{
			{Tick: 1, Action: "click", Target: "Accept cookies", Result: `Clicked the element: <button text="Accept cookies">`},
			{Tick: 2, Action: "none"},
		},
		StartedAt:  start,
		FinishedAt: end,
	}
	if diff := cmp.Diff(want, stored[0]); diff != "" {
		t.Errorf("stored run mismatch (-want +got):\n%s", diff)
	}
	if rec.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", rec.Pending())
	}
}

func TestRecorder_Statuses(t *testing.T) {
	tests := []struct {
		st      state.LoopState
		err     error
		want    run.Status
		wantErr string
	}{
		{state.LoopTerminated, nil, run.StatusTerminated, ""},
		{state.LoopExhausted, nil, run.StatusExhausted, ""},
		{state.LoopFailed, errors.New("capture failed"), run.StatusFailed, "capture failed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			repo := &memoryRepository{}
			rec := NewRecorder(run.NewService(repo), nil)

			rec.HandleEvent(event.NewRunStarted("a1", "r1", "x", time.Now()))
			rec.HandleEvent(event.NewRunFinished("a1", "r1", tt.st, "msg", 1, tt.err, time.Now()))

			stored := repo.stored()
			if len(stored) != 1 {
				t.Fatalf("stored runs = %d, want 1", len(stored))
			}
			if stored[0].Status != tt.want {
				t.Errorf("Status = %v, want %v", stored[0].Status, tt.want)
			}
			if stored[0].Error != tt.wantErr {
				t.Errorf("Error = %q, want %q", stored[0].Error, tt.wantErr)
			}
		})
	}
}

func TestRecorder_IgnoresUnknownRuns(t *testing.T) {
	repo := &memoryRepository{}
	rec := NewRecorder(run.NewService(repo), nil)

	rec.HandleEvent(event.NewDecisionMade("a1", "ghost", 1, "wait", "", ""))
	rec.HandleEvent(event.NewRunFinished("a1", "ghost", state.LoopExhausted, "x", 15, nil, time.Now()))
	rec.HandleEvent(event.NewPageOpened("a1", "https://example.com", nil))

	if n := len(repo.stored()); n != 0 {
		t.Errorf("stored runs = %d, want 0", n)
	}
}

func TestRecorder_InsertErrorIsLogged(t *testing.T) {
	repo := &memoryRepository{insertErr: errors.New("connection refused")}
	rec := NewRecorder(run.NewService(repo), nil)

	rec.HandleEvent(event.NewRunStarted("a1", "r1", "x", time.Now()))
	rec.HandleEvent(event.NewRunFinished("a1", "r1", state.LoopTerminated, "ok", 1, nil, time.Now()))

	if rec.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 after a failed write", rec.Pending())
	}
}

func TestRecorder_AttachToBus(t *testing.T) {
	repo := &memoryRepository{}
	rec := NewRecorder(run.NewService(repo), nil)
	bus := eventbus.New(16)
	rec.Attach(bus)

	bus.Publish(event.NewRunStarted("a1", "r1", "x", time.Now()))
	bus.Publish(event.NewRunFinished("a1", "r1", state.LoopTerminated, "ok", 1, nil, time.Now()))
	bus.Close()

	if n := len(repo.stored()); n != 1 {
		t.Errorf("stored runs = %d, want 1", n)
	}

	rec.Detach()
}
