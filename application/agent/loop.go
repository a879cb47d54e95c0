package agent

import (
	"context"
	"time"

	"webpilot-go/core/state"
	"webpilot-go/domain/action"
	"webpilot-go/infrastructure/logging"
)

const (
	// MaxTicks bounds the number of ticks in one run.
	MaxTicks = 15

	// SettleDelay precedes every tick so page mutations from the previous
	// action can settle.
	SettleDelay = 200 * time.Millisecond

	// ExhaustedMessage is returned when MaxTicks pass without termination.
	ExhaustedMessage = "Max attempts reached. Could not complete the action."
)

// Outcome is the result of one run.
type Outcome struct {
	Message string
	State   state.LoopState
	Ticks   int
}

// Observer receives progress notifications from the loop.
type Observer interface {
	TickStarted(tick int)
	DecisionMade(tick int, d action.Decision)
	ActionExecuted(tick int, result string)
}

type nopObserver struct{}

func (nopObserver) TickStarted(int)                   {}
func (nopObserver) DecisionMade(int, action.Decision) {}
func (nopObserver) ActionExecuted(int, string)        {}

// LoopController runs capture, decide and execute ticks until the oracle
// terminates the run or MaxTicks is reached.
type LoopController struct {
	capture  *PageCapture
	decider  *DecisionClient
	executor *ActionExecutor
	sleep    sleepFunc
}

// NewLoopController creates a new loop controller.
func NewLoopController(capture *PageCapture, decider *DecisionClient, executor *ActionExecutor) *LoopController {
	return &LoopController{
		capture:  capture,
		decider:  decider,
		executor: executor,
		sleep:    sleepContext,
	}
}

// Run pursues objective. Errors abort the run with state LoopFailed; the
// returned Outcome still reports the ticks spent.
func (l *LoopController) Run(ctx context.Context, objective string, obs Observer) (Outcome, error) {
	if obs == nil {
		obs = nopObserver{}
	}

	out := Outcome{State: state.LoopRunning}
	for !out.State.IsTerminal() {
		if out.Ticks == MaxTicks {
			out.Message = ExhaustedMessage
			if err := out.transition(state.LoopExhausted); err != nil {
				return out, err
			}
			break
		}
		if err := l.tick(ctx, objective, obs, &out); err != nil {
			if terr := out.transition(state.LoopFailed); terr != nil {
				return out, terr
			}
			return out, err
		}
	}
	return out, nil
}

// tick runs one settle, capture, decide and execute cycle.
func (l *LoopController) tick(ctx context.Context, objective string, obs Observer, out *Outcome) error {
	logger := logging.From(ctx)

	if err := l.sleep(ctx, SettleDelay); err != nil {
		return err
	}

	out.Ticks++
	tick := out.Ticks
	obs.TickStarted(tick)

	snap, err := l.capture.Capture(ctx)
	if err != nil {
		return err
	}

	d, err := l.decider.Decide(ctx, objective, snap)
	if err != nil {
		return err
	}
	obs.DecisionMade(tick, d)
	logger.Info("Performing action", "tick", tick, "decision", d.String())

	if d.Kind.IsTerminal() {
		out.Message = d.TerminationMessage
		return out.transition(state.LoopTerminated)
	}

	result, err := l.executor.Execute(ctx, d)
	if err != nil {
		return err
	}
	obs.ActionExecuted(tick, result)
	logger.Debug("Action executed", "tick", tick, "result", result)
	return nil
}

func (o *Outcome) transition(to state.LoopState) error {
	if !o.State.CanTransitionTo(to) {
		return state.NewTransitionError(o.State, to, "run already finished")
	}
	o.State = to
	return nil
}
