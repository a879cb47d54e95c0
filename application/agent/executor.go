package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"webpilot-go/domain/action"
	"webpilot-go/infrastructure/browser"
)

// WaitDelay is the pause performed by the wait action.
const WaitDelay = 3 * time.Second

// Result messages.
const (
	WaitingMessage = "Waiting..."
	clickedFormat  = "Clicked the element: %s"
	typedFormat    = "Typed '%s' in the input field: %s"
	enteredFormat  = "Pressed Enter in the input field: %s"
)

// sleepFunc pauses for d or until ctx is done.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActionExecutor applies a decision to the browser.
type ActionExecutor struct {
	driver   browser.Driver
	index    *ElementIndex
	resolver *ElementResolver
	sleep    sleepFunc
	logger   *slog.Logger
}

// NewActionExecutor creates a new action executor.
func NewActionExecutor(driver browser.Driver, index *ElementIndex, resolver *ElementResolver, logger *slog.Logger) *ActionExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionExecutor{
		driver:   driver,
		index:    index,
		resolver: resolver,
		sleep:    sleepContext,
		logger:   logger,
	}
}

// Execute performs d and returns a human-readable result.
func (e *ActionExecutor) Execute(ctx context.Context, d action.Decision) (string, error) {
	switch d.Kind {
	case action.KindClick:
		target, err := e.locate(ctx, action.ElementClickable, d.Target)
		if err != nil {
			return "", err
		}
		if err := e.driver.ClickElement(ctx, target.Ref); err != nil {
			return "", fmt.Errorf("%w: click %s: %w", action.ErrActionFailed, target.Descriptor, err)
		}
		return fmt.Sprintf(clickedFormat, target.Descriptor), nil

	case action.KindTypeText:
		target, err := e.locate(ctx, action.ElementInput, d.Target)
		if err != nil {
			return "", err
		}
		if err := e.driver.SendKeys(ctx, target.Ref, d.Content); err != nil {
			return "", fmt.Errorf("%w: type into %s: %w", action.ErrActionFailed, target.Descriptor, err)
		}
		return fmt.Sprintf(typedFormat, d.Content, target.Descriptor), nil

	case action.KindTypeEnter:
		target, err := e.locate(ctx, action.ElementInput, d.Target)
		if err != nil {
			return "", err
		}
		if err := e.driver.SendKeys(ctx, target.Ref, browser.KeyEnter); err != nil {
			return "", fmt.Errorf("%w: press enter in %s: %w", action.ErrActionFailed, target.Descriptor, err)
		}
		return fmt.Sprintf(enteredFormat, target.Descriptor), nil

	case action.KindWait:
		if err := e.sleep(ctx, WaitDelay); err != nil {
			return "", err
		}
		return WaitingMessage, nil

	case action.KindNone:
		return d.TerminationMessage, nil

	default:
		return "", fmt.Errorf("%w: %q", action.ErrUnsupportedAction, string(d.Kind))
	}
}

// locate enumerates elements of kind and resolves target among them.
func (e *ActionExecutor) locate(ctx context.Context, kind action.ElementKind, target string) (*Candidate, error) {
	candidates, err := e.index.Enumerate(ctx, kind)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s for %q", action.ErrElementNotFound, kind, target)
	}

	idx, err := e.resolver.Resolve(ctx, target, Descriptors(candidates))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Element resolved", "target", target, "kind", kind, "index", idx, "candidates", len(candidates))
	return &candidates[idx], nil
}
