package action

import "errors"

// Errors that abort a run. Callers wrap the underlying cause next to the
// sentinel, e.g. fmt.Errorf("%w: %w", ErrDecision, err).
var (
	ErrCapture           = errors.New("page capture failed")
	ErrDecision          = errors.New("decision request failed")
	ErrResolution        = errors.New("element resolution failed")
	ErrElementNotFound   = errors.New("no visible element of the required kind")
	ErrUnsupportedAction = errors.New("unsupported action")
	ErrActionFailed      = errors.New("browser action failed")
)
