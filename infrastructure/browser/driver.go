// Package browser provides browser automation infrastructure.
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/chromedp/kb"
)

// Common driver errors.
var (
	ErrNotRunning = errors.New("browser not running")
	ErrNoMatch    = errors.New("no element matches selector")
)

// KeyEnter is the control key sequence for the Enter key.
const KeyEnter = kb.Enter

// Driver defines the interface for browser automation.
// This abstraction allows for different browser implementations (ChromeDP, Playwright, etc.)
type Driver interface {
	// Start initializes the browser instance.
	Start(ctx context.Context) error

	// Stop closes the browser and releases resources.
	Stop() error

	// IsRunning returns true if the browser is active.
	IsRunning() bool

	// Navigate navigates to the specified URL.
	Navigate(ctx context.Context, url string) error

	// CaptureElement returns a PNG image of the first element matching selector.
	// Returns ErrNoMatch if nothing matches.
	CaptureElement(ctx context.Context, selector string) ([]byte, error)

	// Elements returns every element matching selector in document order.
	Elements(ctx context.Context, selector string) ([]Element, error)

	// ClickElement clicks on the referenced element.
	ClickElement(ctx context.Context, ref ElementRef) error

	// SendKeys sends keystrokes to the referenced element.
	SendKeys(ctx context.Context, ref ElementRef, text string) error
}

// ElementRef is a live handle to a DOM node. It is only valid until the
// page mutates.
type ElementRef int64

// Element is a snapshot of one DOM element.
type Element struct {
	Ref ElementRef

	// Tag is the lower-case tag name.
	Tag string

	// Visible reports whether the element is rendered with a non-empty box.
	Visible bool

	// Text is the rendered text content.
	Text string

	// Attributes holds the element's DOM attributes. An absent key means the
	// attribute is not set.
	Attributes map[string]string
}

// Attr returns the named attribute and whether it is set.
func (e Element) Attr(name string) (string, bool) {
	v, ok := e.Attributes[name]
	return v, ok
}

// DriverConfig holds configuration for browser drivers.
type DriverConfig struct {
	// Headless runs the browser without a visible window.
	Headless bool

	// WindowWidth is the browser window width.
	WindowWidth int

	// WindowHeight is the browser window height.
	WindowHeight int

	// ViewportWidth is the viewport width.
	ViewportWidth int

	// ViewportHeight is the viewport height.
	ViewportHeight int

	// DisableGPU disables GPU acceleration.
	DisableGPU bool

	// MuteAudio mutes browser audio.
	MuteAudio bool

	// HideScrollbars hides scrollbars.
	HideScrollbars bool

	// UserDataDir specifies a custom user data directory.
	UserDataDir string

	// NavigateTimeout bounds a page load.
	NavigateTimeout time.Duration

	// ActionTimeout bounds a single click or keystroke dispatch.
	ActionTimeout time.Duration

	// CaptureTimeout bounds a screenshot or element query.
	CaptureTimeout time.Duration
}

// DefaultDriverConfig returns default browser configuration.
func DefaultDriverConfig() *DriverConfig {
	return &DriverConfig{
		Headless:        true,
		WindowWidth:     1280,
		WindowHeight:    960,
		ViewportWidth:   1280,
		ViewportHeight:  800,
		DisableGPU:      false,
		MuteAudio:       true,
		HideScrollbars:  true,
		NavigateTimeout: 30 * time.Second,
		ActionTimeout:   5 * time.Second,
		CaptureTimeout:  10 * time.Second,
	}
}
