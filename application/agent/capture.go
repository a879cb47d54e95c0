// Package agent implements the perceive, decide, act loop that drives a
// browser toward a natural-language objective.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"webpilot-go/domain/action"
	"webpilot-go/infrastructure/browser"
)

// DefaultRootSelector locates the page's primary content region.
const DefaultRootSelector = "body"

// Snapshot is an encoded image of the page's content region.
// It lives for a single tick.
type Snapshot struct {
	Data       []byte
	MIMEType   string
	CapturedAt time.Time
}

// PageCapture produces snapshots of the current page.
type PageCapture struct {
	driver   browser.Driver
	logger   *slog.Logger
	selector string
	saveDir  string
	now      func() time.Time
}

// NewPageCapture creates a new page capture service.
func NewPageCapture(driver browser.Driver, logger *slog.Logger) *PageCapture {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageCapture{
		driver:   driver,
		logger:   logger,
		selector: DefaultRootSelector,
		now:      time.Now,
	}
}

// SetSaveDir enables writing every snapshot to dir. An empty dir disables it.
func (c *PageCapture) SetSaveDir(dir string) {
	c.saveDir = dir
}

// Capture returns a PNG snapshot of the root content region.
func (c *PageCapture) Capture(ctx context.Context) (*Snapshot, error) {
	data, err := c.driver.CaptureElement(ctx, c.selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", action.ErrCapture, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty screenshot of %s", action.ErrCapture, c.selector)
	}

	snap := &Snapshot{
		Data:       data,
		MIMEType:   "image/png",
		CapturedAt: c.now(),
	}

	if c.saveDir != "" {
		if filename, err := c.save(snap); err != nil {
			c.logger.Warn("Failed to save snapshot", "error", err)
		} else {
			c.logger.Debug("Snapshot saved", "filename", filename)
		}
	}

	return snap, nil
}

func (c *PageCapture) save(snap *Snapshot) (string, error) {
	if err := os.MkdirAll(c.saveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create save directory: %w", err)
	}

	filename := filepath.Join(c.saveDir, fmt.Sprintf("%d.png", snap.CapturedAt.UnixMilli()))
	if err := os.WriteFile(filename, snap.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return filename, nil
}
