package run

import "context"

// Repository defines the interface for run journal persistence.
type Repository interface {
	// Insert stores a new run record.
	Insert(ctx context.Context, run *Run) error

	// FindByID retrieves a run by its identifier.
	// Returns nil if not found.
	FindByID(ctx context.Context, id string) (*Run, error)

	// FindRecent retrieves the most recently started runs, newest first.
	FindRecent(ctx context.Context, limit int) ([]*Run, error)
}
