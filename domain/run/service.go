package run

import (
	"context"
	"errors"
	"fmt"
)

// Common errors for run journal operations.
var (
	ErrRunNotFound = errors.New("run not found")
	ErrInvalidRun  = errors.New("invalid run")
)

const defaultRecentLimit = 20

// Service provides business logic for the run journal.
type Service struct {
	repo Repository
}

// NewService creates a new run journal service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record validates and stores a finished run.
func (s *Service) Record(ctx context.Context, r *Run) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if r.Status == StatusRunning || r.Status == "" {
		return fmt.Errorf("%w: run %s has not finished", ErrInvalidRun, r.ID)
	}
	return s.repo.Insert(ctx, r)
}

// GetRun retrieves a run by ID.
func (s *Service) GetRun(ctx context.Context, id string) (*Run, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRunNotFound
	}
	return r, nil
}

// ListRecent retrieves the latest runs. A non-positive limit uses the default.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.repo.FindRecent(ctx, limit)
}
