package todo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service implements todo operations over a Repository.
type Service struct {
	repo Repository
}

// NewService creates a todo Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create assigns an id and creation time and stores the todo. A zero
// priority defaults to PriorityLow.
func (s *Service) Create(ctx context.Context, t *Todo) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now().UTC()
	if t.Priority == 0 {
		t.Priority = PriorityLow
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return fmt.Errorf("creating todo: %w", err)
	}
	return nil
}

// Get returns a todo by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Todo, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns up to limit todos; limit <= 0 returns all of them.
func (s *Service) List(ctx context.Context, limit int) ([]Todo, error) {
	return s.repo.List(ctx, limit)
}

// Update merges fields into the stored todo and writes it back. Empty
// fields return the stored todo unchanged.
func (s *Service) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fields.Empty() {
		return t, nil
	}

	fields.Apply(t)

	if err := s.repo.Put(ctx, t); err != nil {
		return nil, fmt.Errorf("updating todo: %w", err)
	}
	return t, nil
}

// Delete removes a todo and returns it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*Todo, error) {
	return s.repo.Delete(ctx, id)
}
