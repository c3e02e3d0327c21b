package todo

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a todo does not exist.
var ErrNotFound = errors.New("todo not found")

// Repository stores todos.
type Repository interface {
	Create(ctx context.Context, t *Todo) error
	GetByID(ctx context.Context, id uuid.UUID) (*Todo, error)
	// List returns up to limit todos; limit <= 0 returns all of them.
	List(ctx context.Context, limit int) ([]Todo, error)
	// Put overwrites the todo with the same id.
	Put(ctx context.Context, t *Todo) error
	// Delete removes the todo and returns what was removed.
	Delete(ctx context.Context, id uuid.UUID) (*Todo, error)
}
