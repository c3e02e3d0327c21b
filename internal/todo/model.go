package todo

import (
	"time"

	"github.com/google/uuid"
)

// Priority orders todos; lower is more urgent.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

// Todo is a task item.
type Todo struct {
	ID          uuid.UUID
	Name        string
	Description string
	Priority    Priority
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
}

// UpdateFields holds user-updatable fields on a todo. Nil fields are not
// updated.
type UpdateFields struct {
	Name        *string
	Description *string
	Priority    *Priority
}

// Empty reports whether no field is set.
func (f UpdateFields) Empty() bool {
	return f.Name == nil && f.Description == nil && f.Priority == nil
}

// Apply merges the non-nil fields into t.
func (f UpdateFields) Apply(t *Todo) {
	if f.Name != nil {
		t.Name = *f.Name
	}
	if f.Description != nil {
		t.Description = *f.Description
	}
	if f.Priority != nil {
		t.Priority = *f.Priority
	}
}
