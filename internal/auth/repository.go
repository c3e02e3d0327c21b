package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrIdentityNotFound is returned when no identity matches a lookup.
var ErrIdentityNotFound = errors.New("identity not found")

// ErrDuplicateIdentity is returned by stores that enforce username/email
// uniqueness themselves when an insert collides.
var ErrDuplicateIdentity = errors.New("identity already exists")

// IdentityRepository is the identity store. Implementations own the
// conversion between their native record format and Identity.
//
// Insert overwrites or creates by primary key; callers are responsible for
// checking username and email uniqueness beforehand.
type IdentityRepository interface {
	FindByUsername(ctx context.Context, username string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	Insert(ctx context.Context, identity *Identity) error
}
