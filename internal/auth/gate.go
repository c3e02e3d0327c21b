package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// ErrForbidden is returned when a resolved identity lacks a required role.
var ErrForbidden = errors.New("insufficient permissions")

// Gate resolves bearer tokens to live identities.
type Gate struct {
	tokens *TokenCodec
	repo   IdentityRepository
}

// NewGate creates a Gate.
func NewGate(tokens *TokenCodec, repo IdentityRepository) *Gate {
	return &Gate{tokens: tokens, repo: repo}
}

// Resolve verifies token and re-fetches its identity from the store. The
// returned role is the store's current value; the role embedded in the
// token is ignored.
func (g *Gate) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user id is not a uuid", ErrTokenInvalid)
	}

	identity, err := g.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, fmt.Errorf("%w: identity no longer exists", ErrUnauthorized)
		}
		return nil, fmt.Errorf("resolving identity: %w", err)
	}

	return identity, nil
}

// RequireRole passes identity through unchanged if its role is one of
// allowed, and fails with ErrForbidden otherwise.
func RequireRole(identity *Identity, allowed ...string) (*Identity, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	if !slices.Contains(allowed, identity.Role) {
		return nil, ErrForbidden
	}
	return identity, nil
}
