package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/daap14/tasktrack/internal/auth"
	"github.com/daap14/tasktrack/internal/store/dynamotest"
)

const (
	usersTable    = "users"
	usernameIndex = "username-index"
	emailIndex    = "email-index"
)

func newDynamoRepo(t *testing.T) (auth.IdentityRepository, *dynamotest.Fake) {
	t.Helper()
	fake := dynamotest.New()
	fake.AddTable(usersTable, "id")
	return auth.NewDynamoRepository(fake, usersTable, usernameIndex, emailIndex), fake
}

func newService(t *testing.T, repo auth.IdentityRepository) (*auth.Service, *auth.TokenCodec) {
	t.Helper()
	codec, err := auth.NewTokenCodec(testSecret, "HS256")
	require.NoError(t, err)
	return auth.NewService(repo, auth.NewBcryptHasher(testBcryptCost), codec, 24*time.Hour), codec
}

// mockRepo is an IdentityRepository whose methods can be overridden per test.
type mockRepo struct {
	findByUsernameFn func(ctx context.Context, username string) (*auth.Identity, error)
	findByEmailFn    func(ctx context.Context, email string) (*auth.Identity, error)
	findByIDFn       func(ctx context.Context, id uuid.UUID) (*auth.Identity, error)
	insertFn         func(ctx context.Context, identity *auth.Identity) error
}

func (m *mockRepo) FindByUsername(ctx context.Context, username string) (*auth.Identity, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, auth.ErrIdentityNotFound
}

func (m *mockRepo) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, auth.ErrIdentityNotFound
}

func (m *mockRepo) FindByID(ctx context.Context, id uuid.UUID) (*auth.Identity, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, auth.ErrIdentityNotFound
}

func (m *mockRepo) Insert(ctx context.Context, identity *auth.Identity) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, identity)
	}
	return nil
}

// countingHasher records Verify calls and the last hash verified against.
type countingHasher struct {
	auth.PasswordHasher
	verifies int
	lastHash string
}

func (h *countingHasher) Verify(password, hash string) (bool, error) {
	h.verifies++
	h.lastHash = hash
	return h.PasswordHasher.Verify(password, hash)
}

// brokenHasher fails every Hash call.
type brokenHasher struct {
	*countingHasher
}

func (brokenHasher) Hash(string) (string, error) {
	return "", errors.New("entropy exhausted")
}
