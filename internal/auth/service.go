package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrConflict is returned by Signup when the username or email is taken.
var ErrConflict = errors.New("username or email already in use")

// ErrUnauthorized is returned for bad credentials and for tokens whose
// identity no longer exists. Login never says which credential was wrong.
var ErrUnauthorized = errors.New("unauthorized")

// SignupInput carries the fields accepted at signup. An empty Role defaults
// to RoleUser.
type SignupInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Service provides signup and login.
type Service struct {
	repo     IdentityRepository
	hasher   PasswordHasher
	tokens   *TokenCodec
	tokenTTL time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new auth Service.
func NewService(repo IdentityRepository, hasher PasswordHasher, tokens *TokenCodec, tokenTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: tokenTTL,
	}
}

// Signup creates a new identity and returns an access token for it.
// Uniqueness is checked before the insert, not atomically with it: two
// concurrent signups for the same name can both pass the check.
func (s *Service) Signup(ctx context.Context, in SignupInput) (string, *Identity, error) {
	if err := s.ensureAbsent(ctx, in.Username, in.Email); err != nil {
		return "", nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", nil, err
	}

	role := in.Role
	if role == "" {
		role = RoleUser
	}

	identity := &Identity{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, identity); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			return "", nil, ErrConflict
		}
		return "", nil, fmt.Errorf("inserting identity: %w", err)
	}

	token, err := s.issue(identity)
	if err != nil {
		return "", nil, err
	}

	slog.Info("identity created", "userId", identity.ID.String(), "username", identity.Username, "role", identity.Role)

	return token, identity, nil
}

// Login verifies a username and password and returns an access token whose
// claims come from the stored record.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Identity, error) {
	identity, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			return "", nil, fmt.Errorf("finding identity by username: %w", err)
		}
		// Spend a hash comparison so unknown usernames cost the same as bad passwords.
		_, _ = s.hasher.Verify(password, s.dummy())
		return "", nil, ErrUnauthorized
	}

	ok, err := s.hasher.Verify(password, identity.PasswordHash)
	if err != nil {
		slog.Error("stored password hash is unreadable", "userId", identity.ID.String(), "error", err)
		return "", nil, ErrUnauthorized
	}
	if !ok {
		return "", nil, ErrUnauthorized
	}

	token, err := s.issue(identity)
	if err != nil {
		return "", nil, err
	}

	return token, identity, nil
}

// BootstrapAdmin creates an admin identity unless one with the username
// already exists. Returns true if an identity was created.
func (s *Service) BootstrapAdmin(ctx context.Context, username, email, password string) (bool, error) {
	_, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return false, fmt.Errorf("checking bootstrap admin: %w", err)
	}

	_, identity, err := s.Signup(ctx, SignupInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("creating bootstrap admin: %w", err)
	}

	slog.Info("bootstrap admin created", "userId", identity.ID.String(), "username", identity.Username)

	return true, nil
}

func (s *Service) ensureAbsent(ctx context.Context, username, email string) error {
	_, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return fmt.Errorf("%w: username %q is already registered", ErrConflict, username)
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return fmt.Errorf("finding identity by username: %w", err)
	}

	_, err = s.repo.FindByEmail(ctx, email)
	if err == nil {
		return fmt.Errorf("%w: email %q is already registered", ErrConflict, email)
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return fmt.Errorf("finding identity by email: %w", err)
	}

	return nil
}

func (s *Service) issue(identity *Identity) (string, error) {
	return s.tokens.Issue(Claims{
		Subject: identity.Username,
		UserID:  identity.ID.String(),
		Role:    identity.Role,
	}, s.tokenTTL)
}

// fallbackDummyHash is a well-formed bcrypt hash (cost 10) that matches no
// known password. It stands in when the random dummy hash cannot be built.
const fallbackDummyHash = "$2a$10$R9h/cIPz0gi.URNNX3kh2ePHvbOHlZ4dl8n5UrvK5qpVoQ9vY1bXe"

// dummy returns a hash of a random secret, computed once, used to equalize
// the cost of failed logins.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash = fallbackDummyHash
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			slog.Error("failed to read random dummy password", "error", err)
			return
		}
		hash, err := s.hasher.Hash(base64.RawURLEncoding.EncodeToString(b))
		if err != nil {
			slog.Error("failed to compute dummy password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
