package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/tasktrack/internal/auth"
)

func TestSignup_ReturnsTokenAndIdentity(t *testing.T) {
	repo, _ := newDynamoRepo(t)
	svc, codec := newService(t, repo)

	token, identity, err := svc.Signup(context.Background(), auth.SignupInput{
		Username: "alice", Email: "a@x.com", Password: "pw1",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, auth.RoleUser, identity.Role, "role defaults to user")
	assert.NotEqual(t, "pw1", identity.PasswordHash)
	assert.WithinDuration(t, time.Now(), identity.CreatedAt, 5*time.Second)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, identity.ID.String(), claims.UserID)
	assert.Equal(t, auth.RoleUser, claims.Role)

	stored, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, stored.ID)
}

func TestSignup_ExplicitRole(t *testing.T) {
	repo, _ := newDynamoRepo(t)
	svc, _ := newService(t, repo)

	_, identity, err := svc.Signup(context.Background(), auth.SignupInput{
		Username: "root", Email: "r@x.com", Password: "pw", Role: auth.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, identity.Role)
}

func TestSignup_DuplicateUsernameConflict(t *testing.T) {
	repo, fake := newDynamoRepo(t)
	svc, _ := newService(t, repo)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, auth.SignupInput{Username: "alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, auth.SignupInput{Username: "alice", Email: "b@y.com", Password: "pw2"})
	assert.ErrorIs(t, err, auth.ErrConflict)
	assert.Contains(t, err.Error(), "username")
	assert.Equal(t, 1, fake.Len(usersTable))
}

func TestSignup_DuplicateEmailConflict(t *testing.T) {
	repo, fake := newDynamoRepo(t)
	svc, _ := newService(t, repo)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, auth.SignupInput{Username: "alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, auth.SignupInput{Username: "bob", Email: "a@x.com", Password: "pw2"})
	assert.ErrorIs(t, err, auth.ErrConflict)
	assert.Contains(t, err.Error(), "email")
	assert.Equal(t, 1, fake.Len(usersTable))
}

func TestSignup_StoreDuplicateMapsToConflict(t *testing.T) {
	repo := &mockRepo{insertFn: func(context.Context, *auth.Identity) error {
		return auth.ErrDuplicateIdentity
	}}
	svc, _ := newService(t, repo)

	_, _, err := svc.Signup(context.Background(), auth.SignupInput{Username: "alice", Email: "a@x.com", Password: "pw"})
	assert.ErrorIs(t, err, auth.ErrConflict)
}

func TestSignup_StoreFailure(t *testing.T) {
	storeErr := errors.New("throttled")
	repo := &mockRepo{findByUsernameFn: func(context.Context, string) (*auth.Identity, error) {
		return nil, storeErr
	}}
	svc, _ := newService(t, repo)

	_, _, err := svc.Signup(context.Background(), auth.SignupInput{Username: "alice", Email: "a@x.com", Password: "pw"})
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, auth.ErrConflict)
}

func TestLogin_Scenarios(t *testing.T) {
	repo, _ := newDynamoRepo(t)
	svc, codec := newService(t, repo)
	ctx := context.Background()

	_, created, err := svc.Signup(ctx, auth.SignupInput{Username: "alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	token, identity, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, identity.ID)
	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), claims.UserID)

	_, _, wrongPassword := svc.Login(ctx, "alice", "wrong")
	_, _, unknownUser := svc.Login(ctx, "bob", "anything")

	assert.ErrorIs(t, wrongPassword, auth.ErrUnauthorized)
	assert.ErrorIs(t, unknownUser, auth.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error(), "failures must not reveal which credential was wrong")
}

func TestLogin_ClaimsComeFromStore(t *testing.T) {
	repo, _ := newDynamoRepo(t)
	svc, codec := newService(t, repo)
	ctx := context.Background()

	_, identity, err := svc.Signup(ctx, auth.SignupInput{Username: "alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	identity.Role = auth.RoleAdmin
	require.NoError(t, repo.Insert(ctx, identity))

	token, _, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestLogin_UnknownUserStillVerifiesHash(t *testing.T) {
	repo, _ := newDynamoRepo(t)
	codec, err := auth.NewTokenCodec(testSecret, "HS256")
	require.NoError(t, err)
	hasher := &countingHasher{PasswordHasher: auth.NewBcryptHasher(testBcryptCost)}
	svc := auth.NewService(repo, hasher, codec, time.Hour)

	_, _, err = svc.Login(context.Background(), "ghost", "pw")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.Equal(t, 1, hasher.verifies)
}

func TestLogin_UnknownUserVerifiesEvenWhenDummyHashFails(t *testing.T) {
	repo, _ := newDynamoRepo(t)
	codec, err := auth.NewTokenCodec(testSecret, "HS256")
	require.NoError(t, err)
	counter := &countingHasher{PasswordHasher: auth.NewBcryptHasher(testBcryptCost)}
	svc := auth.NewService(repo, brokenHasher{counter}, codec, time.Hour)

	for i := 0; i < 2; i++ {
		_, _, err = svc.Login(context.Background(), "ghost", "pw")
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
	}
	assert.Equal(t, 2, counter.verifies)
	assert.True(t, strings.HasPrefix(counter.lastHash, "$2a$10$"), "got %q", counter.lastHash)

	ok, err := auth.NewBcryptHasher(testBcryptCost).Verify("pw", counter.lastHash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogin_UnreadableHashIsUnauthorized(t *testing.T) {
	repo := &mockRepo{findByUsernameFn: func(context.Context, string) (*auth.Identity, error) {
		return &auth.Identity{Username: "alice", PasswordHash: "corrupt"}, nil
	}}
	svc, _ := newService(t, repo)

	_, _, err := svc.Login(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestLogin_StoreFailureIsNotUnauthorized(t *testing.T) {
	repo := &mockRepo{findByUsernameFn: func(context.Context, string) (*auth.Identity, error) {
		return nil, errors.New("connection refused")
	}}
	svc, _ := newService(t, repo)

	_, _, err := svc.Login(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrUnauthorized)
}

func TestBootstrapAdmin(t *testing.T) {
	repo, fake := newDynamoRepo(t)
	svc, _ := newService(t, repo)
	ctx := context.Background()

	created, err := svc.BootstrapAdmin(ctx, "root", "root@x.com", "rootpw12")
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := repo.FindByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, admin.Role)

	created, err = svc.BootstrapAdmin(ctx, "root", "root@x.com", "rootpw12")
	require.NoError(t, err)
	assert.False(t, created, "existing admin is left alone")
	assert.Equal(t, 1, fake.Len(usersTable))
}
