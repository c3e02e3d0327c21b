package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements IdentityRepository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates an IdentityRepository backed by the given
// connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) IdentityRepository {
	return &PostgresRepository{pool: pool}
}

const selectIdentity = `
		SELECT id, username, email, hashed_password, role, created_at
		FROM users`

// FindByUsername retrieves an identity by username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*Identity, error) {
	return r.scanOne(ctx, selectIdentity+` WHERE username = $1`, username)
}

// FindByEmail retrieves an identity by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.scanOne(ctx, selectIdentity+` WHERE email = $1`, email)
}

// FindByID retrieves an identity by its UUID.
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	return r.scanOne(ctx, selectIdentity+` WHERE id = $1`, id)
}

// Insert creates the identity or overwrites the row with the same id. The
// unique indexes on username and email surface as ErrDuplicateIdentity.
func (r *PostgresRepository) Insert(ctx context.Context, identity *Identity) error {
	query := `
		INSERT INTO users (id, username, email, hashed_password, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
		    email = EXCLUDED.email,
		    hashed_password = EXCLUDED.hashed_password,
		    role = EXCLUDED.role`

	_, err := r.pool.Exec(ctx, query,
		identity.ID,
		identity.Username,
		identity.Email,
		identity.PasswordHash,
		identity.Role,
		identity.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateIdentity
		}
		return fmt.Errorf("inserting identity: %w", err)
	}

	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Identity, error) {
	var i Identity
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&i.ID, &i.Username, &i.Email, &i.PasswordHash, &i.Role, &i.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("querying identity: %w", err)
	}
	return &i, nil
}
