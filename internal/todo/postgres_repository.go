package todo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a Repository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const todoColumns = `todo_id, todo_name, todo_description, priority, created_by, created_dt`

// Create inserts a new todo.
func (r *PostgresRepository) Create(ctx context.Context, t *Todo) error {
	query := `
		INSERT INTO todos (` + todoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.Name, t.Description, int(t.Priority), nullableUUID(t.CreatedBy), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting todo: %w", err)
	}
	return nil
}

// GetByID retrieves a single todo.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE todo_id = $1`

	t, err := scanTodo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying todo: %w", err)
	}
	return t, nil
}

// List retrieves todos ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos ORDER BY created_dt ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning todo row: %w", err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating todo rows: %w", err)
	}

	return todos, nil
}

// Put overwrites the user-editable fields of an existing todo.
func (r *PostgresRepository) Put(ctx context.Context, t *Todo) error {
	query := `
		UPDATE todos
		SET todo_name = $1, todo_description = $2, priority = $3
		WHERE todo_id = $4`

	result, err := r.pool.Exec(ctx, query, t.Name, t.Description, int(t.Priority), t.ID)
	if err != nil {
		return fmt.Errorf("updating todo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a todo and returns the deleted row.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) (*Todo, error) {
	query := `DELETE FROM todos WHERE todo_id = $1 RETURNING ` + todoColumns

	t, err := scanTodo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("deleting todo: %w", err)
	}
	return t, nil
}

func scanTodo(row pgx.Row) (*Todo, error) {
	var (
		t         Todo
		priority  int
		createdBy *uuid.UUID
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &priority, &createdBy, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Priority = Priority(priority)
	if createdBy != nil {
		t.CreatedBy = *createdBy
	}
	return &t, nil
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
