package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediaforge/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository backed by PostgreSQL.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

// Create inserts a new user record.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	query := `
INSERT INTO users (id, email, name, password_hash)
VALUES ($1, $2, $3, $4);
`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on users.email
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by email address.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetch(ctx, `
SELECT id, email, name, password_hash, created_at
FROM users
WHERE email = $1;
`, email)
}

// GetByID fetches a user by identifier.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetch(ctx, `
SELECT id, email, name, password_hash, created_at
FROM users
WHERE id = $1;
`, id)
}

// Update rewrites the mutable profile fields.
func (r *UserRepositoryPG) Update(ctx context.Context, user *domain.User) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET name = $2
WHERE id = $1;
`, user.ID, user.Name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepositoryPG) fetch(ctx context.Context, query string, arg any) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	var user domain.User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
