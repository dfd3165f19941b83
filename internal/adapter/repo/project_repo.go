package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediaforge/internal/domain"
)

// ProjectRepositoryPG implements domain.ProjectRepository using PostgreSQL.
type ProjectRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewProjectRepository constructs a new project repository instance.
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{pool: pool}
}

// Create inserts a new project record.
func (r *ProjectRepositoryPG) Create(ctx context.Context, project *domain.Project) error {
	query := `
INSERT INTO projects (id, owner_id, name, description)
VALUES ($1, $2, $3, $4);
`
	_, err := r.pool.Exec(ctx, query, project.ID, project.OwnerID, project.Name, project.Description)
	return err
}

// GetByID fetches a project by its identifier.
func (r *ProjectRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `
SELECT id, owner_id, name, description, created_at, updated_at
FROM projects
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	var project domain.Project
	if err := row.Scan(
		&project.ID,
		&project.OwnerID,
		&project.Name,
		&project.Description,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

// ListByOwner returns all projects owned by the user.
func (r *ProjectRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, owner_id, name, description, created_at, updated_at
FROM projects
WHERE owner_id = $1
ORDER BY created_at DESC;
`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var project domain.Project
		if err := rows.Scan(&project.ID, &project.OwnerID, &project.Name, &project.Description, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

// Update persists name/description changes.
func (r *ProjectRepositoryPG) Update(ctx context.Context, project *domain.Project) error {
	query := `
UPDATE projects
SET name = $2,
    description = $3,
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, project.ID, project.Name, project.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the project.
func (r *ProjectRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.ProjectRepository = (*ProjectRepositoryPG)(nil)
