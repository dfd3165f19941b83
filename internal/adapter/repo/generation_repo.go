package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediaforge/internal/domain"
)

// GenerationRepositoryPG implements domain.GenerationRepository.
type GenerationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGenerationRepository creates a generation repository backed by PostgreSQL.
func NewGenerationRepository(pool *pgxpool.Pool) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{pool: pool}
}

const generationColumns = `
id, user_id, project_id, media_type, prompt, parameters, status,
error_message, operation_id, operation_name, created_at, updated_at`

// Create inserts a new generation request record.
func (r *GenerationRepositoryPG) Create(ctx context.Context, gen *domain.GenerationRequest) error {
	params, err := marshalMap(gen.Parameters)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	query := `
INSERT INTO generation_requests
  (id, user_id, project_id, media_type, prompt, parameters, status, operation_id, operation_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''));
`
	_, err = r.pool.Exec(ctx, query,
		gen.ID,
		gen.UserID,
		gen.ProjectID,
		gen.MediaType,
		gen.Prompt,
		params,
		gen.Status,
		gen.OperationID,
		gen.OperationName,
	)
	return err
}

// UpdateStatus transitions a request's status. The predicate excludes
// terminal rows, so SUCCEEDED and FAILED are absorbing.
func (r *GenerationRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus, errMsg *string) error {
	query := `
UPDATE generation_requests
SET status = $2,
    error_message = COALESCE($3, error_message),
    updated_at = NOW()
WHERE id = $1
  AND status NOT IN ('SUCCEEDED', 'FAILED');
`
	_, err := r.pool.Exec(ctx, query, id, status, errMsg)
	return err
}

// SetOperationName records the gateway operation handle along with the
// refreshed parameters snapshot.
func (r *GenerationRepositoryPG) SetOperationName(ctx context.Context, id, operationName string, parameters map[string]any) error {
	params, err := marshalMap(parameters)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	query := `
UPDATE generation_requests
SET operation_name = $2,
    parameters = $3,
    updated_at = NOW()
WHERE id = $1;
`
	_, err = r.pool.Exec(ctx, query, id, operationName, params)
	return err
}

// GetByID fetches a request owned by the user, including its results.
func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id, userID string) (*domain.GenerationRequest, error) {
	query := `SELECT ` + generationColumns + `
FROM generation_requests
WHERE id = $1 AND user_id = $2;
`
	return r.fetchOne(ctx, query, id, userID)
}

// FindByOperationID locates a request by the locally generated correlation key.
func (r *GenerationRepositoryPG) FindByOperationID(ctx context.Context, userID, operationID string) (*domain.GenerationRequest, error) {
	query := `SELECT ` + generationColumns + `
FROM generation_requests
WHERE user_id = $1 AND operation_id = $2;
`
	return r.fetchOne(ctx, query, userID, operationID)
}

// FindByOperationName locates a request by the gateway operation handle.
func (r *GenerationRepositoryPG) FindByOperationName(ctx context.Context, userID, operationName string) (*domain.GenerationRequest, error) {
	query := `SELECT ` + generationColumns + `
FROM generation_requests
WHERE user_id = $1 AND operation_name = $2;
`
	return r.fetchOne(ctx, query, userID, operationName)
}

// List returns one history page plus the unpaginated match count.
func (r *GenerationRepositoryPG) List(ctx context.Context, userID string, q domain.HistoryQuery) ([]domain.GenerationRequest, int, error) {
	q.Normalize()

	filter := `
WHERE user_id = $1
  AND ($2 = '' OR media_type = $2)
  AND ($3 = '' OR status = $3)
  AND ($4 = '' OR project_id::text = $4)
  AND ($5 = '' OR prompt ILIKE '%' || $5 || '%')`
	args := []any{userID, string(q.MediaType), string(q.Status), q.ProjectID, q.Search}

	var total int
	countQuery := `SELECT COUNT(*) FROM generation_requests` + filter + `;`
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT ` + generationColumns + `
FROM generation_requests` + filter + `
ORDER BY created_at DESC
LIMIT $6 OFFSET $7;
`
	rows, err := r.pool.Query(ctx, listQuery, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var gens []domain.GenerationRequest
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, 0, err
		}
		gens = append(gens, *gen)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range gens {
		results, err := r.ListResults(ctx, gens[i].ID)
		if err != nil {
			return nil, 0, err
		}
		gens[i].Results = results
	}
	return gens, total, nil
}

// CreateResult inserts one artifact row. The (generation_request_id,
// result_index) unique key makes redelivered inserts no-ops.
func (r *GenerationRepositoryPG) CreateResult(ctx context.Context, res *domain.GenerationResult) error {
	meta, err := marshalMap(res.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	query := `
INSERT INTO generation_results (id, generation_request_id, result_url, result_index, metadata)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (generation_request_id, result_index) DO NOTHING;
`
	_, err = r.pool.Exec(ctx, query, res.ID, res.GenerationRequestID, res.ResultURL, res.ResultIndex, meta)
	return err
}

// ListResults returns all artifacts belonging to the request, in index order.
func (r *GenerationRepositoryPG) ListResults(ctx context.Context, requestID string) ([]domain.GenerationResult, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, generation_request_id, result_url, result_index, metadata, created_at
FROM generation_results
WHERE generation_request_id = $1
ORDER BY result_index ASC;
`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.GenerationResult
	for rows.Next() {
		var res domain.GenerationResult
		var meta []byte
		if err := rows.Scan(&res.ID, &res.GenerationRequestID, &res.ResultURL, &res.ResultIndex, &meta, &res.CreatedAt); err != nil {
			return nil, err
		}
		if res.Metadata, err = unmarshalMap(meta); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *GenerationRepositoryPG) fetchOne(ctx context.Context, query string, args ...any) (*domain.GenerationRequest, error) {
	gen, err := scanGeneration(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	results, err := r.ListResults(ctx, gen.ID)
	if err != nil {
		return nil, err
	}
	gen.Results = results
	return gen, nil
}

func scanGeneration(row pgx.Row) (*domain.GenerationRequest, error) {
	var gen domain.GenerationRequest
	var params []byte
	var errMsg, opID, opName *string
	if err := row.Scan(
		&gen.ID,
		&gen.UserID,
		&gen.ProjectID,
		&gen.MediaType,
		&gen.Prompt,
		&params,
		&gen.Status,
		&errMsg,
		&opID,
		&opName,
		&gen.CreatedAt,
		&gen.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if gen.Parameters, err = unmarshalMap(params); err != nil {
		return nil, err
	}
	if errMsg != nil {
		gen.ErrorMessage = *errMsg
	}
	if opID != nil {
		gen.OperationID = *opID
	}
	if opName != nil {
		gen.OperationName = *opName
	}
	return &gen, nil
}

func marshalMap(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	return json.Marshal(m)
}

func unmarshalMap(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
