package domain

import "context"

// HistoryQuery filters and paginates generation history reads.
type HistoryQuery struct {
	Page      int
	Limit     int
	MediaType MediaType
	Status    RequestStatus
	ProjectID string
	Search    string
}

// Normalize applies pagination defaults.
func (q *HistoryQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
}

// Offset returns the row offset for the normalized page.
func (q HistoryQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// GenerationRepository persists generation requests and their results.
type GenerationRepository interface {
	Create(ctx context.Context, gen *GenerationRequest) error
	// UpdateStatus transitions a request. Terminal rows are absorbing: the
	// update is a no-op once the row is SUCCEEDED or FAILED.
	UpdateStatus(ctx context.Context, id string, status RequestStatus, errMsg *string) error
	// SetOperationName records the gateway operation handle and the updated
	// parameters snapshot after a successful initiate call.
	SetOperationName(ctx context.Context, id, operationName string, parameters map[string]any) error
	GetByID(ctx context.Context, id, userID string) (*GenerationRequest, error)
	FindByOperationID(ctx context.Context, userID, operationID string) (*GenerationRequest, error)
	FindByOperationName(ctx context.Context, userID, operationName string) (*GenerationRequest, error)
	List(ctx context.Context, userID string, q HistoryQuery) ([]GenerationRequest, int, error)
	// CreateResult inserts one artifact row. Inserts are idempotent on
	// (generation_request_id, result_index) so a redelivered job cannot
	// duplicate rows.
	CreateResult(ctx context.Context, res *GenerationResult) error
	ListResults(ctx context.Context, requestID string) ([]GenerationResult, error)
}

// ProjectRepository defines persistence for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id string) error
}

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
}
