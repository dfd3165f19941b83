package domain

import "time"

// MediaType enumerates supported generation categories.
type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
	MediaTypeMusic MediaType = "MUSIC"
	MediaTypeAudio MediaType = "AUDIO"
)

// RequestStatus enumerates generation lifecycle states.
type RequestStatus string

const (
	StatusPending    RequestStatus = "PENDING"
	StatusProcessing RequestStatus = "PROCESSING"
	StatusSucceeded  RequestStatus = "SUCCEEDED"
	StatusFailed     RequestStatus = "FAILED"
)

// Terminal reports whether no further status transitions are permitted.
func (s RequestStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// GenerationRequest represents one user-initiated media generation.
//
// OperationID is the locally generated correlation key handed to the client
// when a video generation is enqueued. OperationName is the gateway's own
// long-running-operation handle, recorded once the initiate call returns.
// Both are first-class indexed columns; the poll chain re-discovers its
// record by OperationName equality, never by digging through Parameters.
type GenerationRequest struct {
	ID            string
	UserID        string
	ProjectID     string
	MediaType     MediaType
	Prompt        string
	Parameters    map[string]any
	Status        RequestStatus
	ErrorMessage  string
	OperationID   string
	OperationName string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Results []GenerationResult
}

// GenerationResult is one produced artifact belonging to a GenerationRequest.
// ResultURL always holds the storage-native gs:// identifier at rest; signed
// URLs are derived at read time and never persisted.
type GenerationResult struct {
	ID                  string
	GenerationRequestID string
	ResultURL           string
	ResultIndex         int
	Metadata            map[string]any
	CreatedAt           time.Time
}

// Project groups generations under a user-visible workspace.
type Project struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// User represents an authenticated account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
