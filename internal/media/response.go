package media

import (
	"time"

	"mediaforge/internal/domain"
)

// ResultPayload is one materialized artifact as returned to clients.
type ResultPayload struct {
	ID        string         `json:"id"`
	ResultURL string         `json:"result_url"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// MediaResponse is the client-facing projection of a generation request.
type MediaResponse struct {
	ID           string               `json:"id"`
	ProjectID    string               `json:"project_id"`
	MediaType    domain.MediaType     `json:"media_type"`
	Prompt       string               `json:"prompt"`
	Status       domain.RequestStatus `json:"status"`
	Results      []ResultPayload      `json:"results"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Parameters   map[string]any       `json:"parameters"`
	CreatedAt    time.Time            `json:"created_at"`
}

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	TotalItems   int `json:"total_items"`
	ItemCount    int `json:"item_count"`
	ItemsPerPage int `json:"items_per_page"`
	TotalPages   int `json:"total_pages"`
	CurrentPage  int `json:"current_page"`
}

// PaginatedMedia is one history page.
type PaginatedMedia struct {
	Data []MediaResponse `json:"data"`
	Meta PageMeta        `json:"meta"`
}

// newMediaResponse projects a generation record plus its (possibly
// materialized) results into the response shape.
func newMediaResponse(gen *domain.GenerationRequest, results []domain.GenerationResult) *MediaResponse {
	payloads := make([]ResultPayload, 0, len(results))
	for _, res := range results {
		payloads = append(payloads, ResultPayload{
			ID:        res.ID,
			ResultURL: res.ResultURL,
			Metadata:  res.Metadata,
			CreatedAt: res.CreatedAt,
		})
	}
	return &MediaResponse{
		ID:           gen.ID,
		ProjectID:    gen.ProjectID,
		MediaType:    gen.MediaType,
		Prompt:       gen.Prompt,
		Status:       gen.Status,
		Results:      payloads,
		ErrorMessage: gen.ErrorMessage,
		Parameters:   gen.Parameters,
		CreatedAt:    gen.CreatedAt,
	}
}
