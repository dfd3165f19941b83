package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"mediaforge/internal/domain"
	"mediaforge/internal/media"
	"mediaforge/internal/middleware"
	"mediaforge/internal/providers/vertex"
)

// MediaService is the slice of the orchestration service the HTTP layer
// consumes.
type MediaService interface {
	GenerateImage(ctx context.Context, userID string, in media.ImageGenerationInput) (*media.MediaResponse, error)
	UpscaleImage(ctx context.Context, userID string, in media.ImageUpscaleInput) (*media.MediaResponse, error)
	GenerateMusic(ctx context.Context, userID string, in media.MusicGenerationInput) (*media.MediaResponse, error)
	GenerateAudio(ctx context.Context, userID string, in media.AudioGenerationInput) (*media.MediaResponse, error)
	GenerateVideoAsync(ctx context.Context, userID string, in media.VideoGenerationInput) (string, error)
	GetVideoGenerationResults(ctx context.Context, userID, operationID string) (*media.MediaResponse, error)
	GetMediaRequestByID(ctx context.Context, id, userID string) (*media.MediaResponse, error)
	GetMediaHistory(ctx context.Context, userID string, query domain.HistoryQuery) (*media.PaginatedMedia, error)
}

// Storage is the object store surface the HTTP layer needs: uploads for
// user-provided inputs, downloads for archive responses, and signing for
// freshly uploaded files.
type Storage interface {
	Upload(ctx context.Context, object, contentType string, data []byte) (string, error)
	Download(ctx context.Context, uri string) ([]byte, error)
	SignedURL(ctx context.Context, uri string) (string, error)
}

// App holds the dependencies of all HTTP handlers.
type App struct {
	Media     MediaService
	Projects  domain.ProjectRepository
	Users     domain.UserRepository
	Storage   Storage
	JWTSecret string
	TokenTTL  time.Duration
	Logger    zerolog.Logger
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorBody{Error: kind, Message: message})
}

// serviceError maps domain errors onto HTTP responses. Upstream generation
// platform failures surface as bad gateway, with the platform's message
// when the error chain carries one.
func (a *App) serviceError(w http.ResponseWriter, err error) {
	var gatewayErr *vertex.APIError
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		a.error(w, http.StatusNotFound, "not_found", "project not found")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "media request not found")
	case errors.Is(err, domain.ErrNoResults):
		a.error(w, http.StatusBadGateway, "no_results", domain.ErrNoResults.Error())
	case errors.Is(err, domain.ErrSigningFailure):
		a.error(w, http.StatusBadGateway, "signing_failure", "failed to prepare result urls")
	case errors.As(err, &gatewayErr):
		a.error(w, http.StatusBadGateway, "gateway_failure", gatewayErr.Message)
	case errors.Is(err, domain.ErrGatewayFailure):
		a.error(w, http.StatusBadGateway, "gateway_failure", "generation platform error")
	default:
		a.Logger.Error().Err(err).Msg("handlers: internal error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
