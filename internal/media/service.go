package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mediaforge/internal/domain"
	"mediaforge/internal/providers/vertex"
)

// Gateway is the slice of the generation platform the orchestration service
// consumes: synchronous predict calls for image/music/speech and the
// long-running-operation pair for video.
type Gateway interface {
	GenerateImage(ctx context.Context, params vertex.ImageParams) (*vertex.PredictionResponse, error)
	UpscaleImage(ctx context.Context, params vertex.UpscaleParams) (*vertex.PredictionResponse, error)
	GenerateMusic(ctx context.Context, params vertex.MusicParams) (*vertex.PredictionResponse, error)
	SynthesizeSpeech(ctx context.Context, params vertex.SpeechParams) (*vertex.StoredSpeech, error)
	InitiateVideoGeneration(ctx context.Context, params vertex.VideoParams) (string, error)
	CheckOperationStatus(ctx context.Context, operationName string) (*vertex.Operation, error)
}

// Service orchestrates media generation: it validates preconditions, owns
// the generation record's status transitions, invokes the gateway, and
// materializes results on the way out.
type Service struct {
	generations  domain.GenerationRepository
	projects     domain.ProjectRepository
	gateway      Gateway
	materializer *Materializer
	queue        domain.JobQueue
	logger       zerolog.Logger
}

// NewService wires the orchestration service.
func NewService(
	generations domain.GenerationRepository,
	projects domain.ProjectRepository,
	gateway Gateway,
	signer URLSigner,
	queue domain.JobQueue,
	logger zerolog.Logger,
) *Service {
	return &Service{
		generations:  generations,
		projects:     projects,
		gateway:      gateway,
		materializer: NewMaterializer(signer, logger),
		queue:        queue,
		logger:       logger,
	}
}

// GenerateImage runs the synchronous generation template for images.
func (s *Service) GenerateImage(ctx context.Context, userID string, in ImageGenerationInput) (*MediaResponse, error) {
	if err := s.requireProject(ctx, in.ProjectID); err != nil {
		return nil, err
	}

	gen := &domain.GenerationRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProjectID: in.ProjectID,
		MediaType: domain.MediaTypeImage,
		Prompt:    in.Prompt,
		Parameters: map[string]any{
			"aspect_ratio": in.AspectRatio,
			"sample_count": in.SampleCount,
		},
		Status: domain.StatusPending,
	}
	if err := s.generations.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("create generation record: %w", err)
	}

	resp, err := s.gateway.GenerateImage(ctx, vertex.ImageParams{
		Prompt:         in.Prompt,
		SampleCount:    in.SampleCount,
		AspectRatio:    in.AspectRatio,
		NegativePrompt: in.NegativePrompt,
		Model:          in.Model,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("generation_id", gen.ID).Msg("media: image generation failed")
		s.failGeneration(ctx, gen.ID, err)
		return nil, gatewayError(err)
	}

	return s.completeSync(ctx, gen, resp.Predictions, "image/png", nil)
}

// UpscaleImage runs the synchronous template against the upscale model.
func (s *Service) UpscaleImage(ctx context.Context, userID string, in ImageUpscaleInput) (*MediaResponse, error) {
	if err := s.requireProject(ctx, in.ProjectID); err != nil {
		return nil, err
	}

	gen := &domain.GenerationRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProjectID: in.ProjectID,
		MediaType: domain.MediaTypeImage,
		Prompt:    "",
		Parameters: map[string]any{
			"gcs_uri":        in.GcsURI,
			"upscale_factor": in.UpscaleFactor,
		},
		Status: domain.StatusPending,
	}
	if err := s.generations.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("create generation record: %w", err)
	}

	resp, err := s.gateway.UpscaleImage(ctx, vertex.UpscaleParams{
		GcsURI:        in.GcsURI,
		UpscaleFactor: in.UpscaleFactor,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("generation_id", gen.ID).Msg("media: image upscale failed")
		s.failGeneration(ctx, gen.ID, err)
		return nil, gatewayError(err)
	}

	return s.completeSync(ctx, gen, resp.Predictions, "image/png", map[string]any{
		"upscale_factor": in.UpscaleFactor,
	})
}

// GenerateMusic runs the synchronous generation template for music.
func (s *Service) GenerateMusic(ctx context.Context, userID string, in MusicGenerationInput) (*MediaResponse, error) {
	if err := s.requireProject(ctx, in.ProjectID); err != nil {
		return nil, err
	}

	gen := &domain.GenerationRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProjectID: in.ProjectID,
		MediaType: domain.MediaTypeMusic,
		Prompt:    in.Prompt,
		Parameters: map[string]any{
			"duration_seconds": in.DurationSeconds,
			"genre":            in.Genre,
			"instrument":       in.Instrument,
			"tempo":            in.Tempo,
			"seed":             in.Seed,
		},
		Status: domain.StatusPending,
	}
	if err := s.generations.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("create generation record: %w", err)
	}

	resp, err := s.gateway.GenerateMusic(ctx, vertex.MusicParams{
		Prompt:          in.Prompt,
		SampleCount:     1,
		DurationSeconds: in.DurationSeconds,
		Seed:            in.Seed,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("generation_id", gen.ID).Msg("media: music generation failed")
		s.failGeneration(ctx, gen.ID, err)
		return nil, gatewayError(err)
	}

	return s.completeSync(ctx, gen, resp.Predictions, "audio/mp3", map[string]any{
		"duration_seconds": in.DurationSeconds,
		"genre":            in.Genre,
	})
}

// GenerateAudio synthesizes speech synchronously. Unlike the predict-based
// paths the gateway returns exactly one stored artifact.
func (s *Service) GenerateAudio(ctx context.Context, userID string, in AudioGenerationInput) (*MediaResponse, error) {
	if err := s.requireProject(ctx, in.ProjectID); err != nil {
		return nil, err
	}

	gen := &domain.GenerationRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProjectID: in.ProjectID,
		MediaType: domain.MediaTypeAudio,
		Prompt:    in.Prompt,
		Parameters: map[string]any{
			"duration_seconds": in.DurationSeconds,
			"audio_style":      in.AudioStyle,
			"locale":           in.Locale,
		},
		Status: domain.StatusPending,
	}
	if err := s.generations.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("create generation record: %w", err)
	}

	stored, err := s.gateway.SynthesizeSpeech(ctx, vertex.SpeechParams{
		Text:   in.Prompt,
		Voice:  in.AudioStyle,
		Locale: in.Locale,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("generation_id", gen.ID).Msg("media: audio generation failed")
		s.failGeneration(ctx, gen.ID, err)
		return nil, gatewayError(err)
	}

	predictions := []vertex.Prediction{{GcsURI: stored.AudioURI, MimeType: "audio/mp3", Prompt: in.Prompt}}
	return s.completeSync(ctx, gen, predictions, "audio/mp3", map[string]any{
		"duration_seconds": in.DurationSeconds,
		"voice":            in.AudioStyle,
		"file_path":        stored.FilePath,
	})
}

// GenerateVideoAsync enqueues the initiate job and returns the locally
// generated correlation key immediately: the HTTP path never waits on the
// long-running operation.
func (s *Service) GenerateVideoAsync(ctx context.Context, userID string, in VideoGenerationInput) (string, error) {
	job := domain.InitiateVideoJob{
		UserID:      userID,
		ProjectID:   in.ProjectID,
		Prompt:      in.Prompt,
		Parameters:  in.Parameters,
		OperationID: uuid.NewString(),
	}
	if _, err := s.queue.Enqueue(ctx, domain.JobInitiateVideoGeneration, job, 0); err != nil {
		return "", fmt.Errorf("enqueue video generation: %w", err)
	}
	return job.OperationID, nil
}

// InitiateVideoGeneration is the initiate phase of the async chain: it
// creates the PROCESSING record keyed by the local operation id, starts the
// long-running operation, and records the gateway handle.
func (s *Service) InitiateVideoGeneration(
	ctx context.Context,
	userID, projectID, prompt string,
	params domain.VideoGenerationParameters,
	operationID string,
) (string, error) {
	s.logger.Debug().Str("user_id", userID).Str("operation_id", operationID).Msg("media: initiating video generation")

	if err := s.requireProject(ctx, projectID); err != nil {
		return "", err
	}

	gen := &domain.GenerationRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProjectID:   projectID,
		MediaType:   domain.MediaTypeVideo,
		Prompt:      prompt,
		Parameters:  params.Map(),
		Status:      domain.StatusProcessing,
		OperationID: operationID,
	}
	if err := s.generations.Create(ctx, gen); err != nil {
		return "", fmt.Errorf("create generation record: %w", err)
	}

	operationName, err := s.gateway.InitiateVideoGeneration(ctx, vertex.VideoParams{
		Prompt:          prompt,
		SampleCount:     params.SampleCount,
		DurationSeconds: params.DurationSeconds,
		AspectRatio:     params.AspectRatio,
		EnhancePrompt:   params.EnhancePrompt,
		Seed:            params.Seed,
		Model:           params.Model,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("generation_id", gen.ID).Msg("media: video initiate failed")
		s.failGeneration(ctx, gen.ID, err)
		return "", gatewayError(err)
	}

	// Echo the handle into the parameters snapshot for traceability; the
	// indexed column is what lookups use.
	paramsMap := params.Map()
	paramsMap["operationName"] = operationName
	if err := s.generations.SetOperationName(ctx, gen.ID, operationName, paramsMap); err != nil {
		s.logger.Error().Err(err).Str("generation_id", gen.ID).Msg("media: record operation handle failed")
		s.failGeneration(ctx, gen.ID, err)
		return "", err
	}

	s.logger.Debug().Str("operation_name", operationName).Msg("media: video generation initiated")
	return operationName, nil
}

// CheckVideoGenerationStatus fetches the state of a long-running operation.
func (s *Service) CheckVideoGenerationStatus(ctx context.Context, operationName string) (*vertex.Operation, error) {
	return s.gateway.CheckOperationStatus(ctx, operationName)
}

// HandleCompletedVideoGeneration reconciles a finished operation into the
// record store. A missing record is logged and skipped, not an error: the
// handle may be stale or the record gone.
func (s *Service) HandleCompletedVideoGeneration(ctx context.Context, userID, operationName string, predictions []vertex.Prediction) error {
	gen, err := s.generations.FindByOperationName(ctx, userID, operationName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Error().Str("operation_name", operationName).Msg("media: no generation record for completed operation")
			return nil
		}
		return fmt.Errorf("find generation by operation: %w", err)
	}

	stored, err := s.persistPredictions(ctx, gen, predictions, "video/mp4", nil)
	if err != nil {
		s.failGeneration(ctx, gen.ID, err)
		return err
	}
	if stored == 0 {
		s.failGeneration(ctx, gen.ID, domain.ErrNoResults)
		return domain.ErrNoResults
	}

	if err := s.generations.UpdateStatus(ctx, gen.ID, domain.StatusSucceeded, nil); err != nil {
		return fmt.Errorf("mark generation succeeded: %w", err)
	}
	s.logger.Debug().Str("operation_name", operationName).Msg("media: video generation completed")
	return nil
}

// MarkVideoGenerationFailed transitions the record owning the operation
// handle to FAILED. Missing records are logged and skipped.
func (s *Service) MarkVideoGenerationFailed(ctx context.Context, userID, operationName, message string) error {
	gen, err := s.generations.FindByOperationName(ctx, userID, operationName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Error().Str("operation_name", operationName).Msg("media: no generation record to fail")
			return nil
		}
		return fmt.Errorf("find generation by operation: %w", err)
	}
	return s.generations.UpdateStatus(ctx, gen.ID, domain.StatusFailed, &message)
}

// GetVideoGenerationResults returns the record correlated to the operation
// id the async submit handed out.
func (s *Service) GetVideoGenerationResults(ctx context.Context, userID, operationID string) (*MediaResponse, error) {
	gen, err := s.generations.FindByOperationID(ctx, userID, operationID)
	if err != nil {
		return nil, err
	}
	return s.respondLenient(ctx, gen)
}

// GetMediaRequestByID returns one generation with materialized results.
func (s *Service) GetMediaRequestByID(ctx context.Context, id, userID string) (*MediaResponse, error) {
	gen, err := s.generations.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.respondLenient(ctx, gen)
}

// GetMediaHistory returns one filtered page of the user's generations.
func (s *Service) GetMediaHistory(ctx context.Context, userID string, query domain.HistoryQuery) (*PaginatedMedia, error) {
	query.Normalize()
	gens, total, err := s.generations.List(ctx, userID, query)
	if err != nil {
		return nil, err
	}

	data := make([]MediaResponse, 0, len(gens))
	for i := range gens {
		resp, err := s.respondLenient(ctx, &gens[i])
		if err != nil {
			return nil, err
		}
		data = append(data, *resp)
	}

	totalPages := (total + query.Limit - 1) / query.Limit
	return &PaginatedMedia{
		Data: data,
		Meta: PageMeta{
			TotalItems:   total,
			ItemCount:    len(data),
			ItemsPerPage: query.Limit,
			TotalPages:   totalPages,
			CurrentPage:  query.Page,
		},
	}, nil
}

// completeSync finishes the synchronous template: persist predictions, sign
// strictly, then transition to SUCCEEDED. Signing runs before the terminal
// transition so a signing failure still lands the record in FAILED without
// ever leaving a terminal state.
func (s *Service) completeSync(
	ctx context.Context,
	gen *domain.GenerationRequest,
	predictions []vertex.Prediction,
	defaultMime string,
	extras map[string]any,
) (*MediaResponse, error) {
	stored, err := s.persistPredictions(ctx, gen, predictions, defaultMime, extras)
	if err != nil {
		s.failGeneration(ctx, gen.ID, err)
		return nil, err
	}
	if stored == 0 {
		s.failGeneration(ctx, gen.ID, domain.ErrNoResults)
		return nil, domain.ErrNoResults
	}

	results, err := s.generations.ListResults(ctx, gen.ID)
	if err != nil {
		s.failGeneration(ctx, gen.ID, err)
		return nil, fmt.Errorf("load generation results: %w", err)
	}

	signed, err := s.materializer.Materialize(ctx, results, true)
	if err != nil {
		s.failGeneration(ctx, gen.ID, err)
		return nil, err
	}

	if err := s.generations.UpdateStatus(ctx, gen.ID, domain.StatusSucceeded, nil); err != nil {
		return nil, fmt.Errorf("mark generation succeeded: %w", err)
	}
	gen.Status = domain.StatusSucceeded
	return newMediaResponse(gen, signed), nil
}

// persistPredictions stores one result row per usable prediction and returns
// how many were stored. A failing insert aborts the whole batch: partial
// silent success is worse than a clean failure.
func (s *Service) persistPredictions(
	ctx context.Context,
	gen *domain.GenerationRequest,
	predictions []vertex.Prediction,
	defaultMime string,
	extras map[string]any,
) (int, error) {
	stored := 0
	for i, pred := range predictions {
		if pred.GcsURI == "" {
			continue
		}
		mime := pred.MimeType
		if mime == "" {
			mime = defaultMime
		}
		prompt := pred.Prompt
		if prompt == "" {
			prompt = gen.Prompt
		}
		meta := map[string]any{
			"index":    i,
			"mimeType": mime,
			"prompt":   prompt,
		}
		for k, v := range extras {
			meta[k] = v
		}
		res := &domain.GenerationResult{
			ID:                  uuid.NewString(),
			GenerationRequestID: gen.ID,
			ResultURL:           pred.GcsURI,
			ResultIndex:         i,
			Metadata:            meta,
		}
		if err := s.generations.CreateResult(ctx, res); err != nil {
			s.logger.Error().Err(err).Str("result_url", pred.GcsURI).Msg("media: failed to create media result")
			return stored, fmt.Errorf("failed to create media result: %w", err)
		}
		stored++
	}
	return stored, nil
}

func (s *Service) respondLenient(ctx context.Context, gen *domain.GenerationRequest) (*MediaResponse, error) {
	signed, err := s.materializer.Materialize(ctx, gen.Results, false)
	if err != nil {
		return nil, err
	}
	return newMediaResponse(gen, signed), nil
}

func (s *Service) requireProject(ctx context.Context, projectID string) error {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrProjectNotFound
		}
		return fmt.Errorf("load project: %w", err)
	}
	return nil
}

// gatewayError tags a generation platform failure so transports can map it
// to bad gateway while keeping the upstream error in the chain.
func gatewayError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrGatewayFailure, err)
}

// failGeneration records the failure on the owning request. The update error
// is only logged; the original failure is what callers see.
func (s *Service) failGeneration(ctx context.Context, id string, cause error) {
	msg := cause.Error()
	if err := s.generations.UpdateStatus(ctx, id, domain.StatusFailed, &msg); err != nil {
		s.logger.Error().Err(err).Str("generation_id", id).Msg("media: failed to mark generation failed")
	}
}
