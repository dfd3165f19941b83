package media

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mediaforge/internal/domain"
	"mediaforge/internal/providers/vertex"
)

const (
	// MaxPollingAttempts caps how many status checks one operation gets
	// before its generation is abandoned as FAILED.
	MaxPollingAttempts = 20

	// PollInterval is the fixed delay between consecutive status checks of
	// the same operation.
	PollInterval = 5 * time.Second
)

// VideoJobProcessor executes the asynchronous video generation chain: one
// initiate job that starts the long-running operation, followed by a
// sequence of poll jobs that each check status once and schedule at most one
// successor.
type VideoJobProcessor struct {
	service *Service
	queue   domain.JobQueue
	logger  zerolog.Logger
}

// NewVideoJobProcessor wires the processor.
func NewVideoJobProcessor(service *Service, queue domain.JobQueue, logger zerolog.Logger) *VideoJobProcessor {
	return &VideoJobProcessor{service: service, queue: queue, logger: logger}
}

// Handle dispatches one claimed job to its handler.
func (p *VideoJobProcessor) Handle(ctx context.Context, jobType domain.JobType, payload []byte) error {
	switch jobType {
	case domain.JobInitiateVideoGeneration:
		var job domain.InitiateVideoJob
		if err := json.Unmarshal(payload, &job); err != nil {
			return fmt.Errorf("decode initiate job: %w", err)
		}
		return p.HandleInitiate(ctx, job)
	case domain.JobPollVideoGeneration:
		var job domain.PollVideoJob
		if err := json.Unmarshal(payload, &job); err != nil {
			return fmt.Errorf("decode poll job: %w", err)
		}
		return p.HandlePoll(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", jobType)
	}
}

// HandleInitiate starts the long-running operation and schedules the first
// poll.
func (p *VideoJobProcessor) HandleInitiate(ctx context.Context, job domain.InitiateVideoJob) error {
	operationName, err := p.service.InitiateVideoGeneration(ctx, job.UserID, job.ProjectID, job.Prompt, job.Parameters, job.OperationID)
	if err != nil {
		return fmt.Errorf("initiate video generation: %w", err)
	}

	poll := domain.PollVideoJob{
		UserID:        job.UserID,
		OperationName: operationName,
		RetryCount:    0,
	}
	if _, err := p.queue.Enqueue(ctx, domain.JobPollVideoGeneration, poll, PollInterval); err != nil {
		return fmt.Errorf("schedule first poll: %w", err)
	}
	return nil
}

// HandlePoll checks the operation's status exactly once. Unfinished
// operations get exactly one successor poll; terminal outcomes (success,
// operation error, poll ceiling) end the chain.
func (p *VideoJobProcessor) HandlePoll(ctx context.Context, job domain.PollVideoJob) error {
	log := p.logger.With().
		Str("operation_name", job.OperationName).
		Int("retry_count", job.RetryCount).
		Logger()

	if job.RetryCount >= MaxPollingAttempts {
		msg := fmt.Sprintf("maximum polling attempts reached for operation: %s", job.OperationName)
		log.Error().Msg("media: video polling ceiling reached")
		if err := p.service.MarkVideoGenerationFailed(ctx, job.UserID, job.OperationName, msg); err != nil {
			return fmt.Errorf("mark generation failed: %w", err)
		}
		return fmt.Errorf("%s", msg)
	}

	op, err := p.service.CheckVideoGenerationStatus(ctx, job.OperationName)
	if err != nil {
		return fmt.Errorf("check operation status: %w", err)
	}

	if !op.Done {
		next := domain.PollVideoJob{
			UserID:        job.UserID,
			OperationName: job.OperationName,
			RetryCount:    job.RetryCount + 1,
		}
		if _, err := p.queue.Enqueue(ctx, domain.JobPollVideoGeneration, next, PollInterval); err != nil {
			return fmt.Errorf("schedule next poll: %w", err)
		}
		log.Debug().Msg("media: operation still running")
		return nil
	}

	if op.Error != nil {
		msg := fmt.Sprintf("video generation failed: %s (code %d)", op.Error.Message, op.Error.Code)
		log.Error().Int("code", op.Error.Code).Str("message", op.Error.Message).Msg("media: operation finished with error")
		return p.service.MarkVideoGenerationFailed(ctx, job.UserID, job.OperationName, msg)
	}

	var videos []vertex.Prediction
	if op.Response != nil {
		videos = op.Response.Videos
	}
	if err := p.service.HandleCompletedVideoGeneration(ctx, job.UserID, job.OperationName, videos); err != nil {
		return fmt.Errorf("handle completed operation: %w", err)
	}
	log.Debug().Msg("media: operation completed")
	return nil
}
