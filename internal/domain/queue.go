package domain

import (
	"context"
	"time"
)

// JobType names a queued job handler.
type JobType string

const (
	JobInitiateVideoGeneration JobType = "initiate-video-generation"
	JobPollVideoGeneration     JobType = "poll-video-generation"
)

// JobQueue schedules background jobs with optional delay. Delivery is
// at-least-once; handlers must tolerate redelivery of the same payload.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType JobType, payload any, delay time.Duration) (string, error)
}

// VideoGenerationParameters are the video-specific request fields carried
// through the job chain and snapshotted into GenerationRequest.Parameters.
type VideoGenerationParameters struct {
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	AspectRatio     string `json:"aspect_ratio,omitempty"`
	EnhancePrompt   bool   `json:"enhance_prompt,omitempty"`
	SampleCount     int    `json:"sample_count,omitempty"`
	Model           string `json:"model,omitempty"`
	Seed            int64  `json:"seed,omitempty"`
}

// Map returns the parameters as the open structural form persisted on the
// generation record.
func (p VideoGenerationParameters) Map() map[string]any {
	m := map[string]any{}
	if p.DurationSeconds != 0 {
		m["duration_seconds"] = p.DurationSeconds
	}
	if p.AspectRatio != "" {
		m["aspect_ratio"] = p.AspectRatio
	}
	if p.EnhancePrompt {
		m["enhance_prompt"] = true
	}
	if p.SampleCount != 0 {
		m["sample_count"] = p.SampleCount
	}
	if p.Model != "" {
		m["model"] = p.Model
	}
	if p.Seed != 0 {
		m["seed"] = p.Seed
	}
	return m
}

// InitiateVideoJob starts the async video chain. OperationID is generated
// locally at enqueue time and returned to the caller for correlation before
// the gateway handle exists.
type InitiateVideoJob struct {
	UserID      string                    `json:"user_id"`
	ProjectID   string                    `json:"project_id"`
	Prompt      string                    `json:"prompt"`
	Parameters  VideoGenerationParameters `json:"parameters"`
	OperationID string                    `json:"operation_id"`
}

// PollVideoJob checks one long-running operation. Each poll enqueues its
// successor, so at most one poll job per operation handle is in flight.
type PollVideoJob struct {
	UserID        string `json:"user_id"`
	OperationName string `json:"operation_name"`
	RetryCount    int    `json:"retry_count"`
}
