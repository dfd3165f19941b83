package vertex

import (
	"context"
	"errors"
	"fmt"
)

// VideoParams are the normalized inputs for asynchronous video generation.
type VideoParams struct {
	Prompt          string
	SampleCount     int
	DurationSeconds int
	AspectRatio     string
	EnhancePrompt   bool
	Seed            int64
	Model           string
	StorageURI      string
}

type veoInstance struct {
	Prompt string `json:"prompt"`
}

type veoParameters struct {
	SampleCount     int    `json:"sampleCount"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	AspectRatio     string `json:"aspectRatio,omitempty"`
	EnhancePrompt   bool   `json:"enhancePrompt,omitempty"`
	Seed            int64  `json:"seed,omitempty"`
	StorageURI      string `json:"storageUri,omitempty"`
}

type veoRequest struct {
	Instances  []veoInstance `json:"instances"`
	Parameters veoParameters `json:"parameters"`
}

type fetchOperationRequest struct {
	OperationName string `json:"operationName"`
}

// InitiateVideoGeneration starts a long-running video generation and returns
// the operation handle used for subsequent status checks.
func (c *Client) InitiateVideoGeneration(ctx context.Context, params VideoParams) (string, error) {
	model := params.Model
	if model == "" {
		model = c.opts.VeoModel
	}
	sampleCount := params.SampleCount
	if sampleCount < 1 {
		sampleCount = 1
	}
	storageURI := params.StorageURI
	if storageURI == "" {
		storageURI = c.opts.StorageURI
	}
	payload := veoRequest{
		Instances: []veoInstance{{Prompt: params.Prompt}},
		Parameters: veoParameters{
			SampleCount:     sampleCount,
			DurationSeconds: params.DurationSeconds,
			AspectRatio:     params.AspectRatio,
			EnhancePrompt:   params.EnhancePrompt,
			Seed:            params.Seed,
			StorageURI:      storageURI,
		},
	}

	var op Operation
	if err := c.post(ctx, model, c.modelEndpoint(model, "predictLongRunning"), payload, &op); err != nil {
		return "", fmt.Errorf("initiate video generation: %w", err)
	}
	if op.Name == "" {
		return "", errors.New("initiate video generation: no operation name returned")
	}
	return op.Name, nil
}

// CheckOperationStatus fetches the state of a long-running video operation.
func (c *Client) CheckOperationStatus(ctx context.Context, operationName string) (*Operation, error) {
	model := c.opts.VeoModel
	payload := fetchOperationRequest{OperationName: operationName}

	var op Operation
	if err := c.post(ctx, model, c.modelEndpoint(model, "fetchPredictOperation"), payload, &op); err != nil {
		return nil, fmt.Errorf("check operation status: %w", err)
	}
	op.Name = operationName
	return &op, nil
}
