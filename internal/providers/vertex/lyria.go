package vertex

import (
	"context"
	"fmt"
)

// MusicParams are the normalized inputs for music generation.
type MusicParams struct {
	Prompt          string
	SampleCount     int
	DurationSeconds int
	Seed            int64
	Model           string
	StorageURI      string
}

type lyriaInstance struct {
	Prompt string `json:"prompt"`
	Seed   int64  `json:"seed,omitempty"`
}

type lyriaParameters struct {
	SampleCount     int    `json:"sampleCount,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	StorageURI      string `json:"storageUri,omitempty"`
}

type lyriaRequest struct {
	Instances  []lyriaInstance `json:"instances"`
	Parameters lyriaParameters `json:"parameters"`
}

// GenerateMusic calls the Lyria model synchronously.
func (c *Client) GenerateMusic(ctx context.Context, params MusicParams) (*PredictionResponse, error) {
	model := params.Model
	if model == "" {
		model = c.opts.LyriaModel
	}
	sampleCount := params.SampleCount
	if sampleCount < 1 {
		sampleCount = 1
	}
	storageURI := params.StorageURI
	if storageURI == "" {
		storageURI = c.opts.StorageURI
	}
	payload := lyriaRequest{
		Instances: []lyriaInstance{{Prompt: params.Prompt, Seed: params.Seed}},
		Parameters: lyriaParameters{
			SampleCount:     sampleCount,
			DurationSeconds: params.DurationSeconds,
			StorageURI:      storageURI,
		},
	}

	var resp PredictionResponse
	if err := c.post(ctx, model, c.modelEndpoint(model, "predict"), payload, &resp); err != nil {
		return nil, fmt.Errorf("generate music: %w", err)
	}
	return &resp, nil
}
