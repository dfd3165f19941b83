package media

import "mediaforge/internal/domain"

// ImageGenerationInput carries the request fields for synchronous image
// generation.
type ImageGenerationInput struct {
	ProjectID      string `json:"project_id"`
	Prompt         string `json:"prompt"`
	SampleCount    int    `json:"sample_count"`
	AspectRatio    string `json:"aspect_ratio"`
	NegativePrompt string `json:"negative_prompt"`
	Model          string `json:"model"`
}

// ImageUpscaleInput upscales an already stored image.
type ImageUpscaleInput struct {
	ProjectID     string `json:"project_id"`
	GcsURI        string `json:"gcs_uri"`
	UpscaleFactor string `json:"upscale_factor"`
}

// MusicGenerationInput carries the request fields for music generation.
type MusicGenerationInput struct {
	ProjectID       string `json:"project_id"`
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"duration_seconds"`
	Genre           string `json:"genre"`
	Instrument      string `json:"instrument"`
	Tempo           int    `json:"tempo"`
	Seed            int64  `json:"seed"`
}

// AudioGenerationInput carries the request fields for speech synthesis.
type AudioGenerationInput struct {
	ProjectID       string `json:"project_id"`
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"duration_seconds"`
	AudioStyle      string `json:"audio_style"`
	Locale          string `json:"locale"`
}

// VideoGenerationInput carries the request fields for asynchronous video
// generation.
type VideoGenerationInput struct {
	ProjectID  string                           `json:"project_id"`
	Prompt     string                           `json:"prompt"`
	Parameters domain.VideoGenerationParameters `json:"parameters"`
}
