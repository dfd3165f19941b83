package vertex

import (
	"context"
	"fmt"
)

// ImageParams are the normalized inputs for image generation.
type ImageParams struct {
	Prompt         string
	SampleCount    int
	AspectRatio    string
	NegativePrompt string
	Model          string
	StorageURI     string
}

// UpscaleParams are the inputs for image upscaling. GcsURI references an
// already stored image.
type UpscaleParams struct {
	GcsURI        string
	UpscaleFactor string
	Model         string
}

type imagenInstance struct {
	Prompt string       `json:"prompt"`
	Image  *imagenImage `json:"image,omitempty"`
}

type imagenImage struct {
	GcsURI string `json:"gcsUri"`
}

type imagenParameters struct {
	SampleCount    int            `json:"sampleCount,omitempty"`
	AspectRatio    string         `json:"aspectRatio,omitempty"`
	NegativePrompt string         `json:"negativePrompt,omitempty"`
	StorageURI     string         `json:"storageUri,omitempty"`
	Mode           string         `json:"mode,omitempty"`
	UpscaleConfig  *upscaleConfig `json:"upscaleConfig,omitempty"`
}

type upscaleConfig struct {
	UpscaleFactor string `json:"upscaleFactor"`
}

type imagenRequest struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters imagenParameters `json:"parameters"`
}

// GenerateImage calls the Imagen model synchronously.
func (c *Client) GenerateImage(ctx context.Context, params ImageParams) (*PredictionResponse, error) {
	model := params.Model
	if model == "" {
		model = c.opts.ImagenModel
	}
	sampleCount := params.SampleCount
	if sampleCount < 1 {
		sampleCount = 1
	}
	storageURI := params.StorageURI
	if storageURI == "" {
		storageURI = c.opts.StorageURI
	}
	payload := imagenRequest{
		Instances: []imagenInstance{{Prompt: params.Prompt}},
		Parameters: imagenParameters{
			SampleCount:    sampleCount,
			AspectRatio:    params.AspectRatio,
			NegativePrompt: params.NegativePrompt,
			StorageURI:     storageURI,
		},
	}

	var resp PredictionResponse
	if err := c.post(ctx, model, c.modelEndpoint(model, "predict"), payload, &resp); err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	return &resp, nil
}

// UpscaleImage upscales a stored image through the dedicated upscale model.
func (c *Client) UpscaleImage(ctx context.Context, params UpscaleParams) (*PredictionResponse, error) {
	model := params.Model
	if model == "" {
		model = c.opts.UpscaleModel
	}
	factor := params.UpscaleFactor
	if factor == "" {
		factor = "x2"
	}
	payload := imagenRequest{
		Instances: []imagenInstance{{
			Prompt: "",
			Image:  &imagenImage{GcsURI: params.GcsURI},
		}},
		Parameters: imagenParameters{
			SampleCount:   1,
			Mode:          "upscale",
			StorageURI:    c.opts.StorageURI,
			UpscaleConfig: &upscaleConfig{UpscaleFactor: factor},
		},
	}

	var resp PredictionResponse
	if err := c.post(ctx, model, c.modelEndpoint(model, "predict"), payload, &resp); err != nil {
		return nil, fmt.Errorf("upscale image: %w", err)
	}
	return &resp, nil
}
