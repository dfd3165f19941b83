package main

import (
	"context"

	"mediaforge/internal/infra"
	"mediaforge/internal/providers/vertex"
	"mediaforge/internal/storage"
)

func newVertexClient(ctx context.Context, cfg *infra.Config, bucket *storage.Bucket, logger *infra.Logger) (*vertex.Client, error) {
	return vertex.NewClient(ctx, vertex.Options{
		ProjectID:    cfg.VertexProjectID,
		Location:     cfg.VertexLocation,
		ImagenModel:  cfg.VertexImagenModel,
		VeoModel:     cfg.VertexVeoModel,
		LyriaModel:   cfg.VertexLyriaModel,
		UpscaleModel: cfg.VertexUpscaleModel,
		StorageURI:   cfg.StorageURI,
		BaseURL:      cfg.VertexBaseURL,
		TTSBaseURL:   cfg.TTSBaseURL,
		Logger:       logger,
		Uploader:     bucket,
	})
}
