package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mediaforge/internal/adapter/queue"
	"mediaforge/internal/adapter/repo"
	"mediaforge/internal/infra"
	"mediaforge/internal/media"
	"mediaforge/internal/providers/vertex"
	"mediaforge/internal/storage"
)

type jobWorker struct {
	ctx          context.Context
	queue        *queue.PGQueue
	processor    *media.VideoJobProcessor
	logger       infra.Logger
	pollInterval time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	bucket, err := storage.NewBucket(ctx, cfg.StorageBucket, cfg.SignedURLExpiry)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage bucket")
	}
	defer bucket.Close()

	gateway, err := vertex.NewClient(ctx, vertex.Options{
		ProjectID:    cfg.VertexProjectID,
		Location:     cfg.VertexLocation,
		ImagenModel:  cfg.VertexImagenModel,
		VeoModel:     cfg.VertexVeoModel,
		LyriaModel:   cfg.VertexLyriaModel,
		UpscaleModel: cfg.VertexUpscaleModel,
		StorageURI:   cfg.StorageURI,
		BaseURL:      cfg.VertexBaseURL,
		TTSBaseURL:   cfg.TTSBaseURL,
		Logger:       &logger,
		Uploader:     bucket,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure vertex client")
	}

	generations := repo.NewGenerationRepository(pool)
	projects := repo.NewProjectRepository(pool)
	jobs := queue.NewPGQueue(pool)

	service := media.NewService(generations, projects, gateway, bucket, jobs, logger)
	processor := media.NewVideoJobProcessor(service, jobs, logger)

	worker := &jobWorker{
		ctx:          ctx,
		queue:        jobs,
		processor:    processor,
		logger:       logger,
		pollInterval: cfg.WorkerPollInterval,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// Run claims due jobs until the context is cancelled. Each job either
// finishes or is failed with its cause; at-least-once semantics come from
// the queue, idempotency from the handlers.
func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		job, err := w.queue.Claim(w.ctx)
		if err != nil {
			if errors.Is(err, queue.ErrNoJob) {
				w.sleep()
				continue
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			w.logger.Error().Err(err).Msg("worker: failed to claim job")
			w.sleep()
			continue
		}

		w.handleJob(job)
	}
}

func (w *jobWorker) handleJob(job *queue.Job) {
	w.logger.Info().Str("job_id", job.ID).Str("job_type", string(job.Type)).Int("attempts", job.Attempts).Msg("worker: picked job")

	if err := w.processor.Handle(w.ctx, job.Type, job.Payload); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: job failed")
		if failErr := w.queue.Fail(w.ctx, job.ID, err); failErr != nil {
			w.logger.Error().Err(failErr).Str("job_id", job.ID).Msg("worker: mark job failed errored")
		}
		return
	}
	if err := w.queue.Finish(w.ctx, job.ID); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: finish job errored")
	}
}

func (w *jobWorker) sleep() {
	select {
	case <-w.ctx.Done():
	case <-time.After(w.pollInterval):
	}
}
