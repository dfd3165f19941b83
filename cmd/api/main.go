package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mediaforge/internal/adapter/queue"
	"mediaforge/internal/adapter/repo"
	"mediaforge/internal/http/handlers"
	"mediaforge/internal/http/httpapi"
	"mediaforge/internal/infra"
	"mediaforge/internal/media"
	"mediaforge/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	if err := infra.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	bucket, err := storage.NewBucket(ctx, cfg.StorageBucket, cfg.SignedURLExpiry)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage bucket")
	}
	defer bucket.Close()

	generations := repo.NewGenerationRepository(pool)
	projects := repo.NewProjectRepository(pool)
	users := repo.NewUserRepository(pool)
	jobs := queue.NewPGQueue(pool)

	gateway, err := newVertexClient(ctx, cfg, bucket, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure vertex client")
	}

	service := media.NewService(generations, projects, gateway, bucket, jobs, logger)

	app := &handlers.App{
		Media:     service,
		Projects:  projects,
		Users:     users,
		Storage:   bucket,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.JWTTokenTTL,
		Logger:    logger,
	}
	router := httpapi.NewRouter(app, cfg)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("api listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
