package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mediaforge/internal/http/handlers"
	"mediaforge/internal/infra"
	"mediaforge/internal/middleware"
)

// NewRouter assembles the public HTTP surface. Everything under /v1 except
// health and auth requires a bearer token; generation endpoints additionally
// sit behind the per-caller rate limit.
func NewRouter(app *handlers.App, cfg *infra.Config) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", app.Register)
		r.Post("/login", app.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.JWTSecret))

		r.Post("/v1/auth/refresh", app.Refresh)
		r.Get("/v1/me", app.Me)
		r.Patch("/v1/me", app.UpdateMe)

		r.Route("/v1/projects", func(r chi.Router) {
			r.Post("/", app.ProjectsCreate)
			r.Get("/", app.ProjectsList)
			r.Get("/{id}", app.ProjectsGet)
			r.Patch("/{id}", app.ProjectsUpdate)
			r.Delete("/{id}", app.ProjectsDelete)
		})

		r.Route("/v1/media", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
				r.Post("/image", app.ImagesGenerate)
				r.Post("/image/upscale", app.ImagesUpscale)
				r.Post("/music", app.MusicGenerate)
				r.Post("/audio", app.AudioGenerate)
				r.Post("/video/async", app.VideosGenerateAsync)
			})
			r.Get("/video/status", app.VideoStatus)
			r.Get("/history", app.MediaHistory)
			r.Get("/{id}", app.MediaByID)
			r.Get("/{id}/archive", app.MediaArchive)
		})

		r.Route("/v1/files", func(r chi.Router) {
			r.Post("/upload", app.FilesUpload)
			r.Post("/upload-multiple", app.FilesUploadMultiple)
			r.Get("/download", app.FilesDownload)
			r.Get("/signed-url", app.FilesSignedURL)
		})
	})

	return r
}
