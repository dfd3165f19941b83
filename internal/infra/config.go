package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	DBMaxConns  int
	JWTSecret   string
	JWTTokenTTL time.Duration

	// Vertex AI gateway settings.
	VertexProjectID    string
	VertexLocation     string
	VertexImagenModel  string
	VertexVeoModel     string
	VertexLyriaModel   string
	VertexUpscaleModel string
	VertexBaseURL      string
	TTSBaseURL         string

	// Generated artifacts land in this bucket; signed URLs are minted
	// against it at response time.
	StorageBucket   string
	StorageURI      string
	SignedURLExpiry time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string

	WorkerPollInterval time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTTokenTTL:        time.Hour * time.Duration(getEnvInt("JWT_TOKEN_TTL_HOURS", 24)),
		VertexProjectID:    os.Getenv("VERTEX_AI_PROJECT_ID"),
		VertexLocation:     getEnv("VERTEX_AI_LOCATION", "us-central1"),
		VertexImagenModel:  getEnv("VERTEX_AI_IMAGEN_MODEL_ID", "imagen-3.0-generate-002"),
		VertexVeoModel:     getEnv("VERTEX_AI_VEO_MODEL_ID", "veo-2.0-generate-001"),
		VertexLyriaModel:   getEnv("VERTEX_AI_LYRIA_MODEL_ID", "lyria-base-001"),
		VertexUpscaleModel: getEnv("VERTEX_AI_UPSCALE_MODEL_ID", "imagegeneration@002"),
		VertexBaseURL:      os.Getenv("VERTEX_AI_BASE_URL"),
		TTSBaseURL:         getEnv("TTS_BASE_URL", "https://texttospeech.googleapis.com/v1"),
		StorageBucket:      getEnv("STORAGE_BUCKET_NAME", "media-assets"),
		StorageURI:         os.Getenv("VERTEX_AI_STORAGE_URI"),
		SignedURLExpiry:    time.Hour * time.Duration(getEnvInt("SIGNED_URL_EXPIRATION_HOURS", 24)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		WorkerPollInterval: time.Second * time.Duration(getEnvInt("WORKER_POLL_INTERVAL_SECONDS", 2)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.VertexProjectID == "" {
		return nil, fmt.Errorf("VERTEX_AI_PROJECT_ID is required")
	}

	if cfg.StorageURI == "" {
		cfg.StorageURI = "gs://" + cfg.StorageBucket + "/generated"
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
