package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AppConfig is read once at startup.
type AppConfig struct {
	Port              string        `validate:"required,numeric"`
	DatabaseURL       string        `validate:"required"`
	JWTSecret         string        `validate:"required,min=8"`
	JWTExpiresIn      time.Duration `validate:"gt=0"`
	GeminiAPIKey      string        `validate:"required"`
	GeminiModel       string        `validate:"required"`
	MaxImageDim       int           `validate:"gte=64"`
	GenerationTimeout time.Duration `validate:"gt=0"`
	FrontendURL       string        `validate:"required,url"`
	UploadDir         string        `validate:"required"`
	MaxUploadBytes    int64         `validate:"gt=0"`
	GenerationsPerMin int           `validate:"gte=0"`
	RedisURL          string
	LogLevel          string `validate:"oneof=debug info warn error"`
	LogPath           string
	ExposeErrorDetail bool
}

// Load reads .env (if present) and the process environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &AppConfig{
		Port:         get("PORT", "5000"),
		DatabaseURL:  get("DATABASE_URL", ""),
		JWTSecret:    get("JWT_SECRET", ""),
		GeminiAPIKey: get("GEMINI_API_KEY", ""),
		GeminiModel:  get("GEMINI_MODEL", "gemini-2.5-flash"),
		FrontendURL:  get("FRONTEND_URL", "http://localhost:3000"),
		UploadDir:    get("UPLOAD_DIR", "uploads"),
		RedisURL:     get("REDIS_URL", ""),
		LogLevel:     strings.ToLower(get("LOG_LEVEL", "info")),
		LogPath:      get("LOG_PATH", ""),
	}

	var err error
	if cfg.JWTExpiresIn, err = ParseDuration(get("JWT_EXPIRES_IN", "30d")); err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	if cfg.GenerationTimeout, err = ParseDuration(get("GENERATION_TIMEOUT", "90s")); err != nil {
		return nil, fmt.Errorf("GENERATION_TIMEOUT: %w", err)
	}
	if cfg.MaxImageDim, err = strconv.Atoi(get("GEMINI_MAX_IMAGE_DIM", "2048")); err != nil {
		return nil, fmt.Errorf("GEMINI_MAX_IMAGE_DIM: %w", err)
	}
	if cfg.MaxUploadBytes, err = strconv.ParseInt(get("MAX_UPLOAD_BYTES", "10485760"), 10, 64); err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
	}
	if cfg.GenerationsPerMin, err = strconv.Atoi(get("GENERATION_RATE_PER_MINUTE", "10")); err != nil {
		return nil, fmt.Errorf("GENERATION_RATE_PER_MINUTE: %w", err)
	}
	if cfg.ExposeErrorDetail, err = strconv.ParseBool(get("EXPOSE_ERROR_DETAIL", "false")); err != nil {
		return nil, fmt.Errorf("EXPOSE_ERROR_DETAIL: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ParseDuration accepts Go durations plus a whole-day suffix ("30d").
func ParseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// Addr is the listen address for the HTTP server.
func (c *AppConfig) Addr() string {
	return ":" + c.Port
}
