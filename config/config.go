package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is populated from environment variables, optionally seeded
// from a .env file in the working directory.
type Config struct {
	Port        string `envconfig:"PORT" default:"8000"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBFile      string `envconfig:"DB_FILE" default:"dev.db"`
	RedisAddr   string `envconfig:"REDIS_ADDR"`
	SecretKey   string `envconfig:"SECRET_KEY" required:"true"`
	UploadDir   string `envconfig:"UPLOAD_DIR" default:"uploads"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewLogger builds the process logger at the configured level.
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
