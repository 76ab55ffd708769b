// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBDriver string     `env:"DB_DRIVER" envDefault:"libsql"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/fieldgame.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`
	PhotoDir string     `env:"PHOTO_DIR" envDefault:"data/photos"`

	// RedisURL enables cross-instance notification fan-out when set.
	RedisURL string `env:"REDIS_URL"`

	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	PlayerTokenTTL time.Duration `env:"PLAYER_TOKEN_TTL" envDefault:"72h"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// QueueEnforce rejects verification of submissions that are still
	// queued behind another pending submission.
	QueueEnforce bool  `env:"QUEUE_ENFORCE" envDefault:"false"`
	MaxUploadMB  int64 `env:"MAX_UPLOAD_MB" envDefault:"16"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}
	return &cfg, nil
}
