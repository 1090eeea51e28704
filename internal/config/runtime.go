package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

const (
	defaultJWTAccessTTL      = "24h"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultUploadDir         = "./uploads"
	defaultMaxUploadSize     = int64(200 * 1024 * 1024) // 200 MB, audio/video deposits are large
	defaultNotifRetention    = "2160h"                  // 90 days
	defaultListenAddr        = ":8080"
	defaultDepositDraftLimit = 25
)

// RuntimeConfig holds everything the API server reads from the environment.
type RuntimeConfig struct {
	AppEnv            string
	ListenAddr        string
	DatabaseURL       string
	JWTSecret         string
	JWTAccessTTL      time.Duration
	UploadDir         string
	MaxUploadSize     int64
	NotifRetention    time.Duration
	DepositDraftLimit int
}

func LoadRuntimeConfig() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.ListenAddr = strings.TrimSpace(getEnv("LISTEN_ADDR", defaultListenAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", "archive.db"))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.UploadDir = strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir))

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}

	cfg.NotifRetention, err = parseDurationEnv("NOTIFICATION_RETENTION", defaultNotifRetention)
	if err != nil {
		return nil, err
	}

	cfg.MaxUploadSize = defaultMaxUploadSize
	if v := strings.TrimSpace(os.Getenv("MAX_UPLOAD_SIZE")); v != "" {
		var size int64
		if _, err := fmt.Sscanf(v, "%d", &size); err != nil || size <= 0 {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE value %q", v)
		}
		cfg.MaxUploadSize = size
	}

	cfg.DepositDraftLimit = defaultDepositDraftLimit
	if v := strings.TrimSpace(os.Getenv("DEPOSIT_DRAFT_LIMIT")); v != "" {
		var limit int
		if _, err := fmt.Sscanf(v, "%d", &limit); err != nil || limit < 0 {
			return nil, fmt.Errorf("invalid DEPOSIT_DRAFT_LIMIT value %q", v)
		}
		cfg.DepositDraftLimit = limit
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("runtime config: env=%s addr=%s upload_dir=%s", cfg.AppEnv, cfg.ListenAddr, cfg.UploadDir)

	return cfg, nil
}

func validateConfig(cfg *RuntimeConfig) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.NotifRetention <= 0 {
		return fmt.Errorf("NOTIFICATION_RETENTION must be > 0")
	}
	if cfg.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if !strings.HasPrefix(cfg.DatabaseURL, "postgres://") && !strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
			return fmt.Errorf("in prod/release DATABASE_URL must point at PostgreSQL")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
