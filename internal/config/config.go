package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration derived from environment variables.
type Config struct {
	HTTPPort               string
	DataDir                string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	JWTIssuer              string
	JWTAudience            string
	AdminIDs               []int64
	NotifyWebhookURL       string
	ReconciliationInterval time.Duration
	SessionTTL             time.Duration
	PublicRateLimitRPS     int
	AuthRateLimitRPS       int
	LogLevel               string
}

// Load reads environment variables using viper and returns a typed config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	bindEnv(v, "port", "PORT", "BROKER_PORT")
	bindEnv(v, "data_dir", "DATA_DIR", "BROKER_DATA_DIR")
	bindEnv(v, "database_url", "DATABASE_URL", "BROKER_DATABASE_URL")
	bindEnv(v, "redis_url", "REDIS_URL", "BROKER_REDIS_URL")
	bindEnv(v, "jwt_secret", "JWT_SECRET", "BROKER_JWT_SECRET")
	bindEnv(v, "jwt_issuer", "JWT_ISSUER", "BROKER_JWT_ISSUER")
	bindEnv(v, "jwt_audience", "JWT_AUDIENCE", "BROKER_JWT_AUDIENCE")
	bindEnv(v, "admin_ids", "ADMIN_IDS", "BROKER_ADMIN_IDS")
	bindEnv(v, "notify_webhook_url", "NOTIFY_WEBHOOK_URL", "BROKER_NOTIFY_WEBHOOK_URL")
	bindEnv(v, "reconciliation_interval", "RECONCILIATION_INTERVAL", "BROKER_RECONCILIATION_INTERVAL")
	bindEnv(v, "session_ttl", "SESSION_TTL", "BROKER_SESSION_TTL")
	bindEnv(v, "public_rate_limit_rps", "PUBLIC_RATE_LIMIT_RPS", "BROKER_PUBLIC_RATE_LIMIT_RPS")
	bindEnv(v, "auth_rate_limit_rps", "AUTH_RATE_LIMIT_RPS", "BROKER_AUTH_RATE_LIMIT_RPS")
	bindEnv(v, "log_level", "LOG_LEVEL", "BROKER_LOG_LEVEL")

	v.SetDefault("port", "8080")
	v.SetDefault("data_dir", "data")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "brokerage-backoffice")
	v.SetDefault("jwt_audience", "brokerage-api")
	v.SetDefault("admin_ids", "")
	v.SetDefault("notify_webhook_url", "")
	v.SetDefault("reconciliation_interval", "1h")
	v.SetDefault("session_ttl", "30m")
	v.SetDefault("public_rate_limit_rps", 10)
	v.SetDefault("auth_rate_limit_rps", 100)
	v.SetDefault("log_level", "info")

	reconciliationInterval, err := time.ParseDuration(v.GetString("reconciliation_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILIATION_INTERVAL: %w", err)
	}
	sessionTTL, err := time.ParseDuration(v.GetString("session_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	adminIDs, err := parseAdminIDs(v.GetString("admin_ids"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_IDS: %w", err)
	}

	cfg := &Config{
		HTTPPort:               v.GetString("port"),
		DataDir:                v.GetString("data_dir"),
		DatabaseURL:            v.GetString("database_url"),
		RedisURL:               v.GetString("redis_url"),
		JWTSecret:              v.GetString("jwt_secret"),
		JWTIssuer:              v.GetString("jwt_issuer"),
		JWTAudience:            v.GetString("jwt_audience"),
		AdminIDs:               adminIDs,
		NotifyWebhookURL:       v.GetString("notify_webhook_url"),
		ReconciliationInterval: reconciliationInterval,
		SessionTTL:             sessionTTL,
		PublicRateLimitRPS:     max(v.GetInt("public_rate_limit_rps"), 1),
		AuthRateLimitRPS:       max(v.GetInt("auth_rate_limit_rps"), 1),
		LogLevel:               v.GetString("log_level"),
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if strings.TrimSpace(cfg.JWTIssuer) == "" {
		return nil, fmt.Errorf("JWT_ISSUER is required")
	}
	if strings.TrimSpace(cfg.JWTAudience) == "" {
		return nil, fmt.Errorf("JWT_AUDIENCE is required")
	}
	if cfg.DatabaseURL == "" && strings.TrimSpace(cfg.DataDir) == "" {
		return nil, fmt.Errorf("DATA_DIR is required when DATABASE_URL is unset")
	}

	return cfg, nil
}

// parseAdminIDs parses a comma-separated list of chat user ids.
func parseAdminIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func bindEnv(v *viper.Viper, key string, names ...string) {
	args := append([]string{key}, names...)
	_ = v.BindEnv(args...)
}
