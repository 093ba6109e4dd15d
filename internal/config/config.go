package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading API.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseDriver     string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	EventChannel       string
	JWTSecret          string
	ProgressCacheTTL   time.Duration
	AttemptRateLimit   int
	AttemptRateWindow  time.Duration
	RegradeConcurrency int
	CORSAllowOrigins   []string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Grading API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("events.channel", "gema:grading")
	v.SetDefault("progress.cache_ttl", "5m")
	v.SetDefault("attempts.rate_limit", 30)
	v.SetDefault("attempts.rate_window", "1m")
	v.SetDefault("regrade.concurrency", 8)
	v.SetDefault("cors.allow_origins", "*")

	ttl, err := parseDuration(v.GetString("progress.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("attempts.rate_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid attempt rate window: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseDriver:     strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		EventChannel:       v.GetString("events.channel"),
		JWTSecret:          v.GetString("jwt.secret"),
		ProgressCacheTTL:   ttl,
		AttemptRateLimit:   v.GetInt("attempts.rate_limit"),
		AttemptRateWindow:  window,
		RegradeConcurrency: v.GetInt("regrade.concurrency"),
		CORSAllowOrigins:   splitList(v.GetString("cors.allow_origins")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.AttemptRateLimit <= 0 {
		cfg.AttemptRateLimit = 30
	}

	if cfg.RegradeConcurrency <= 0 {
		cfg.RegradeConcurrency = 8
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
