package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DSN       string
	JWTSecret string
	Port      string
	GRPCAddr  string

	AMQPURL         string
	EventsExchange  string
	LogsExchange    string
	ChangesExchange string
	ChangesQueue    string
	HookSecret      string

	FCMCredentialsFile string
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioFrom         string
	AppURL             string
	NotifyConcurrency  int

	CORSOrigins []string
	ServiceName string
	Environment string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := &Config{
		DSN:       os.Getenv("DB_DSN"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		Port:      getEnv("PORT", "8080"),
		GRPCAddr:  getEnv("GRPC_ADDR", ":8085"),

		AMQPURL:         os.Getenv("AMQP_URL"),
		EventsExchange:  getEnv("EVENTS_EXCHANGE", "app.events"),
		LogsExchange:    getEnv("LOGS_EXCHANGE", "logs.events"),
		ChangesExchange: getEnv("CHANGES_EXCHANGE", "db.changes"),
		ChangesQueue:    getEnv("CHANGES_QUEUE", "squad-service.changes"),
		HookSecret:      os.Getenv("HOOK_SECRET"),

		FCMCredentialsFile: os.Getenv("FCM_CREDENTIALS_FILE"),
		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:         os.Getenv("TWILIO_FROM"),
		AppURL:             getEnv("APP_URL", "http://localhost:3000"),
		NotifyConcurrency:  getEnvInt("NOTIFY_CONCURRENCY", 8),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		ServiceName: getEnv("SERVICE_NAME", "squad-service"),
		Environment: getEnv("ENVIRONMENT", "local"),
	}

	if cfg.DSN == "" || cfg.JWTSecret == "" {
		return nil, errors.New("DB_DSN and JWT_SECRET environment variables must be set")
	}
	return cfg, nil
}

// TwilioEnabled reports whether all SMS credentials are present.
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFrom != ""
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		slog.Warn("ignoring invalid integer setting", "key", key, "value", value)
		return fallback
	}
	return n
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
