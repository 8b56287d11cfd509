package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LogConfig holds logger settings.
type LogConfig struct {
	Level     string
	Format    string
	Component string
	Source    bool
}

// DefaultDigestKey is the digest key used when CRUSH_DIGEST_KEY is unset.
// It is public, so Validate refuses it outside development.
const DefaultDigestKey = "development-digest-key"

type Config struct {
	App struct {
		ENV string
	}

	Log LogConfig

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		Path     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	// Crush holds matching and quota settings.
	Crush struct {
		DefaultAllowance int
		Slots            int
		DigestKey        string
		AllowedDomains   []string
		Timezone         string
	}

	Mail struct {
		Driver   string
		Host     string
		Port     string
		Username string
		Password string
		From     string
		SiteName string
		SiteURL  string
	}

	Metrics struct {
		Addr string
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "grpc_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.Path = getEnvDefault("DB_SQLITE_PATH", "crush.db")
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "crush")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Crush
	cfg.Crush.DefaultAllowance = getEnvInt("CRUSH_DEFAULT_ALLOWANCE", 5)
	cfg.Crush.Slots = getEnvInt("CRUSH_SLOTS", cfg.Crush.DefaultAllowance)
	cfg.Crush.DigestKey = getEnvDefault("CRUSH_DIGEST_KEY", DefaultDigestKey)
	cfg.Crush.AllowedDomains = splitList(os.Getenv("CRUSH_ALLOWED_DOMAINS"))
	cfg.Crush.Timezone = getEnvDefault("CRUSH_TIMEZONE", "UTC")

	// Mail
	cfg.Mail.Driver = strings.ToLower(getEnvDefault("MAIL_DRIVER", "log"))
	cfg.Mail.Host = getEnvDefault("SMTP_HOST", "localhost")
	cfg.Mail.Port = getEnvDefault("SMTP_PORT", "25")
	cfg.Mail.Username = getEnvDefault("SMTP_USERNAME", "")
	cfg.Mail.Password = getEnvDefault("SMTP_PASSWORD", "")
	cfg.Mail.From = getEnvDefault("MAIL_FROM", "crush@localhost")
	cfg.Mail.SiteName = getEnvDefault("SITE_NAME", "Crush Connector")
	cfg.Mail.SiteURL = getEnvDefault("SITE_URL", "http://localhost:8080")

	// Metrics
	cfg.Metrics.Addr = getEnvDefault("METRICS_ADDR", ":9090")

	return cfg
}

// Validate rejects settings the service must not start with.
func (c *Config) Validate() error {
	if c.App.ENV != "development" && c.Crush.DigestKey == DefaultDigestKey {
		return fmt.Errorf("CRUSH_DIGEST_KEY must be set when APP_ENV=%s", c.App.ENV)
	}
	if _, err := time.LoadLocation(c.Crush.Timezone); err != nil {
		return fmt.Errorf("invalid CRUSH_TIMEZONE %q: %w", c.Crush.Timezone, err)
	}
	return nil
}

// Location resolves the configured crush time zone. An unknown zone falls
// back to UTC; Validate reports it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Crush.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
