package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath    = "config.yaml"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	googleJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// Config is the process configuration. YAML keys mirror the env names in camelCase.
type Config struct {
	Port        string `yaml:"port"`
	StoreDriver string `yaml:"storeDriver"`
	DatabaseURL string `yaml:"databaseURL"`
	CORSOrigin  string `yaml:"corsOrigin"`
	LogLevel    string `yaml:"logLevel"`
	BrandName   string `yaml:"brandName"`
	AdminEmail  string `yaml:"adminEmail"`

	SMTPHost   string `yaml:"smtpHost"`
	SMTPPort   int    `yaml:"smtpPort"`
	SMTPSecure bool   `yaml:"smtpSecure"`
	SMTPUser   string `yaml:"smtpUser"`
	SMTPPass   string `yaml:"smtpPass"`

	FirebaseProjectID string `yaml:"firebaseProjectID"`
	AuthJWKSURL       string `yaml:"authJWKSURL"`
	AuthIssuer        string `yaml:"authIssuer"`
	AuthAudience      string `yaml:"authAudience"`

	RedisAddr          string `yaml:"redisAddr"`
	RedisPassword      string `yaml:"redisPassword"`
	RateLimitPerMinute int    `yaml:"rateLimitPerMinute"`
}

// Load reads .env, then the optional YAML file at path, then environment overrides.
// A missing YAML file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	}
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("STORE_DRIVER", &cfg.StoreDriver)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("CORS_ORIGIN", &cfg.CORSOrigin)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("BRAND_NAME", &cfg.BrandName)
	str("ADMIN_EMAIL", &cfg.AdminEmail)
	str("SMTP_HOST", &cfg.SMTPHost)
	str("SMTP_USER", &cfg.SMTPUser)
	str("FIREBASE_PROJECT_ID", &cfg.FirebaseProjectID)
	str("AUTH_JWKS_URL", &cfg.AuthJWKSURL)
	str("AUTH_ISSUER", &cfg.AuthIssuer)
	str("AUTH_AUDIENCE", &cfg.AuthAudience)
	str("REDIS_ADDR", &cfg.RedisAddr)
	// passwords keep surrounding whitespace
	if v := os.Getenv("SMTP_PASS"); v != "" {
		cfg.SMTPPass = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}

	if v := strings.TrimSpace(os.Getenv("SMTP_PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid SMTP_PORT %q", v)
		}
		cfg.SMTPPort = n
	}
	if v := strings.TrimSpace(os.Getenv("SMTP_SECURE")); v != "" {
		cfg.SMTPSecure = v == "true"
	}
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_PER_MINUTE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid RATE_LIMIT_PER_MINUTE %q", v)
		}
		cfg.RateLimitPerMinute = n
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = "3001"
	}
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = DriverPostgres
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "http://localhost:3000"
	}
	if cfg.BrandName == "" {
		cfg.BrandName = "Purity Home Care"
	}
	if cfg.SMTPHost == "" {
		cfg.SMTPHost = "smtp.gmail.com"
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.AuthJWKSURL == "" {
		cfg.AuthJWKSURL = googleJWKSURL
	}
	if cfg.FirebaseProjectID != "" {
		if cfg.AuthIssuer == "" {
			cfg.AuthIssuer = "https://securetoken.google.com/" + cfg.FirebaseProjectID
		}
		if cfg.AuthAudience == "" {
			cfg.AuthAudience = cfg.FirebaseProjectID
		}
	}
	if cfg.RateLimitPerMinute == 0 {
		cfg.RateLimitPerMinute = 30
	}
}

func validate(cfg Config) error {
	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown store driver %q", cfg.StoreDriver)
	}
	if cfg.AuthIssuer == "" || cfg.AuthAudience == "" {
		return errors.New("config: FIREBASE_PROJECT_ID or AUTH_ISSUER/AUTH_AUDIENCE is required")
	}
	if cfg.RateLimitPerMinute < 0 {
		return errors.New("config: RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}
