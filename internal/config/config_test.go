package config

import (
	"os"
	"path/filepath"
	"testing"
)

var envKeys = []string{
	"CONFIG_PATH", "PORT", "STORE_DRIVER", "DATABASE_URL", "CORS_ORIGIN", "LOG_LEVEL",
	"BRAND_NAME", "ADMIN_EMAIL", "SMTP_HOST", "SMTP_PORT", "SMTP_SECURE", "SMTP_USER",
	"SMTP_PASS", "FIREBASE_PROJECT_ID", "AUTH_JWKS_URL", "AUTH_ISSUER", "AUTH_AUDIENCE",
	"REDIS_ADDR", "REDIS_PASSWORD", "RATE_LIMIT_PER_MINUTE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("FIREBASE_PROJECT_ID", "care-app")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "3001" || cfg.StoreDriver != DriverPostgres || cfg.SMTPPort != 587 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AuthIssuer != "https://securetoken.google.com/care-app" || cfg.AuthAudience != "care-app" {
		t.Fatalf("issuer/audience not derived: %q %q", cfg.AuthIssuer, cfg.AuthAudience)
	}
	if cfg.AuthJWKSURL != googleJWKSURL {
		t.Fatalf("unexpected jwks url %q", cfg.AuthJWKSURL)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
port: "4000"
storeDriver: memory
authIssuer: issuer-a
authAudience: aud-a
adminEmail: yaml@example.com
rateLimitPerMinute: 5
`)
	t.Setenv("ADMIN_EMAIL", "env@example.com")
	t.Setenv("SMTP_SECURE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "4000" || cfg.StoreDriver != DriverMemory || cfg.RateLimitPerMinute != 5 {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
	if cfg.AdminEmail != "env@example.com" {
		t.Fatalf("env should override yaml, got %q", cfg.AdminEmail)
	}
	if !cfg.SMTPSecure {
		t.Fatalf("expected SMTP_SECURE to be parsed")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "postgres without database url", env: map[string]string{"FIREBASE_PROJECT_ID": "p"}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "mongo", "FIREBASE_PROJECT_ID": "p"}},
		{name: "missing auth audience", env: map[string]string{"STORE_DRIVER": "memory"}},
		{name: "bad smtp port", env: map[string]string{"STORE_DRIVER": "memory", "FIREBASE_PROJECT_ID": "p", "SMTP_PORT": "abc"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, "port: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
