package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DATABASE", "tourdesk")
	t.Setenv("DB_USER", "tourdesk")
	t.Setenv("AUTHZ_URL", "http://localhost:8080")
	t.Setenv("AUTHZ_CLIENT_ID", "client-1")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "3000" || cfg.DBType != "mysql" || cfg.DBHost != "localhost" || cfg.DBPort != "3306" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.DBConnectionLimit != 5 {
		t.Errorf("Expected default connection limit 5, got %d", cfg.DBConnectionLimit)
	}
	if cfg.ViewTTL != 30*time.Minute {
		t.Errorf("Expected default view TTL 30m, got %v", cfg.ViewTTL)
	}
	if cfg.NATSURL != "" {
		t.Errorf("Expected NATS disabled by default, got %q", cfg.NATSURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8088")
	t.Setenv("DB_CONNECTION_LIMIT", "20")
	t.Setenv("VIEW_TTL_MINUTES", "5")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8088" || cfg.DBConnectionLimit != 20 {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
	if cfg.ViewTTL != 5*time.Minute {
		t.Errorf("Expected 5m TTL, got %v", cfg.ViewTTL)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("NATS URL not applied: %q", cfg.NATSURL)
	}
}

func TestLoadRequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		unset string
	}{
		{"database", "DB_DATABASE"},
		{"user", "DB_USER"},
		{"authz url", "AUTHZ_URL"},
		{"authz client", "AUTHZ_CLIENT_ID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.unset, "")
			if _, err := Load(); err == nil {
				t.Errorf("Expected error with %s unset", tc.unset)
			}
		})
	}
}

func TestSqliteNeedsNoUser(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_USER", "")

	if _, err := Load(); err != nil {
		t.Errorf("sqlite should not require DB_USER, got %v", err)
	}
}

func TestInvalidIntFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_CONNECTION_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBConnectionLimit != 5 {
		t.Errorf("Expected fallback to 5, got %d", cfg.DBConnectionLimit)
	}
}
