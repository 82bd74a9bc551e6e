package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:             "8081",
		SQLiteDBPath:     "./data/labbudget.db",
		JWTSecret:        "a-long-enough-test-secret",
		AuthUser:         "lab",
		AuthPasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		TokenExpiry:      24 * time.Hour,
		AMQPExchange:     "labbudget",
		AMQPQueue:        "document_saved",
		AutosaveDelay:    2 * time.Second,
		DataBackend:      "memory",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"non-numeric port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }, "at least 16"},
		{"missing user", func(c *Config) { c.AuthUser = "" }, "AUTH_USER"},
		{"missing password hash", func(c *Config) { c.AuthPasswordHash = "" }, "AUTH_PASSWORD_HASH"},
		{"tiny token expiry", func(c *Config) { c.TokenExpiry = time.Second }, "token expiry"},
		{"unknown backend", func(c *Config) { c.DataBackend = "postgres" }, "invalid data backend"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "AMQP URL scheme"},
		{"amqp without queue", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPQueue = "" }, "queue name"},
		{"autosave too fast", func(c *Config) { c.AutosaveDelay = time.Millisecond }, "autosave delay"},
		{"autosave too slow", func(c *Config) { c.AutosaveDelay = time.Hour }, "autosave delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8081" {
		t.Errorf("Port = %q, want 8081", cfg.Port)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %q, want sqlite", cfg.DataBackend)
	}
	if cfg.AutosaveDelay != 2*time.Second {
		t.Errorf("AutosaveDelay = %v, want 2s", cfg.AutosaveDelay)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_EXPIRY", "1h")
	t.Setenv("DATA_BACKEND", "memory")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.TokenExpiry != time.Hour {
		t.Errorf("TokenExpiry = %v, want 1h", cfg.TokenExpiry)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %q, want memory", cfg.DataBackend)
	}
}
