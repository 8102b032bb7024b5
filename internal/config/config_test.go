package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %s, want %s", resolved, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}
	def := Default()
	if cfg.Addr != def.Addr || cfg.RoomDeleteTimeout != def.RoomDeleteTimeout || cfg.MaxUploadBytes != def.MaxUploadBytes {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("addr: \":9000\"\nlog_level: debug\nroom_delete_timeout: 3s\nws_origin_patterns:\n  - example.com\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GIFCHAT_LOG_LEVEL", "warn")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("addr = %s, want :9000", cfg.Addr)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %s, want env override warn", cfg.LogLevel)
	}
	if cfg.RoomDeleteTimeout != 3*time.Second {
		t.Errorf("room_delete_timeout = %v, want 3s", cfg.RoomDeleteTimeout)
	}
	if len(cfg.WSOriginPatterns) != 1 || cfg.WSOriginPatterns[0] != "example.com" {
		t.Errorf("ws_origin_patterns = %v", cfg.WSOriginPatterns)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "zero upload limit", content: "max_upload_bytes: 0\n"},
		{name: "negative whisper limit", content: "whisper_rate_limit: -1\n"},
		{name: "default secret in production", content: "log_level: info\n", env: map[string]string{"GIFCHAT_ENVIRONMENT": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, _, err := Load(nil, path); err == nil {
				t.Fatalf("expected Load to reject %s", tt.name)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	cfg.Environment = EnvironmentProduction
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected default secret to be rejected in production")
	}

	cfg = Default()
	cfg.MaxUploadBytes = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected zero max_upload_bytes to be rejected")
	}

	cfg = Default()
	cfg.WhisperRateLimit = 0
	cfg.RoomDeleteTimeout = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero whisper limit and delete timeout disable them: %v", err)
	}
	cfg.RoomDeleteTimeout = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected negative room_delete_timeout to be rejected")
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1234", LogLevel: "debug"})

	if cfg.Addr != ":1234" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.DatabasePath != Default().DatabasePath {
		t.Fatalf("zero values must not overwrite: %+v", cfg)
	}
}
