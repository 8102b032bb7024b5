package config

import (
	"errors"
	"time"
)

// EnvironmentProduction hides internal error details from HTTP responses.
const EnvironmentProduction = "production"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	Environment       string        `mapstructure:"environment" yaml:"environment"`

	DatabasePath   string `mapstructure:"database_path" yaml:"database_path"`
	UploadDir      string `mapstructure:"upload_dir" yaml:"upload_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`

	SessionSecret string        `mapstructure:"session_secret" yaml:"session_secret"`
	SessionCookie string        `mapstructure:"session_cookie" yaml:"session_cookie"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`

	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	WhisperRateLimit  int           `mapstructure:"whisper_rate_limit" yaml:"whisper_rate_limit"`
	RoomDeleteTimeout time.Duration `mapstructure:"room_delete_timeout" yaml:"room_delete_timeout"`
	WSOriginPatterns  []string      `mapstructure:"ws_origin_patterns" yaml:"ws_origin_patterns"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8005",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		Environment:       "development",
		DatabasePath:      "gifchat.db",
		UploadDir:         "uploads",
		MaxUploadBytes:    5 << 20,
		SessionSecret:     "change-me",
		SessionCookie:     "gifchat_session",
		SessionTTL:        24 * time.Hour,
		MaxMessageBytes:   64 << 10,
		WhisperRateLimit:  60,
		RoomDeleteTimeout: 10 * time.Second,
	}
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Validate checks values that would make the server unusable.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.SessionSecret == "" {
		return errors.New("session_secret must not be empty")
	}
	if c.IsProduction() && c.SessionSecret == Default().SessionSecret {
		return errors.New("session_secret must be changed in production")
	}
	if c.SessionCookie == "" {
		return errors.New("session_cookie must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if c.WhisperRateLimit < 0 {
		return errors.New("whisper_rate_limit must not be negative, use 0 to disable")
	}
	if c.RoomDeleteTimeout < 0 {
		return errors.New("room_delete_timeout must not be negative, use 0 for no timeout")
	}
	return nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Environment != "" {
		c.Environment = other.Environment
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.UploadDir != "" {
		c.UploadDir = other.UploadDir
	}
}
