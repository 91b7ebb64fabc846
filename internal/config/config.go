// Package config provides configuration loading for coachd.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables, with hardcoded defaults applied last for anything unset.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/coachd/internal/logging"
)

// Config holds the complete coachd configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Registry RegistryConfig `koanf:"registry"`
	LLM      LLMConfig      `koanf:"llm"`
	Session  SessionConfig  `koanf:"session"`
	Logging  logging.Config `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	HTTPPort        int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// BasePath is the directory for the file-backed store.
	// Empty selects the default under the user config dir.
	BasePath string `koanf:"base_path"`

	// Bucketed stores session documents under day-stamped subdirectories.
	Bucketed bool `koanf:"bucketed"`
}

// RegistryConfig holds session registry configuration.
type RegistryConfig struct {
	// CleanupAfter is the inactivity threshold for the cleanup sweep.
	CleanupAfter time.Duration `koanf:"cleanup_after"`

	// CleanupSchedule is the cron expression for the periodic sweep.
	CleanupSchedule string `koanf:"cleanup_schedule"`

	// ResolveMaxRetries bounds correlation lookups before giving up.
	ResolveMaxRetries int `koanf:"resolve_max_retries"`
}

// LLMConfig holds text-generation collaborator configuration.
type LLMConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  Secret        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

// SessionConfig holds per-session lifecycle tuning.
type SessionConfig struct {
	// AutoSaveDelay debounces notebook persistence after a mutation.
	AutoSaveDelay time.Duration `koanf:"auto_save_delay"`

	// MaxLength is the maximum voice-session duration before timeout.
	MaxLength time.Duration `koanf:"max_length"`

	// KeepAliveMarks are elapsed-minute marks at which keep-alives fire,
	// chosen just before known provider idle-timeout thresholds.
	KeepAliveMarks []int `koanf:"keep_alive_marks"`

	// WarningMarks are elapsed-minute marks at which warnings fire.
	WarningMarks []int `koanf:"warning_marks"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.HTTPPort)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Registry.CleanupAfter <= 0 {
		return errors.New("registry cleanup_after must be positive")
	}
	if c.Registry.ResolveMaxRetries < 0 {
		return errors.New("registry resolve_max_retries must not be negative")
	}
	if c.Session.MaxLength <= 0 {
		return errors.New("session max_length must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
