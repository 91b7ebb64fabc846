package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/coachd/internal/logging"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Load loads configuration from the YAML file at configPath, then overrides
// with environment variables, then applies defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SERVER_HTTP_PORT, LLM_API_KEY, ...)
//  2. YAML config file (~/.config/coachd/config.yaml by default)
//  3. Hardcoded defaults
//
// Environment variables map to config keys by splitting on the first
// underscore: SERVER_HTTP_PORT -> server.http_port, LLM_BASE_URL ->
// llm.base_url.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "coachd", "config.yaml")
	}

	if info, err := os.Stat(configPath); err == nil {
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Override with environment variables. Split on the first underscore
	// only (section.field_name pattern); field names keep their
	// underscores.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// EnsureConfigDir creates the coachd config directory if it doesn't exist.
func EnsureConfigDir() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	configDir := filepath.Join(home, ".config", "coachd")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8700
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Storage.BasePath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Storage.BasePath = filepath.Join(home, ".config", "coachd", "sessions")
		}
	}

	if cfg.Registry.CleanupAfter == 0 {
		cfg.Registry.CleanupAfter = 60 * time.Minute
	}
	if cfg.Registry.CleanupSchedule == "" {
		cfg.Registry.CleanupSchedule = "@hourly"
	}
	if cfg.Registry.ResolveMaxRetries == 0 {
		cfg.Registry.ResolveMaxRetries = 3
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.anthropic.com"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "claude-3-5-haiku-latest"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}

	if cfg.Session.AutoSaveDelay == 0 {
		cfg.Session.AutoSaveDelay = 2 * time.Second
	}
	if cfg.Session.MaxLength == 0 {
		cfg.Session.MaxLength = 30 * time.Minute
	}
	if len(cfg.Session.KeepAliveMarks) == 0 {
		// Just shy of provider idle timeouts at 5-minute intervals.
		cfg.Session.KeepAliveMarks = []int{4, 9, 14, 19, 24}
	}
	if len(cfg.Session.WarningMarks) == 0 {
		cfg.Session.WarningMarks = []int{25, 28}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = logging.FormatJSON
	}
}
