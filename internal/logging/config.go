package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Format selects the log output encoding.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum enabled level (debug, info, warn, error).
	Level string `koanf:"level"`

	// Format is the output encoding: "json" or "console".
	Format string `koanf:"format"`

	// Fields are constant fields attached to every entry.
	Fields map[string]string `koanf:"fields"`
}

// NewDefaultConfig returns production defaults: info-level JSON output.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: FormatJSON,
	}
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if _, err := c.zapLevel(); err != nil {
		return err
	}
	if c.Format != FormatJSON && c.Format != FormatConsole {
		return fmt.Errorf("invalid log format %q (expected json or console)", c.Format)
	}
	return nil
}

func (c *Config) zapLevel() (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	return lvl, nil
}
