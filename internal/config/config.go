// Package config loads pulse-mapper settings from defaults, an optional
// config file and PULSEMAP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (PULSEMAP_LOG_LEVEL, ...).
const EnvPrefix = "PULSEMAP"

// Output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ErrInvalidConfig is returned when a loaded setting has an unsupported value.
var ErrInvalidConfig = errors.New("invalid configuration")

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	Output OutputConfig `mapstructure:"output"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// StoreConfig selects the template store backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or file
	DSN    string `mapstructure:"dsn"`
	Dir    string `mapstructure:"dir"`
}

// Location returns the DSN or directory the configured driver opens.
func (c StoreConfig) Location() string {
	if c.Driver == "file" {
		return c.Dir
	}

	return c.DSN
}

// OutputConfig holds CLI output settings.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// Load loads configuration from file and environment. An empty path uses
// defaults and environment only; a missing explicit file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "./pulse-mapper.db")
	v.SetDefault("store.dir", "./templates")
	v.SetDefault("output.format", FormatText)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format %q (want console or json)", ErrInvalidConfig, c.Log.Format)
	}

	switch c.Store.Driver {
	case "sqlite", "file":
	default:
		return fmt.Errorf("%w: store.driver %q (want sqlite or file)", ErrInvalidConfig, c.Store.Driver)
	}

	if err := ValidateFormat(c.Output.Format); err != nil {
		return err
	}

	return nil
}

// ValidateFormat checks an output format name.
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("%w: output format %q (want text, yaml or json)", ErrInvalidConfig, format)
	}
}
