// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Log        LogConfig         `yaml:"log"`
	Queue      QueueConfig       `yaml:"queue"`
	Playback   PlaybackConfig    `yaml:"playback"`
	Extractors []ExtractorConfig `yaml:"extractors" validate:"dive"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Output string `yaml:"output" default:"stderr" validate:"omitempty,oneof=stdout stderr file"`
	Level  string `yaml:"level" default:"info" validate:"omitempty,oneof=debug info warn warning error"`
	File   string `yaml:"file" validate:"required_if=Output file"`
}

// QueueConfig represents queue configuration.
type QueueConfig struct {
	Storage   string `yaml:"storage" default:"memory" validate:"required"`
	DefaultID string `yaml:"default_id" default:"default"`
}

// PlaybackConfig represents player configuration.
type PlaybackConfig struct {
	BufferSize  int           `yaml:"buffer_size" default:"32768" validate:"gte=512"`
	EventBuffer int           `yaml:"event_buffer" default:"16" validate:"gte=1"`
	StopTimeout time.Duration `yaml:"stop_timeout" default:"1s" validate:"gte=0"`
}

// ExtractorConfig represents a single extractor plugin configuration.
type ExtractorConfig struct {
	Type     string         `yaml:"type" validate:"required"`
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	Priority int            `yaml:"priority"`
	Settings map[string]any `yaml:"settings"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied and no extractors.
func Default() *Config {
	var cfg Config
	cfg.overrideFromEnv()
	// Defaults on a zero Config cannot fail.
	_ = defaults.Set(&cfg)
	return &cfg
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("MEDIAQ_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MEDIAQ_STORAGE"); v != "" {
		c.Queue.Storage = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	seen := make(map[string]int, len(c.Extractors))
	for i, e := range c.Extractors {
		if e.ID == "" {
			continue
		}
		if j, ok := seen[e.ID]; ok {
			return errors.Newf("extractor id %q is used by entries %d and %d", e.ID, j, i)
		}
		seen[e.ID] = i
	}
	return nil
}
