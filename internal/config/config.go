package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"data-pipeline/internal/cleaner"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where LoadConfig looks when no path is given
const DefaultPath = "configs/config.yml"

// EnvPath overrides DefaultPath
const EnvPath = "PROCESS_DATA_CONFIG"

// Config holds application configuration
type Config struct {
	// Table that receives the cleaned dataset
	TableName string `yaml:"table_name"`

	Cleaning CleaningConfig `yaml:"cleaning"`

	Logging struct {
		Level  string `yaml:"level"`  // debug, info, warn, error
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"logging"`
}

// CleaningConfig configures how the category column is reshaped
type CleaningConfig struct {
	CategoryColumn string `yaml:"category_column"`
	Delimiter      string `yaml:"delimiter"`
	SentinelColumn string `yaml:"sentinel_column"`
	// nil means the default; 0 is a valid sentinel
	SentinelValue *int64 `yaml:"sentinel_value"`
}

// CleanerOptions converts the cleaning section into cleaner options
func (c *Config) CleanerOptions() cleaner.Options {
	opts := cleaner.Options{
		CategoryColumn: c.Cleaning.CategoryColumn,
		Delimiter:      c.Cleaning.Delimiter,
		SentinelColumn: c.Cleaning.SentinelColumn,
		SentinelValue:  cleaner.DefaultOptions().SentinelValue,
	}
	if c.Cleaning.SentinelValue != nil {
		opts.SentinelValue = *c.Cleaning.SentinelValue
	}
	return opts
}

// Default returns a configuration with every default applied
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

// Resolve loads the file named by PROCESS_DATA_CONFIG, or configs/config.yml
// when it exists, or falls back to defaults.
func Resolve() (*Config, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return LoadConfig(os.ExpandEnv(p))
	}
	if _, err := os.Stat(DefaultPath); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return LoadConfig(DefaultPath)
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	defaults := cleaner.DefaultOptions()

	if c.TableName == "" {
		c.TableName = "Messages"
	}

	if c.Cleaning.CategoryColumn == "" {
		c.Cleaning.CategoryColumn = defaults.CategoryColumn
	}

	if c.Cleaning.Delimiter == "" {
		c.Cleaning.Delimiter = defaults.Delimiter
	}

	if c.Cleaning.SentinelColumn == "" {
		c.Cleaning.SentinelColumn = defaults.SentinelColumn
	}

	if c.Cleaning.SentinelValue == nil {
		v := defaults.SentinelValue
		c.Cleaning.SentinelValue = &v
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}
