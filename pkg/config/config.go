package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/wwdelhi/congestion/pkg/models"
)

// EnvPrefix is prepended to every environment variable the config reads
const EnvPrefix = "CONGESTION_"

// Config holds the application configuration
type Config struct {
	DataPath      string                `yaml:"data_path" env:"DATA_PATH"`
	LogLevel      string                `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat     string                `yaml:"log_format" env:"LOG_FORMAT"`
	Training      models.TrainingConfig `yaml:"training" envPrefix:"TRAINING_"`
	Consolidation ConsolidationConfig   `yaml:"consolidation" envPrefix:"CONSOLIDATION_"`
	Ordinal       OrdinalConfig         `yaml:"ordinal" envPrefix:"ORDINAL_"`
}

// ConsolidationConfig controls how rare categorical values are collapsed
type ConsolidationConfig struct {
	Threshold int      `yaml:"threshold" env:"THRESHOLD"`
	Other     string   `yaml:"other" env:"OTHER"`
	Columns   []string `yaml:"columns" env:"COLUMNS" envSeparator:","`
}

// OrdinalConfig holds settings for the ordered logit fit
type OrdinalConfig struct {
	MaxIterations int `yaml:"max_iterations" env:"MAX_ITERATIONS"`
}

// Default returns the configuration used when no file or environment is set
func Default() *Config {
	return &Config{
		DataPath:  "wwdelhi_traffic.csv",
		LogLevel:  "info",
		LogFormat: "text",
		Training:  *models.DefaultTrainingConfig(),
		Consolidation: ConsolidationConfig{
			Threshold: 5,
			Other:     "Other",
			Columns:   []string{models.ColumnWeather},
		},
		Ordinal: OrdinalConfig{
			MaxIterations: 1000,
		},
	}
}

// LoadConfig loads defaults, then the optional YAML file at path, then
// environment variables, and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required configuration
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return errors.New("data_path is required")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if c.Consolidation.Threshold < 0 {
		return fmt.Errorf("consolidation threshold must not be negative, got %d", c.Consolidation.Threshold)
	}
	if c.Consolidation.Other == "" {
		return errors.New("consolidation other label is required")
	}
	known := make(map[string]bool, len(models.CategoricalFeatures))
	for _, col := range models.CategoricalFeatures {
		known[col] = true
	}
	for _, col := range c.Consolidation.Columns {
		if !known[col] {
			return fmt.Errorf("consolidation column %q is not a categorical feature", col)
		}
	}
	if c.Ordinal.MaxIterations <= 0 {
		return fmt.Errorf("ordinal max_iterations must be positive, got %d", c.Ordinal.MaxIterations)
	}
	return nil
}
