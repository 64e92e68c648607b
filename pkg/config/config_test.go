package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwdelhi/congestion/pkg/models"
)

// TestLoadConfigDefaults tests default values
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "wwdelhi_traffic.csv", cfg.DataPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 0.2, cfg.Training.TestSize)
	assert.Equal(t, int64(42), cfg.Training.RandomSeed)
	assert.Equal(t, 1000, cfg.Training.MaxIterations)
	assert.Equal(t, 5, cfg.Training.CVFolds)
	assert.Equal(t, 0.10, cfg.Training.OverfitThreshold)
	assert.Equal(t, 5, cfg.Consolidation.Threshold)
	assert.Equal(t, "Other", cfg.Consolidation.Other)
	assert.Equal(t, []string{models.ColumnWeather}, cfg.Consolidation.Columns)
}

// TestLoadConfigFile tests YAML overlay on top of defaults
func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "congestion.yaml")
	content := `data_path: /data/trips.csv
log_level: debug
training:
  random_seed: 7
  cv_folds: 3
consolidation:
  threshold: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/trips.csv", cfg.DataPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(7), cfg.Training.RandomSeed)
	assert.Equal(t, 3, cfg.Training.CVFolds)
	assert.Equal(t, 10, cfg.Consolidation.Threshold)
	// untouched keys keep their defaults
	assert.Equal(t, 0.2, cfg.Training.TestSize)
	assert.Equal(t, "Other", cfg.Consolidation.Other)
}

// TestLoadConfigEnvironment tests that environment variables win over the file
func TestLoadConfigEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "congestion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_path: from-file.csv\n"), 0644))

	t.Setenv("CONGESTION_DATA_PATH", "from-env.csv")
	t.Setenv("CONGESTION_LOG_FORMAT", "json")
	t.Setenv("CONGESTION_TRAINING_RANDOM_SEED", "99")
	t.Setenv("CONGESTION_CONSOLIDATION_COLUMNS", "weather_condition,road_type")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.csv", cfg.DataPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, int64(99), cfg.Training.RandomSeed)
	assert.Equal(t, []string{"weather_condition", "road_type"}, cfg.Consolidation.Columns)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data path", func(c *Config) { c.DataPath = "" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad test size", func(c *Config) { c.Training.TestSize = 0 }},
		{"negative threshold", func(c *Config) { c.Consolidation.Threshold = -1 }},
		{"empty other label", func(c *Config) { c.Consolidation.Other = "" }},
		{"unknown column", func(c *Config) { c.Consolidation.Columns = []string{"distance_km"} }},
		{"ordinal iterations", func(c *Config) { c.Ordinal.MaxIterations = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
