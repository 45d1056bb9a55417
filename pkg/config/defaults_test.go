package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NotNil(t, cfg)

	t.Run("Defaults validate cleanly", func(t *testing.T) {
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Analysis defaults", func(t *testing.T) {
		assert.Equal(t, 16, cfg.Analysis.MinSampleLength)
		assert.Equal(t, 0.15, cfg.Analysis.RetentionThreshold)
		assert.True(t, cfg.Analysis.NormalizeUnicode)
	})

	t.Run("Evolution defaults", func(t *testing.T) {
		assert.Equal(t, 0.9, cfg.Evolution.ConvergenceThreshold)
		assert.Equal(t, 0.05, cfg.Evolution.Hysteresis)
		assert.Equal(t, 5, cfg.Evolution.DriftWindow)
		assert.Equal(t, 64, cfg.Evolution.HistorySize)
		assert.Equal(t, 0.3, cfg.Evolution.LearningRate)
		assert.Equal(t, 0.2, cfg.Evolution.MaxStep)
		assert.Equal(t, 0.6, cfg.Evolution.SimilarityPatternWeight)
		assert.Equal(t, 0.4, cfg.Evolution.SimilarityHedgingWeight)
	})

	t.Run("Cache defaults", func(t *testing.T) {
		assert.Equal(t, 16, cfg.Cache.Shards)
		assert.Equal(t, 1000, cfg.Cache.Capacity)
	})

	t.Run("Storage defaults", func(t *testing.T) {
		assert.Equal(t, "file", cfg.Storage.Backend)
		assert.NotEmpty(t, cfg.Storage.Path)
		assert.Equal(t, "mimic:persona:", cfg.Storage.Redis.KeyPrefix)
	})

	t.Run("Logging defaults", func(t *testing.T) {
		assert.Equal(t, "INFO", cfg.Logging.Level)
		require.Len(t, cfg.Logging.Outputs, 1)
		assert.Equal(t, "console", cfg.Logging.Outputs[0].Type)
	})
}
