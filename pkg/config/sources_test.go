package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mimic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileSourceLoad(t *testing.T) {
	t.Run("Overrides defaults from YAML", func(t *testing.T) {
		path := writeTempConfig(t, `
evolution:
  convergence_threshold: 0.8
  drift_window: 7
cache:
  shards: 4
`)

		cfg := GetDefaultConfig()
		source := NewFileSource()
		require.NoError(t, source.Load(cfg, []string{path}))

		assert.Equal(t, 0.8, cfg.Evolution.ConvergenceThreshold)
		assert.Equal(t, 7, cfg.Evolution.DriftWindow)
		assert.Equal(t, 4, cfg.Cache.Shards)
		// Untouched sections keep their defaults
		assert.Equal(t, 16, cfg.Analysis.MinSampleLength)
	})

	t.Run("Missing files are skipped", func(t *testing.T) {
		cfg := GetDefaultConfig()
		source := NewFileSource()
		assert.NoError(t, source.Load(cfg, []string{"/nonexistent/mimic.yaml"}))
		assert.Equal(t, 0.9, cfg.Evolution.ConvergenceThreshold)
	})

	t.Run("Invalid YAML returns error", func(t *testing.T) {
		path := writeTempConfig(t, "evolution: [not a mapping")

		cfg := GetDefaultConfig()
		source := NewFileSource()
		err := source.Load(cfg, []string{path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse YAML")
	})
}

func TestEnvironmentSourceLoad(t *testing.T) {
	t.Run("Overrides from prefixed variables", func(t *testing.T) {
		t.Setenv("MIMIC_EVOLUTION_CONVERGENCE_THRESHOLD", "0.95")
		t.Setenv("MIMIC_CACHE_SHARDS", "8")
		t.Setenv("MIMIC_STORAGE_BACKEND", "sqlite")

		cfg := GetDefaultConfig()
		source := NewEnvironmentSource()
		require.NoError(t, source.Load(cfg, nil))

		assert.Equal(t, 0.95, cfg.Evolution.ConvergenceThreshold)
		assert.Equal(t, 8, cfg.Cache.Shards)
		assert.Equal(t, "sqlite", cfg.Storage.Backend)
	})

	t.Run("Unset variables leave config untouched", func(t *testing.T) {
		cfg := GetDefaultConfig()
		source := NewEnvironmentSource()
		require.NoError(t, source.Load(cfg, nil))
		assert.Equal(t, 0.9, cfg.Evolution.ConvergenceThreshold)
	})

	t.Run("Custom prefix", func(t *testing.T) {
		t.Setenv("ENGINE_EVOLUTION_MAX_ITERATIONS", "25")

		cfg := GetDefaultConfig()
		source := NewEnvironmentSourceWithPrefix("ENGINE_")
		require.NoError(t, source.Load(cfg, nil))
		assert.Equal(t, 25, cfg.Evolution.MaxIterations)
	})
}

func TestSourcePriorityOrdering(t *testing.T) {
	env := NewEnvironmentSource()
	file := NewFileSource()

	sorted := sortSourcesByPriority([]Source{env, file})
	require.Len(t, sorted, 2)
	assert.Equal(t, "file", sorted[0].Name())
	assert.Equal(t, "environment", sorted[1].Name())
	assert.Less(t, sorted[0].Priority(), sorted[1].Priority())
}
