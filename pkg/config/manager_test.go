package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, yamlContent string) *Manager {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mimic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	m, err := NewManager(WithConfigPath(path))
	require.NoError(t, err)
	return m
}

func TestManagerLoadDefaults(t *testing.T) {
	// Point at a path that does not exist so only defaults apply
	m, err := NewManager(WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")))
	require.NoError(t, err)

	require.NoError(t, m.Load())
	require.True(t, m.IsLoaded())

	cfg := m.Get()
	require.NotNil(t, cfg)
	assert.Equal(t, 0.9, cfg.Evolution.ConvergenceThreshold)
	assert.Equal(t, "file", cfg.Storage.Backend)
}

func TestManagerLoadFromFile(t *testing.T) {
	m := newTestManager(t, `
evolution:
  convergence_threshold: 0.85
storage:
  backend: sqlite
  path: /tmp/personas.db
`)

	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, 0.85, cfg.Evolution.ConvergenceThreshold)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/personas.db", cfg.Storage.Path)
}

func TestManagerEnvOverridesFile(t *testing.T) {
	t.Setenv("MIMIC_EVOLUTION_CONVERGENCE_THRESHOLD", "0.95")

	m := newTestManager(t, `
evolution:
  convergence_threshold: 0.8
`)

	require.NoError(t, m.Load())
	assert.Equal(t, 0.95, m.Get().Evolution.ConvergenceThreshold)
}

func TestManagerLoadRejectsInvalidConfig(t *testing.T) {
	m := newTestManager(t, `
evolution:
  convergence_threshold: 0.5
  hysteresis: 0.6
`)

	err := m.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.False(t, m.IsLoaded())
}

func TestManagerSectionGetters(t *testing.T) {
	m, err := NewManager(WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")))
	require.NoError(t, err)

	// Before load everything is nil
	assert.Nil(t, m.GetAnalysisConfig())
	assert.Nil(t, m.GetEvolutionConfig())
	assert.Nil(t, m.GetCacheConfig())
	assert.Nil(t, m.GetStorageConfig())
	assert.Nil(t, m.GetLoggingConfig())
	assert.Nil(t, m.GetExecutionConfig())

	require.NoError(t, m.Load())

	assert.NotNil(t, m.GetAnalysisConfig())
	assert.Equal(t, 5, m.GetEvolutionConfig().DriftWindow)
	assert.Equal(t, 16, m.GetCacheConfig().Shards)
	assert.Equal(t, "file", m.GetStorageConfig().Backend)
	assert.Equal(t, "INFO", m.GetLoggingConfig().Level)
	assert.Equal(t, 4, m.GetExecutionConfig().MaxConcurrency)
}

func TestManagerUpdate(t *testing.T) {
	m, err := NewManager(WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")))
	require.NoError(t, err)
	require.NoError(t, m.Load())

	t.Run("Valid update applies", func(t *testing.T) {
		err := m.Update(func(c *Config) error {
			c.Evolution.MaxIterations = 20
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 20, m.Get().Evolution.MaxIterations)
	})

	t.Run("Invalid update leaves config intact", func(t *testing.T) {
		before := m.Get().Evolution.Hysteresis

		err := m.Update(func(c *Config) error {
			c.Evolution.Hysteresis = 0.99
			return nil
		})
		require.Error(t, err)
		assert.Equal(t, before, m.Get().Evolution.Hysteresis)
	})
}

func TestManagerSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(WithConfigPath(filepath.Join(dir, "absent.yaml")))
	require.NoError(t, err)
	require.NoError(t, m.Load())

	require.NoError(t, m.Update(func(c *Config) error {
		c.Evolution.ConvergenceThreshold = 0.88
		return nil
	}))

	saved := filepath.Join(dir, "saved.yaml")
	require.NoError(t, m.SaveToFile(saved))

	m2, err := NewManager(WithConfigPath(saved))
	require.NoError(t, err)
	require.NoError(t, m2.Load())
	assert.Equal(t, 0.88, m2.Get().Evolution.ConvergenceThreshold)
}

func TestManagerClone(t *testing.T) {
	m, err := NewManager(WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")))
	require.NoError(t, err)
	require.NoError(t, m.Load())

	clone, err := m.Clone()
	require.NoError(t, err)

	clone.Evolution.ConvergenceThreshold = 0.1
	assert.Equal(t, 0.9, m.Get().Evolution.ConvergenceThreshold)
}

func TestManagerWatcherNotification(t *testing.T) {
	notified := 0
	m := func() *Manager {
		path := filepath.Join(t.TempDir(), "mimic.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cache:\n  shards: 2\n"), 0644))

		m, err := NewManager(
			WithConfigPath(path),
			WithWatcher(func(c *Config) error {
				notified++
				return nil
			}),
		)
		require.NoError(t, err)
		return m
	}()

	require.NoError(t, m.Load())
	require.NoError(t, m.Reload())
	assert.Equal(t, 1, notified)
}
