package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Source represents a configuration source.
type Source interface {
	// Load loads configuration from the source into the provided config
	Load(config *Config, paths []string) error

	// Name returns the name of the source
	Name() string

	// Priority returns the priority of the source (higher priority overrides lower)
	Priority() int
}

// FileSource loads configuration from YAML files.
type FileSource struct {
	priority int
}

// NewFileSource creates a new file source.
func NewFileSource() *FileSource {
	return &FileSource{priority: 100}
}

// NewFileSourceWithPriority creates a new file source with custom priority.
func NewFileSourceWithPriority(priority int) *FileSource {
	return &FileSource{priority: priority}
}

// Name returns the name of the file source.
func (fs *FileSource) Name() string {
	return "file"
}

// Priority returns the priority of the file source.
func (fs *FileSource) Priority() int {
	if fs.priority == 0 {
		return 100
	}
	return fs.priority
}

// Load loads configuration from YAML files.
func (fs *FileSource) Load(config *Config, paths []string) error {
	for _, path := range paths {
		if !fileExists(path) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Parse YAML and merge into config
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return fmt.Errorf("failed to parse YAML from %s: %w", path, err)
		}

		// Merge the file config into the main config
		if err := fs.mergeConfig(config, &fileConfig); err != nil {
			return fmt.Errorf("failed to merge config from %s: %w", path, err)
		}
	}

	return nil
}

// mergeConfig merges source config into target config.
func (fs *FileSource) mergeConfig(target, source *Config) error {
	// Use YAML marshaling for deep merge
	sourceData, err := yaml.Marshal(source)
	if err != nil {
		return fmt.Errorf("failed to marshal source config: %w", err)
	}

	// Unmarshal into target to override fields
	if err := yaml.Unmarshal(sourceData, target); err != nil {
		return fmt.Errorf("failed to unmarshal into target config: %w", err)
	}

	return nil
}

// EnvironmentSource loads configuration overrides from environment variables.
// Variable names follow the struct env tags with the configured prefix, e.g.
// MIMIC_EVOLUTION_CONVERGENCE_THRESHOLD.
type EnvironmentSource struct {
	priority int
	prefix   string
}

// DefaultEnvPrefix is the prefix applied to all engine environment variables.
const DefaultEnvPrefix = "MIMIC_"

// NewEnvironmentSource creates a new environment source.
func NewEnvironmentSource() *EnvironmentSource {
	return &EnvironmentSource{
		priority: 200, // Higher priority than file source
		prefix:   DefaultEnvPrefix,
	}
}

// NewEnvironmentSourceWithPrefix creates a new environment source with custom prefix.
func NewEnvironmentSourceWithPrefix(prefix string) *EnvironmentSource {
	return &EnvironmentSource{
		priority: 200,
		prefix:   prefix,
	}
}

// Name returns the name of the environment source.
func (es *EnvironmentSource) Name() string {
	return "environment"
}

// Priority returns the priority of the environment source.
func (es *EnvironmentSource) Priority() int {
	if es.priority == 0 {
		return 200
	}
	return es.priority
}

// Load applies environment variable overrides onto the config. Only
// variables that are actually set override; everything else is left
// as the lower-priority sources produced it.
func (es *EnvironmentSource) Load(config *Config, _ []string) error {
	prefix := es.prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	return nil
}

// sortSourcesByPriority orders sources so lower priorities load first and
// higher priorities override them.
func sortSourcesByPriority(sources []Source) []Source {
	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return sorted
}
