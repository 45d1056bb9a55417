package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Manager handles configuration loading, validation, and management.
type Manager struct {
	config      *Config
	configPath  string
	mu          sync.RWMutex
	watchers    []ConfigWatcher
	discovery   *Discovery
	sources     []Source
	watcherDone chan struct{}
}

// ConfigWatcher is called when configuration changes.
type ConfigWatcher func(*Config) error

// NewManager creates a new configuration manager.
func NewManager(options ...ManagerOption) (*Manager, error) {
	m := &Manager{
		watchers:    make([]ConfigWatcher, 0),
		watcherDone: make(chan struct{}),
	}

	// Apply options
	for _, opt := range options {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("failed to apply manager option: %w", err)
		}
	}

	// Initialize discovery if not provided
	if m.discovery == nil {
		m.discovery = NewDiscovery()
	}

	// Initialize sources if not provided
	if len(m.sources) == 0 {
		m.sources = []Source{
			NewFileSource(),
			NewEnvironmentSource(),
		}
	}

	return m, nil
}

// ManagerOption represents an option for configuring the Manager.
type ManagerOption func(*Manager) error

// WithConfigPath sets the configuration file path.
func WithConfigPath(path string) ManagerOption {
	return func(m *Manager) error {
		m.configPath = path
		return nil
	}
}

// WithDiscovery sets the discovery mechanism.
func WithDiscovery(discovery *Discovery) ManagerOption {
	return func(m *Manager) error {
		m.discovery = discovery
		return nil
	}
}

// WithSources sets the configuration sources.
func WithSources(sources ...Source) ManagerOption {
	return func(m *Manager) error {
		m.sources = sources
		return nil
	}
}

// WithWatcher adds a configuration watcher.
func WithWatcher(watcher ConfigWatcher) ManagerOption {
	return func(m *Manager) error {
		m.watchers = append(m.watchers, watcher)
		return nil
	}
}

// Load loads the configuration from available sources.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Discover configuration files if no specific path is provided
	var configPaths []string
	if m.configPath != "" {
		configPaths = []string{m.configPath}
	} else {
		discoveredPaths, err := m.discovery.Discover()
		if err != nil {
			return fmt.Errorf("failed to discover configuration files: %w", err)
		}
		configPaths = discoveredPaths
	}

	// Load configuration from sources
	config := &Config{}

	// Start with default configuration
	if err := m.loadDefaults(config); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	// Load from each source, lowest priority first
	for _, source := range sortSourcesByPriority(m.sources) {
		if err := source.Load(config, configPaths); err != nil {
			return fmt.Errorf("failed to load from source %s: %w", source.Name(), err)
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// Store the loaded configuration
	m.config = config

	// If we have a primary config file, store its path
	if len(configPaths) > 0 {
		m.configPath = configPaths[0]
	}

	return nil
}

// loadDefaults loads default configuration values.
func (m *Manager) loadDefaults(config *Config) error {
	defaults := GetDefaultConfig()

	// Use YAML marshaling/unmarshaling to merge defaults
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to unmarshal defaults: %w", err)
	}

	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetAnalysisConfig returns the analysis configuration section.
func (m *Manager) GetAnalysisConfig() *AnalysisConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil
	}
	return &m.config.Analysis
}

// GetEvolutionConfig returns the evolution configuration section.
func (m *Manager) GetEvolutionConfig() *EvolutionConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil
	}
	return &m.config.Evolution
}

// GetCacheConfig returns the cache configuration section.
func (m *Manager) GetCacheConfig() *CacheConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil
	}
	return &m.config.Cache
}

// GetStorageConfig returns the storage configuration section.
func (m *Manager) GetStorageConfig() *StorageConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil
	}
	return &m.config.Storage
}

// GetLoggingConfig returns the logging configuration section.
func (m *Manager) GetLoggingConfig() *LoggingConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil
	}
	return &m.config.Logging
}

// GetExecutionConfig returns the execution configuration section.
func (m *Manager) GetExecutionConfig() *ExecutionConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil
	}
	return &m.config.Execution
}

// Reload reloads the configuration from sources.
func (m *Manager) Reload() error {
	if err := m.Load(); err != nil {
		return err
	}

	m.mu.RLock()
	config := m.config
	m.mu.RUnlock()

	return m.notifyWatchers(config)
}

// notifyWatchers notifies all watchers of a configuration change.
func (m *Manager) notifyWatchers(config *Config) error {
	for _, watcher := range m.watchers {
		if err := watcher(config); err != nil {
			return fmt.Errorf("watcher notification failed: %w", err)
		}
	}
	return nil
}

// Watch starts watching the configuration file for changes.
func (m *Manager) Watch() error {
	if m.configPath == "" {
		return fmt.Errorf("no configuration file to watch")
	}

	go m.watchFile()
	return nil
}

// watchFile polls the config file's modification time and reloads on change.
func (m *Manager) watchFile() {
	var lastMod time.Time

	// Get initial modification time
	if stat, err := os.Stat(m.configPath); err == nil {
		lastMod = stat.ModTime()
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if stat, err := os.Stat(m.configPath); err == nil {
				if stat.ModTime().After(lastMod) {
					lastMod = stat.ModTime()

					// Reload configuration
					if err := m.Reload(); err != nil {
						fmt.Fprintf(os.Stderr, "Failed to reload configuration: %v\n", err)
					}
				}
			}
		case <-m.watcherDone:
			return
		}
	}
}

// StopWatching stops watching for configuration changes.
func (m *Manager) StopWatching() {
	close(m.watcherDone)
}

// Save writes the current configuration to the configured path.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.configPath == "" {
		return fmt.Errorf("no configuration file path set")
	}

	return m.saveToFileLocked(m.configPath)
}

// SaveToFile writes the current configuration to the given path.
func (m *Manager) SaveToFile(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveToFileLocked(path)
}

func (m *Manager) saveToFileLocked(path string) error {
	if m.config == nil {
		return fmt.Errorf("no configuration loaded")
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	return nil
}

// Update applies an updater function to the configuration under lock,
// validating the result before it replaces the current config.
func (m *Manager) Update(updater func(*Config) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("no configuration loaded")
	}

	// Work on a copy so a failed update leaves the current config intact
	updated, err := cloneConfig(m.config)
	if err != nil {
		return err
	}

	if err := updater(updated); err != nil {
		return fmt.Errorf("config update failed: %w", err)
	}

	if err := updated.Validate(); err != nil {
		return fmt.Errorf("updated configuration invalid: %w", err)
	}

	m.config = updated
	return nil
}

// Clone returns a deep copy of the current configuration.
func (m *Manager) Clone() (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return nil, fmt.Errorf("no configuration loaded")
	}

	return cloneConfig(m.config)
}

// GetConfigPath returns the path of the loaded configuration file.
func (m *Manager) GetConfigPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

// IsLoaded reports whether a configuration has been loaded.
func (m *Manager) IsLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config != nil
}

// cloneConfig deep-copies a config through YAML round-tripping.
func cloneConfig(config *Config) (*Config, error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config for clone: %w", err)
	}

	clone := &Config{}
	if err := yaml.Unmarshal(data, clone); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config clone: %w", err)
	}

	return clone, nil
}
