package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Discovery handles configuration file discovery.
type Discovery struct {
	searchPaths []string
	filenames   []string
}

// NewDiscovery creates a new configuration discovery instance.
func NewDiscovery() *Discovery {
	return &Discovery{
		searchPaths: getDefaultSearchPaths(),
		filenames:   getDefaultFilenames(),
	}
}

// NewDiscoveryWithPaths creates a discovery instance with custom search paths.
func NewDiscoveryWithPaths(searchPaths []string) *Discovery {
	return &Discovery{
		searchPaths: searchPaths,
		filenames:   getDefaultFilenames(),
	}
}

// NewDiscoveryWithFilenames creates a discovery instance with custom filenames.
func NewDiscoveryWithFilenames(filenames []string) *Discovery {
	return &Discovery{
		searchPaths: getDefaultSearchPaths(),
		filenames:   filenames,
	}
}

// getDefaultSearchPaths returns the default search paths for configuration files.
func getDefaultSearchPaths() []string {
	paths := []string{
		".", // Current directory
	}

	// Add user home directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, homeDir)
		paths = append(paths, filepath.Join(homeDir, ".config", "mimic"))
		paths = append(paths, filepath.Join(homeDir, ".mimic"))
	}

	// Add system-wide configuration directories
	paths = append(paths, "/etc/mimic")
	paths = append(paths, "/usr/local/etc/mimic")

	// Add XDG config directories
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		paths = append(paths, filepath.Join(xdgConfigHome, "mimic"))
	}

	if xdgConfigDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgConfigDirs != "" {
		for _, dir := range strings.Split(xdgConfigDirs, ":") {
			if dir != "" {
				paths = append(paths, filepath.Join(dir, "mimic"))
			}
		}
	}

	// Add application-specific paths
	if appDir := os.Getenv("MIMIC_CONFIG_DIR"); appDir != "" {
		paths = append(paths, appDir)
	}

	// Add current working directory subdirectories
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, "config"))
		paths = append(paths, filepath.Join(cwd, "configs"))
		paths = append(paths, filepath.Join(cwd, ".config"))
	}

	return paths
}

// getDefaultFilenames returns the default configuration filenames to search for.
func getDefaultFilenames() []string {
	return []string{
		"mimic.yaml",
		"mimic.yml",
		"config.yaml",
		"config.yml",
		".mimic.yaml",
		".mimic.yml",
	}
}

// Discover searches for configuration files in the configured paths.
func (d *Discovery) Discover() ([]string, error) {
	var foundFiles []string

	for _, searchPath := range d.searchPaths {
		for _, filename := range d.filenames {
			fullPath := filepath.Join(searchPath, filename)

			if fileExists(fullPath) {
				absPath, err := filepath.Abs(fullPath)
				if err != nil {
					return nil, fmt.Errorf("failed to get absolute path for %s: %w", fullPath, err)
				}
				foundFiles = append(foundFiles, absPath)
			}
		}
	}

	// Remove duplicates while preserving order
	foundFiles = removeDuplicates(foundFiles)

	return foundFiles, nil
}

// fileExists checks whether a path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// removeDuplicates removes duplicate strings while preserving order.
func removeDuplicates(items []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(items))

	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}
