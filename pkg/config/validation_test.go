package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfiguration(t *testing.T) {
	t.Run("Valid default config", func(t *testing.T) {
		assert.NoError(t, ValidateConfiguration(GetDefaultConfig()))
	})

	t.Run("Nil config", func(t *testing.T) {
		err := ValidateConfiguration(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config is nil")
	})
}

func TestEvolutionCrossFieldRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "Hysteresis at threshold",
			mutate: func(c *Config) {
				c.Evolution.ConvergenceThreshold = 0.5
				c.Evolution.Hysteresis = 0.5
			},
			wantErr: "hysteresis",
		},
		{
			name: "Drift window exceeds history",
			mutate: func(c *Config) {
				c.Evolution.DriftWindow = 100
				c.Evolution.HistorySize = 8
			},
			wantErr: "drift window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := ValidateConfiguration(cfg)
			require.Error(t, err)
			assert.Contains(t, strings.ToLower(err.Error()), tt.wantErr)
		})
	}
}

func TestStorageBackendRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "File backend without path",
			mutate: func(c *Config) {
				c.Storage.Backend = "file"
				c.Storage.Path = ""
			},
			wantErr: "path is required",
		},
		{
			name: "Sqlite backend without path",
			mutate: func(c *Config) {
				c.Storage.Backend = "sqlite"
				c.Storage.Path = ""
			},
			wantErr: "path is required",
		},
		{
			name: "Redis backend without address",
			mutate: func(c *Config) {
				c.Storage.Backend = "redis"
				c.Storage.Redis.Addr = ""
			},
			wantErr: "redis address is required",
		},
		{
			name: "Unknown backend",
			mutate: func(c *Config) {
				c.Storage.Backend = "s3"
			},
			wantErr: "must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := ValidateConfiguration(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLogOutputRules(t *testing.T) {
	t.Run("File output without path", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Logging.Outputs = append(cfg.Logging.Outputs, LogOutputConfig{Type: "file"})

		err := ValidateConfiguration(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file path is required")
	})

	t.Run("File output with relative path", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Logging.Outputs = append(cfg.Logging.Outputs, LogOutputConfig{
			Type:     "file",
			FilePath: "logs/engine.log",
		})

		err := ValidateConfiguration(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be absolute")
	})

	t.Run("File output with absolute path", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Logging.Outputs = append(cfg.Logging.Outputs, LogOutputConfig{
			Type:     "file",
			FilePath: "/var/log/mimic/engine.log",
		})

		assert.NoError(t, ValidateConfiguration(cfg))
	})

	t.Run("Invalid log level", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = "TRACE"

		err := ValidateConfiguration(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be one of")
	})
}

func TestValidationErrorFormatting(t *testing.T) {
	t.Run("Custom message takes precedence", func(t *testing.T) {
		err := &ValidationError{Field: "X", Tag: "min", Message: "custom message"}
		assert.Equal(t, "custom message", err.Error())
	})

	t.Run("Tag-derived message", func(t *testing.T) {
		err := &ValidationError{Field: "Storage.Path", Tag: "required"}
		assert.Contains(t, err.Error(), "is required")
	})

	t.Run("Multiple errors joined", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "A", Tag: "required"},
			{Field: "B", Tag: "min"},
		}
		msg := errs.Error()
		assert.Contains(t, msg, "validation failed")
		assert.Contains(t, msg, ";")
	})

	t.Run("Empty errors", func(t *testing.T) {
		assert.Empty(t, ValidationErrors{}.Error())
	})
}

func TestGetValidatorSingleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	assert.Same(t, v1, v2)
}
