package config

import (
	"time"
)

// GetDefaultConfig returns the default configuration for the mimicry engine.
func GetDefaultConfig() *Config {
	return &Config{
		Analysis:   getDefaultAnalysisConfig(),
		Evolution:  getDefaultEvolutionConfig(),
		Cache:      getDefaultCacheConfig(),
		Generation: getDefaultGenerationConfig(),
		Storage:    getDefaultStorageConfig(),
		Sources:    getDefaultSourcesConfig(),
		Logging:    getDefaultLoggingConfig(),
		Execution:  getDefaultExecutionConfig(),
	}
}

// getDefaultAnalysisConfig returns default analyzer configuration.
func getDefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MinSampleLength:    16,
		MaxBatchSize:       256,
		RetentionThreshold: 0.15,
		NormalizeUnicode:   true,
	}
}

// getDefaultEvolutionConfig returns default evolution tracker configuration.
func getDefaultEvolutionConfig() EvolutionConfig {
	return EvolutionConfig{
		ConvergenceThreshold: 0.9,
		Hysteresis:           0.05,
		StabilityEpsilon:     0.02,
		DriftWindow:          5,
		HistorySize:          64,
		LearningRate:         0.3,
		MaxStep:              0.2,
		MaxIterations:        10,

		SimilarityPatternWeight: 0.6,
		SimilarityHedgingWeight: 0.4,
	}
}

// getDefaultCacheConfig returns default signature cache configuration.
func getDefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Shards:   16,
		Capacity: 1000,
		TTL:      0, // No expiry
	}
}

// getDefaultGenerationConfig returns default generation configuration.
func getDefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Strategy:  "auto",
		MaxLength: 4096,
	}
}

// getDefaultStorageConfig returns default storage configuration.
func getDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Backend: "file",
		Path:    "personas",
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			DB:        0,
			KeyPrefix: "mimic:persona:",
		},
	}
}

// getDefaultSourcesConfig returns default observation source configuration.
func getDefaultSourcesConfig() SourcesConfig {
	return SourcesConfig{
		Anthropic: AnthropicSourceConfig{
			APIKey:            "", // Should be provided via environment
			Model:             "claude-3-sonnet-20240229",
			MaxTokens:         1024,
			RequestsPerMinute: 30,
			Burst:             5,
		},
	}
}

// getDefaultLoggingConfig returns default logging configuration.
func getDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level: "INFO",
		Outputs: []LogOutputConfig{
			{
				Type:   "console",
				Colors: true,
			},
		},
		SampleRate:    1,
		DefaultFields: map[string]interface{}{},
	}
}

// getDefaultExecutionConfig returns default execution configuration.
func getDefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		DefaultTimeout: 30 * time.Second,
		MaxConcurrency: 4,
	}
}
