package config

import (
	"time"
)

// Config represents the complete configuration for the mimicry engine.
type Config struct {
	// Behavior analysis configuration
	Analysis AnalysisConfig `yaml:"analysis,omitempty" validate:"omitempty"`

	// Evolution tracking configuration
	Evolution EvolutionConfig `yaml:"evolution,omitempty" validate:"omitempty"`

	// Signature cache configuration
	Cache CacheConfig `yaml:"cache,omitempty" validate:"omitempty"`

	// Response generation configuration
	Generation GenerationConfig `yaml:"generation,omitempty" validate:"omitempty"`

	// Persona persistence configuration
	Storage StorageConfig `yaml:"storage,omitempty" validate:"omitempty"`

	// Observation source configuration
	Sources SourcesConfig `yaml:"sources,omitempty" validate:"omitempty"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,omitempty" validate:"omitempty"`

	// Execution configuration
	Execution ExecutionConfig `yaml:"execution,omitempty" validate:"omitempty"`
}

// AnalysisConfig holds configuration for the behavior analyzer.
type AnalysisConfig struct {
	// Minimum combined sample length in runes below which analysis fails
	MinSampleLength int `yaml:"min_sample_length" env:"ANALYSIS_MIN_SAMPLE_LENGTH" validate:"min=1"`

	// Maximum samples accepted per analyze call
	MaxBatchSize int `yaml:"max_batch_size" env:"ANALYSIS_MAX_BATCH_SIZE" validate:"min=1"`

	// Patterns with blended confidence below this are dropped from signatures
	RetentionThreshold float64 `yaml:"retention_threshold" env:"ANALYSIS_RETENTION_THRESHOLD" validate:"min=0,max=1"`

	// Whether to apply NFKC normalization and case folding before matching
	NormalizeUnicode bool `yaml:"normalize_unicode" env:"ANALYSIS_NORMALIZE_UNICODE"`
}

// EvolutionConfig holds configuration for the evolution tracker.
type EvolutionConfig struct {
	// Similarity score at or above which a persona counts as converged
	ConvergenceThreshold float64 `yaml:"convergence_threshold" env:"EVOLUTION_CONVERGENCE_THRESHOLD" validate:"min=0,max=1"`

	// Margin below the threshold before a converged persona regresses
	Hysteresis float64 `yaml:"hysteresis" env:"EVOLUTION_HYSTERESIS" validate:"min=0,max=1"`

	// Drift magnitude below which scores count as stable
	StabilityEpsilon float64 `yaml:"stability_epsilon" env:"EVOLUTION_STABILITY_EPSILON" validate:"min=0"`

	// Number of recent scores the drift slope is fitted over
	DriftWindow int `yaml:"drift_window" env:"EVOLUTION_DRIFT_WINDOW" validate:"min=2"`

	// Ring buffer capacity for convergence history
	HistorySize int `yaml:"history_size" env:"EVOLUTION_HISTORY_SIZE" validate:"min=2"`

	// Fraction of the measured gap applied per proposed delta
	LearningRate float64 `yaml:"learning_rate" env:"EVOLUTION_LEARNING_RATE" validate:"min=0,max=1"`

	// Maximum per-axis magnitude of any single delta
	MaxStep float64 `yaml:"max_step" env:"EVOLUTION_MAX_STEP" validate:"min=0,max=1"`

	// Maximum refinement iterations per evolve call
	MaxIterations int `yaml:"max_iterations" env:"EVOLUTION_MAX_ITERATIONS" validate:"min=1"`

	// Relative weight of pattern-set overlap in the similarity score
	SimilarityPatternWeight float64 `yaml:"similarity_pattern_weight" env:"EVOLUTION_SIMILARITY_PATTERN_WEIGHT" validate:"min=0"`

	// Relative weight of hedging closeness in the similarity score
	SimilarityHedgingWeight float64 `yaml:"similarity_hedging_weight" env:"EVOLUTION_SIMILARITY_HEDGING_WEIGHT" validate:"min=0"`
}

// CacheConfig holds configuration for the signature cache.
type CacheConfig struct {
	// Number of independent shards
	Shards int `yaml:"shards" env:"CACHE_SHARDS" validate:"min=1"`

	// Maximum entries per cache before LRU eviction
	Capacity int `yaml:"capacity" env:"CACHE_CAPACITY" validate:"min=1"`

	// Entry time-to-live; zero disables expiry
	TTL time.Duration `yaml:"ttl" env:"CACHE_TTL"`
}

// GenerationConfig holds configuration for response generation.
type GenerationConfig struct {
	// Strategy selection (auto picks from the persona's profile)
	Strategy string `yaml:"strategy" env:"GENERATION_STRATEGY" validate:"oneof=auto template_blend direct_copy hedged_rewrite"`

	// Maximum generated response length in runes
	MaxLength int `yaml:"max_length" env:"GENERATION_MAX_LENGTH" validate:"min=1"`
}

// StorageConfig holds configuration for persona persistence.
type StorageConfig struct {
	// Backend type (file, sqlite, redis)
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" validate:"oneof=file sqlite redis"`

	// Directory for the file backend or database path for sqlite
	Path string `yaml:"path" env:"STORAGE_PATH"`

	// Redis connection settings (for the redis backend)
	Redis RedisConfig `yaml:"redis,omitempty" validate:"omitempty"`
}

// RedisConfig holds redis backend settings.
type RedisConfig struct {
	// Server address as host:port
	Addr string `yaml:"addr" env:"STORAGE_REDIS_ADDR"`

	// Optional password
	Password string `yaml:"password" env:"STORAGE_REDIS_PASSWORD"`

	// Database number
	DB int `yaml:"db" env:"STORAGE_REDIS_DB" validate:"min=0"`

	// Prefix applied to all persona keys
	KeyPrefix string `yaml:"key_prefix" env:"STORAGE_REDIS_KEY_PREFIX"`
}

// SourcesConfig holds configuration for observation sources.
type SourcesConfig struct {
	// Anthropic API source settings
	Anthropic AnthropicSourceConfig `yaml:"anthropic,omitempty" validate:"omitempty"`
}

// AnthropicSourceConfig holds settings for sampling observations from the Anthropic API.
type AnthropicSourceConfig struct {
	// API key; prefer supplying via environment
	APIKey string `yaml:"api_key" env:"SOURCES_ANTHROPIC_API_KEY"`

	// Model ID used for sample elicitation
	Model string `yaml:"model" env:"SOURCES_ANTHROPIC_MODEL"`

	// Maximum tokens per elicited sample
	MaxTokens int `yaml:"max_tokens" env:"SOURCES_ANTHROPIC_MAX_TOKENS" validate:"min=1"`

	// Request pacing in requests per minute
	RequestsPerMinute float64 `yaml:"requests_per_minute" env:"SOURCES_ANTHROPIC_RPM" validate:"min=0"`

	// Burst allowance for the rate limiter
	Burst int `yaml:"burst" env:"SOURCES_ANTHROPIC_BURST" validate:"min=1"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Log level (DEBUG, INFO, WARN, ERROR, FATAL)
	Level string `yaml:"level" env:"LOGGING_LEVEL" validate:"oneof=DEBUG INFO WARN ERROR FATAL"`

	// Output configurations
	Outputs []LogOutputConfig `yaml:"outputs"`

	// Sampling rate for high-frequency events
	SampleRate uint32 `yaml:"sample_rate" env:"LOGGING_SAMPLE_RATE"`

	// Default fields to include in all logs
	DefaultFields map[string]interface{} `yaml:"default_fields"`
}

// LogOutputConfig represents a logging output destination.
type LogOutputConfig struct {
	// Type of output (console, file)
	Type string `yaml:"type" validate:"required,oneof=console file"`

	// File path (for file outputs)
	FilePath string `yaml:"file_path"`

	// Whether to use colors (for console outputs)
	Colors bool `yaml:"colors"`

	// Whether console output goes to stderr
	UseStderr bool `yaml:"use_stderr"`

	// Log rotation configuration
	Rotation LogRotationConfig `yaml:"rotation"`
}

// LogRotationConfig holds log rotation settings.
type LogRotationConfig struct {
	// Maximum file size in bytes before rotation; zero disables rotation
	MaxSize int64 `yaml:"max_size" validate:"min=0"`

	// Maximum number of old files to retain
	MaxFiles int `yaml:"max_files" validate:"min=0"`
}

// ExecutionConfig holds execution-related configuration.
type ExecutionConfig struct {
	// Default timeout for operations
	DefaultTimeout time.Duration `yaml:"default_timeout" env:"EXECUTION_DEFAULT_TIMEOUT" validate:"min=1s"`

	// Maximum number of concurrent batch operations
	MaxConcurrency int `yaml:"max_concurrency" env:"EXECUTION_MAX_CONCURRENCY" validate:"min=1"`
}

// Validate validates the configuration using the singleton validator.
func (c *Config) Validate() error {
	return ValidateConfiguration(c)
}
