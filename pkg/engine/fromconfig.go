package engine

import (
	"github.com/redis/go-redis/v9"

	"github.com/XiaoConstantine/mimic-go/pkg/analysis"
	"github.com/XiaoConstantine/mimic-go/pkg/cache"
	"github.com/XiaoConstantine/mimic-go/pkg/config"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
	"github.com/XiaoConstantine/mimic-go/pkg/evolution"
	"github.com/XiaoConstantine/mimic-go/pkg/generation"
	"github.com/XiaoConstantine/mimic-go/pkg/metrics"
	"github.com/XiaoConstantine/mimic-go/pkg/store"
)

// FromConfig assembles an engine from a validated configuration: the store
// backend is opened from the storage section and every collaborator is
// built from its own section. A nil config means the stock defaults.
func FromConfig(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}

	st, err := OpenStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	eng, err := New(st, optionsFromConfig(cfg)...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return eng, nil
}

// OpenStore opens the persistence backend named by the storage section.
func OpenStore(cfg config.StorageConfig) (store.Store, error) {
	switch cfg.Backend {
	case "", "file":
		return store.NewFileStore(cfg.Path), nil

	case "sqlite":
		return store.NewSQLiteStore(cfg.Path)

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		var opts []store.RedisOption
		if cfg.Redis.KeyPrefix != "" {
			opts = append(opts, store.WithKeyPrefix(cfg.Redis.KeyPrefix))
		}
		return store.NewRedisStore(client, opts...), nil

	default:
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "unknown storage backend"),
			errors.Fields{"backend": cfg.Backend})
	}
}

// optionsFromConfig maps config sections onto engine options. Zero-valued
// fields are left to the collaborators' own defaults.
func optionsFromConfig(cfg *config.Config) []Option {
	var analysisOpts []analysis.Option
	if cfg.Analysis.MinSampleLength > 0 {
		analysisOpts = append(analysisOpts, analysis.WithMinSampleLength(cfg.Analysis.MinSampleLength))
	}
	if cfg.Analysis.MaxBatchSize > 0 {
		analysisOpts = append(analysisOpts, analysis.WithMaxBatchSize(cfg.Analysis.MaxBatchSize))
	}
	if cfg.Analysis.RetentionThreshold > 0 {
		analysisOpts = append(analysisOpts, analysis.WithRetentionThreshold(cfg.Analysis.RetentionThreshold))
	}
	analysisOpts = append(analysisOpts, analysis.WithNormalization(cfg.Analysis.NormalizeUnicode))

	trackerOpts := []evolution.Option{
		evolution.WithConvergenceThreshold(cfg.Evolution.ConvergenceThreshold),
		evolution.WithHysteresis(cfg.Evolution.Hysteresis),
		evolution.WithStabilityEpsilon(cfg.Evolution.StabilityEpsilon),
		evolution.WithDriftWindow(cfg.Evolution.DriftWindow),
		evolution.WithHistorySize(cfg.Evolution.HistorySize),
		evolution.WithLearningRate(cfg.Evolution.LearningRate),
		evolution.WithMaxStep(cfg.Evolution.MaxStep),
	}

	cacheOpts := []cache.Option{
		cache.WithShards(cfg.Cache.Shards),
		cache.WithCapacity(cfg.Cache.Capacity),
		cache.WithTTL(cfg.Cache.TTL),
	}

	rendererOpts := []generation.Option{
		generation.WithStrategy(generation.ParseStrategy(cfg.Generation.Strategy)),
	}
	if cfg.Generation.MaxLength > 0 {
		rendererOpts = append(rendererOpts, generation.WithMaxLength(cfg.Generation.MaxLength))
	}

	return []Option{
		WithAnalyzer(analysis.NewAnalyzer(analysisOpts...)),
		WithTracker(evolution.New(trackerOpts...)),
		WithCache(cache.New(cacheOpts...)),
		WithRenderer(generation.NewRenderer(rendererOpts...)),
		WithSimilarityWeights(metrics.Weights{
			Pattern: cfg.Evolution.SimilarityPatternWeight,
			Hedging: cfg.Evolution.SimilarityHedgingWeight,
		}),
		WithMaxIterations(cfg.Evolution.MaxIterations),
		WithMaxConcurrency(cfg.Execution.MaxConcurrency),
	}
}
