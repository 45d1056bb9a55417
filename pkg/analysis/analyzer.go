// Package analysis turns raw text samples into behavioral Signatures.
// The analyzer is a pure function over its inputs: no I/O, no globals,
// and bit-identical output for identical input.
package analysis

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

const (
	// DefaultMinSampleLength is the minimum combined normalized sample
	// length, in runes, required for analysis.
	DefaultMinSampleLength = 16

	// DefaultMaxBatchSize caps the samples accepted by one Analyze call.
	DefaultMaxBatchSize = 256

	// DefaultRetentionThreshold drops patterns whose blended confidence
	// does not exceed it, preventing bloat from one-off noise.
	DefaultRetentionThreshold = 0.15
)

// Analyzer extracts behavioral signatures from text samples using a
// fixed library of structural and lexical matchers.
type Analyzer struct {
	minSampleLength    int
	maxBatchSize       int
	retentionThreshold float64
	normalize          bool
	matchers           []matcher
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMinSampleLength sets the minimum combined sample length in runes.
func WithMinSampleLength(runes int) Option {
	return func(a *Analyzer) {
		a.minSampleLength = runes
	}
}

// WithMaxBatchSize caps the number of samples per Analyze call.
func WithMaxBatchSize(n int) Option {
	return func(a *Analyzer) {
		a.maxBatchSize = n
	}
}

// WithRetentionThreshold sets the confidence below which blended
// patterns are dropped.
func WithRetentionThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		a.retentionThreshold = threshold
	}
}

// WithNormalization toggles NFKC normalization and case folding.
func WithNormalization(enabled bool) Option {
	return func(a *Analyzer) {
		a.normalize = enabled
	}
}

// NewAnalyzer creates an analyzer with the default matcher library.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		minSampleLength:    DefaultMinSampleLength,
		maxBatchSize:       DefaultMaxBatchSize,
		retentionThreshold: DefaultRetentionThreshold,
		normalize:          true,
		matchers:           defaultMatchers(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// batchStats accumulates per-batch measurements before blending.
type batchStats struct {
	confidence map[core.PatternTag]float64 // mean confidence per tag
	avgLength  float64
	maxLength  int
	count      int
}

// Analyze derives a Signature from the given samples. With a non-nil
// prior it performs incremental aggregation: each blended confidence is
// the sample-count-weighted mean of the prior value and the fresh batch
// detection, so analyzing samples one at a time produces the same
// signature as analyzing them in one batch. Cost is bounded by the
// batch, not by lifetime history.
func (a *Analyzer) Analyze(ctx context.Context, samples []string, prior *core.Signature) (*core.Signature, error) {
	if err := errors.CheckContext(ctx, "analyze"); err != nil {
		return nil, err
	}

	if len(samples) == 0 {
		return nil, errors.New(errors.InsufficientData, "no samples provided")
	}

	if a.maxBatchSize > 0 && len(samples) > a.maxBatchSize {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "sample batch exceeds configured maximum"),
			errors.Fields{"samples": len(samples), "max_batch_size": a.maxBatchSize},
		)
	}

	stats, err := a.measure(ctx, samples)
	if err != nil {
		return nil, err
	}

	sig := a.blend(stats, prior)
	if err := sig.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "analyzer produced an invalid signature")
	}

	return sig, nil
}

// measure runs the matcher library over the normalized batch.
func (a *Analyzer) measure(ctx context.Context, samples []string) (*batchStats, error) {
	normalized := make([]string, 0, len(samples))
	totalRunes := 0

	for _, s := range samples {
		ns := s
		if a.normalize {
			ns = NormalizeSample(s)
		}
		if isBlank(ns) {
			continue
		}
		normalized = append(normalized, ns)
		totalRunes += utf8.RuneCountInString(ns)
	}

	if len(normalized) == 0 || totalRunes < a.minSampleLength {
		return nil, errors.WithFields(
			errors.New(errors.InsufficientData, "combined sample length below minimum"),
			errors.Fields{"combined_runes": totalRunes, "min_runes": a.minSampleLength},
		)
	}

	sums := make(map[core.PatternTag]float64, len(a.matchers))
	lengthSum := 0
	maxLength := 0

	for _, sample := range normalized {
		if err := errors.CheckContext(ctx, "analyze"); err != nil {
			return nil, err
		}

		for _, m := range a.matchers {
			sums[m.tag] += safeMatch(m, sample)
		}

		runes := utf8.RuneCountInString(sample)
		lengthSum += runes
		if runes > maxLength {
			maxLength = runes
		}
	}

	count := len(normalized)
	confidence := make(map[core.PatternTag]float64, len(sums))
	for tag, sum := range sums {
		confidence[tag] = sum / float64(count)
	}

	return &batchStats{
		confidence: confidence,
		avgLength:  float64(lengthSum) / float64(count),
		maxLength:  maxLength,
		count:      count,
	}, nil
}

// blend combines fresh batch stats with the prior signature, weighting
// by sample counts, then applies the retention threshold.
func (a *Analyzer) blend(stats *batchStats, prior *core.Signature) *core.Signature {
	priorCount := 0
	if prior != nil {
		priorCount = prior.SampleCount
	}
	total := priorCount + stats.count
	priorWeight := float64(priorCount) / float64(total)
	freshWeight := float64(stats.count) / float64(total)

	blended := make(map[core.PatternTag]float64, len(a.matchers))
	for _, m := range a.matchers {
		pc := priorPatternConfidence(prior, m.tag)
		blended[m.tag] = pc*priorWeight + stats.confidence[m.tag]*freshWeight
	}

	// Prior tags outside the library (e.g. loaded from an older record)
	// decay toward zero instead of vanishing silently.
	if prior != nil {
		for _, p := range prior.Patterns {
			if p.Tag == core.PatternNoneDetected {
				continue
			}
			if _, known := blended[p.Tag]; !known {
				blended[p.Tag] = p.Confidence * priorWeight
			}
		}
	}

	retained := make([]core.Pattern, 0, len(blended))
	for tag, conf := range blended {
		if conf > a.retentionThreshold {
			retained = append(retained, core.Pattern{Tag: tag, Confidence: conf})
		}
	}
	if len(retained) == 0 {
		retained = append(retained, core.Pattern{Tag: core.PatternNoneDetected, Confidence: 1.0})
	}
	sort.Slice(retained, func(i, j int) bool { return retained[i].Tag < retained[j].Tag })

	hedging := blended[core.PatternHedging]
	avgLength := stats.avgLength
	maxLength := stats.maxLength
	if prior != nil {
		// The hedging scalar blends from the prior's own level so a
		// retention-dropped hedging pattern does not zero the stat.
		hedging = prior.HedgingLevel*priorWeight + stats.confidence[core.PatternHedging]*freshWeight
		avgLength = prior.AvgResponseLength*priorWeight + stats.avgLength*freshWeight
		if prior.MaxResponseLength > maxLength {
			maxLength = prior.MaxResponseLength
		}
	}

	sig := &core.Signature{
		Patterns:          retained,
		HedgingLevel:      core.Clamp01(hedging),
		AvgResponseLength: avgLength,
		MaxResponseLength: maxLength,
		StructuralFlags:   flagsFromPatterns(retained),
		SampleCount:       total,
	}
	return sig
}

// priorPatternConfidence reads a tag's confidence from the prior,
// treating the sentinel as an empty set.
func priorPatternConfidence(prior *core.Signature, tag core.PatternTag) float64 {
	if prior == nil || tag == core.PatternNoneDetected {
		return 0
	}
	conf, ok := prior.PatternConfidence(tag)
	if !ok {
		return 0
	}
	return conf
}

// flagsFromPatterns derives the structural flags from retained tags.
func flagsFromPatterns(patterns []core.Pattern) core.StructuralFlags {
	flags := core.StructuralFlags{}
	for _, p := range patterns {
		switch p.Tag {
		case core.PatternList:
			flags.HasLists = true
		case core.PatternHeaders:
			flags.HasHeaders = true
		case core.PatternCodeBlock:
			flags.HasCodeBlocks = true
		case core.PatternQuestion:
			flags.HasQuestions = true
		case core.PatternEmphasis:
			flags.HasEmphasis = true
		}
	}
	return flags
}
