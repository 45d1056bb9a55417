// Package metrics provides the pure scoring functions the engine uses to
// quantify how close one behavioral Signature is to another.
package metrics

import (
	"math"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
)

// Weights controls the blend between pattern-set overlap and hedging
// closeness in the combined similarity score. The defaults are tunable
// configuration, not law.
type Weights struct {
	Pattern float64 `json:"pattern" yaml:"pattern"`
	Hedging float64 `json:"hedging" yaml:"hedging"`
}

// DefaultWeights returns the stock 0.6/0.4 blend.
func DefaultWeights() Weights {
	return Weights{Pattern: 0.6, Hedging: 0.4}
}

// Normalized scales the weights to sum to one, guarding against configs
// that drift from a unit total. Zero weights degrade to the defaults.
func (w Weights) Normalized() Weights {
	total := w.Pattern + w.Hedging
	if total <= 0 {
		return DefaultWeights()
	}
	return Weights{Pattern: w.Pattern / total, Hedging: w.Hedging / total}
}

// WeightedJaccard computes the weighted Jaccard index over two pattern sets,
// using confidences as element weights: sum(min)/sum(max) over the tag union.
// Two empty sets are identical by definition. The none-detected sentinel
// participates like any other tag, so two "nothing observed" signatures
// score 1.0 against each other and 0 overlap against real patterns.
func WeightedJaccard(a, b []core.Pattern) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	confA := make(map[core.PatternTag]float64, len(a))
	for _, p := range a {
		confA[p.Tag] = p.Confidence
	}
	confB := make(map[core.PatternTag]float64, len(b))
	for _, p := range b {
		confB[p.Tag] = p.Confidence
	}

	var minSum, maxSum float64
	for tag, ca := range confA {
		cb := confB[tag]
		minSum += math.Min(ca, cb)
		maxSum += math.Max(ca, cb)
	}
	for tag, cb := range confB {
		if _, seen := confA[tag]; !seen {
			maxSum += cb
		}
	}

	if maxSum == 0 {
		// All confidences zero on both sides: structurally identical noise.
		return 1.0
	}
	return minSum / maxSum
}

// ScalarCloseness maps the distance between two unit-interval scalars onto
// [0,1], where 1 means equal.
func ScalarCloseness(a, b float64) float64 {
	return 1 - math.Abs(core.Clamp01(a)-core.Clamp01(b))
}

// Similarity is the convergence score between a persona's current Signature
// and its target: weighted pattern-set Jaccard blended with hedging-level
// closeness. Deterministic: identical inputs always produce bit-identical
// scores.
func Similarity(current, target core.Signature, w Weights) float64 {
	w = w.Normalized()
	pattern := WeightedJaccard(current.Patterns, target.Patterns)
	hedging := ScalarCloseness(current.HedgingLevel, target.HedgingLevel)
	return core.Clamp01(w.Pattern*pattern + w.Hedging*hedging)
}
