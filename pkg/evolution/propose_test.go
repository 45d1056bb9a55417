package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/metrics"
)

func verboseSignature() core.Signature {
	return core.Signature{
		Patterns: []core.Pattern{
			{Tag: core.PatternList, Confidence: 0.8},
			{Tag: core.PatternHeaders, Confidence: 0.3},
			{Tag: core.PatternExclamation, Confidence: 0.2},
			{Tag: core.PatternEmphasis, Confidence: 0.5},
			{Tag: core.PatternEmoji, Confidence: 0.1},
		},
		HedgingLevel:      0.42,
		AvgResponseLength: 500,
		MaxResponseLength: 900,
		StructuralFlags:   core.StructuralFlags{HasLists: true, HasEmphasis: true},
		SampleCount:       6,
	}
}

func TestProjectAxis(t *testing.T) {
	sig := verboseSignature()

	tests := []struct {
		axis string
		want float64
	}{
		{core.AxisHedging, 0.42},
		{core.AxisVerbosity, 0.25},
		{core.AxisStructure, 0.8},
		{core.AxisExpressiveness, 0.5},
		{core.AxisFormality, 0.8},
		{"unknown_axis", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.axis, func(t *testing.T) {
			assert.InDelta(t, tt.want, ProjectAxis(sig, tt.axis), 1e-12)
		})
	}
}

func TestProjectAxisEmptySignature(t *testing.T) {
	sig := core.Signature{}
	assert.Zero(t, ProjectAxis(sig, core.AxisHedging))
	assert.Zero(t, ProjectAxis(sig, core.AxisStructure))
	assert.Equal(t, 1.0, ProjectAxis(sig, core.AxisFormality))
}

func TestProjectAxisVerbosityClamped(t *testing.T) {
	sig := core.Signature{AvgResponseLength: 10 * VerbosityScale}
	assert.Equal(t, 1.0, ProjectAxis(sig, core.AxisVerbosity))
}

func TestProposeDeltaZeroOnEqualSignatures(t *testing.T) {
	tracker := New()
	sig := verboseSignature()
	profile := core.NewProfile("p1")

	delta := tracker.ProposeDelta(profile, sig, sig)

	assert.True(t, delta.IsZero())
	assert.Empty(t, delta.Changes)
	assert.Equal(t, DeltaProvenance, delta.Provenance)
}

func TestProposeDeltaScaledAndClamped(t *testing.T) {
	tracker := New()
	profile := core.NewProfile("p1")

	current := core.Signature{HedgingLevel: 0.1}
	target := core.Signature{HedgingLevel: 0.9}

	delta := tracker.ProposeDelta(profile, current, target)

	var hedging *core.AxisChange
	for i := range delta.Changes {
		if delta.Changes[i].Axis == core.AxisHedging {
			hedging = &delta.Changes[i]
		}
	}
	require.NotNil(t, hedging, "hedging gap must produce a change")
	// Gap 0.8 scaled by 0.3 is 0.24, clamped to the 0.2 max step.
	assert.InDelta(t, 0.2, hedging.Magnitude, 1e-12)
}

func TestProposeDeltaNegativeDirection(t *testing.T) {
	tracker := New()
	profile := core.NewProfile("p1")

	current := core.Signature{HedgingLevel: 0.9}
	target := core.Signature{HedgingLevel: 0.0}

	delta := tracker.ProposeDelta(profile, current, target)
	require.NotEmpty(t, delta.Changes)
	for _, ch := range delta.Changes {
		if ch.Axis == core.AxisHedging {
			assert.InDelta(t, -0.2, ch.Magnitude, 1e-12)
		}
	}
}

func TestProposeDeltaTrimsAtProfileBounds(t *testing.T) {
	tracker := New()
	profile := core.NewProfile("p1")
	profile.PersonalityAxes[core.AxisHedging] = 0.95

	current := core.Signature{HedgingLevel: 0.1}
	target := core.Signature{HedgingLevel: 0.9}

	delta := tracker.ProposeDelta(profile, current, target)
	for _, ch := range delta.Changes {
		if ch.Axis == core.AxisHedging {
			// The raw 0.2 step would overshoot the axis ceiling from 0.95.
			assert.InDelta(t, 0.05, ch.Magnitude, 1e-12)
		}
	}

	applied := profile.Clone()
	applied.Apply(delta)
	assert.NoError(t, applied.Validate())
}

func TestProposeDeltaDeterministic(t *testing.T) {
	tracker := New()
	profile := core.NewProfile("p1")
	current := verboseSignature()
	target := core.Signature{
		Patterns:          []core.Pattern{{Tag: core.PatternHedging, Confidence: 0.9}},
		HedgingLevel:      0.9,
		AvgResponseLength: 1200,
	}

	first := tracker.ProposeDelta(profile, current, target)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, tracker.ProposeDelta(profile, current, target))
	}
}

func TestStepSignatureIdentity(t *testing.T) {
	tracker := New()
	sig := verboseSignature()

	stepped := tracker.StepSignature(sig, sig)

	assert.Equal(t, sig.HedgingLevel, stepped.HedgingLevel)
	assert.Equal(t, sig.AvgResponseLength, stepped.AvgResponseLength)
	assert.Equal(t, sig.MaxResponseLength, stepped.MaxResponseLength)
	assert.Equal(t, sig.SampleCount, stepped.SampleCount)

	sorted := sig.Clone()
	sorted.SortPatterns()
	assert.Equal(t, sorted.Patterns, stepped.Patterns)
	assert.Equal(t, 1.0, metrics.Similarity(stepped, sig, metrics.DefaultWeights()))
}

func TestStepSignatureMovesTowardTarget(t *testing.T) {
	tracker := New()
	current := core.Signature{HedgingLevel: 0.1, SampleCount: 2}
	target := core.Signature{HedgingLevel: 0.9}

	stepped := tracker.StepSignature(current, target)
	assert.Greater(t, stepped.HedgingLevel, current.HedgingLevel)
	assert.LessOrEqual(t, stepped.HedgingLevel, target.HedgingLevel)

	before := metrics.Similarity(current, target, metrics.DefaultWeights())
	after := metrics.Similarity(stepped, target, metrics.DefaultWeights())
	assert.Greater(t, after, before)
}

func TestStepSignatureAddsTargetPatterns(t *testing.T) {
	tracker := New()
	current := core.Signature{SampleCount: 1}
	target := core.Signature{
		Patterns: []core.Pattern{{Tag: core.PatternList, Confidence: 0.8}},
	}

	stepped := tracker.StepSignature(current, target)
	conf, ok := stepped.PatternConfidence(core.PatternList)
	require.True(t, ok, "patterns present in the target appear immediately")
	assert.InDelta(t, 0.2, conf, 1e-12)
	assert.True(t, stepped.StructuralFlags.HasLists)
}

func TestStepSignatureDropsVanishedPatterns(t *testing.T) {
	tracker := New()
	sig := core.Signature{
		Patterns:     []core.Pattern{{Tag: core.PatternCitation, Confidence: 0.4}},
		HedgingLevel: 0.5,
	}
	target := core.Signature{HedgingLevel: 0.5}

	for i := 0; i < 60; i++ {
		sig = tracker.StepSignature(sig, target)
	}

	assert.False(t, sig.HasPattern(core.PatternCitation),
		"patterns absent from the target must decay away")
}

func TestStepSignatureConvergesExactly(t *testing.T) {
	tracker := New()
	sig := verboseSignature()
	target := core.Signature{
		Patterns: []core.Pattern{
			{Tag: core.PatternHedging, Confidence: 0.7},
			{Tag: core.PatternList, Confidence: 0.4},
		},
		HedgingLevel:      0.85,
		AvgResponseLength: 1500,
		MaxResponseLength: 2200,
	}

	for i := 0; i < 100; i++ {
		sig = tracker.StepSignature(sig, target)
	}

	assert.Equal(t, 1.0, metrics.Similarity(sig, target, metrics.DefaultWeights()),
		"repeated steps must terminate at exact similarity")
	assert.Equal(t, target.HedgingLevel, sig.HedgingLevel)
	assert.Equal(t, target.AvgResponseLength, sig.AvgResponseLength)
	assert.Equal(t, target.MaxResponseLength, sig.MaxResponseLength)
}
