package evolution

import (
	"math"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
)

const (
	// VerbosityScale is the average response length in runes that projects
	// to a verbosity axis value of 1.0.
	VerbosityScale = 2000.0

	// snapEpsilon is the residual gap below which a stepped value snaps to
	// its target, so step sequences terminate at exact equality instead of
	// approaching it asymptotically.
	snapEpsilon = 0.01

	// DeltaProvenance tags proposals produced by the tracker.
	DeltaProvenance = "evolution_tracker"
)

// ProjectAxis maps a signature onto one canonical personality axis. The
// projections are fixed:
//
//	hedging        <- HedgingLevel
//	verbosity      <- AvgResponseLength / VerbosityScale, clamped
//	structure      <- max(list, header) confidence
//	expressiveness <- max(exclamation, emphasis, emoji) confidence
//	formality      <- 1 - max(emoji, exclamation) confidence
//
// Unknown axis names project to the 0.5 midpoint so they never generate a
// gap.
func ProjectAxis(sig core.Signature, axis string) float64 {
	conf := func(tag core.PatternTag) float64 {
		c, _ := sig.PatternConfidence(tag)
		return c
	}

	switch axis {
	case core.AxisHedging:
		return core.Clamp01(sig.HedgingLevel)
	case core.AxisVerbosity:
		return core.Clamp01(sig.AvgResponseLength / VerbosityScale)
	case core.AxisStructure:
		return math.Max(conf(core.PatternList), conf(core.PatternHeaders))
	case core.AxisExpressiveness:
		return math.Max(conf(core.PatternExclamation), math.Max(conf(core.PatternEmphasis), conf(core.PatternEmoji)))
	case core.AxisFormality:
		return core.Clamp01(1 - math.Max(conf(core.PatternEmoji), conf(core.PatternExclamation)))
	default:
		return 0.5
	}
}

// ProposeDelta computes the bounded axis updates that move a profile toward
// the target signature. Magnitudes derive from the gap between the axis
// projections of the current and target signatures, scaled by the learning
// rate and clamped to the max step; each is then trimmed so applying it
// keeps the profile's axis inside [0,1]. Axes already on target produce no
// change, so identical signatures propose the zero delta. Deterministic:
// identical inputs always yield identical proposals.
func (t *Tracker) ProposeDelta(profile *core.Profile, current, target core.Signature) core.PersonalityDelta {
	delta := core.PersonalityDelta{Provenance: DeltaProvenance}

	for _, axis := range core.CanonicalAxes() {
		gap := ProjectAxis(target, axis) - ProjectAxis(current, axis)
		magnitude := boundedStep(gap, t.learningRate, t.maxStep)
		if profile != nil {
			pos := profile.Axis(axis)
			if pos+magnitude > 1 {
				magnitude = 1 - pos
			} else if pos+magnitude < 0 {
				magnitude = -pos
			}
		}
		if magnitude == 0 {
			continue
		}
		delta.Changes = append(delta.Changes, core.AxisChange{Axis: axis, Magnitude: magnitude})
	}
	return delta
}

// StepSignature moves every comparable field of current toward target by
// the learning rate, bounded by the max step in axis units. It is the
// signature-space counterpart of ProposeDelta: the engine applies the
// profile delta and advances the cached snapshot with the same step so the
// next score reflects the movement. Residual gaps below snapEpsilon snap to
// the target, and pattern tags absent from the target decay to zero and
// drop, so a long enough step sequence reaches exact equality.
func (t *Tracker) StepSignature(current, target core.Signature) core.Signature {
	out := current.Clone()

	out.HedgingLevel = core.Clamp01(stepScalar(current.HedgingLevel, target.HedgingLevel, t.learningRate, t.maxStep))

	out.AvgResponseLength = stepLength(current.AvgResponseLength, target.AvgResponseLength, t.learningRate, t.maxStep)
	out.MaxResponseLength = int(math.Round(stepLength(float64(current.MaxResponseLength), float64(target.MaxResponseLength), t.learningRate, t.maxStep)))

	out.Patterns = t.stepPatterns(current.Patterns, target.Patterns)
	out.StructuralFlags = flagsFromPatterns(out.Patterns)
	out.SortPatterns()
	return out
}

// stepScalar advances a unit-interval value toward its target.
func stepScalar(cur, tgt, rate, maxStep float64) float64 {
	next := cur + boundedStep(tgt-cur, rate, maxStep)
	if math.Abs(next-tgt) < snapEpsilon {
		return tgt
	}
	return next
}

// stepLength advances a rune-count statistic toward its target. The step is
// bounded in axis units and scaled back to runes; a step that would round
// to nothing snaps to the target so integer statistics converge.
func stepLength(cur, tgt, rate, maxStep float64) float64 {
	gapAxis := (tgt - cur) / VerbosityScale
	next := cur + boundedStep(gapAxis, rate, maxStep)*VerbosityScale
	if math.Abs(next-tgt) < snapEpsilon*VerbosityScale {
		return tgt
	}
	if next < 0 {
		return 0
	}
	return next
}

func (t *Tracker) stepPatterns(current, target []core.Pattern) []core.Pattern {
	curConf := make(map[core.PatternTag]float64, len(current))
	for _, p := range current {
		curConf[p.Tag] = p.Confidence
	}
	tgtConf := make(map[core.PatternTag]float64, len(target))
	for _, p := range target {
		tgtConf[p.Tag] = p.Confidence
	}

	union := make(map[core.PatternTag]struct{}, len(curConf)+len(tgtConf))
	for tag := range curConf {
		union[tag] = struct{}{}
	}
	for tag := range tgtConf {
		union[tag] = struct{}{}
	}

	patterns := make([]core.Pattern, 0, len(union))
	for tag := range union {
		next := core.Clamp01(stepScalar(curConf[tag], tgtConf[tag], t.learningRate, t.maxStep))
		if next <= 0 {
			continue
		}
		patterns = append(patterns, core.Pattern{Tag: tag, Confidence: next})
	}
	return patterns
}

// flagsFromPatterns derives the coarse structural flags from the pattern
// set, keeping the enumerable flags in sync after a signature step.
func flagsFromPatterns(patterns []core.Pattern) core.StructuralFlags {
	var flags core.StructuralFlags
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

// boundedStep scales a gap by the learning rate and clamps the result to
// the max step in either direction.
func boundedStep(gap, rate, maxStep float64) float64 {
	step := gap * rate
	if step > maxStep {
		return maxStep
	}
	if step < -maxStep {
		return -maxStep
	}
	return step
}
