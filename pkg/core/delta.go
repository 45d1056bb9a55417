package core

import (
	"math"
	"time"
)

// AxisChange is one signed nudge to a personality axis.
type AxisChange struct {
	Axis      string  `json:"axis"`
	Magnitude float64 `json:"magnitude"`
}

// PersonalityDelta is a bounded profile update proposal: a list of axis
// changes plus a provenance tag naming the producer. Proposals are pure
// values; audit identity is attached only when a delta is applied.
type PersonalityDelta struct {
	Changes    []AxisChange `json:"changes"`
	Provenance string       `json:"provenance"`
}

// Clamped returns a copy with every magnitude bounded to [-maxStep, maxStep].
func (d PersonalityDelta) Clamped(maxStep float64) PersonalityDelta {
	out := PersonalityDelta{
		Changes:    make([]AxisChange, len(d.Changes)),
		Provenance: d.Provenance,
	}
	for i, ch := range d.Changes {
		m := ch.Magnitude
		if m > maxStep {
			m = maxStep
		} else if m < -maxStep {
			m = -maxStep
		}
		out.Changes[i] = AxisChange{Axis: ch.Axis, Magnitude: m}
	}
	return out
}

// IsZero reports whether every change has zero magnitude (or none exist).
func (d PersonalityDelta) IsZero() bool {
	for _, ch := range d.Changes {
		if ch.Magnitude != 0 {
			return false
		}
	}
	return true
}

// MaxMagnitude returns the largest absolute magnitude across changes.
func (d PersonalityDelta) MaxMagnitude() float64 {
	var max float64
	for _, ch := range d.Changes {
		if m := math.Abs(ch.Magnitude); m > max {
			max = m
		}
	}
	return max
}

// AppliedDelta is the audit record the engine keeps when a proposal is
// committed to a profile. ApplyID is assigned by the engine (a uuid), never
// by the deterministic proposer.
type AppliedDelta struct {
	Delta     PersonalityDelta `json:"delta"`
	ApplyID   string           `json:"apply_id"`
	AppliedAt time.Time        `json:"applied_at"`
}

// ConvergenceSample is one scored refinement step: a monotonically increasing
// per-persona index and the clamped similarity score at that step. Samples
// live in a bounded ring and are never mutated after recording.
type ConvergenceSample struct {
	Index uint64  `json:"index"`
	Score float64 `json:"score"`
}
