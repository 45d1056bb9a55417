package core

import (
	"fmt"
)

// ReasoningStyle is the closed enum of high-level response postures a
// Profile can take. Generation strategy selection depends on it staying
// closed, so new styles must be added here and nowhere else.
type ReasoningStyle string

const (
	ReasoningDirect      ReasoningStyle = "direct"
	ReasoningAnalytical  ReasoningStyle = "analytical"
	ReasoningExploratory ReasoningStyle = "exploratory"
	ReasoningCautious    ReasoningStyle = "cautious"
)

// ValidReasoningStyle reports whether s is a member of the closed enum.
func ValidReasoningStyle(s ReasoningStyle) bool {
	switch s {
	case ReasoningDirect, ReasoningAnalytical, ReasoningExploratory, ReasoningCautious:
		return true
	default:
		return false
	}
}

// Canonical personality axis names. Axis values always live in [0,1].
const (
	AxisHedging        = "hedging"
	AxisVerbosity      = "verbosity"
	AxisStructure      = "structure"
	AxisExpressiveness = "expressiveness"
	AxisFormality      = "formality"
)

// CanonicalAxes lists every axis a default Profile carries, in stable order.
func CanonicalAxes() []string {
	return []string{AxisHedging, AxisVerbosity, AxisStructure, AxisExpressiveness, AxisFormality}
}

// ResponseStyle holds the closed set of generation preference flags.
type ResponseStyle struct {
	PreferLists   bool `json:"prefer_lists"`
	PreferHeaders bool `json:"prefer_headers"`
	Verbose       bool `json:"verbose"`
	Emotive       bool `json:"emotive"`
}

// Profile is the mutable personality description driving generation.
// It is created with defaults on the first observation of a new persona id
// and mutated afterwards only through bounded deltas, never by unclamped
// overwrites.
type Profile struct {
	ID              string             `json:"id"`
	DisplayName     string             `json:"display_name"`
	Version         int                `json:"version"`
	ReasoningStyle  ReasoningStyle     `json:"reasoning_style"`
	PersonalityAxes map[string]float64 `json:"personality_axes"`
	ResponseStyle   ResponseStyle      `json:"response_style"`
}

// NewProfile builds the default Profile for a freshly observed persona:
// every canonical axis at the 0.5 midpoint, direct reasoning, version 1.
func NewProfile(id string) *Profile {
	axes := make(map[string]float64, 5)
	for _, axis := range CanonicalAxes() {
		axes[axis] = 0.5
	}
	return &Profile{
		ID:              id,
		DisplayName:     id,
		Version:         1,
		ReasoningStyle:  ReasoningDirect,
		PersonalityAxes: axes,
		ResponseStyle:   ResponseStyle{},
	}
}

// Clone returns a deep copy; the axes map is never shared.
func (p *Profile) Clone() *Profile {
	out := *p
	out.PersonalityAxes = make(map[string]float64, len(p.PersonalityAxes))
	for k, v := range p.PersonalityAxes {
		out.PersonalityAxes[k] = v
	}
	return &out
}

// Axis returns the value for an axis, defaulting to the 0.5 midpoint for
// axes the profile has never seen.
func (p *Profile) Axis(name string) float64 {
	if v, ok := p.PersonalityAxes[name]; ok {
		return v
	}
	return 0.5
}

// Apply mutates the profile by a delta whose magnitudes must already be
// clamped to the configured max step. Axis results are clamped to [0,1],
// preserving the bounded-axes invariant under any delta sequence. Every
// non-empty application bumps Version.
func (p *Profile) Apply(delta PersonalityDelta) {
	if len(delta.Changes) == 0 {
		return
	}
	if p.PersonalityAxes == nil {
		p.PersonalityAxes = make(map[string]float64, len(delta.Changes))
	}
	for _, ch := range delta.Changes {
		p.PersonalityAxes[ch.Axis] = Clamp01(p.Axis(ch.Axis) + ch.Magnitude)
	}
	p.Version++
	p.refreshStyle()
}

// refreshStyle re-derives the closed style flags from axis positions so the
// enumerable generation dispatch keys stay in sync with the axes.
func (p *Profile) refreshStyle() {
	p.ResponseStyle.PreferLists = p.Axis(AxisStructure) >= 0.6
	p.ResponseStyle.PreferHeaders = p.Axis(AxisStructure) >= 0.8
	p.ResponseStyle.Verbose = p.Axis(AxisVerbosity) >= 0.6
	p.ResponseStyle.Emotive = p.Axis(AxisExpressiveness) >= 0.6

	switch {
	case p.Axis(AxisHedging) >= 0.65:
		p.ReasoningStyle = ReasoningCautious
	case p.Axis(AxisStructure) >= 0.65:
		p.ReasoningStyle = ReasoningAnalytical
	case p.Axis(AxisExpressiveness) >= 0.65:
		p.ReasoningStyle = ReasoningExploratory
	default:
		p.ReasoningStyle = ReasoningDirect
	}
}

// Validate checks the Profile invariants.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile has empty id")
	}
	if !ValidReasoningStyle(p.ReasoningStyle) {
		return fmt.Errorf("unknown reasoning style %q", p.ReasoningStyle)
	}
	for axis, v := range p.PersonalityAxes {
		if v < 0 || v > 1 {
			return fmt.Errorf("axis %q value %f outside [0,1]", axis, v)
		}
	}
	return nil
}

// Clamp01 bounds v to the closed unit interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
