// Package entity fuses a persona's Profile, Signature and capability grant
// into one queryable unit and defines the ethics gate consulted before any
// gate-checked operation. The gate itself is external; this package only
// fixes the contract and ships the stock gates deployments and tests need.
package entity

import (
	"fmt"
	"strings"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
)

// CompoundEntity is the fused, policy-checked unit addressed by callers:
// the profile drives generation, the signature describes observed behavior,
// and the capability grant bounds what the gate may authorize. Entities are
// snapshots composed per operation, never long-lived mutable state.
type CompoundEntity struct {
	Profile      *core.Profile
	Signature    core.Signature
	Capabilities []core.Capability
}

// Compose builds an entity from snapshots of its parts. The profile and
// signature are deep-copied so later cache refreshes never mutate a
// composed entity. A nil capability list takes the default grant; an empty
// non-nil list means "no capabilities" and the gate will reject everything.
func Compose(profile *core.Profile, signature core.Signature, capabilities []core.Capability) *CompoundEntity {
	e := &CompoundEntity{Signature: signature.Clone()}
	if profile != nil {
		e.Profile = profile.Clone()
	}
	if capabilities == nil {
		e.Capabilities = core.DefaultCapabilities()
	} else {
		e.Capabilities = make([]core.Capability, len(capabilities))
		copy(e.Capabilities, capabilities)
	}
	return e
}

// ID returns the persona id, or the empty string for an entity composed
// without a profile.
func (e *CompoundEntity) ID() string {
	if e == nil || e.Profile == nil {
		return ""
	}
	return e.Profile.ID
}

// Axis looks up a personality axis, defaulting to the 0.5 midpoint when the
// entity has no profile or the profile has never seen the axis.
func (e *CompoundEntity) Axis(name string) float64 {
	if e == nil || e.Profile == nil {
		return 0.5
	}
	return e.Profile.Axis(name)
}

// Can reports whether the entity's grant includes the capability.
func (e *CompoundEntity) Can(c core.Capability) bool {
	if e == nil {
		return false
	}
	for _, granted := range e.Capabilities {
		if granted == c {
			return true
		}
	}
	return false
}

// Describe renders a compact structural summary for logs and diagnostics.
func (e *CompoundEntity) Describe() string {
	if e == nil {
		return "Entity{nil}"
	}

	var sb strings.Builder
	sb.WriteString("Entity{persona=")
	sb.WriteString(e.ID())
	if e.Profile != nil {
		fmt.Fprintf(&sb, " v%d style=%s", e.Profile.Version, e.Profile.ReasoningStyle)
	}
	fmt.Fprintf(&sb, " hedging=%.3f samples=%d", e.Signature.HedgingLevel, e.Signature.SampleCount)

	var flags []string
	if e.Signature.StructuralFlags.HasLists {
		flags = append(flags, "lists")
	}
	if e.Signature.StructuralFlags.HasHeaders {
		flags = append(flags, "headers")
	}
	if e.Signature.StructuralFlags.HasCodeBlocks {
		flags = append(flags, "code")
	}
	if e.Signature.StructuralFlags.HasQuestions {
		flags = append(flags, "questions")
	}
	if e.Signature.StructuralFlags.HasEmphasis {
		flags = append(flags, "emphasis")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&sb, " flags=[%s]", strings.Join(flags, " "))
	}

	caps := make([]string, len(e.Capabilities))
	for i, c := range e.Capabilities {
		caps[i] = string(c)
	}
	fmt.Fprintf(&sb, " caps=[%s]}", strings.Join(caps, " "))
	return sb.String()
}
