package core

// Capability names something a composed persona entity is allowed to do.
// The ethics gate sees the entity's capability set alongside each action.
type Capability string

const (
	CapabilityObserve  Capability = "observe"
	CapabilityGenerate Capability = "generate"
	CapabilityEvolve   Capability = "evolve"
	CapabilityPersist  Capability = "persist"
)

// DefaultCapabilities is the grant a persona receives unless a caller
// composes it with an explicit subset.
func DefaultCapabilities() []Capability {
	return []Capability{CapabilityObserve, CapabilityGenerate, CapabilityEvolve, CapabilityPersist}
}

// ActionKind is the closed set of gate-checked operations.
type ActionKind string

const (
	ActionGenerate   ActionKind = "generate"
	ActionApplyDelta ActionKind = "apply_delta"
)

// Action is what the engine presents to the ethics gate before performing
// a gate-checked operation on a persona.
type Action struct {
	Kind      ActionKind        `json:"kind"`
	PersonaID string            `json:"persona_id"`
	Prompt    string            `json:"prompt,omitempty"`
	Delta     *PersonalityDelta `json:"delta,omitempty"`
}

// RequiredCapability maps an action to the capability that authorizes it.
func (a Action) RequiredCapability() Capability {
	switch a.Kind {
	case ActionGenerate:
		return CapabilityGenerate
	case ActionApplyDelta:
		return CapabilityEvolve
	default:
		return CapabilityObserve
	}
}
