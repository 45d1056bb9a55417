package core

import (
	"encoding/json"
	"fmt"
)

// Phase is the per-persona convergence state. The machine moves
// Observing -> Refining -> Converged, with Converged -> Regressed -> Refining
// when the score drops through the hysteresis band. Once Converged, a persona
// never returns to Observing.
type Phase int

const (
	PhaseObserving Phase = iota
	PhaseRefining
	PhaseConverged
	PhaseRegressed
)

var phaseNames = map[Phase]string{
	PhaseObserving: "observing",
	PhaseRefining:  "refining",
	PhaseConverged: "converged",
	PhaseRegressed: "regressed",
}

var phaseValues = map[string]Phase{
	"observing": PhaseObserving,
	"refining":  PhaseRefining,
	"converged": PhaseConverged,
	"regressed": PhaseRegressed,
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "observing"
}

// ParsePhase maps a serialized phase name back to its value. Unknown names
// default to Observing so records written by newer versions still load.
func ParsePhase(name string) Phase {
	if p, ok := phaseValues[name]; ok {
		return p
	}
	return PhaseObserving
}

// CanTransition encodes the legal edges of the phase machine.
func (p Phase) CanTransition(next Phase) bool {
	if p == next {
		return true
	}
	switch p {
	case PhaseObserving:
		return next == PhaseRefining
	case PhaseRefining:
		return next == PhaseConverged
	case PhaseConverged:
		return next == PhaseRegressed
	case PhaseRegressed:
		return next == PhaseRefining
	default:
		return false
	}
}

// MarshalJSON serializes phases by name so records stay self-describing.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts the string form; unknown names degrade to Observing.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("phase must be a string: %w", err)
	}
	*p = ParsePhase(name)
	return nil
}
