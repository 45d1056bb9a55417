// Package generation renders persona-styled text from cached snapshots.
// Strategies form a closed set selected from Profile fields, and template
// sets are compiled once per persona so rendering stays deterministic given
// the same entry state and prompt.
package generation

import (
	"github.com/XiaoConstantine/mimic-go/pkg/core"
)

// Strategy identifies one member of the closed rendering dispatch. Adding a
// strategy means adding it here, to the compiled template set and to the
// fragment builders, nowhere else, so the state space stays enumerable.
type Strategy string

const (
	// StrategyAuto defers selection to the persona's Profile at render time.
	StrategyAuto Strategy = "auto"

	// StrategyTemplateBlend renders through the persona's structural
	// scaffold: headers and bullet lists when the profile prefers them.
	StrategyTemplateBlend Strategy = "template_blend"

	// StrategyDirectCopy restates the prompt in the persona's direct voice
	// with minimal decoration.
	StrategyDirectCopy Strategy = "direct_copy"

	// StrategyHedgedRewrite wraps the response in the persona's hedge
	// openers and softeners.
	StrategyHedgedRewrite Strategy = "hedged_rewrite"
)

// hedgedSelectionFloor is the hedging-axis value at which auto selection
// prefers the hedged strategy even when the reasoning style is not cautious.
// Profiles loaded from old records may carry a stale style, so the axis is
// consulted directly.
const hedgedSelectionFloor = 0.6

// ValidStrategy reports whether s is a member of the closed enum.
func ValidStrategy(s Strategy) bool {
	switch s {
	case StrategyAuto, StrategyTemplateBlend, StrategyDirectCopy, StrategyHedgedRewrite:
		return true
	default:
		return false
	}
}

// ParseStrategy maps a configuration string to a Strategy. Unknown values
// fall back to StrategyAuto so a stale config field cannot pin rendering to
// a strategy that no longer exists.
func ParseStrategy(s string) Strategy {
	if v := Strategy(s); ValidStrategy(v) {
		return v
	}
	return StrategyAuto
}

// SelectStrategy resolves the concrete strategy for a profile. Selection is
// a pure function of ReasoningStyle and the hedging axis:
//
//   - cautious reasoning, or hedging at or above 0.6, picks hedged_rewrite
//   - direct reasoning picks direct_copy
//   - analytical and exploratory reasoning pick template_blend
//
// A nil profile picks template_blend, the most neutral scaffold.
func SelectStrategy(profile *core.Profile) Strategy {
	if profile == nil {
		return StrategyTemplateBlend
	}
	if profile.ReasoningStyle == core.ReasoningCautious || profile.Axis(core.AxisHedging) >= hedgedSelectionFloor {
		return StrategyHedgedRewrite
	}
	if profile.ReasoningStyle == core.ReasoningDirect {
		return StrategyDirectCopy
	}
	return StrategyTemplateBlend
}
