package entity

import (
	"context"
	"fmt"
	"regexp"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

// Decision is a gate's verdict on a single action.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Allow approves the action.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Reject vetoes the action with a reason the caller surfaces verbatim.
func Reject(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Gate is the ethics/policy hook consulted synchronously before every
// gate-checked operation. Implementations must be safe for concurrent use;
// the engine calls them from multiple persona goroutines.
type Gate interface {
	BeforeAction(ctx context.Context, e *CompoundEntity, action core.Action) Decision
}

// Check runs the gate and converts a rejection into the typed policy error,
// carrying the gate's reason verbatim as the message. A nil gate allows
// everything. The caller must stop on a non-nil return; a rejected action
// never falls back to unfiltered output.
func Check(ctx context.Context, g Gate, e *CompoundEntity, action core.Action) error {
	if g == nil {
		return nil
	}
	decision := g.BeforeAction(ctx, e, action)
	if decision.Allowed {
		return nil
	}
	return errors.WithFields(
		errors.New(errors.PolicyRejected, decision.Reason),
		errors.Fields{
			"persona_id": action.PersonaID,
			"action":     string(action.Kind),
		})
}

// AllowAll is the default gate: every action passes.
type AllowAll struct{}

// BeforeAction implements Gate.
func (AllowAll) BeforeAction(_ context.Context, _ *CompoundEntity, _ core.Action) Decision {
	return Allow()
}

// RuleGate is a stock gate enforcing two static rules: the entity must hold
// the capability the action requires, and generation prompts must not match
// any denied pattern. It covers the common deployment cases without pulling
// in an external policy engine.
type RuleGate struct {
	deny []*regexp.Regexp
}

// RuleGateOption configures a RuleGate.
type RuleGateOption func(*RuleGate)

// WithDeniedPatterns adds compiled patterns to the prompt deny-list.
func WithDeniedPatterns(patterns ...*regexp.Regexp) RuleGateOption {
	return func(g *RuleGate) {
		for _, p := range patterns {
			if p != nil {
				g.deny = append(g.deny, p)
			}
		}
	}
}

// NewRuleGate builds a RuleGate. With no options it only enforces
// capabilities.
func NewRuleGate(opts ...RuleGateOption) *RuleGate {
	g := &RuleGate{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BeforeAction implements Gate.
func (g *RuleGate) BeforeAction(_ context.Context, e *CompoundEntity, action core.Action) Decision {
	required := action.RequiredCapability()
	if !e.Can(required) {
		return Reject(fmt.Sprintf("capability %q not granted to persona %q", required, action.PersonaID))
	}
	if action.Prompt != "" {
		for _, p := range g.deny {
			if p.MatchString(action.Prompt) {
				return Reject(fmt.Sprintf("prompt matches denied pattern %q", p.String()))
			}
		}
	}
	return Allow()
}
