package testutil

import (
	"context"
	"sync"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/entity"
)

// ScriptedGate allows a fixed number of actions and rejects everything
// after, recording every action it saw. Tests use it to interrupt evolve
// loops mid-flight and to assert what the engine presented to the gate.
type ScriptedGate struct {
	mu      sync.Mutex
	allow   int
	reason  string
	actions []core.Action
}

// NewScriptedGate builds a gate allowing the first allowFirst actions and
// rejecting the rest with reason.
func NewScriptedGate(allowFirst int, reason string) *ScriptedGate {
	return &ScriptedGate{allow: allowFirst, reason: reason}
}

func (g *ScriptedGate) BeforeAction(_ context.Context, _ *entity.CompoundEntity, action core.Action) entity.Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.actions = append(g.actions, action)
	if g.allow > 0 {
		g.allow--
		return entity.Allow()
	}
	return entity.Reject(g.reason)
}

// Actions returns a copy of every action the gate has seen, in order.
func (g *ScriptedGate) Actions() []core.Action {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]core.Action, len(g.actions))
	copy(out, g.actions)
	return out
}
