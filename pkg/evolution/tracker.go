// Package evolution tracks per-persona convergence: bounded score history,
// drift over a sliding window, the Observing/Refining/Converged/Regressed
// phase machine, and the deterministic delta proposer that moves profiles
// toward a target signature. State is sharded by persona id so unrelated
// personas never contend; per-persona operations serialize on the persona's
// own mutex.
package evolution

import (
	"context"
	"math"
	"sync"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
	"github.com/XiaoConstantine/mimic-go/pkg/logging"
)

const (
	// DefaultConvergenceThreshold is the score a persona must reach before
	// the phase machine considers it converged.
	DefaultConvergenceThreshold = 0.9

	// DefaultHysteresis is how far below the threshold the score must drop
	// before a converged persona regresses. The band keeps noise from
	// flapping the phase.
	DefaultHysteresis = 0.05

	// DefaultStabilityEpsilon bounds the drift magnitude that still counts
	// as stable.
	DefaultStabilityEpsilon = 0.02

	// DefaultDriftWindow is the sliding-window size for the drift fit and
	// the number of consecutive stable samples convergence requires.
	DefaultDriftWindow = 5

	// DefaultHistorySize bounds the per-persona score ring.
	DefaultHistorySize = 64

	// DefaultLearningRate scales the axis gap into a proposed step.
	DefaultLearningRate = 0.3

	// DefaultMaxStep bounds any single proposed axis change.
	DefaultMaxStep = 0.2

	// DefaultShards is the persona-state shard count.
	DefaultShards = 16

	// identityScore is the score treated as exact identity between current
	// and target signatures. At identity there is nothing left to refine,
	// so convergence skips the multi-sample stability requirement.
	identityScore = 1 - 1e-9
)

// Result reports the tracker state right after one recorded score.
type Result struct {
	Sample core.ConvergenceSample
	Phase  core.Phase
	Drift  Drift

	// Warning is a non-fatal ScoreOutOfRange error when the raw score had
	// to be clamped, nil otherwise. The history itself is always intact.
	Warning error
}

type personaState struct {
	mu        sync.Mutex
	history   *ring
	recorded  uint64
	phase     core.Phase
	drift     Drift
	stableRun int
	target    *core.Signature
}

type trackerShard struct {
	mu     sync.RWMutex
	states map[string]*personaState
}

// Tracker holds convergence state for every tracked persona.
type Tracker struct {
	convergenceThreshold float64
	hysteresis           float64
	stabilityEpsilon     float64
	driftWindow          int
	historySize          int
	learningRate         float64
	maxStep              float64

	shards []*trackerShard
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithConvergenceThreshold sets the level condition for convergence.
func WithConvergenceThreshold(v float64) Option {
	return func(t *Tracker) {
		if v > 0 && v <= 1 {
			t.convergenceThreshold = v
		}
	}
}

// WithHysteresis sets the regression band below the threshold.
func WithHysteresis(v float64) Option {
	return func(t *Tracker) {
		if v >= 0 {
			t.hysteresis = v
		}
	}
}

// WithStabilityEpsilon sets the drift magnitude still counted as stable.
func WithStabilityEpsilon(v float64) Option {
	return func(t *Tracker) {
		if v > 0 {
			t.stabilityEpsilon = v
		}
	}
}

// WithDriftWindow sets the sliding-window size for the drift fit.
func WithDriftWindow(n int) Option {
	return func(t *Tracker) {
		if n >= 2 {
			t.driftWindow = n
		}
	}
}

// WithHistorySize bounds the per-persona score ring.
func WithHistorySize(n int) Option {
	return func(t *Tracker) {
		if n >= 1 {
			t.historySize = n
		}
	}
}

// WithLearningRate sets the gap-to-step scaling for proposals.
func WithLearningRate(v float64) Option {
	return func(t *Tracker) {
		if v > 0 && v <= 1 {
			t.learningRate = v
		}
	}
}

// WithMaxStep bounds any single proposed axis change.
func WithMaxStep(v float64) Option {
	return func(t *Tracker) {
		if v > 0 && v <= 1 {
			t.maxStep = v
		}
	}
}

// WithShards sets the persona-state shard count.
func WithShards(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.shards = make([]*trackerShard, n)
		}
	}
}

// New creates a Tracker with the supplied options applied over the defaults.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		convergenceThreshold: DefaultConvergenceThreshold,
		hysteresis:           DefaultHysteresis,
		stabilityEpsilon:     DefaultStabilityEpsilon,
		driftWindow:          DefaultDriftWindow,
		historySize:          DefaultHistorySize,
		learningRate:         DefaultLearningRate,
		maxStep:              DefaultMaxStep,
		shards:               make([]*trackerShard, DefaultShards),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.historySize < t.driftWindow {
		t.historySize = t.driftWindow
	}
	for i := range t.shards {
		t.shards[i] = &trackerShard{states: make(map[string]*personaState)}
	}
	return t
}

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

func (t *Tracker) shardFor(id string) *trackerShard {
	h := uint32(fnvOffset32)
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= fnvPrime32
	}
	return t.shards[h%uint32(len(t.shards))]
}

// stateFor returns the persona's state, creating it on first contact.
func (t *Tracker) stateFor(id string) *personaState {
	s := t.shardFor(id)

	s.mu.RLock()
	st, ok := s.states[id]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.states[id]; ok {
		return st
	}
	st = &personaState{
		history: newRing(t.historySize),
		phase:   core.PhaseObserving,
	}
	s.states[id] = st
	return st
}

// lookup returns the persona's state without creating it.
func (t *Tracker) lookup(id string) (*personaState, bool) {
	s := t.shardFor(id)
	s.mu.RLock()
	st, ok := s.states[id]
	s.mu.RUnlock()
	return st, ok
}

// Record appends one convergence score to the persona's history, refits the
// drift window and advances the phase machine. Scores outside [0,1] (and
// NaN, which is stored as zero) are clamped before they reach the ring, so
// bad input can never corrupt history; the clamp is reported through
// Result.Warning and a warning log rather than a failure.
func (t *Tracker) Record(ctx context.Context, id string, score float64) Result {
	clamped := score
	if math.IsNaN(clamped) {
		clamped = 0
	}
	clamped = core.Clamp01(clamped)

	var warning error
	if clamped != score {
		warning = errors.WithFields(
			errors.New(errors.ScoreOutOfRange, "convergence score out of range, clamped"),
			errors.Fields{"persona_id": id, "raw_score": score, "clamped_score": clamped},
		)
		logging.GetLogger().Warn(ctx, "Convergence score %v for persona %s out of range, clamped to %.2f", score, id, clamped)
	}

	st := t.stateFor(id)

	st.mu.Lock()
	sample := core.ConvergenceSample{Index: st.recorded, Score: clamped}
	st.recorded++
	st.history.push(sample)

	st.drift = computeDrift(st.history.last(t.driftWindow), t.driftWindow)
	if st.drift.Sufficient && math.Abs(st.drift.Slope) < t.stabilityEpsilon {
		st.stableRun++
	} else {
		st.stableRun = 0
	}

	prev := st.phase
	st.phase = t.advancePhase(st, clamped)

	result := Result{
		Sample:  sample,
		Phase:   st.phase,
		Drift:   st.drift,
		Warning: warning,
	}
	st.mu.Unlock()

	logging.GetLogger().ConvergenceStep(ctx, id, clamped, result.Drift.Slope, result.Phase.String())
	if result.Phase != prev {
		logging.GetLogger().Info(ctx, "Persona %s phase %s -> %s at score %.4f", id, prev, result.Phase, clamped)
	}
	return result
}

// advancePhase applies the phase machine edges for one recorded score. The
// caller holds the persona's mutex. Forward edges may chain within a single
// record (an exact-identity score can move Observing through Refining to
// Converged), but once converged the only exits are Converged or Regressed.
func (t *Tracker) advancePhase(st *personaState, latest float64) core.Phase {
	converged := func() bool {
		if latest < t.convergenceThreshold {
			return false
		}
		return st.stableRun >= t.driftWindow || latest >= identityScore
	}

	switch st.phase {
	case core.PhaseObserving:
		if st.history.len() < t.driftWindow && latest < identityScore {
			return core.PhaseObserving
		}
		if converged() {
			return core.PhaseConverged
		}
		return core.PhaseRefining

	case core.PhaseRefining:
		if converged() {
			return core.PhaseConverged
		}
		return core.PhaseRefining

	case core.PhaseConverged:
		if latest < t.convergenceThreshold-t.hysteresis {
			return core.PhaseRegressed
		}
		return core.PhaseConverged

	case core.PhaseRegressed:
		if converged() {
			return core.PhaseConverged
		}
		return core.PhaseRefining

	default:
		return st.phase
	}
}

// Phase returns the persona's current phase. Personas never recorded are
// Observing.
func (t *Tracker) Phase(id string) core.Phase {
	st, ok := t.lookup(id)
	if !ok {
		return core.PhaseObserving
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.phase
}

// Drift returns the persona's current drift estimate. Personas with fewer
// recorded samples than the window report an insufficient drift.
func (t *Tracker) Drift(id string) Drift {
	st, ok := t.lookup(id)
	if !ok {
		return Drift{}
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.drift
}

// History returns a copy of the persona's retained samples in chronological
// order.
func (t *Tracker) History(id string) []core.ConvergenceSample {
	st, ok := t.lookup(id)
	if !ok {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.history.all()
}

// Latest returns the most recent sample, if any.
func (t *Tracker) Latest(id string) (core.ConvergenceSample, bool) {
	st, ok := t.lookup(id)
	if !ok {
		return core.ConvergenceSample{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.history.latest()
}

// SetTarget pins the signature the persona is converging toward. The
// tracker keeps its own copy.
func (t *Tracker) SetTarget(id string, target core.Signature) {
	st := t.stateFor(id)
	cl := target.Clone()

	st.mu.Lock()
	st.target = &cl
	st.mu.Unlock()
}

// Target returns the persona's target signature, if one was set.
func (t *Tracker) Target(id string) (core.Signature, bool) {
	st, ok := t.lookup(id)
	if !ok {
		return core.Signature{}, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.target == nil {
		return core.Signature{}, false
	}
	return st.target.Clone(), true
}

// Remove drops all tracked state for the persona.
func (t *Tracker) Remove(id string) {
	s := t.shardFor(id)
	s.mu.Lock()
	delete(s.states, id)
	s.mu.Unlock()
}

// Restore rebuilds a persona's state from a persisted record: the history
// ring is replayed, the phase is trusted as stored, and the drift and
// stability counters are recomputed from the replayed tail since they are
// derived state, not part of the record. Scores are clamped on the way in
// so a hand-edited record cannot corrupt the ring.
func (t *Tracker) Restore(id string, history []core.ConvergenceSample, phase core.Phase) {
	st := t.stateFor(id)

	st.mu.Lock()
	defer st.mu.Unlock()

	st.history = newRing(t.historySize)
	var next uint64
	for _, s := range history {
		score := s.Score
		if math.IsNaN(score) {
			score = 0
		}
		st.history.push(core.ConvergenceSample{Index: s.Index, Score: core.Clamp01(score)})
		if s.Index >= next {
			next = s.Index + 1
		}
	}
	st.recorded = next
	st.phase = phase
	st.drift = computeDrift(st.history.last(t.driftWindow), t.driftWindow)
	st.stableRun = recomputeStableRun(st.history.all(), t.driftWindow, t.stabilityEpsilon)
}
