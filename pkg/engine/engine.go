// Package engine orchestrates the mimicry loop. Observations refine cached
// signatures through the analyzer, the evolution tracker scores convergence
// against pinned targets and proposes bounded deltas, the ethics gate vets
// every generation and delta application, and the renderer turns prompts
// into persona-styled text. Mutations for one persona serialize on the
// cache's keyed locks; unrelated personas never contend.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/XiaoConstantine/mimic-go/pkg/analysis"
	"github.com/XiaoConstantine/mimic-go/pkg/cache"
	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/entity"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
	"github.com/XiaoConstantine/mimic-go/pkg/evolution"
	"github.com/XiaoConstantine/mimic-go/pkg/generation"
	"github.com/XiaoConstantine/mimic-go/pkg/logging"
	"github.com/XiaoConstantine/mimic-go/pkg/metrics"
	"github.com/XiaoConstantine/mimic-go/pkg/store"
)

const (
	// DefaultMaxIterations bounds one Evolve call when the caller passes no
	// step budget.
	DefaultMaxIterations = 10

	// DefaultMaxConcurrency bounds batch fan-out when none is configured.
	DefaultMaxConcurrency = 4
)

// Engine ties the analyzer, cache, tracker, gate, renderer and store into
// the persona lifecycle. Construct one per store; engines are safe for
// concurrent use.
type Engine struct {
	store    store.Store
	analyzer *analysis.Analyzer
	tracker  *evolution.Tracker
	cache    *cache.SignatureCache
	renderer *generation.Renderer
	gate     entity.Gate

	weights        metrics.Weights
	maxIterations  int
	maxConcurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithAnalyzer replaces the default behavior analyzer.
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(e *Engine) {
		if a != nil {
			e.analyzer = a
		}
	}
}

// WithTracker replaces the default evolution tracker.
func WithTracker(t *evolution.Tracker) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracker = t
		}
	}
}

// WithCache replaces the default signature cache.
func WithCache(c *cache.SignatureCache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithRenderer replaces the default renderer.
func WithRenderer(r *generation.Renderer) Option {
	return func(e *Engine) {
		if r != nil {
			e.renderer = r
		}
	}
}

// WithGate installs the ethics gate consulted before generation and delta
// application. The default allows everything.
func WithGate(g entity.Gate) Option {
	return func(e *Engine) {
		if g != nil {
			e.gate = g
		}
	}
}

// WithSimilarityWeights sets the pattern/hedging blend used for convergence
// scores.
func WithSimilarityWeights(w metrics.Weights) Option {
	return func(e *Engine) {
		e.weights = w.Normalized()
	}
}

// WithMaxIterations sets the default step budget for Evolve calls that pass
// zero.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithMaxConcurrency bounds the worker pool used by batch operations.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

// New creates an Engine persisting through st. The store is required; every
// other collaborator has a default.
func New(st store.Store, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, errors.New(errors.InvalidInput, "engine requires a store")
	}

	e := &Engine{
		store:          st,
		analyzer:       analysis.NewAnalyzer(),
		tracker:        evolution.New(),
		cache:          cache.New(),
		renderer:       generation.NewRenderer(),
		gate:           entity.AllowAll{},
		weights:        metrics.DefaultWeights(),
		maxIterations:  DefaultMaxIterations,
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ObserveResult reports the persona state right after one observation.
type ObserveResult struct {
	PersonaID string
	Signature core.Signature

	// Score is the convergence score recorded against the target signature.
	// Scored is false when no target is pinned, in which case Score is zero
	// and nothing was recorded.
	Score  float64
	Scored bool
	Phase  core.Phase
}

// Observe feeds one sample into the persona's signature. A cached persona is
// refined incrementally with the cached signature as prior; an unseen id
// gets a fresh analysis and a default profile. The refreshed snapshot is
// published write-through, and when a target signature is pinned the new
// similarity score is recorded with the tracker. Observes for one id apply
// in submission order; across ids no ordering is guaranteed.
func (e *Engine) Observe(ctx context.Context, id, sample string) (ObserveResult, error) {
	if err := errors.CheckContext(ctx, "observe"); err != nil {
		return ObserveResult{}, err
	}
	if id == "" {
		return ObserveResult{}, errors.New(errors.InvalidInput, "observe requires a persona id")
	}

	lock := e.cache.KeyLock(id)
	lock.Lock()
	defer lock.Unlock()

	var prior *core.Signature
	profile := core.NewProfile(id)
	if entry, ok := e.cache.Get(id); ok {
		sig := entry.Signature.Clone()
		prior = &sig
		profile = entry.Profile
	}

	sig, err := e.analyzer.Analyze(ctx, []string{sample}, prior)
	if err != nil {
		return ObserveResult{}, errors.WithFields(err, errors.Fields{"persona_id": id})
	}

	entry := cache.NewEntry(id, profile, *sig)
	e.cache.Put(id, entry)

	result := ObserveResult{
		PersonaID: id,
		Signature: entry.Signature.Clone(),
		Phase:     e.tracker.Phase(id),
	}
	if target, ok := e.tracker.Target(id); ok {
		score := metrics.Similarity(*sig, target, e.weights)
		rec := e.tracker.Record(ctx, id, score)
		result.Score = score
		result.Scored = true
		result.Phase = rec.Phase
	}

	logging.GetLogger().Debug(ctx, "Observed persona %s: %d patterns, hedging %.3f, %d samples",
		id, len(result.Signature.Patterns), result.Signature.HedgingLevel, result.Signature.SampleCount)
	return result, nil
}

// Generate renders prompt in the persona's voice. The read is cache-only: an
// id that was never observed (or was evicted) fails with UnknownPersona
// rather than producing unstyled output. The composed entity is checked
// against the gate before any text is rendered. Generation records nothing.
func (e *Engine) Generate(ctx context.Context, id, prompt string) (string, error) {
	if err := errors.CheckContext(ctx, "generate"); err != nil {
		return "", err
	}

	entry, ok := e.cache.Get(id)
	if !ok {
		return "", errors.WithFields(
			errors.New(errors.UnknownPersona, "persona has not been observed"),
			errors.Fields{"persona_id": id})
	}

	ent := entity.Compose(entry.Profile, entry.Signature, nil)
	action := core.Action{Kind: core.ActionGenerate, PersonaID: id, Prompt: prompt}
	if err := entity.Check(ctx, e.gate, ent, action); err != nil {
		return "", err
	}

	set := entry.Templates()
	if set == nil {
		compiled, err := generation.Compile(entry.Profile, entry.Signature)
		if err != nil {
			return "", errors.WithFields(err, errors.Fields{"persona_id": id})
		}
		entry.SetTemplates(compiled)
		set = compiled
	}

	return e.renderer.Generate(entry.Profile, set, prompt)
}

// EvolveResult reports one Evolve run: how many iterations committed, the
// audit records for non-zero deltas, and the last recorded score and phase.
type EvolveResult struct {
	PersonaID string
	Steps     int
	Applied   []core.AppliedDelta
	Score     float64
	Phase     core.Phase
}

// Evolve runs up to steps propose/gate/apply/re-score iterations moving the
// persona toward its pinned target. Each iteration commits as a unit
// (profile update, signature step, cache put, convergence record) before the
// cancellation check between iterations, so an interrupted run leaves
// consistent, resumable state. Reaching Converged stops early. A gate
// rejection stops immediately with the last accepted state and a typed
// PolicyRejected error; the rejected delta is never half-applied. Zero or
// negative steps means the configured default budget.
func (e *Engine) Evolve(ctx context.Context, id string, steps int) (EvolveResult, error) {
	if err := errors.CheckContext(ctx, "evolve"); err != nil {
		return EvolveResult{}, err
	}
	if steps <= 0 {
		steps = e.maxIterations
	}

	lock := e.cache.KeyLock(id)
	lock.Lock()
	defer lock.Unlock()

	entry, ok := e.cache.Get(id)
	if !ok {
		return EvolveResult{}, errors.WithFields(
			errors.New(errors.UnknownPersona, "persona has not been observed"),
			errors.Fields{"persona_id": id})
	}
	target, ok := e.tracker.Target(id)
	if !ok {
		return EvolveResult{}, errors.WithFields(
			errors.New(errors.InvalidInput, "evolve requires a target signature"),
			errors.Fields{"persona_id": id})
	}

	result := EvolveResult{PersonaID: id, Phase: e.tracker.Phase(id)}
	if latest, ok := e.tracker.Latest(id); ok {
		result.Score = latest.Score
	}

	for i := 0; i < steps; i++ {
		delta := e.tracker.ProposeDelta(entry.Profile, entry.Signature, target)

		ent := entity.Compose(entry.Profile, entry.Signature, nil)
		action := core.Action{Kind: core.ActionApplyDelta, PersonaID: id, Delta: &delta}
		if err := entity.Check(ctx, e.gate, ent, action); err != nil {
			return result, err
		}

		profile := entry.Profile.Clone()
		profile.Apply(delta)
		sig := e.tracker.StepSignature(entry.Signature, target)
		score := metrics.Similarity(sig, target, e.weights)

		next := cache.NewEntry(id, profile, sig)
		e.cache.Put(id, next)
		rec := e.tracker.Record(ctx, id, score)

		if !delta.IsZero() {
			result.Applied = append(result.Applied, core.AppliedDelta{
				Delta:     delta,
				ApplyID:   uuid.NewString(),
				AppliedAt: time.Now().UTC(),
			})
		}
		result.Steps++
		result.Score = score
		result.Phase = rec.Phase
		entry = next

		logging.GetLogger().Debug(ctx, "Evolve step %d for persona %s: score %.4f, phase %s",
			result.Steps, id, score, rec.Phase)

		if rec.Phase == core.PhaseConverged {
			break
		}
		if err := errors.CheckContext(ctx, "evolve"); err != nil {
			return result, err
		}
	}

	return result, nil
}
