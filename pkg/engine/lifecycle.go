package engine

import (
	"context"

	"github.com/XiaoConstantine/mimic-go/pkg/cache"
	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
	"github.com/XiaoConstantine/mimic-go/pkg/logging"
	"github.com/XiaoConstantine/mimic-go/pkg/store"
)

// Save persists the persona's current snapshot and convergence state. A
// PersistenceFailed fault is retried once before it surfaces; other errors
// surface immediately. Saves for one id serialize on the persona's key lock.
func (e *Engine) Save(ctx context.Context, id string) error {
	if err := errors.CheckContext(ctx, "save"); err != nil {
		return err
	}

	lock := e.cache.KeyLock(id)
	lock.Lock()
	defer lock.Unlock()

	entry, ok := e.cache.Get(id)
	if !ok {
		return errors.WithFields(
			errors.New(errors.UnknownPersona, "persona has not been observed"),
			errors.Fields{"persona_id": id})
	}

	rec := store.NewRecord(entry.Profile, entry.Signature, e.tracker.History(id), e.tracker.Phase(id))
	err := e.store.Save(ctx, rec)
	if errors.HasCode(err, errors.PersistenceFailed) {
		logging.GetLogger().Warn(ctx, "Save for persona %s failed, retrying once: %v", id, err)
		err = e.store.Save(ctx, rec)
	}
	if err != nil {
		return err
	}

	logging.GetLogger().Debug(ctx, "Saved persona %s at version %d, phase %s",
		id, entry.Profile.Version, e.tracker.Phase(id))
	return nil
}

// Load restores a persisted persona: the cache is warmed with the stored
// snapshot and the tracker's history and phase are rebuilt. The target
// signature is not part of the record, so a restored persona needs SetTarget
// again before it can evolve.
func (e *Engine) Load(ctx context.Context, id string) error {
	if err := errors.CheckContext(ctx, "load"); err != nil {
		return err
	}

	lock := e.cache.KeyLock(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := e.store.Load(ctx, id)
	if err != nil {
		return err
	}

	e.cache.Put(rec.ID, cache.NewEntry(rec.ID, rec.Profile, rec.Signature))
	e.tracker.Restore(rec.ID, rec.ConvergenceHistory, rec.Phase)

	logging.GetLogger().Debug(ctx, "Loaded persona %s: version %d, %d history samples, phase %s",
		rec.ID, rec.Profile.Version, len(rec.ConvergenceHistory), rec.Phase)
	return nil
}

// Remove deletes the persona everywhere: stored record, cached snapshot and
// tracker state. The store delete happens first so a persistence fault
// leaves the in-memory state untouched and the call retryable.
func (e *Engine) Remove(ctx context.Context, id string) error {
	if err := errors.CheckContext(ctx, "remove"); err != nil {
		return err
	}

	lock := e.cache.KeyLock(id)
	lock.Lock()
	defer lock.Unlock()

	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	e.cache.Invalidate(id)
	e.tracker.Remove(id)

	logging.GetLogger().Info(ctx, "Removed persona %s", id)
	return nil
}

// List returns the ids of every persisted persona.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// SetTarget pins the signature the persona converges toward. Subsequent
// Observe calls score against it and Evolve steps move toward it.
func (e *Engine) SetTarget(id string, target core.Signature) {
	e.tracker.SetTarget(id, target)
}

// Target returns the persona's pinned target signature, if any.
func (e *Engine) Target(id string) (core.Signature, bool) {
	return e.tracker.Target(id)
}

// Phase returns the persona's convergence phase.
func (e *Engine) Phase(id string) core.Phase {
	return e.tracker.Phase(id)
}

// History returns a copy of the persona's retained convergence samples.
func (e *Engine) History(id string) []core.ConvergenceSample {
	return e.tracker.History(id)
}

// SwapActive atomically repoints the active persona to id's cached snapshot.
func (e *Engine) SwapActive(id string) (*cache.Entry, bool) {
	return e.cache.SwapActive(id)
}

// Active returns the active persona's snapshot, or nil when none is active.
func (e *Engine) Active() *cache.Entry {
	return e.cache.Active()
}

// CacheStats returns a snapshot of the cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}
