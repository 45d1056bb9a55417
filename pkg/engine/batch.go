package engine

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/XiaoConstantine/mimic-go/pkg/errors"
	"github.com/XiaoConstantine/mimic-go/pkg/logging"
	"github.com/XiaoConstantine/mimic-go/pkg/sources"
)

// ObserveBatch feeds a set of observations through Observe on a bounded
// worker pool. Observations are grouped by persona id and each group is
// handled by one worker in submission order, so per-persona ordering holds
// while distinct personas proceed in parallel. Every group is attempted;
// failures come back joined.
func (e *Engine) ObserveBatch(ctx context.Context, observations []sources.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	groups := make(map[string][]sources.Observation)
	order := make([]string, 0, len(observations))
	for _, obs := range observations {
		if _, seen := groups[obs.PersonaID]; !seen {
			order = append(order, obs.PersonaID)
		}
		groups[obs.PersonaID] = append(groups[obs.PersonaID], obs)
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(e.maxConcurrency)
	for _, id := range order {
		group := groups[id]
		p.Go(func(ctx context.Context) error {
			for _, obs := range group {
				if _, err := e.Observe(ctx, obs.PersonaID, obs.Sample); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return p.Wait()
}

// EvolveBatch evolves each persona on a bounded worker pool. Personas are
// independent tasks; one persona's failure does not stop the others. The
// result map holds an entry per attempted persona alongside any joined
// errors.
func (e *Engine) EvolveBatch(ctx context.Context, ids []string, steps int) (map[string]EvolveResult, error) {
	results := make(map[string]EvolveResult, len(ids))
	if len(ids) == 0 {
		return results, nil
	}

	var mu sync.Mutex
	p := pool.New().WithContext(ctx).WithMaxGoroutines(e.maxConcurrency)
	for _, id := range ids {
		p.Go(func(ctx context.Context) error {
			res, err := e.Evolve(ctx, id, steps)
			mu.Lock()
			results[id] = res
			mu.Unlock()
			return err
		})
	}
	return results, p.Wait()
}

// Drain pulls src until exhaustion or cancellation, feeding each observation
// through Observe. Samples too short to analyze are logged and skipped so
// one noisy corpus row cannot abort an import; any other failure stops the
// drain. Returns how many observations were applied.
func (e *Engine) Drain(ctx context.Context, src sources.Source) (int, error) {
	observed := 0
	for {
		obs, ok, err := src.Next(ctx)
		if err != nil {
			return observed, err
		}
		if !ok {
			return observed, nil
		}

		if _, err := e.Observe(ctx, obs.PersonaID, obs.Sample); err != nil {
			if errors.HasCode(err, errors.InsufficientData) {
				logging.GetLogger().Warn(ctx, "Skipping observation %s for persona %s: %v",
					obs.Metadata.ObservationID, obs.PersonaID, err)
				continue
			}
			return observed, err
		}
		observed++
	}
}
