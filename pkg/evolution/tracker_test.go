package evolution

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

func TestRecordClampsOutOfRangeScore(t *testing.T) {
	ctx := context.Background()

	t.Run("AboveOne", func(t *testing.T) {
		tracker := New()
		result := tracker.Record(ctx, "p1", 1.5)

		assert.Equal(t, 1.0, result.Sample.Score)
		require.Error(t, result.Warning)

		var mimicErr *errors.Error
		require.ErrorAs(t, result.Warning, &mimicErr)
		assert.Equal(t, errors.ScoreOutOfRange, mimicErr.Code())

		history := tracker.History("p1")
		require.Len(t, history, 1, "clamped score still lands in history exactly once")
		assert.Equal(t, 1.0, history[0].Score)
	})

	t.Run("BelowZero", func(t *testing.T) {
		tracker := New()
		result := tracker.Record(ctx, "p1", -0.3)
		assert.Equal(t, 0.0, result.Sample.Score)
		assert.Error(t, result.Warning)
	})

	t.Run("NaN", func(t *testing.T) {
		tracker := New()
		result := tracker.Record(ctx, "p1", math.NaN())
		assert.Equal(t, 0.0, result.Sample.Score)
		assert.Error(t, result.Warning)
		require.Len(t, tracker.History("p1"), 1)
	})

	t.Run("InRangeHasNoWarning", func(t *testing.T) {
		tracker := New()
		result := tracker.Record(ctx, "p1", 0.5)
		assert.NoError(t, result.Warning)
	})
}

func TestPhaseObservingUntilDriftMeasurable(t *testing.T) {
	ctx := context.Background()
	tracker := New()

	for i := 0; i < 4; i++ {
		result := tracker.Record(ctx, "p1", 0.5)
		assert.Equal(t, core.PhaseObserving, result.Phase, "record %d", i+1)
	}

	result := tracker.Record(ctx, "p1", 0.5)
	assert.Equal(t, core.PhaseRefining, result.Phase, "window full, drift measurable")
	assert.True(t, result.Drift.Sufficient)
}

func TestPhaseIdentityScoreConvergesImmediately(t *testing.T) {
	ctx := context.Background()
	tracker := New()

	result := tracker.Record(ctx, "p1", 1.0)
	assert.Equal(t, core.PhaseConverged, result.Phase,
		"exact identity leaves nothing to refine")
}

func TestPhaseSingleLuckyScoreDoesNotConverge(t *testing.T) {
	ctx := context.Background()
	tracker := New()

	// Five mediocre scores reach Refining with a flat drift.
	for i := 0; i < 5; i++ {
		tracker.Record(ctx, "p1", 0.5)
	}
	require.Equal(t, core.PhaseRefining, tracker.Phase("p1"))

	// A sudden high score passes the level condition but destabilizes the
	// drift, so convergence must wait for the window to settle.
	result := tracker.Record(ctx, "p1", 0.95)
	assert.Equal(t, core.PhaseRefining, result.Phase)

	// The drift stays steep while the jump traverses the window (records
	// 7 through 9), flattens at record 10, and the stability run reaches
	// the window size at record 14.
	for i := 7; i <= 13; i++ {
		result = tracker.Record(ctx, "p1", 0.95)
		assert.Equal(t, core.PhaseRefining, result.Phase, "record %d", i)
	}
	result = tracker.Record(ctx, "p1", 0.95)
	assert.Equal(t, core.PhaseConverged, result.Phase, "record 14")
}

func TestPhaseHysteresisOnRegression(t *testing.T) {
	ctx := context.Background()
	tracker := New()

	require.Equal(t, core.PhaseConverged, tracker.Record(ctx, "p1", 1.0).Phase)

	// Inside the hysteresis band: still converged.
	result := tracker.Record(ctx, "p1", 0.87)
	assert.Equal(t, core.PhaseConverged, result.Phase)

	// Below threshold minus hysteresis: regressed.
	result = tracker.Record(ctx, "p1", 0.84)
	assert.Equal(t, core.PhaseRegressed, result.Phase)

	// The next record resumes refinement.
	result = tracker.Record(ctx, "p1", 0.86)
	assert.Equal(t, core.PhaseRefining, result.Phase)
}

func TestPhaseNeverReturnsToObserving(t *testing.T) {
	ctx := context.Background()
	tracker := New()

	require.Equal(t, core.PhaseConverged, tracker.Record(ctx, "p1", 1.0).Phase)

	scores := []float64{0.2, 0.1, 0.95, 0.3, 0.99, 0.0, 0.5, 1.0, 0.4}
	for _, score := range scores {
		result := tracker.Record(ctx, "p1", score)
		assert.NotEqual(t, core.PhaseObserving, result.Phase,
			"converged persona must never observe again (score %.2f)", score)
	}
}

func TestRegressedIdentityScoreReconverges(t *testing.T) {
	ctx := context.Background()
	tracker := New()

	require.Equal(t, core.PhaseConverged, tracker.Record(ctx, "p1", 1.0).Phase)
	require.Equal(t, core.PhaseRegressed, tracker.Record(ctx, "p1", 0.1).Phase)

	result := tracker.Record(ctx, "p1", 1.0)
	assert.Equal(t, core.PhaseConverged, result.Phase)
}

func TestHistoryBounded(t *testing.T) {
	ctx := context.Background()
	tracker := New(WithHistorySize(8))

	for i := 0; i < 20; i++ {
		tracker.Record(ctx, "p1", 0.5)
	}

	history := tracker.History("p1")
	require.Len(t, history, 8)
	assert.Equal(t, uint64(12), history[0].Index)
	assert.Equal(t, uint64(19), history[7].Index)
}

func TestTrackerUnknownPersonaDefaults(t *testing.T) {
	tracker := New()

	assert.Equal(t, core.PhaseObserving, tracker.Phase("ghost"))
	assert.False(t, tracker.Drift("ghost").Sufficient)
	assert.Nil(t, tracker.History("ghost"))

	_, ok := tracker.Latest("ghost")
	assert.False(t, ok)
}

func TestTrackerTargets(t *testing.T) {
	tracker := New()
	target := core.Signature{
		Patterns:     []core.Pattern{{Tag: core.PatternHedging, Confidence: 0.8}},
		HedgingLevel: 0.8,
		SampleCount:  4,
	}

	_, ok := tracker.Target("p1")
	assert.False(t, ok)

	tracker.SetTarget("p1", target)
	got, ok := tracker.Target("p1")
	require.True(t, ok)
	assert.Equal(t, target, got)

	// The tracker keeps its own copy in both directions.
	got.Patterns[0].Confidence = 0.0
	again, ok := tracker.Target("p1")
	require.True(t, ok)
	assert.Equal(t, 0.8, again.Patterns[0].Confidence)
}

func TestTrackerRemove(t *testing.T) {
	ctx := context.Background()
	tracker := New()

	tracker.Record(ctx, "p1", 0.5)
	tracker.SetTarget("p1", core.Signature{HedgingLevel: 0.5})
	tracker.Remove("p1")

	assert.Equal(t, core.PhaseObserving, tracker.Phase("p1"))
	assert.Nil(t, tracker.History("p1"))
	_, ok := tracker.Target("p1")
	assert.False(t, ok)
}

func TestTrackerRestore(t *testing.T) {
	ctx := context.Background()
	source := New()

	for _, score := range []float64{0.5, 0.6, 0.7, 0.8, 0.85, 0.9} {
		source.Record(ctx, "p1", score)
	}
	history := source.History("p1")
	phase := source.Phase("p1")

	restored := New()
	restored.Restore("p1", history, phase)

	assert.Equal(t, phase, restored.Phase("p1"))
	assert.Equal(t, history, restored.History("p1"))

	// Index numbering continues where the record left off.
	result := restored.Record(ctx, "p1", 0.9)
	assert.Equal(t, uint64(6), result.Sample.Index)
}

func TestTrackerRestoreRecoversStability(t *testing.T) {
	ctx := context.Background()

	history := make([]core.ConvergenceSample, 10)
	for i := range history {
		history[i] = core.ConvergenceSample{Index: uint64(i), Score: 0.95}
	}

	tracker := New()
	tracker.Restore("p1", history, core.PhaseRefining)

	// The stability run is derived state; after restore, one more stable
	// high score must be enough to converge.
	result := tracker.Record(ctx, "p1", 0.95)
	assert.Equal(t, core.PhaseConverged, result.Phase)
}

func TestTrackerRestoreClampsForeignScores(t *testing.T) {
	tracker := New()
	tracker.Restore("p1", []core.ConvergenceSample{
		{Index: 0, Score: 3.0},
		{Index: 1, Score: -1.0},
		{Index: 2, Score: math.NaN()},
	}, core.PhaseObserving)

	history := tracker.History("p1")
	require.Len(t, history, 3)
	assert.Equal(t, 1.0, history[0].Score)
	assert.Equal(t, 0.0, history[1].Score)
	assert.Equal(t, 0.0, history[2].Score)
}

func TestTrackerConcurrentPersonasIndependent(t *testing.T) {
	ctx := context.Background()
	tracker := New()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("persona-%d", n)
			for i := 0; i < 50; i++ {
				tracker.Record(ctx, id, 0.5)
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 8; g++ {
		id := fmt.Sprintf("persona-%d", g)
		latest, ok := tracker.Latest(id)
		require.True(t, ok)
		assert.Equal(t, uint64(49), latest.Index, "50 records per persona, serialized")
		assert.Equal(t, core.PhaseRefining, tracker.Phase(id))
	}
}
