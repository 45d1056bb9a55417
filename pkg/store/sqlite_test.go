package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "personas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assertCode(t, err, errors.InvalidInput)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	rec := testRecord("p1")
	rec.Phase = core.PhaseConverged

	require.NoError(t, s.Save(ctx, rec))

	loaded, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", loaded.ID)
	assert.Equal(t, core.PhaseConverged, loaded.Phase)
	assert.Equal(t, rec.Profile.PersonalityAxes, loaded.Profile.PersonalityAxes)
	assert.Equal(t, rec.ConvergenceHistory, loaded.ConvergenceHistory)
}

func TestSQLiteStoreLoadMissing(t *testing.T) {
	s := newTestSQLiteStore(t)
	_, err := s.Load(context.Background(), "nobody")
	assertCode(t, err, errors.UnknownPersona)
}

func TestSQLiteStoreUpsertPreservesCreatedAt(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first := testRecord("p1")
	first.CreatedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	first.UpdatedAt = first.CreatedAt
	require.NoError(t, s.Save(ctx, first))

	second := testRecord("p1")
	second.Profile.PersonalityAxes[core.AxisHedging] = 0.9
	second.UpdatedAt = time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)
	require.NoError(t, s.Save(ctx, second))

	loaded, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, loaded.CreatedAt.Equal(first.CreatedAt))
	assert.True(t, loaded.UpdatedAt.Equal(second.UpdatedAt))
	assert.Equal(t, 0.9, loaded.Profile.PersonalityAxes[core.AxisHedging])
}

func TestSQLiteStoreDeleteIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "nobody"))
	require.NoError(t, s.Save(ctx, testRecord("p1")))
	require.NoError(t, s.Delete(ctx, "p1"))
	_, err := s.Load(ctx, "p1")
	assertCode(t, err, errors.UnknownPersona)
}

func TestSQLiteStoreList(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha", "mu"} {
		require.NoError(t, s.Save(ctx, testRecord(id)))
	}

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mu", "zeta"}, ids)
}
