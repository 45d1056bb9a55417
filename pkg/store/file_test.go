package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

func assertCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var typed *errors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, code, typed.Code())
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()
	rec := testRecord("p1")

	require.NoError(t, s.Save(ctx, rec))

	loaded, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, rec.Phase, loaded.Phase)
	assert.Equal(t, rec.Profile.PersonalityAxes, loaded.Profile.PersonalityAxes)
	assert.Equal(t, rec.ConvergenceHistory, loaded.ConvergenceHistory)
	assert.Equal(t, rec.Signature.HedgingLevel, loaded.Signature.HedgingLevel)
}

func TestFileStoreLoadMissing(t *testing.T) {
	s := NewFileStore(t.TempDir())
	_, err := s.Load(context.Background(), "nobody")
	assertCode(t, err, errors.UnknownPersona)
}

func TestFileStoreSavePreservesCreatedAt(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	first := testRecord("p1")
	first.CreatedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	first.UpdatedAt = first.CreatedAt
	require.NoError(t, s.Save(ctx, first))

	second := testRecord("p1")
	second.UpdatedAt = time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)
	require.NoError(t, s.Save(ctx, second))

	loaded, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, loaded.CreatedAt.Equal(first.CreatedAt), "created-at must survive rewrites")
	assert.True(t, loaded.UpdatedAt.Equal(second.UpdatedAt))
}

func TestFileStoreDeleteIdempotent(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "nobody"))

	require.NoError(t, s.Save(ctx, testRecord("p1")))
	require.NoError(t, s.Delete(ctx, "p1"))
	_, err := s.Load(ctx, "p1")
	assertCode(t, err, errors.UnknownPersona)
	require.NoError(t, s.Delete(ctx, "p1"))
}

func TestFileStoreList(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"zeta", "alpha", "team/lead", "mid.dot"} {
		require.NoError(t, s.Save(ctx, testRecord(id)))
	}

	ids, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid.dot", "team/lead", "zeta"}, ids)
}

func TestFileStoreEscapesIDs(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testRecord("../escape")))

	loaded, err := s.Load(ctx, "../escape")
	require.NoError(t, err)
	assert.Equal(t, "../escape", loaded.ID)

	// The record must live inside the store directory, not beside it.
	outside := filepath.Join(filepath.Dir(dir), "escape.json")
	_, statErr := os.Stat(outside)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Save(ctx, testRecord("p1")))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreCanceledContext(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assertCode(t, s.Save(ctx, testRecord("p1")), errors.Canceled)
	_, err := s.Load(ctx, "p1")
	assertCode(t, err, errors.Canceled)
	assertCode(t, s.Delete(ctx, "p1"), errors.Canceled)
	_, err = s.List(ctx)
	assertCode(t, err, errors.Canceled)
}

func TestFileStoreCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testRecord("p1")))
	require.NoError(t, os.WriteFile(s.path("p1"), []byte("{not json"), 0o644))

	_, err := s.Load(ctx, "p1")
	assertCode(t, err, errors.PersistenceFailed)

	// A corrupt prior record must not block a rewrite.
	require.NoError(t, s.Save(ctx, testRecord("p1")))
	_, err = s.Load(ctx, "p1")
	require.NoError(t, err)
}
