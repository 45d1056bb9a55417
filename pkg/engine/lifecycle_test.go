package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/mimic-go/internal/testutil"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
	"github.com/XiaoConstantine/mimic-go/pkg/store"
)

func TestSaveRetriesOnceOnPersistenceFault(t *testing.T) {
	ms := &testutil.MockStore{}
	eng, err := New(ms)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Observe(ctx, "p1", hedgedListSample)
	require.NoError(t, err)

	persistErr := errors.New(errors.PersistenceFailed, "disk full")
	ms.On("Save", mock.Anything, mock.MatchedBy(func(rec *store.Record) bool {
		return rec.ID == "p1"
	})).Return(persistErr).Once()
	ms.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, eng.Save(ctx, "p1"))
	ms.AssertNumberOfCalls(t, "Save", 2)
	ms.AssertExpectations(t)
}

func TestSaveSurfacesSecondPersistenceFault(t *testing.T) {
	ms := &testutil.MockStore{}
	eng, err := New(ms)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Observe(ctx, "p1", hedgedListSample)
	require.NoError(t, err)

	persistErr := errors.New(errors.PersistenceFailed, "disk full")
	ms.On("Save", mock.Anything, mock.Anything).Return(persistErr).Twice()

	err = eng.Save(ctx, "p1")
	require.Error(t, err)
	assert.Equal(t, errors.PersistenceFailed, errors.Code(err))
	ms.AssertNumberOfCalls(t, "Save", 2)
}

func TestSaveDoesNotRetryOtherFaults(t *testing.T) {
	ms := &testutil.MockStore{}
	eng, err := New(ms)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Observe(ctx, "p1", hedgedListSample)
	require.NoError(t, err)

	ms.On("Save", mock.Anything, mock.Anything).
		Return(errors.New(errors.ValidationFailed, "record rejected")).Once()

	err = eng.Save(ctx, "p1")
	require.Error(t, err)
	assert.Equal(t, errors.ValidationFailed, errors.Code(err))
	ms.AssertNumberOfCalls(t, "Save", 1)
}

func TestRemoveStoreFaultKeepsMemoryIntact(t *testing.T) {
	ms := &testutil.MockStore{}
	eng, err := New(ms)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Observe(ctx, "p1", hedgedListSample)
	require.NoError(t, err)

	ms.On("Delete", mock.Anything, "p1").
		Return(errors.New(errors.PersistenceFailed, "backend unreachable"))

	err = eng.Remove(ctx, "p1")
	require.Error(t, err)
	assert.Equal(t, errors.PersistenceFailed, errors.Code(err))

	// The cached snapshot survives a failed removal, so the call is
	// retryable and generation keeps working.
	out, err := eng.Generate(ctx, "p1", "Status update for the on-call channel")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestCloseReleasesStore(t *testing.T) {
	ms := &testutil.MockStore{}
	eng, err := New(ms)
	require.NoError(t, err)

	ms.On("Close").Return(nil).Once()
	require.NoError(t, eng.Close())
	ms.AssertExpectations(t)
}
