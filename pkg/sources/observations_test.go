package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservationSourceServesInOrder(t *testing.T) {
	ctx := context.Background()
	src := NewObservationSource("corpus", []Observation{
		{PersonaID: "ada", Sample: "First sample."},
		{PersonaID: "ada", Sample: "Second sample."},
	})

	first, ok, err := src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "First sample.", first.Sample)
	assert.Equal(t, "corpus", first.Metadata.Origin)
	assert.NotEmpty(t, first.Metadata.ObservationID)
	assert.WithinDuration(t, time.Now().UTC(), first.Metadata.ReceivedAt, time.Minute)

	second, ok, err := src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Second sample.", second.Sample)
	assert.NotEqual(t, first.Metadata.ObservationID, second.Metadata.ObservationID)

	for i := 0; i < 2; i++ {
		_, ok, err = src.Next(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestObservationSourcePreservesExistingMetadata(t *testing.T) {
	stamped := Observation{
		PersonaID: "ada",
		Sample:    "Already stamped.",
		Metadata:  Metadata{ObservationID: "obs-1", Origin: "replay", ReceivedAt: time.Unix(100, 0).UTC()},
	}
	src := NewObservationSource("corpus", []Observation{stamped})

	got, ok, err := src.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stamped.Metadata, got.Metadata)
}

func TestObservationSourceCopiesInput(t *testing.T) {
	input := []Observation{{PersonaID: "ada", Sample: "original"}}
	src := NewObservationSource("corpus", input)
	input[0].Sample = "mutated"

	got, ok, err := src.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "original", got.Sample)
}

func TestObservationSourceCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewObservationSource("corpus", []Observation{{PersonaID: "ada", Sample: "x"}})
	_, _, err := src.Next(ctx)
	require.Error(t, err)
}
