package sources

import (
	"context"
	"sync/atomic"
)

const originSlice = "slice"

// SliceSource serves a fixed set of samples for one persona. Useful for
// tests and bulk replays of already-collected material.
type SliceSource struct {
	personaID string
	samples   []string
	next      atomic.Int64
}

// NewSliceSource copies the samples so the caller can reuse its slice.
func NewSliceSource(personaID string, samples ...string) *SliceSource {
	s := &SliceSource{personaID: personaID}
	s.samples = make([]string, len(samples))
	copy(s.samples, samples)
	return s
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (Observation, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return Observation{}, false, err
	}

	i := s.next.Add(1) - 1
	if i >= int64(len(s.samples)) {
		return Observation{}, false, nil
	}
	return Observation{
		PersonaID: s.personaID,
		Sample:    s.samples[i],
		Metadata:  newMetadata(originSlice),
	}, true, nil
}
