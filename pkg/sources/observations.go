package sources

import (
	"context"
	"sync/atomic"
)

// ObservationSource serves prebuilt observations, preserving any metadata
// already attached. Corpus loaders use it to hand bulk imports to the
// engine through the ordinary Source contract.
type ObservationSource struct {
	observations []Observation
	next         atomic.Int64
}

// NewObservationSource copies the observations. Entries without an
// observation id get fresh metadata stamped with the given origin.
func NewObservationSource(origin string, observations []Observation) *ObservationSource {
	s := &ObservationSource{observations: make([]Observation, len(observations))}
	copy(s.observations, observations)
	for i := range s.observations {
		if s.observations[i].Metadata.ObservationID == "" {
			s.observations[i].Metadata = newMetadata(origin)
		}
	}
	return s
}

// Next implements Source.
func (s *ObservationSource) Next(ctx context.Context) (Observation, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return Observation{}, false, err
	}

	i := s.next.Add(1) - 1
	if i >= int64(len(s.observations)) {
		return Observation{}, false, nil
	}
	return s.observations[i], true, nil
}
