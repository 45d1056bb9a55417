// Package sources feeds the engine observation material: persona-tagged
// text samples pulled from fixed sets, line-delimited readers, or a live
// Anthropic model. Sources do their own waiting (rate limits, I/O); the
// engine just drains them.
package sources

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

// Metadata identifies where and when an observation entered the system.
type Metadata struct {
	ObservationID string    `json:"observation_id"`
	Origin        string    `json:"origin"`
	ReceivedAt    time.Time `json:"received_at"`
}

// Observation is one persona-attributed sample ready for analysis.
type Observation struct {
	PersonaID string   `json:"persona_id"`
	Sample    string   `json:"sample"`
	Metadata  Metadata `json:"metadata"`
}

// Source produces observations until exhaustion. Next returns ok=false with
// a nil error once the source is drained; implementations must keep
// returning that state on further calls. Next honors ctx cancellation.
type Source interface {
	Next(ctx context.Context) (Observation, bool, error)
}

func newMetadata(origin string) Metadata {
	return Metadata{
		ObservationID: uuid.New().String(),
		Origin:        origin,
		ReceivedAt:    time.Now().UTC(),
	}
}

func checkCtx(ctx context.Context) error {
	return errors.CheckContext(ctx, "observation source")
}
