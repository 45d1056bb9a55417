package sources

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

const (
	originReader = "reader"

	// maxLineBytes bounds a single sample line. Observed responses can run
	// long, so this sits well above bufio's 64 KiB default.
	maxLineBytes = 1 << 20
)

// ReaderSource yields one observation per non-blank line of a reader, all
// attributed to a single persona. Lines are trimmed of surrounding
// whitespace.
type ReaderSource struct {
	personaID string

	mu      sync.Mutex
	scanner *bufio.Scanner
}

// NewReaderSource wraps r. The source does not close the reader.
func NewReaderSource(personaID string, r io.Reader) *ReaderSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &ReaderSource{personaID: personaID, scanner: scanner}
}

// Next implements Source.
func (s *ReaderSource) Next(ctx context.Context) (Observation, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return Observation{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		return Observation{
			PersonaID: s.personaID,
			Sample:    line,
			Metadata:  newMetadata(originReader),
		}, true, nil
	}
	if err := s.scanner.Err(); err != nil {
		return Observation{}, false, errors.WithFields(
			errors.Wrap(err, errors.SourceFailed, "failed to read sample line"),
			errors.Fields{"persona_id": s.personaID})
	}
	return Observation{}, false, nil
}
