package datasets

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/XiaoConstantine/mimic-go/pkg/errors"
	"github.com/XiaoConstantine/mimic-go/pkg/logging"
)

const maxLineBytes = 1 << 20

// LoadJSONL reads a corpus from a JSONL file, one {"persona_id","sample"}
// object per line. Blank lines are skipped; a malformed or incomplete row
// fails the whole load.
func LoadJSONL(ctx context.Context, path string) (*Corpus, error) {
	if err := errors.CheckContext(ctx, "jsonl corpus load"); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to open jsonl corpus"),
			errors.Fields{"path": path})
	}
	defer f.Close()

	c := &Corpus{origin: "corpus:jsonl"}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var sample Sample
		if err := json.Unmarshal([]byte(text), &sample); err != nil {
			return nil, errors.WithFields(
				errors.Wrap(err, errors.InvalidInput, "failed to decode jsonl corpus row"),
				errors.Fields{"path": path, "line": line})
		}
		if err := validateSample(sample); err != nil {
			return nil, errors.WithFields(err, errors.Fields{"path": path, "line": line})
		}
		c.samples = append(c.samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to read jsonl corpus"),
			errors.Fields{"path": path, "line": line})
	}

	logging.GetLogger().Debug(ctx, "Loaded jsonl corpus %s: %d samples, %d personas",
		path, c.Len(), len(c.Personas()))
	return c, nil
}

func validateSample(s Sample) error {
	if s.PersonaID == "" {
		return errors.New(errors.ValidationFailed, "corpus row missing persona_id")
	}
	if s.Sample == "" {
		return errors.New(errors.ValidationFailed, "corpus row missing sample")
	}
	return nil
}
