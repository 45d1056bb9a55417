package datasets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

func writeCorpusFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJSONLRoundTrip(t *testing.T) {
	path := writeCorpusFile(t, "corpus.jsonl", `
{"persona_id":"ada","sample":"Perhaps the compiler could infer this."}

{"persona_id":"grace","sample":"Ship it. The tests pass."}
{"persona_id":"ada","sample":"It might be worth a second benchmark run."}
`)

	c, err := LoadJSONL(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, 3, c.Len())
	assert.Equal(t, testSamples(), c.Samples())
	assert.Equal(t, []string{"ada", "grace"}, c.Personas())
}

func TestLoadJSONLSourceOrigin(t *testing.T) {
	path := writeCorpusFile(t, "corpus.jsonl", `{"persona_id":"ada","sample":"One."}`)

	c, err := LoadJSONL(context.Background(), path)
	require.NoError(t, err)

	obs, ok, err := c.Source().Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "corpus:jsonl", obs.Metadata.Origin)
}

func TestLoadJSONLEmptyFile(t *testing.T) {
	path := writeCorpusFile(t, "empty.jsonl", "\n\n")

	c, err := LoadJSONL(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestLoadJSONLMalformedRow(t *testing.T) {
	path := writeCorpusFile(t, "bad.jsonl", `{"persona_id":"ada","sample":"ok"}
{"persona_id":"ada","sample":`)

	_, err := LoadJSONL(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidInput, errors.Code(err))

	var coded *errors.Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, 2, coded.Fields()["line"])
}

func TestLoadJSONLIncompleteRow(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{name: "missing persona_id", row: `{"sample":"orphaned"}`},
		{name: "missing sample", row: `{"persona_id":"ada"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCorpusFile(t, "incomplete.jsonl", tt.row)

			_, err := LoadJSONL(context.Background(), path)
			require.Error(t, err)
			assert.Equal(t, errors.ValidationFailed, errors.Code(err))
		})
	}
}

func TestLoadJSONLMissingFile(t *testing.T) {
	_, err := LoadJSONL(context.Background(), filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)
	assert.Equal(t, errors.PersistenceFailed, errors.Code(err))
}

func TestLoadJSONLCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadJSONL(ctx, "ignored.jsonl")
	require.Error(t, err)
	assert.Equal(t, errors.Canceled, errors.Code(err))
}
