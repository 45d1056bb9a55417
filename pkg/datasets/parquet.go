package datasets

import (
	"context"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/apache/arrow/go/v13/parquet/file"
	"github.com/apache/arrow/go/v13/parquet/pqarrow"

	"github.com/XiaoConstantine/mimic-go/pkg/errors"
	"github.com/XiaoConstantine/mimic-go/pkg/logging"
)

// LoadParquet reads a corpus from a Parquet file with string columns
// persona_id and sample.
func LoadParquet(ctx context.Context, path string) (*Corpus, error) {
	if err := errors.CheckContext(ctx, "parquet corpus load"); err != nil {
		return nil, err
	}

	reader, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to open parquet corpus"),
			errors.Fields{"path": path})
	}
	defer reader.Close()

	arrowReader, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to create arrow reader"),
			errors.Fields{"path": path})
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to read parquet schema"),
			errors.Fields{"path": path})
	}
	personaIdx, err := columnIndex(schema, "persona_id", path)
	if err != nil {
		return nil, err
	}
	sampleIdx, err := columnIndex(schema, "sample", path)
	if err != nil {
		return nil, err
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to read parquet table"),
			errors.Fields{"path": path})
	}
	defer table.Release()

	personaIDs, err := stringColumn(table.Column(personaIdx), "persona_id", path)
	if err != nil {
		return nil, err
	}
	samples, err := stringColumn(table.Column(sampleIdx), "sample", path)
	if err != nil {
		return nil, err
	}

	c := &Corpus{origin: "corpus:parquet", samples: make([]Sample, 0, len(samples))}
	for i := range samples {
		sample := Sample{PersonaID: personaIDs[i], Sample: samples[i]}
		if err := validateSample(sample); err != nil {
			return nil, errors.WithFields(err, errors.Fields{"path": path, "row": i + 1})
		}
		c.samples = append(c.samples, sample)
	}

	logging.GetLogger().Debug(ctx, "Loaded parquet corpus %s: %d samples, %d personas",
		path, c.Len(), len(c.Personas()))
	return c, nil
}

func columnIndex(schema *arrow.Schema, name, path string) (int, error) {
	indices := schema.FieldIndices(name)
	if len(indices) == 0 {
		return 0, errors.WithFields(
			errors.New(errors.ValidationFailed, "parquet corpus missing column"),
			errors.Fields{"path": path, "column": name})
	}
	return indices[0], nil
}

// stringColumn flattens a possibly chunked string column into one slice.
// Null cells become empty strings and fail row validation later.
func stringColumn(col *arrow.Column, name, path string) ([]string, error) {
	out := make([]string, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		strs, ok := chunk.(*array.String)
		if !ok {
			return nil, errors.WithFields(
				errors.New(errors.ValidationFailed, "parquet corpus column is not a string column"),
				errors.Fields{"path": path, "column": name, "type": chunk.DataType().Name()})
		}
		for i := 0; i < strs.Len(); i++ {
			if strs.IsNull(i) {
				out = append(out, "")
				continue
			}
			out = append(out, strs.Value(i))
		}
	}
	return out, nil
}
