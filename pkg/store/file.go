package store

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

const (
	recordExt = ".json"
	tmpPrefix = ".record-"
)

// FileStore keeps one JSON file per persona under a directory. Writes go to
// a temp file in the same directory followed by a rename, so a crash
// mid-write leaves either the old record or the new one, never a torn file.
type FileStore struct {
	dir string
}

// NewFileStore builds a store rooted at dir. The directory is created on
// the first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// path maps a persona id to its record file. Ids are path-escaped so ids
// containing separators or dots cannot walk out of the directory.
func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, url.PathEscape(id)+recordExt)
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.Canceled, "save aborted")
	}
	if rec == nil {
		return errors.New(errors.InvalidInput, "cannot save nil record")
	}

	rec = rec.Clone()
	rec.Normalize()
	if prior, err := s.Load(ctx, rec.ID); err == nil {
		rec.CreatedAt = prior.CreatedAt
	}

	data, err := Encode(rec)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to create store directory"),
			errors.Fields{"dir": s.dir})
	}

	tmp, err := os.CreateTemp(s.dir, tmpPrefix+"*")
	if err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "failed to create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.PersistenceFailed, "failed to write record")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.PersistenceFailed, "failed to sync record")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.PersistenceFailed, "failed to close temp file")
	}

	if err := os.Rename(tmpName, s.path(rec.ID)); err != nil {
		os.Remove(tmpName)
		return errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to replace record"),
			errors.Fields{"persona_id": rec.ID})
	}
	return nil
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.Canceled, "load aborted")
	}

	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, errors.WithFields(
			errors.New(errors.UnknownPersona, "no stored record for persona"),
			errors.Fields{"persona_id": id})
	}
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to read record"),
			errors.Fields{"persona_id": id})
	}
	return Decode(data)
}

// Delete implements Store. Removing an id that was never saved is a no-op.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.Canceled, "delete aborted")
	}

	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to delete record"),
			errors.Fields{"persona_id": id})
	}
	return nil
}

// List implements Store. Ids are returned sorted.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.Canceled, "list aborted")
	}

	dirents, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to read store directory")
	}

	var ids []string
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, recordExt) || strings.HasPrefix(name, tmpPrefix) {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, recordExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close implements Store. The file store holds no open handles.
func (s *FileStore) Close() error {
	return nil
}
