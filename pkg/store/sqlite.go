package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/XiaoConstantine/mimic-go/pkg/errors"
	"github.com/XiaoConstantine/mimic-go/pkg/logging"
)

// SQLiteStore persists records in a single SQLite database, one row per
// persona. The full record rides as a JSON blob next to a few queryable
// columns; WAL mode keeps concurrent readers off the writer's back.
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*sqliteSettings)

type sqliteSettings struct {
	maxConns int
}

// WithMaxConnections bounds the connection pool.
func WithMaxConnections(n int) SQLiteOption {
	return func(s *sqliteSettings) {
		if n > 0 {
			s.maxConns = n
		}
	}
}

// NewSQLiteStore opens (creating if needed) the database at path and
// prepares the persona table.
func NewSQLiteStore(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New(errors.InvalidInput, "sqlite store requires a database path")
	}

	settings := sqliteSettings{maxConns: 10}
	for _, opt := range opts {
		opt(&settings)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to open sqlite database")
	}
	db.SetMaxOpenConns(settings.maxConns)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to initialize persona table")
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to enable WAL mode")
	}
	for _, pragma := range []string{
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.GetLogger().Warn(context.Background(), "sqlite pragma failed: %s: %v", pragma, err)
		}
	}

	return s, nil
}

func (s *SQLiteStore) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS personas (
		id TEXT PRIMARY KEY,
		record BLOB NOT NULL,
		format_version INTEGER NOT NULL,
		phase TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_personas_updated_at ON personas(updated_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// Save implements Store: an upsert in one transaction, keeping the stored
// CreatedAt when the persona already has a row.
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New(errors.InvalidInput, "cannot save nil record")
	}
	rec = rec.Clone()
	rec.Normalize()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "failed to begin save transaction")
	}
	var committed bool
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logging.GetLogger().Warn(ctx, "sqlite rollback failed: %v", rbErr)
			}
		}
	}()

	var createdAt int64
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM personas WHERE id = ?`, rec.ID).Scan(&createdAt)
	switch {
	case err == sql.ErrNoRows:
		// First save for this persona.
	case err != nil:
		return errors.Wrap(err, errors.PersistenceFailed, "failed to check existing record")
	default:
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
	}

	data, err := Encode(rec)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
	INSERT OR REPLACE INTO personas (id, record, format_version, phase, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, data, rec.FormatVersion, rec.Phase.String(), rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano())
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to upsert record"),
			errors.Fields{"persona_id": rec.ID})
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "failed to commit save")
	}
	committed = true
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM personas WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.WithFields(
			errors.New(errors.UnknownPersona, "no stored record for persona"),
			errors.Fields{"persona_id": id})
	}
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to query record"),
			errors.Fields{"persona_id": id})
	}
	return Decode(data)
}

// Delete implements Store. Removing an id that was never saved is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM personas WHERE id = ?`, id)
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to delete record"),
			errors.Fields{"persona_id": id})
	}
	return nil
}

// List implements Store. Ids are returned sorted.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM personas ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to list records")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to scan record id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to iterate record ids")
	}
	return ids, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
