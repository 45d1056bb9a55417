package store

import (
	"context"
)

// Store is the persistence contract the engine saves and loads personas
// through. Implementations must be safe for concurrent use; per-persona
// write ordering is the caller's concern (the engine serializes saves for
// one id through its keyed locks).
//
// Save upserts and preserves the existing record's CreatedAt, so creation
// time survives any number of rewrites. Load returns an UnknownPersona
// error for ids never saved and a PersistenceFailed error for I/O or
// corruption faults. Delete is idempotent.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}
