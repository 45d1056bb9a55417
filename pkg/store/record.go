// Package store persists persona records. A Record is the single serialized
// shape every backend reads and writes: versioned JSON carrying the profile,
// the cached signature, the convergence history and the phase. Three
// backends implement the Store interface: one JSON file per persona, a
// SQLite database, and Redis for shared deployments.
package store

import (
	"encoding/json"
	"time"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

// FormatVersion is the current record schema version. Loads ignore unknown
// fields, so newer minor additions stay readable by older code.
const FormatVersion = 1

// Record is the persisted state of one persona.
type Record struct {
	FormatVersion      int                      `json:"format_version"`
	ID                 string                   `json:"id"`
	Profile            *core.Profile            `json:"profile"`
	Signature          core.Signature           `json:"signature"`
	ConvergenceHistory []core.ConvergenceSample `json:"convergence_history"`
	Phase              core.Phase               `json:"phase"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// NewRecord snapshots a persona into a fresh record. The profile, signature
// and history are deep-copied so the record stays stable while the live
// persona keeps evolving.
func NewRecord(profile *core.Profile, sig core.Signature, history []core.ConvergenceSample, phase core.Phase) *Record {
	now := time.Now().UTC()
	rec := &Record{
		FormatVersion: FormatVersion,
		Signature:     sig.Clone(),
		Phase:         phase,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if profile != nil {
		rec.Profile = profile.Clone()
		rec.ID = profile.ID
	}
	if len(history) > 0 {
		rec.ConvergenceHistory = make([]core.ConvergenceSample, len(history))
		copy(rec.ConvergenceHistory, history)
	}
	return rec
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	out := *r
	if r.Profile != nil {
		out.Profile = r.Profile.Clone()
	}
	out.Signature = r.Signature.Clone()
	if len(r.ConvergenceHistory) > 0 {
		out.ConvergenceHistory = make([]core.ConvergenceSample, len(r.ConvergenceHistory))
		copy(out.ConvergenceHistory, r.ConvergenceHistory)
	}
	return &out
}

// Normalize fills the documented defaults for optional fields so records
// written by older or partial producers load into a complete state:
// format version 1, a default profile for the record's id, created-at
// backfilled from updated-at (or now), and patterns in canonical order.
func (r *Record) Normalize() {
	if r.FormatVersion <= 0 {
		r.FormatVersion = FormatVersion
	}
	if r.Profile == nil {
		r.Profile = core.NewProfile(r.ID)
	} else if r.Profile.ID == "" {
		r.Profile.ID = r.ID
	}
	if r.CreatedAt.IsZero() {
		if !r.UpdatedAt.IsZero() {
			r.CreatedAt = r.UpdatedAt
		} else {
			r.CreatedAt = time.Now().UTC()
		}
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	r.Signature.SortPatterns()
}

// Validate checks the invariants a record must satisfy before it is written.
func (r *Record) Validate() error {
	if r.ID == "" {
		return errors.New(errors.ValidationFailed, "record has empty persona id")
	}
	if r.Profile != nil && r.Profile.ID != "" && r.Profile.ID != r.ID {
		return errors.WithFields(
			errors.New(errors.ValidationFailed, "record id does not match profile id"),
			errors.Fields{"record_id": r.ID, "profile_id": r.Profile.ID})
	}
	if r.Profile != nil {
		if err := r.Profile.Validate(); err != nil {
			return errors.Wrap(err, errors.ValidationFailed, "record profile invalid")
		}
	}
	if err := r.Signature.Validate(); err != nil {
		return errors.Wrap(err, errors.ValidationFailed, "record signature invalid")
	}
	return nil
}

// Encode validates and serializes a record for storage.
func Encode(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New(errors.InvalidInput, "cannot encode nil record")
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to serialize record")
	}
	return data, nil
}

// Decode deserializes and normalizes a stored record. Unknown JSON fields
// are ignored so records written by newer versions still load.
func Decode(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to parse record")
	}
	rec.Normalize()
	return &rec, nil
}
