package cache

import (
	"sync/atomic"
	"time"

	"github.com/XiaoConstantine/mimic-go/pkg/core"
	"github.com/XiaoConstantine/mimic-go/pkg/generation"
)

// Entry is one cached persona snapshot: profile, signature and the compiled
// template handle. The cache exclusively owns entries; callers treat an
// Entry handed to Put as frozen and publish refinements by building a new
// Entry, so concurrent readers always see a whole snapshot, never a torn one.
type Entry struct {
	PersonaID string
	Profile   *core.Profile
	Signature core.Signature

	// RefreshIndex is the cache-wide sequence number assigned on Put. A
	// higher index means a more recent refresh, which lets callers order two
	// snapshots of the same persona without comparing clocks.
	RefreshIndex uint64

	// UpdatedAt records when the snapshot was published.
	UpdatedAt time.Time

	templates atomic.Pointer[generation.TemplateSet]
}

// NewEntry builds a snapshot from a profile and signature. Both are deep
// copied so later mutation by the caller cannot reach the cached state.
func NewEntry(personaID string, profile *core.Profile, sig core.Signature) *Entry {
	e := &Entry{
		PersonaID: personaID,
		Signature: sig.Clone(),
	}
	if profile != nil {
		e.Profile = profile.Clone()
	}
	return e
}

// Templates returns the compiled template handle, or nil when no set has
// been compiled for this snapshot yet.
func (e *Entry) Templates() *generation.TemplateSet {
	if e == nil {
		return nil
	}
	return e.templates.Load()
}

// SetTemplates publishes a compiled set on the snapshot. Template
// compilation is deterministic for a given snapshot, so concurrent callers
// racing to publish equivalent sets is harmless; readers observe nil or a
// complete set.
func (e *Entry) SetTemplates(set *generation.TemplateSet) {
	e.templates.Store(set)
}
