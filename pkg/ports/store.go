package ports

import (
	"context"
	"time"

	"github.com/Wyvern137/hackathon/pkg/domain"
)

// SessionStore persists per-user dialogue state. Implementations hand out
// isolated copies: mutating a returned session does not affect the store
// until Save is called.
//
// Sessions are ephemeral. Implementations should bound memory by evicting
// sessions idle beyond a configurable horizon; losing a session at any time
// is safe.
type SessionStore interface {
	// Get returns the session for a user, creating an empty one if absent.
	Get(ctx context.Context, userID string) (*domain.Session, error)

	// Save persists the session state.
	Save(ctx context.Context, s *domain.Session) error

	// Clear resets scratch, flow id, state and the active flag.
	Clear(ctx context.Context, userID string) error

	// IsActive reports whether any flow currently owns the user's input.
	IsActive(ctx context.Context, userID string) (bool, error)
}

// RecordQuery filters owner-scoped record listings. Zero fields match all.
type RecordQuery struct {
	Kind      domain.ContentKind
	Tag       string
	SavedOnly bool
	Since     time.Time
	Until     time.Time
	Limit     int
}

// RecordStore persists content records. Each call is its own transaction;
// the core never spans a transaction across calls.
type RecordStore interface {
	Create(ctx context.Context, rec *domain.ContentRecord) error

	// ByOwner lists an owner's records, newest first.
	ByOwner(ctx context.Context, ownerID string, q RecordQuery) ([]domain.ContentRecord, error)

	// MarkSaved flips the saved/approved flag, the only permitted mutation.
	// Returns domain.ErrRecordNotFound for unknown ids.
	MarkSaved(ctx context.Context, id string, saved bool) error

	// Delete removes a record by explicit owner action.
	Delete(ctx context.Context, id string) error
}

// ProfileStore persists owner profiles used for prompt building and
// rule-based tag selection.
type ProfileStore interface {
	// Profile returns the owner's profile, or nil if none is set up.
	Profile(ctx context.Context, ownerID string) (*domain.Profile, error)

	SaveProfile(ctx context.Context, p *domain.Profile) error
}
