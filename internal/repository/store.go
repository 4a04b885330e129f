// Package store provides persistence for clipboard sessions and items.
package store

import (
	"context"
	"errors"

	"github.com/copaslink/copas/internal/domain"
)

// ErrIDTaken signals a uniqueness violation: the id being reserved already
// exists. The allocator treats this as its sole collision signal.
var ErrIDTaken = errors.New("session id already taken")

// ErrCounterUnavailable signals that the shared id counter is absent. The
// allocator tolerates this and falls back to scanning existing ids.
var ErrCounterUnavailable = errors.New("id counter unavailable")

// Store is the persistence contract shared by the allocator and the
// service layer. Implementations issue no retries; callers own retry and
// rollback policy.
type Store interface {
	// NextCounterValue atomically increments and returns the shared id
	// counter. Returns ErrCounterUnavailable when the counter is absent.
	NextCounterValue(ctx context.Context) (int64, error)

	// ReserveSession inserts a new empty session row for id. Returns
	// ErrIDTaken when the id already exists.
	ReserveSession(ctx context.Context, id string) error

	// TouchSession refreshes last_accessed for id.
	TouchSession(ctx context.Context, id string) error

	// GetSession returns the session for id, or nil when absent.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessionIDs returns the ids of all sessions.
	ListSessionIDs(ctx context.Context) ([]string, error)

	// CountSessions returns the total number of sessions.
	CountSessions(ctx context.Context) (int, error)

	// CountItems returns the number of items stored for id.
	CountItems(ctx context.Context, id string) (int, error)

	// GetItems returns item contents for id ordered by position, newest
	// first. Absent sessions yield an empty slice.
	GetItems(ctx context.Context, id string) ([]string, error)

	// ReplaceItems replaces the full item set for id in one transaction
	// and upserts the session row so item_count and last_accessed stay
	// consistent.
	ReplaceItems(ctx context.Context, id string, items []string) error

	// SetPassword sets or clears (nil) the session password.
	SetPassword(ctx context.Context, id string, password *string) error

	// RemoveSession deletes the items for id, then the session row.
	RemoveSession(ctx context.Context, id string) error

	Close() error
}
