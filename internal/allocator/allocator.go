// Package allocator produces unique short ids for clipboard sessions.
//
// The only synchronization primitive available is the store's uniqueness
// constraint on the id column: reservation is an optimistic insert, and a
// rejected insert is the sole collision signal. Strategies are tried in
// order and each tier retries a bounded number of times.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/copaslink/copas/internal/domain"
	store "github.com/copaslink/copas/internal/repository"
)

const (
	// scanAttempts bounds the sequential reservations tried when
	// recovering the counter from existing ids.
	scanAttempts = 5

	// fallbackIDLength is the length of the unreserved random id handed
	// out when every reservation strategy has failed.
	fallbackIDLength = 4
)

// Allocator hands out unique, roughly-increasing base-36 session ids.
type Allocator struct {
	store store.Store
	log   zerolog.Logger
}

// New creates an allocator coordinating ids through s.
func New(s store.Store, log zerolog.Logger) *Allocator {
	return &Allocator{store: s, log: log}
}

// Allocate reserves and returns a new session id.
//
// If every reservation strategy fails, a locally generated random id is
// returned with no reservation guarantee rather than blocking the caller.
// ErrAllocationExhausted is returned only when the store is unreachable
// during the scan fallback or the random fallback itself fails.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	id, err := a.allocate(ctx)
	if err == nil {
		return id, nil
	}
	if errors.Is(err, domain.ErrAllocationExhausted) {
		return "", err
	}

	a.log.Warn().Err(err).Msg("id reservation failed, handing out unreserved random id")
	fallback, nerr := gonanoid.Generate(domain.Base36Alphabet, fallbackIDLength)
	if nerr != nil {
		return "", domain.ErrAllocationExhausted
	}
	return fallback, nil
}

func (a *Allocator) allocate(ctx context.Context) (string, error) {
	// Tier 1: shared atomic counter.
	n, err := a.store.NextCounterValue(ctx)
	if err == nil {
		id := domain.FormatID(n)
		rerr := a.store.ReserveSession(ctx, id)
		if rerr == nil {
			return id, nil
		}
		if errors.Is(rerr, store.ErrIDTaken) {
			a.log.Warn().Str("id", id).Msg("collision on counter id, switching to random+count strategy")
			return a.handleCollision(ctx, id)
		}
		return "", rerr
	}
	if errors.Is(err, store.ErrCounterUnavailable) {
		a.log.Warn().Msg("shared counter unavailable, falling back to id scan")
	} else {
		a.log.Warn().Err(err).Msg("shared counter failed, falling back to id scan")
	}

	// Tier 2: recover the counter from the highest existing id. Ids that
	// do not round-trip through base 36 never came from a counter and are
	// ignored.
	ids, err := a.store.ListSessionIDs(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: listing session ids: %v", domain.ErrAllocationExhausted, err)
	}
	var maxCounter int64
	for _, id := range ids {
		if v, ok := domain.ParseID(id); ok && v > maxCounter {
			maxCounter = v
		}
	}

	for attempt := 0; attempt < scanAttempts; attempt++ {
		id := domain.FormatID(maxCounter + 1 + int64(attempt))
		rerr := a.store.ReserveSession(ctx, id)
		if rerr == nil {
			return id, nil
		}
		if errors.Is(rerr, store.ErrIDTaken) {
			a.log.Warn().Str("id", id).Msg("collision on scanned id, switching to random+count strategy")
			return a.handleCollision(ctx, id)
		}
		return "", rerr
	}
	return "", domain.ErrAllocationExhausted
}

// handleCollision resolves a lost reservation race for baseID.
//
// An empty colliding session carries no observable state, so it is claimed
// as-is. Otherwise the allocator jumps past the contended range using the
// session count plus a random buffer. The second, larger jump is reserved
// once with no further retry; a collision there propagates.
func (a *Allocator) handleCollision(ctx context.Context, baseID string) (string, error) {
	itemCount, err := a.store.CountItems(ctx, baseID)
	if err != nil {
		return "", err
	}
	if itemCount == 0 {
		a.log.Info().Str("id", baseID).Msg("reclaiming empty colliding session")
		if err := a.store.TouchSession(ctx, baseID); err != nil {
			return "", err
		}
		return baseID, nil
	}

	count, err := a.store.CountSessions(ctx)
	if err != nil {
		return "", err
	}

	next := domain.FormatID(int64(count) + int64(rand.Intn(9999)+1))
	rerr := a.store.ReserveSession(ctx, next)
	if rerr == nil {
		return next, nil
	}
	if !errors.Is(rerr, store.ErrIDTaken) {
		return "", rerr
	}

	a.log.Warn().Str("id", next).Msg("random+count id also collided, taking larger jump")
	fallback := domain.FormatID(int64(count) + int64(rand.Intn(10000)+1000))
	if err := a.store.ReserveSession(ctx, fallback); err != nil {
		return "", err
	}
	return fallback, nil
}
