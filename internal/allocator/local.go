package allocator

import (
	"context"
	"sync/atomic"

	"github.com/copaslink/copas/internal/domain"
)

// LocalCounter hands out sequential base-36 ids from a process-local
// counter. It is non-authoritative: ids carry no reservation and repeat
// across restarts or between processes, so it is only suitable for a
// single-user deployment with no shared store contention.
type LocalCounter struct {
	counter atomic.Int64
}

// NewLocalCounter creates a local counter starting at 1.
func NewLocalCounter() *LocalCounter {
	return &LocalCounter{}
}

// Allocate returns the next sequential id. It never fails.
func (c *LocalCounter) Allocate(ctx context.Context) (string, error) {
	return domain.FormatID(c.counter.Add(1)), nil
}
