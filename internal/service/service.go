// Package service wires the allocator, content policy, store and update
// hub behind the operations the HTTP layer exposes.
package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/copaslink/copas/internal/hub"
	"github.com/copaslink/copas/internal/policy"
	store "github.com/copaslink/copas/internal/repository"
)

// IDSource produces new session ids. Satisfied by both the shared-store
// allocator and the local non-authoritative counter.
type IDSource interface {
	Allocate(ctx context.Context) (string, error)
}

type Service struct {
	store  store.Store
	ids    IDSource
	policy *policy.Engine
	hub    *hub.Hub
	log    zerolog.Logger
}

func New(s store.Store, ids IDSource, p *policy.Engine, h *hub.Hub, log zerolog.Logger) *Service {
	return &Service{
		store:  s,
		ids:    ids,
		policy: p,
		hub:    h,
		log:    log,
	}
}
