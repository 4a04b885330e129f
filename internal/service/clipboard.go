package service

import (
	"context"

	"github.com/copaslink/copas/internal/domain"
	"github.com/copaslink/copas/internal/hub"
)

// Allocate reserves and returns a new clipboard id.
func (s *Service) Allocate(ctx context.Context) (string, error) {
	return s.ids.Allocate(ctx)
}

// GetSessionInfo returns the session for id, or nil when absent. The
// password field travels with the session: clients compare locally before
// requesting items, mirroring the original application's unlock flow.
func (s *Service) GetSessionInfo(ctx context.Context, id string) (*domain.Session, error) {
	return s.store.GetSession(ctx, id)
}

// GetItems returns the stored items for id, newest first, refreshing the
// session's last_accessed. An unknown id yields an empty list.
func (s *Service) GetItems(ctx context.Context, id string) ([]string, error) {
	if err := s.store.TouchSession(ctx, id); err != nil {
		return nil, err
	}
	return s.store.GetItems(ctx, id)
}

// ReplaceItems replaces the full item set for id. Items beyond the cap are
// dropped from the tail, every kept item must pass the content policy, and
// attached viewers are notified.
func (s *Service) ReplaceItems(ctx context.Context, id string, items []string) error {
	if len(items) > domain.MaxItems {
		items = items[:domain.MaxItems]
	}
	for _, content := range items {
		if err := s.policy.Validate(ctx, content); err != nil {
			return err
		}
	}

	if err := s.store.ReplaceItems(ctx, id, items); err != nil {
		return err
	}

	s.notify(hub.Event{Type: hub.EventItemsUpdated, ClipboardID: id, Items: items})
	return nil
}

// SetPassword sets or clears (nil) the session password.
func (s *Service) SetPassword(ctx context.Context, id string, password *string) error {
	if err := s.store.SetPassword(ctx, id, password); err != nil {
		return err
	}
	s.notify(hub.Event{Type: hub.EventPasswordUpdated, ClipboardID: id})
	return nil
}

// Remove deletes the session and its items.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.RemoveSession(ctx, id); err != nil {
		return err
	}
	s.notify(hub.Event{Type: hub.EventRemoved, ClipboardID: id})
	return nil
}

// notify pushes an event to attached viewers. Delivery is best effort.
func (s *Service) notify(ev hub.Event) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Broadcast(ev); err != nil {
		s.log.Warn().Err(err).Str("clipboard", ev.ClipboardID).Msg("failed to broadcast update")
	}
}
