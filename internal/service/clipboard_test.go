package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/copaslink/copas/internal/allocator"
	"github.com/copaslink/copas/internal/domain"
	"github.com/copaslink/copas/internal/hub"
	"github.com/copaslink/copas/internal/policy"
	store "github.com/copaslink/copas/internal/repository"
)

func newTestService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("failed to create policy engine: %v", err)
	}

	h := hub.New(zerolog.Nop())
	go h.Run()

	ids := allocator.New(db, zerolog.Nop())
	return New(db, ids, engine, h, zerolog.Nop()), db
}

func TestAllocateThenRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	id, err := svc.Allocate(ctx)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	items := []string{"third", "second", "first", "overflow"}
	if err := svc.ReplaceItems(ctx, id, items); err != nil {
		t.Fatalf("ReplaceItems failed: %v", err)
	}

	got, err := svc.GetItems(ctx, id)
	if err != nil {
		t.Fatalf("GetItems failed: %v", err)
	}
	if len(got) != domain.MaxItems {
		t.Fatalf("expected %d items, got %d", domain.MaxItems, len(got))
	}
	for i, want := range items[:domain.MaxItems] {
		if got[i] != want {
			t.Errorf("item %d = %q, want %q", i, got[i], want)
		}
	}

	session, err := svc.GetSessionInfo(ctx, id)
	if err != nil {
		t.Fatalf("GetSessionInfo failed: %v", err)
	}
	if session == nil || session.ItemCount != domain.MaxItems {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestReplaceItemsRejectsInvalidContent(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	var verr *domain.ValidationError
	err := svc.ReplaceItems(ctx, "v", []string{""})
	if !errors.As(err, &verr) || verr.Code != domain.ValidationEmptyContent {
		t.Fatalf("expected empty_content rejection, got %v", err)
	}

	err = svc.ReplaceItems(ctx, "v", []string{strings.Repeat("x", 10001)})
	if !errors.As(err, &verr) || verr.Code != domain.ValidationContentTooLong {
		t.Fatalf("expected content_too_long rejection, got %v", err)
	}

	// Rejected writes never reach the store.
	session, err := db.GetSession(ctx, "v")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session != nil {
		t.Fatalf("rejected write reached the store: %+v", session)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	id, err := svc.Allocate(ctx)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	pw := "abcd"
	if err := svc.SetPassword(ctx, id, &pw); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	session, _ := svc.GetSessionInfo(ctx, id)
	if session.Password == nil || *session.Password != "abcd" {
		t.Fatalf("password not stored: %+v", session)
	}

	if err := svc.SetPassword(ctx, id, nil); err != nil {
		t.Fatalf("SetPassword(nil) failed: %v", err)
	}
	session, _ = svc.GetSessionInfo(ctx, id)
	if session.Password != nil {
		t.Fatalf("password not cleared: %+v", session)
	}
}

func TestRemoveMakesSessionAbsent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	id, err := svc.Allocate(ctx)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if err := svc.ReplaceItems(ctx, id, []string{"bye"}); err != nil {
		t.Fatalf("ReplaceItems failed: %v", err)
	}

	if err := svc.Remove(ctx, id); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	items, err := svc.GetItems(ctx, id)
	if err != nil {
		t.Fatalf("GetItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items survived removal: %v", items)
	}
	session, err := svc.GetSessionInfo(ctx, id)
	if err != nil {
		t.Fatalf("GetSessionInfo failed: %v", err)
	}
	if session != nil {
		t.Fatalf("session survived removal: %+v", session)
	}
}

func TestReplaceItemsNotifiesViewers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	id, err := svc.Allocate(ctx)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	viewer := &hub.Connection{ID: "c1", ClipboardID: id, Send: make(chan []byte, 4)}
	svc.hub.Register(viewer)
	deadline := time.Now().Add(time.Second)
	for svc.hub.ViewerCount(id) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := svc.ReplaceItems(ctx, id, []string{"fresh"}); err != nil {
		t.Fatalf("ReplaceItems failed: %v", err)
	}

	select {
	case data := <-viewer.Send:
		if !strings.Contains(string(data), hub.EventItemsUpdated) {
			t.Fatalf("unexpected event frame: %s", data)
		}
	case <-time.After(time.Second):
		t.Fatal("viewer did not receive items_updated")
	}
}

func TestLocalAllocatorMode(t *testing.T) {
	ctx := context.Background()
	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer db.Close()
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("failed to create policy engine: %v", err)
	}

	svc := New(db, allocator.NewLocalCounter(), engine, nil, zerolog.Nop())

	id, err := svc.Allocate(ctx)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if id != "1" {
		t.Fatalf("local allocation = %q, want %q", id, "1")
	}

	// Local ids carry no reservation: the session row appears on first write.
	if err := svc.ReplaceItems(ctx, id, []string{"offline"}); err != nil {
		t.Fatalf("ReplaceItems failed: %v", err)
	}
	session, err := svc.GetSessionInfo(ctx, id)
	if err != nil {
		t.Fatalf("GetSessionInfo failed: %v", err)
	}
	if session == nil || session.ItemCount != 1 {
		t.Fatalf("unexpected session: %+v", session)
	}
}
