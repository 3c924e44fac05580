package idempotency

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "rp:idempotency:" + scope + ":" + id
}

func TestCheckAndMarkProcessed(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "ranking", eventID)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if already {
		t.Fatalf("first check must report unprocessed")
	}

	already, err = manager.CheckAndMarkProcessed(context.Background(), "ranking", eventID)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !already {
		t.Fatalf("second check must report processed")
	}

	for key := range store.values {
		if !strings.Contains(key, "evt:processed:ranking") {
			t.Fatalf("unexpected key %q", key)
		}
		if store.ttls[key] != time.Hour {
			t.Fatalf("expected ttl to be applied")
		}
	}
}

func TestDeleteAllowsRetry(t *testing.T) {
	manager, err := NewManager(newFakeStore(), time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	eventID := uuid.New()
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "ranking", eventID); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := manager.Delete(context.Background(), "ranking", eventID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	already, err := manager.CheckAndMarkProcessed(context.Background(), "ranking", eventID)
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if already {
		t.Fatalf("deleted marker must allow reprocessing")
	}
}

func TestManagerValidatesInputs(t *testing.T) {
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatalf("expected error without store")
	}
	manager, err := NewManager(newFakeStore(), 0)
	if err != nil {
		t.Fatalf("zero ttl must be allowed: %v", err)
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", uuid.New()); err == nil {
		t.Fatalf("expected error without consumer")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "ranking", uuid.Nil); err == nil {
		t.Fatalf("expected error without event id")
	}
}
