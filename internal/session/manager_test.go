package session_test

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/category"
	"taskboard/internal/session"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func TestGet_ReturnsSameSession(t *testing.T) {
	m := session.NewManager(nil, nil)

	a := m.Get(1)
	a.Tasks.Add("Buy milk")
	b := m.Get(1)

	if a != b {
		t.Fatal("expected the same session for the same chat")
	}
	if total, _, _ := b.Tasks.Counts(); total != 1 {
		t.Errorf("expected 1 task, got %d", total)
	}
	if other := m.Get(2); other == a {
		t.Error("expected distinct sessions for distinct chats")
	}
}

func TestGet_UsesKVFactory(t *testing.T) {
	ctx := context.Background()
	stores := map[int64]*category.MemoryKV{}
	factory := func(chatID int64) category.KV {
		kv, ok := stores[chatID]
		if !ok {
			kv = category.NewMemoryKV()
			stores[chatID] = kv
		}
		return kv
	}
	m := session.NewManager(factory, nil)

	if _, _, err := m.Get(5).Categories.Add(ctx, "Work"); err != nil {
		t.Fatalf("add category: %v", err)
	}
	raw, _ := stores[5].Get(ctx, category.StorageKey)
	if raw == "" {
		t.Error("expected category to be written to the chat's store")
	}
}

func TestList_SortedByChat(t *testing.T) {
	m := session.NewManager(nil, nil)
	m.Get(30)
	m.Get(10)
	m.Get(20)

	list := m.List()
	if len(list) != 3 || list[0].ChatID != 10 || list[1].ChatID != 20 || list[2].ChatID != 30 {
		t.Errorf("unexpected order: %v %v %v", list[0].ChatID, list[1].ChatID, list[2].ChatID)
	}
}

func TestPrune_DropsIdleSessions(t *testing.T) {
	clock := &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := session.NewManager(nil, clock.Now)

	m.Get(1)
	clock.now = clock.now.Add(2 * time.Hour)
	m.Get(2)
	clock.now = clock.now.Add(30 * time.Minute)

	if dropped := m.Prune(time.Hour); dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", dropped)
	}
	if m.Len() != 1 || m.List()[0].ChatID != 2 {
		t.Error("expected only chat 2 to remain")
	}
	if dropped := m.Prune(0); dropped != 0 {
		t.Errorf("expected zero idle to disable pruning, got %d", dropped)
	}
}

func TestRememberLookup(t *testing.T) {
	m := session.NewManager(nil, nil)
	s := m.Get(1)
	s.Remember([]string{"a", "b"})

	if id, ok := s.Lookup(2); !ok || id != "b" {
		t.Errorf("expected b, got %q ok=%v", id, ok)
	}
	for _, n := range []int{0, 3, -1} {
		if _, ok := s.Lookup(n); ok {
			t.Errorf("Lookup(%d): expected miss", n)
		}
	}
}
