package session

import (
	"sort"
	"sync"
	"time"

	"taskboard/internal/category"
	"taskboard/internal/tasklist"
)

// Session is the state owned by one chat.
type Session struct {
	ChatID     int64
	Tasks      *tasklist.Store
	Categories *category.Registry

	mu       sync.Mutex
	lastSeen time.Time
	// shown keeps the ids of the last rendered list so users can refer to tasks by number.
	shown []string
}

// Remember stores the ids of the list just shown to the user.
func (s *Session) Remember(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown[:0], ids...)
}

// Lookup maps a 1-based position of the last shown list to a task id.
func (s *Session) Lookup(n int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > len(s.shown) {
		return "", false
	}
	return s.shown[n-1], true
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// KVFactory returns the category storage for a chat.
type KVFactory func(chatID int64) category.KV

// Manager hands out one Session per chat.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	kv       KVFactory
	clock    tasklist.Clock
}

func NewManager(kv KVFactory, clock tasklist.Clock) *Manager {
	if clock == nil {
		clock = time.Now
	}
	if kv == nil {
		kv = func(int64) category.KV { return category.NewMemoryKV() }
	}
	return &Manager{
		sessions: make(map[int64]*Session),
		kv:       kv,
		clock:    clock,
	}
}

// Get returns the chat's session, creating it on first use.
func (m *Manager) Get(chatID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[chatID]
	if !ok {
		s = &Session{
			ChatID:     chatID,
			Tasks:      tasklist.New(m.clock),
			Categories: category.NewRegistry(m.kv(chatID)),
		}
		m.sessions[chatID] = s
	}
	s.touch(m.clock())
	return s
}

// List returns the open sessions ordered by chat id.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Prune drops sessions idle for longer than idle and returns how many were dropped.
// Task lists are transient; categories stay in the key-value store.
func (m *Manager) Prune(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := m.clock().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			dropped++
		}
	}
	return dropped
}
