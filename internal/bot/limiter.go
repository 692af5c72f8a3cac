package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type chatLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// chatLimiter keeps one token bucket per chat and forgets chats idle for longer than ttl.
type chatLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	ttl     time.Duration
	entries map[int64]*chatLimiterEntry
	now     func() time.Time
}

func newChatLimiter(rps float64, burst int, ttl time.Duration) *chatLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return &chatLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
		entries: make(map[int64]*chatLimiterEntry),
		now:     time.Now,
	}
}

// Allow reports whether chatID may be served now. A nil limiter allows everything.
func (l *chatLimiter) Allow(chatID int64) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanupLocked(now)

	entry, ok := l.entries[chatID]
	if !ok {
		entry = &chatLimiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[chatID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *chatLimiter) cleanupLocked(now time.Time) {
	if l.ttl <= 0 {
		return
	}
	for id, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.ttl {
			delete(l.entries, id)
		}
	}
}
