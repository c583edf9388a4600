package kiosk

import (
	"sync"
	"time"
)

// Session is the ephemeral state of one activation-to-reversion cycle.
// At most one exists at a time; its teardown runs exactly once.
type Session struct {
	StartedAt time.Time

	mu           sync.Mutex
	lastActivity time.Time

	stopc    chan struct{}
	stopOnce sync.Once
	endOnce  sync.Once
}

func newSession() *Session {
	now := time.Now()
	return &Session{
		StartedAt:    now,
		lastActivity: now,
		stopc:        make(chan struct{}),
	}
}

// Touch records user activity, pushing back the inactivity deadline.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Expired reports whether no activity happened within d.
func (s *Session) Expired(d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity) > d
}

func (s *Session) stop() {
	s.stopOnce.Do(func() { close(s.stopc) })
}
