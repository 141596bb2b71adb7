package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ppiankov/askcup/internal/page"
)

// SessionStore keeps one QuestionPage per browser session. Sessions slide:
// every access pushes expiry out by the TTL.
type SessionStore struct {
	pages   *MemoryCache[*page.QuestionPage]
	ttl     time.Duration
	newPage func() *page.QuestionPage
	mu      sync.Mutex
}

// NewSessionStore creates a store whose pages come from newPage
func NewSessionStore(ttl time.Duration, newPage func() *page.QuestionPage) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}

	s := &SessionStore{
		pages:   NewMemoryCache[*page.QuestionPage](ttl, cleanup),
		ttl:     ttl,
		newPage: newPage,
	}
	s.pages.OnEvicted(func(id string, p *page.QuestionPage) {
		// Expiring a session abandons whatever it had in flight.
		p.Reset()
		slog.Debug("session expired", "session", id)
	})
	return s
}

// GetOrCreate returns the session's page, creating a session when id is
// unknown or malformed. The returned id is the one to hand back to the client.
func (s *SessionStore) GetOrCreate(id string) (string, *page.QuestionPage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ValidSessionID(id) {
		if p, ok := s.pages.Get(id); ok {
			s.pages.Set(id, p, s.ttl)
			return id, p
		}
	}

	id = NewSessionID()
	p := s.newPage()
	s.pages.Set(id, p, s.ttl)
	return id, p
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	return s.pages.Len()
}
