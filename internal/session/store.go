package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	sess     *Session
	lastSeen time.Time
}

// Store keeps sessions in memory, keyed by id. Sessions nobody has looked up
// for a while are dropped by Sweep once they have no work in flight.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry), now: time.Now}
}

// Get returns the session stored under id and marks it as recently used.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.sess, true
}

// GetOrCreate returns the session stored under id, or a new session with a
// fresh id when id is empty or unknown.
func (s *Store) GetOrCreate(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok && id != "" {
		e.lastSeen = s.now()
		return e.sess, false
	}

	sess := New(uuid.New().String())
	s.sessions[sess.ID()] = &entry{sess: sess, lastSeen: s.now()}
	return sess, true
}

// Sweep removes sessions unused for longer than maxIdle. Sessions with a
// create call or a poll loop still running are kept regardless of age.
func (s *Store) Sweep(maxIdle time.Duration) int {
	now := s.now()

	s.mu.Lock()
	var evicted []*Session
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) < maxIdle || e.sess.Busy() {
			continue
		}
		delete(s.sessions, id)
		evicted = append(evicted, e.sess)
	}
	s.mu.Unlock()

	// Releases the context of a finished loop.
	for _, sess := range evicted {
		sess.Cancel()
	}
	return len(evicted)
}

// Run sweeps the store every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval, maxIdle time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(maxIdle); n > 0 {
				logger.DebugContext(ctx, "Evicted idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the poll loops of every stored session.
func (s *Store) Close() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, e := range s.sessions {
		sessions = append(sessions, e.sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Cancel()
	}
}
