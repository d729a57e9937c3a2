package memory

import (
	"context"
	"sync"
	"time"

	"quiz-funnel/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Idle entries are dropped by Sweep.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Progress
	clock    func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Progress),
		clock:    time.Now,
	}
}

func (s *SessionStore) Load(_ context.Context, visitorID string) (domain.Progress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.sessions[visitorID]
	if ok {
		p.Answers = p.Answers.Clone()
	}
	return p, ok, nil
}

func (s *SessionStore) Save(_ context.Context, progress domain.Progress) error {
	progress.Answers = progress.Answers.Clone()
	if progress.UpdatedAt.IsZero() {
		progress.UpdatedAt = s.clock()
	}
	s.mu.Lock()
	s.sessions[progress.VisitorID] = progress
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Delete(_ context.Context, visitorID string) error {
	s.mu.Lock()
	delete(s.sessions, visitorID)
	s.mu.Unlock()
	return nil
}

// Sweep removes sessions untouched for longer than maxIdle and returns how many went.
func (s *SessionStore) Sweep(maxIdle time.Duration) int {
	cutoff := s.clock().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, p := range s.sessions {
		if p.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
