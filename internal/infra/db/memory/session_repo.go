// Package memory keeps sessions in process memory. Sessions are lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bryanwahyu/website-intel/internal/domain/session"
)

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]session.Session)}
}

func (r *SessionRepository) Save(_ context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

// Get returns a copy; callers may mutate it freely.
func (r *SessionRepository) Get(_ context.Context, id string) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &s, nil
}

func (r *SessionRepository) ClearToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	s.Token = ""
	r.sessions[id] = s
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return session.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *SessionRepository) Ping(context.Context) error { return nil }

// Prune drops sessions that lost their token and sessions created before
// cutoff. It returns how many were removed.
func (r *SessionRepository) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.Token == "" || s.CreatedAt.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}
