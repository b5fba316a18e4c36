package domain

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrSessionExists  = errors.New("session already registered")
	ErrInvalidSession = errors.New("invalid session")
)

// SessionRegistry tracks the live sessions. A session ID may be reused once
// the previous holder has been unregistered, never while it is still live.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]Session),
	}
}

// Register adds the session and returns the live count. A duplicate live ID
// is rejected with ErrSessionExists and leaves the registry unchanged.
func (r *SessionRegistry) Register(session Session) (int, error) {
	if !session.IsValid() {
		return 0, ErrInvalidSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return len(r.sessions), fmt.Errorf("register %s: %w", session.ID, ErrSessionExists)
	}
	r.sessions[session.ID] = session
	return len(r.sessions), nil
}

// Unregister removes the session. Unregistering an absent ID is a no-op;
// removed reports whether anything was deleted.
func (r *SessionRegistry) Unregister(sessionID string) (count int, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[sessionID]; exists {
		delete(r.sessions, sessionID)
		removed = true
	}
	return len(r.sessions), removed
}

func (r *SessionRegistry) Get(sessionID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[sessionID]
	return session, exists
}

func (r *SessionRegistry) Contains(sessionID string) bool {
	_, exists := r.Get(sessionID)
	return exists
}

// List returns a snapshot ordered by join time, then ID.
func (r *SessionRegistry) List() []Session {
	r.mu.RLock()
	sessions := make([]Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].JoinedAt.Equal(sessions[j].JoinedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].JoinedAt.Before(sessions[j].JoinedAt)
	})
	return sessions
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
