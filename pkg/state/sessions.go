package state

import (
	"sync"

	"github.com/google/uuid"
)

// Sessions models session storage: state lives as long as the session id it
// was written under. Ending a session drops everything stored for it.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*MemoryStore
}

func NewSessions() *Sessions {
	return &Sessions{sessions: map[string]*MemoryStore{}}
}

// NewSessionID issues a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Session returns the store for id, creating it on first use.
func (s *Sessions) Session(id string) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = map[string]*MemoryStore{}
	}
	store, ok := s.sessions[id]
	if !ok {
		store = NewMemoryStore()
		s.sessions[id] = store
	}
	return store
}

// End discards the session and its snapshots.
func (s *Sessions) End(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Active reports the number of live sessions.
func (s *Sessions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
