// Package feed merges real-time events into one viewer's local view of tasks
// and comments.
package feed

import (
	"sync"

	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
)

// Identity is the signed-in user a session acts for.
type Identity struct {
	UserID uint64
	Role   models.UserRole
	Name   string
	Token  string
}

// Session holds the current identity. Events are only applied while a session is active.
type Session struct {
	mu       sync.RWMutex
	identity Identity
	active   bool
}

// Begin starts a session for id, replacing any previous one.
func (s *Session) Begin(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
	s.active = true
}

// End clears the identity.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = Identity{}
	s.active = false
}

// Current returns the identity and whether a session is active.
func (s *Session) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.active
}

// Viewer returns the visibility identity of the active session.
func (s *Session) Viewer() (access.Viewer, bool) {
	id, ok := s.Current()
	return access.Viewer{UserID: id.UserID, Role: id.Role}, ok
}
