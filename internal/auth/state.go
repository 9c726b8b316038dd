package auth

import (
	"sync"

	"github.com/vidfriends/appcore/internal/models"
)

// State holds the signed-in user for the running client.
type State struct {
	mu       sync.RWMutex
	user     *models.User
	loggedIn bool
}

// SetUser records u as signed in. A nil user clears the state.
func (s *State) SetUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user, s.loggedIn = nil, false
		return
	}
	cp := *u
	s.user, s.loggedIn = &cp, true
}

// Clear forgets the user and drops the logged-in flag.
func (s *State) Clear() {
	s.SetUser(nil)
}

// Snapshot returns a copy of the current user and the logged-in flag.
func (s *State) Snapshot() (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, s.loggedIn
	}
	cp := *s.user
	return &cp, s.loggedIn
}

// LoggedIn reports whether a user session is active.
func (s *State) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}
