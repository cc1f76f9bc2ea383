package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/mamadbah2/packhouse/internal/domain/models"
)

// State is a step of the sign-in lifecycle.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateSignedOut      State = "signed_out"
)

var transitions = map[State][]State{
	StateAnonymous:      {StateAuthenticating},
	StateAuthenticating: {StateAuthenticated, StateAnonymous},
	StateAuthenticated:  {StateSignedOut},
	StateSignedOut:      {StateAuthenticating},
}

// Event describes one session transition. User is set once authenticated.
type Event struct {
	From State
	To   State
	User *models.User
	At   time.Time
}

// Listener receives every session transition.
type Listener func(Event)

// Session tracks one client's way through the sign-in lifecycle.
type Session struct {
	mu      sync.Mutex
	state   State
	user    *models.User
	token   string
	tokenID string
	notify  func(Event)
	now     func() time.Time
}

func newSession(notify func(Event), now func() time.Time) *Session {
	return &Session{state: StateAnonymous, notify: notify, now: now}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in user, if any.
func (s *Session) User() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token of an authenticated session.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Role returns the role of the signed-in user, or "" when not authenticated.
func (s *Session) Role() models.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated || s.user == nil {
		return ""
	}
	return s.user.Role
}

func (s *Session) transition(to State, user *models.User) error {
	s.mu.Lock()
	from := s.state
	if !allowed(from, to) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	s.state = to
	if user != nil {
		u := *user
		s.user = &u
	}
	if to == StateAnonymous || to == StateSignedOut {
		s.token, s.tokenID = "", ""
	}
	ev := Event{From: from, To: to, User: s.user, At: s.now()}
	s.mu.Unlock()

	if s.notify != nil {
		s.notify(ev)
	}
	return nil
}

func allowed(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
