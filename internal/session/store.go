// Package session holds the authentication state for a request and the
// operations that change it. The backend auth service is the sole source of
// truth; everything here is a passive mirror of what it issued.
package session

import (
	"sync"

	"github.com/galleyapp/galley/internal/entities"
)

// State is an immutable snapshot of the authentication state. Loading is
// true only between store creation and the first resolution; after that,
// User and Session are either both present or both absent.
type State struct {
	User    *entities.User
	Session *entities.Session
	Loading bool
}

// Authenticated reports whether the state carries a resolved session.
func (s State) Authenticated() bool {
	return !s.Loading && s.Session != nil
}

// Store is the single holder of State. It has exactly one writer path (Set)
// and any number of readers and subscribers. Updates are whole-object
// replacements: a session-change event can never leave a User without a
// Session or vice versa. Last write wins; the store does not sequence or
// deduplicate events.
type Store struct {
	mu      sync.Mutex
	state   State
	closed  bool
	nextID  int
	subs    map[int]func(State)
}

// NewStore creates a store in the loading state.
func NewStore() *Store {
	return &Store{
		state: State{Loading: true},
		subs:  make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set replaces the state from a session-change event. A nil session (or a
// session without a user) means signed out. Calls after Close are no-ops:
// a late event from an in-flight operation must never resurrect a
// torn-down store.
func (s *Store) Set(session *entities.Session) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if session == nil || session.User == nil {
		s.state = State{}
	} else {
		s.state = State{User: session.User, Session: session}
	}

	state := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Fail marks the initial resolution as finished without a session. Loading
// becomes false exactly once per store lifetime, whether resolution
// succeeded or failed.
func (s *Store) Fail() {
	s.Set(nil)
}

// Subscribe registers fn to run on every state change after registration.
// The returned cancel removes the subscription; cancelling twice is safe.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	if !s.closed {
		s.subs[id] = fn
	}

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close tears the store down. All subscriptions are dropped and any later
// Set is silently ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = make(map[int]func(State))
}
