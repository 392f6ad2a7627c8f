package identity

import (
	"sync"

	"taskticker-api/domain"
)

// Session tracks the authenticated identity for one client session. Until
// the first auth state notification arrives the identity is unknown rather
// than logged out; Loading reports that phase and gating logic must wait
// for it to clear before deciding anything.
type Session struct {
	mu       sync.Mutex
	identity *domain.Identity
	loading  bool
	nextSub  int
	subs     map[int]func(*domain.Identity)
}

// NewSession returns a session in the loading state with no identity.
func NewSession() *Session {
	return &Session{loading: true, subs: map[int]func(*domain.Identity){}}
}

// NewAuthenticatedSession returns a session already resolved to id. The HTTP
// layer builds one per request from the verified bearer token so repository
// calls never read ambient state.
func NewAuthenticatedSession(id domain.Identity) *Session {
	s := &Session{subs: map[int]func(*domain.Identity){}}
	s.identity = &id
	return s
}

// Identity returns the current identity, or nil when logged out or still
// loading.
func (s *Session) Identity() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// Loading reports whether the first auth state notification is still pending.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Set records the identity (nil on logout), ends the loading phase and
// notifies subscribers.
func (s *Session) Set(id *domain.Identity) {
	s.mu.Lock()
	if id == nil {
		s.identity = nil
	} else {
		copied := *id
		s.identity = &copied
	}
	s.loading = false
	subs := make([]func(*domain.Identity), 0, len(s.subs))
	for _, cb := range s.subs {
		subs = append(subs, cb)
	}
	current := s.identity
	s.mu.Unlock()

	for _, cb := range subs {
		cb(current)
	}
}

// Subscribe registers cb for auth state changes and returns the handle that
// releases it. When the session has already left the loading phase, cb is
// invoked immediately with the current state.
func (s *Session) Subscribe(cb func(*domain.Identity)) (unsubscribe func()) {
	s.mu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = cb
	notify := !s.loading
	current := s.identity
	s.mu.Unlock()

	if notify {
		cb(current)
	}
	return func() {
		s.mu.Lock()
		delete(s.subs, key)
		s.mu.Unlock()
	}
}
