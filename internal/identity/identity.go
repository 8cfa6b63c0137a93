package identity

import (
	"strings"
	"sync"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Listener receives the new identity after every change. ok is false once
// the user has signed out. Overlapping changes may be delivered out of order;
// Current always holds the latest.
type Listener func(identity model.Identity, ok bool)

type Provider interface {
	Current() (model.Identity, bool)
	Subscribe(fn Listener) (unsubscribe func())
}

// Session holds the signed-in identity for one process.
type Session struct {
	tokens *Tokens

	mu        sync.Mutex
	current   model.Identity
	listeners map[int]Listener
	nextID    int
}

func NewSession(tokens *Tokens) *Session {
	return &Session{tokens: tokens, listeners: make(map[int]Listener)}
}

func (s *Session) Current() (model.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != ""
}

func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SignIn verifies token and switches the session to its subject.
func (s *Session) SignIn(token string) (model.Identity, error) {
	if s.tokens == nil {
		return "", ErrTokensDisabled
	}
	identity, err := s.tokens.Verify(token)
	if err != nil {
		return "", err
	}
	s.set(identity)
	return identity, nil
}

// SignInAs trusts identity without a token. Used by the local backend where
// the process owner is the only user.
func (s *Session) SignInAs(identity model.Identity) {
	s.set(model.Identity(strings.TrimSpace(string(identity))))
}

func (s *Session) SignOut() {
	s.set("")
}

func (s *Session) set(identity model.Identity) {
	s.mu.Lock()
	if s.current == identity {
		s.mu.Unlock()
		return
	}
	s.current = identity
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(identity, identity != "")
	}
}
