package ws

import (
	"sync"
)

// DisplacementReason is sent to a session displaced by a newer login
// for the same identity.
const DisplacementReason = "Logged in from another session"

// Session is a live plugin connection as the registry sees it
type Session interface {
	// Send queues a message on the connection
	Send(message any)
	// Kick emits an auth_error with the reason and closes the connection
	Kick(reason string)
}

// Registry maps identities to their single live plugin session.
// Process-wide mutable state: constructed once at startup, passed by
// reference, rebuilt empty on restart.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewRegistry creates an empty connection registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]Session),
	}
}

// Register binds the identity to the session, displacing and closing
// any previously registered session. The displacement and the insert
// happen under one lock so no interleaving can leave two sessions both
// believing they are current.
func (r *Registry) Register(steamID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[steamID]; ok && existing != s {
		existing.Kick(DisplacementReason)
	}
	r.sessions[steamID] = s
}

// UnregisterIfCurrent removes the binding only if the registry still
// points at the caller's session. Idempotent: a stale closed session
// never clobbers a newer registration.
func (r *Registry) UnregisterIfCurrent(steamID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[steamID]; ok && current == s {
		delete(r.sessions, steamID)
	}
}

// Lookup returns the live session for an identity, if any
func (r *Registry) Lookup(steamID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[steamID]
	return s, ok
}

// Count returns the number of registered identities
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
