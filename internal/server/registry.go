// Package server keeps connected sessions in a dense, ordered registry whose
// slot 0 is reserved for the listener.
package server

import (
	"errors"
	"fmt"
)

// DefaultMaxClients is the number of client slots when none is configured.
const DefaultMaxClients = 10

// Registry is the ordered collection of sessions. Slot 0 always holds the
// listener pseudo-session; client sessions occupy slots 1..Len()-1 with no
// gaps. A Registry is owned by a single goroutine and is not safe for
// concurrent use.
type Registry struct {
	slots      []*Session
	maxClients int
}

// NewRegistry creates a registry with room for maxClients client sessions.
func NewRegistry(maxClients int) *Registry {
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}
	slots := make([]*Session, 1, maxClients+1)
	slots[0] = &Session{state: StateListener}
	return &Registry{slots: slots, maxClients: maxClients}
}

// Listener returns the slot 0 pseudo-session.
func (r *Registry) Listener() *Session {
	return r.slots[0]
}

// Len returns the active slot count, listener included.
func (r *Registry) Len() int {
	return len(r.slots)
}

// Clients returns the number of client sessions.
func (r *Registry) Clients() int {
	return len(r.slots) - 1
}

// Full reports whether every client slot is taken.
func (r *Registry) Full() bool {
	return r.Clients() >= r.maxClients
}

// At returns the session in slot i, for 0 <= i < Len().
func (r *Registry) At(i int) *Session {
	return r.slots[i]
}

// IndexOf returns the slot of s, or -1 when s is not registered.
func (r *Registry) IndexOf(s *Session) int {
	for i, slot := range r.slots {
		if slot == s {
			return i
		}
	}
	return -1
}

// Insert registers conn in the next free slot as a session waiting for its
// username. It returns ErrCapacityExceeded when the registry is full.
func (r *Registry) Insert(conn Conn) (*Session, error) {
	if conn == nil {
		return nil, errors.New("server: cannot register a nil connection")
	}
	if r.Full() {
		return nil, fmt.Errorf("register %s: %w", conn.RemoteAddr(), ErrCapacityExceeded)
	}
	s := &Session{
		conn:  conn,
		addr:  conn.RemoteAddr(),
		state: StateWaitingForUsername,
	}
	r.slots = append(r.slots, s)
	return s, nil
}

// Remove closes the session's transport, drops its username and compacts the
// slots after it so the active range stays contiguous. Removing the listener
// or an unknown session is a no-op that returns false.
func (r *Registry) Remove(s *Session) bool {
	i := r.IndexOf(s)
	if i <= 0 {
		return false
	}

	copy(r.slots[i:], r.slots[i+1:])
	r.slots[len(r.slots)-1] = nil
	r.slots = r.slots[:len(r.slots)-1]

	s.removed = true
	s.username = ""
	if s.conn != nil {
		_ = s.conn.Close()
	}
	return true
}

// FindByUsername returns the first client session, in slot order, whose
// username equals name exactly.
func (r *Registry) FindByUsername(name string) (*Session, bool) {
	if name == "" {
		return nil, false
	}
	for _, s := range r.slots[1:] {
		if s.username == name {
			return s, true
		}
	}
	return nil, false
}

// Usernames returns the assigned usernames of all client sessions in slot
// order. Sessions still waiting for a username are skipped.
func (r *Registry) Usernames() []string {
	names := make([]string, 0, r.Clients())
	for _, s := range r.slots[1:] {
		if s.username != "" {
			names = append(names, s.username)
		}
	}
	return names
}

// Sessions returns a snapshot of the client sessions in slot order.
func (r *Registry) Sessions() []*Session {
	return append([]*Session(nil), r.slots[1:]...)
}
