// Package server defines the session model shared by the registry, the router
// and the hub, plus small helpers reused across transports.
package server

import (
	"errors"
	"strings"

	"github.com/Tyrowin/relaychat/internal/protocol"
)

var (
	// ErrCapacityExceeded is returned by Registry.Insert when every client slot
	// is taken. The caller owns the connection and must close it.
	ErrCapacityExceeded = errors.New("server: maximum clients reached")

	// ErrHubStopped is returned when handing work to a hub that is not running.
	ErrHubStopped = errors.New("server: hub is not running")

	// ErrNilConn is returned when a nil connection is handed to a hub.
	ErrNilConn = errors.New("server: nil connection")
)

// Conn is the transport a Session talks over. ReadLine is only ever called from
// the session's reader goroutine; Write and Close only from the hub loop.
type Conn interface {
	ReadLine() (string, error)
	Write(p []byte) (int, error)
	Close() error
	RemoteAddr() string
}

// State is the position of a Session in the connection state machine.
type State int

const (
	// StateListener marks the pseudo-session standing for the accepting socket.
	StateListener State = iota
	// StateWaitingForUsername is the initial state of every admitted connection.
	StateWaitingForUsername
	// StateIdle is normal relay operation.
	StateIdle
)

func (s State) String() string {
	switch s {
	case StateListener:
		return "listener"
	case StateWaitingForUsername:
		return "waiting-for-username"
	case StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Session is the server-side view of one connected client.
type Session struct {
	conn     Conn
	addr     string
	state    State
	username string
	limiter  *rateLimiter
	removed  bool
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state
}

// Username returns the assigned username, or "" while none is set.
func (s *Session) Username() string {
	return s.username
}

// RemoteAddr returns the peer address captured at admission.
func (s *Session) RemoteAddr() string {
	return s.addr
}

// setUsername moves a waiting session to Idle. A username is assigned at most
// once.
func (s *Session) setUsername(name string) bool {
	if s.state != StateWaitingForUsername || s.username != "" {
		return false
	}
	s.username = name
	s.state = StateIdle
	return true
}

// label is the sender name used when framing this session's messages.
func (s *Session) label() string {
	if s == nil || s.state == StateListener {
		return protocol.ServerLabel
	}
	return s.username
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer")
}
