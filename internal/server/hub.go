// Package server coordinates session admission, the username handshake,
// command dispatch and relaying for every connection via the Hub type.
package server

import (
	"cmp"
	"context"
	"errors"
	"io"
	"net"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/relaychat/internal/protocol"
)

// maxWakeupEvents bounds how many queued events one wake-up drains.
const maxWakeupEvents = 1024

// event is posted by a session's reader goroutine: either a line or the error
// that ended the session.
type event struct {
	session *Session
	line    string
	err     error
}

// wakeup is everything that was pending when the loop woke.
type wakeup struct {
	admissions []Conn
	events     []event
	queries    []chan<- []string
}

func (w *wakeup) size() int {
	return len(w.admissions) + len(w.events) + len(w.queries)
}

// Hub multiplexes all client connections through one event loop. Only the
// goroutine running Serve touches the registry and the router; the acceptor
// and the per-session readers communicate with it over channels.
type Hub struct {
	cfg      Config
	log      *logrus.Entry
	registry *Registry
	router   *Router

	admit   chan Conn
	events  chan event
	queries chan chan<- []string

	started atomic.Bool
	done    chan struct{}
}

// NewHub creates a Hub for cfg. The hub does nothing until Serve is called.
func NewHub(cfg Config, log *logrus.Entry) *Hub {
	cfg = cfg.Sanitize()
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	registry := NewRegistry(cfg.MaxClients)
	return &Hub{
		cfg:      cfg,
		log:      log,
		registry: registry,
		router:   NewRouter(registry, cfg.MaxMessageSize, log),
		admit:    make(chan Conn),
		events:   make(chan event),
		queries:  make(chan chan<- []string),
		done:     make(chan struct{}),
	}
}

// Done is closed once Serve has returned and every session is closed.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Admit hands a freshly accepted connection to the hub. If the hub is full the
// connection is closed by the hub. When the hub is not running the caller
// keeps ownership of conn and must close it.
func (h *Hub) Admit(ctx context.Context, conn Conn) error {
	if conn == nil {
		return ErrNilConn
	}
	select {
	case h.admit <- conn:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Usernames returns the usernames currently assigned, in slot order.
func (h *Hub) Usernames(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)
	select {
	case h.queries <- reply:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case names := <-reply:
		return names, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Serve runs the event loop until ctx is cancelled, accepting connections from
// ln when it is not nil. On cancellation the current wake-up is completed,
// every session is told the server is shutting down and all connections,
// including ln, are closed. Serve may only be called once.
func (h *Hub) Serve(ctx context.Context, ln net.Listener) error {
	if !h.started.CompareAndSwap(false, true) {
		return errors.New("server: hub is already serving")
	}
	defer close(h.done)

	acceptDone := make(chan struct{})
	if ln != nil {
		h.log.Infof("Server listening on %s", ln.Addr())
		go func() {
			defer close(acceptDone)
			h.acceptLoop(ctx, ln)
		}()
	} else {
		close(acceptDone)
	}

	for {
		w, ok := h.wait(ctx)
		if !ok {
			break
		}
		h.dispatch(w)
	}

	h.shutdown(ln)
	<-acceptDone
	return nil
}

func (h *Hub) acceptLoop(ctx context.Context, ln net.Listener) {
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			backoff = nextBackoff(backoff)
			h.log.Warnf("Failed to accept connection: %v; retrying in %v", err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			continue
		}
		backoff = 0

		c := newTCPConn(conn, h.cfg.MaxMessageSize, h.cfg.WriteTimeout)
		select {
		case h.admit <- c:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		d = time.Second
	}
	return d
}

// wait blocks until at least one event is pending, then drains whatever else
// is already queued. It reports false when ctx is cancelled.
func (h *Hub) wait(ctx context.Context) (wakeup, bool) {
	var w wakeup
	select {
	case <-ctx.Done():
		return w, false
	case c := <-h.admit:
		w.admissions = append(w.admissions, c)
	case ev := <-h.events:
		w.events = append(w.events, ev)
	case q := <-h.queries:
		w.queries = append(w.queries, q)
	}

	for w.size() < maxWakeupEvents {
		select {
		case c := <-h.admit:
			w.admissions = append(w.admissions, c)
		case ev := <-h.events:
			w.events = append(w.events, ev)
		case q := <-h.queries:
			w.queries = append(w.queries, q)
		default:
			return w, true
		}
	}
	return w, true
}

// dispatch handles one wake-up in a fixed order: admissions first, then
// session events by ascending slot (arrival order within a slot), then
// queries.
func (h *Hub) dispatch(w wakeup) {
	for _, c := range w.admissions {
		h.admitConn(c)
	}

	slot := make(map[*Session]int, h.registry.Len())
	for i := 1; i < h.registry.Len(); i++ {
		slot[h.registry.At(i)] = i
	}
	slices.SortStableFunc(w.events, func(a, b event) int {
		return cmp.Compare(slot[a.session], slot[b.session])
	})

	for _, ev := range w.events {
		if ev.session.removed {
			continue
		}
		if ev.err != nil {
			h.disconnect(ev.session, ev.err)
			continue
		}
		h.handleLine(ev.session, ev.line)
	}

	for _, q := range w.queries {
		q <- h.registry.Usernames()
	}
}

func (h *Hub) admitConn(c Conn) {
	if c == nil {
		return
	}
	s, err := h.registry.Insert(c)
	if err != nil {
		h.log.WithField("session", c.RemoteAddr()).Warnf("Connection rejected: %v", err)
		_ = c.Close()
		return
	}
	s.limiter = newRateLimiter(h.cfg.RateLimit.Burst, h.cfg.RateLimit.RefillInterval)

	h.sessionLog(s).Infof("New client connected. Total clients: %d", h.registry.Clients())
	h.router.ServerNotice(s, protocol.PromptUsername)
	go h.readLoop(s, c)
}

// readLoop runs on its own goroutine and never touches session state; it only
// posts what it reads.
func (h *Hub) readLoop(s *Session, conn Conn) {
	for {
		line, err := conn.ReadLine()
		select {
		case h.events <- event{session: s, line: line, err: err}:
		case <-h.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (h *Hub) handleLine(s *Session, line string) {
	h.sessionLog(s).Debugf("Received: %q", line)

	switch s.State() {
	case StateWaitingForUsername:
		h.submitUsername(s, line)
	case StateIdle:
		switch {
		case strings.TrimSpace(line) == "":
		case protocol.IsCommand(line):
			h.handleCommand(s, line)
		default:
			if h.allow(s) {
				h.router.Broadcast(s, line)
			}
		}
	}
}

func (h *Hub) submitUsername(s *Session, name string) {
	if !protocol.ValidUsername(name) {
		h.sessionLog(s).Debugf("Rejected username %q", name)
		h.router.ServerNotice(s, protocol.RejectUsername)
		return
	}
	s.setUsername(name)
	h.sessionLog(s).Info("Username accepted")
	h.router.Broadcast(nil, protocol.Joined(name))
}

func (h *Hub) handleCommand(s *Session, line string) {
	switch protocol.CommandWord(line) {
	case protocol.CommandList:
		h.router.ServerNotice(s, strings.Join(h.registry.Usernames(), ", "))
	case protocol.CommandWhisper:
		h.whisper(s, line)
	default:
		h.sessionLog(s).Debugf("Ignoring unknown command %q", line)
	}
}

func (h *Hub) whisper(s *Session, line string) {
	parts, ok := protocol.ParseCommand(line, 3)
	if !ok {
		h.sessionLog(s).Debugf("Ignoring malformed whisper %q", line)
		return
	}
	recipient, ok := h.registry.FindByUsername(parts[1])
	if !ok {
		h.sessionLog(s).Debugf("Whisper to unknown user %q dropped", parts[1])
		return
	}
	if h.allow(s) {
		h.router.DirectSend(s, recipient, parts[2])
	}
}

func (h *Hub) allow(s *Session) bool {
	if s.limiter.allow() {
		return true
	}
	h.sessionLog(s).Warnf(
		"Rate limit exceeded (%d messages per %s); discarding message",
		h.cfg.RateLimit.Burst, h.cfg.RateLimit.RefillInterval,
	)
	return false
}

func (h *Hub) disconnect(s *Session, cause error) {
	log := h.sessionLog(s)
	name := s.Username()
	h.registry.Remove(s)

	if peerClosed(cause) {
		log.Infof("Client disconnected. Total clients: %d", h.registry.Clients())
	} else {
		log.Warnf("Read failed, closing session: %v", cause)
	}

	// Sessions that never picked a username leave without an announcement.
	if name != "" {
		h.router.Broadcast(nil, protocol.Disconnected(name))
	}
}

func (h *Hub) shutdown(ln net.Listener) {
	if ln != nil {
		if err := ln.Close(); err != nil && !isExpectedCloseError(err) {
			h.log.Warnf("Error closing listener: %v", err)
		}
	}

	h.log.Infof("Shutting down, closing %d client connections", h.registry.Clients())
	h.router.Broadcast(nil, protocol.ShuttingDown)
	for h.registry.Clients() > 0 {
		h.registry.Remove(h.registry.At(1))
	}
}

func (h *Hub) sessionLog(s *Session) *logrus.Entry {
	fields := logrus.Fields{"session": s.addr}
	if s.username != "" {
		fields["user"] = s.username
	}
	return h.log.WithFields(fields)
}

// peerClosed reports whether err is an orderly or expected end of a session.
func peerClosed(err error) bool {
	var closeErr *websocket.CloseError
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.As(err, &closeErr) ||
		isExpectedCloseError(err)
}
