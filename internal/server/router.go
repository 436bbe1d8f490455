// Package server routes chat lines, whispers and server notices to the
// sessions held in a Registry.
package server

import (
	"github.com/sirupsen/logrus"

	"github.com/Tyrowin/relaychat/internal/protocol"
)

// Router delivers framed messages to registered sessions. Delivery is best
// effort: a failed write is logged and never stops delivery to the others.
type Router struct {
	registry *Registry
	limit    int
	log      *logrus.Entry
}

// NewRouter creates a Router over registry. Outbound frames are bounded to
// limit bytes; a non-positive limit disables the bound.
func NewRouter(registry *Registry, limit int, log *logrus.Entry) *Router {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Router{registry: registry, limit: limit, log: log}
}

// Broadcast sends "<sender>: <text>\n" to every client session except sender.
// A nil sender, or the listener, sends as "Server" and reaches every client
// session. It returns the number of successful deliveries.
func (r *Router) Broadcast(sender *Session, text string) int {
	listener := r.registry.Listener()
	if sender == nil {
		sender = listener
	}
	msg := protocol.Relay(sender.label(), text, r.limit)

	delivered := 0
	for i := 1; i < r.registry.Len(); i++ {
		recipient := r.registry.At(i)
		if sender != listener && recipient == sender {
			continue
		}
		if r.deliver(recipient, msg) {
			delivered++
		}
	}
	return delivered
}

// DirectSend sends "<sender> to you: <text>\n" to recipient only.
func (r *Router) DirectSend(sender, recipient *Session, text string) bool {
	return r.deliver(recipient, protocol.Whisper(sender.label(), text, r.limit))
}

// ServerNotice sends "Server to you: <text>" to recipient only.
func (r *Router) ServerNotice(recipient *Session, text string) bool {
	return r.deliver(recipient, protocol.Notice(text, r.limit))
}

func (r *Router) deliver(recipient *Session, msg string) bool {
	if recipient == nil || recipient.conn == nil || recipient.removed {
		return false
	}
	if _, err := recipient.conn.Write([]byte(msg)); err != nil {
		r.log.WithFields(logrus.Fields{
			"session": recipient.addr,
			"user":    recipient.username,
		}).Warnf("Send failed: %v", err)
		return false
	}
	return true
}
