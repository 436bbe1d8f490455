package server

import (
	"io"
	"slices"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Tyrowin/relaychat/internal/protocol"
)

// newTestHub returns a hub whose loop is driven by hand through dispatch.
func newTestHub(t *testing.T) *Hub {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimit.Burst = 0
	logger, _ := test.NewNullLogger()
	h := NewHub(cfg, logrus.NewEntry(logger))
	t.Cleanup(func() { close(h.done) })
	return h
}

// TestDispatchOrdersEventsBySlot verifies that events of one wake-up are
// handled by ascending slot, keeping arrival order within a slot.
func TestDispatchOrdersEventsBySlot(t *testing.T) {
	h := newTestHub(t)
	alice, _ := mustInsert(t, h.registry, "a", "alice")
	bob, _ := mustInsert(t, h.registry, "b", "bob")
	carol, _ := mustInsert(t, h.registry, "c", "carol")
	_, observer := mustInsert(t, h.registry, "o", "obs")

	h.dispatch(wakeup{events: []event{
		{session: carol, line: "c1"},
		{session: bob, line: "b1"},
		{session: carol, line: "c2"},
		{session: alice, line: "a1"},
	}})

	want := []string{"alice: a1\n", "bob: b1\n", "carol: c1\n", "carol: c2\n"}
	if !slices.Equal(observer.writes, want) {
		t.Errorf("Expected relays in slot order %q, got %q", want, observer.writes)
	}
}

// TestDispatchSkipsRemovedSessions verifies that an event queued behind its
// session's removal in the same wake-up is dropped.
func TestDispatchSkipsRemovedSessions(t *testing.T) {
	h := newTestHub(t)
	alice, _ := mustInsert(t, h.registry, "a", "alice")
	bob, bobConn := mustInsert(t, h.registry, "b", "bob")
	_, observer := mustInsert(t, h.registry, "o", "obs")

	h.dispatch(wakeup{events: []event{
		{session: bob, err: io.EOF},
		{session: bob, line: "late"},
		{session: alice, line: "after"},
	}})

	want := []string{"alice: after\n", "Server: bob has disconnected.\n"}
	if !slices.Equal(observer.writes, want) {
		t.Errorf("Expected %q, got %q", want, observer.writes)
	}
	if !bobConn.closed {
		t.Error("Expected closed session's connection to be closed")
	}
	if h.registry.IndexOf(bob) != -1 {
		t.Error("Expected bob to be removed from the registry")
	}
}

// TestDispatchAdmissionsFirstQueriesLast verifies that a connection admitted
// in a wake-up sees that wake-up's relays and that queries observe every
// event of the wake-up.
func TestDispatchAdmissionsFirstQueriesLast(t *testing.T) {
	h := newTestHub(t)
	alice, _ := mustInsert(t, h.registry, "a", "alice")
	waiting, _ := mustInsert(t, h.registry, "w", "")
	newcomer := newFakeConn("n")
	reply := make(chan []string, 1)

	h.dispatch(wakeup{
		queries:    []chan<- []string{reply},
		events:     []event{{session: waiting, line: "dave"}, {session: alice, line: "hi"}},
		admissions: []Conn{newcomer},
	})

	want := []string{
		"Server to you: " + protocol.PromptUsername,
		"alice: hi\n",
		"Server: dave has joined.\n",
	}
	if !slices.Equal(newcomer.writes, want) {
		t.Errorf("Expected newcomer to receive %q, got %q", want, newcomer.writes)
	}

	if got := <-reply; !slices.Equal(got, []string{"alice", "dave"}) {
		t.Errorf("Expected query to see [alice dave], got %v", got)
	}
}
