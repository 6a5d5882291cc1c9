package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(h.Close)
	return h
}

func newTestClient(h *Hub, username string) *Client {
	return &Client{hub: h, send: make(chan []byte, 16), username: username}
}

// nextEvent reads the client's next pushed event or fails the test.
func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func onlineUsers(t *testing.T, ev Event) []string {
	t.Helper()
	require.Equal(t, "getOnlineUsers", ev.Event)
	raw, err := json.Marshal(ev.Data)
	require.NoError(t, err)
	var users []string
	require.NoError(t, json.Unmarshal(raw, &users))
	return users
}

func TestRegisterAndLookup(t *testing.T) {
	h := newTestHub(t)
	alice := newTestClient(h, "alice")

	h.RegisterClient(alice)
	assert.Same(t, alice, h.Lookup("alice"))
	assert.Nil(t, h.Lookup("bob"))

	users := onlineUsers(t, nextEvent(t, alice))
	assert.Equal(t, []string{"alice"}, users)
}

func TestUnregisterBroadcastsRemoval(t *testing.T) {
	h := newTestHub(t)
	alice := newTestClient(h, "alice")
	bob := newTestClient(h, "bob")

	h.RegisterClient(alice)
	h.RegisterClient(bob)
	// drain the connect broadcasts
	nextEvent(t, alice)
	nextEvent(t, alice)
	nextEvent(t, bob)

	h.UnregisterClient(alice)
	assert.Nil(t, h.Lookup("alice"))

	users := onlineUsers(t, nextEvent(t, bob))
	assert.Equal(t, []string{"bob"}, users)
}

func TestLastConnectionWins(t *testing.T) {
	h := newTestHub(t)
	first := newTestClient(h, "alice")
	second := newTestClient(h, "alice")

	h.RegisterClient(first)
	h.RegisterClient(second)

	assert.Same(t, second, h.Lookup("alice"))

	// the replaced connection's channel is closed
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-first.send:
			if !ok {
				goto closed
			}
		case <-deadline:
			t.Fatal("replaced client's send channel was never closed")
		}
	}
closed:

	// the stale connection's late disconnect must not evict the new one
	h.UnregisterClient(first)
	assert.Same(t, second, h.Lookup("alice"))
}

func TestDeliverOnlyToOnlineRecipients(t *testing.T) {
	h := newTestHub(t)
	r1 := newTestClient(h, "r1")
	h.RegisterClient(r1)
	nextEvent(t, r1) // connect broadcast

	h.DeliverToUsers(context.Background(), []string{"r1", "r2"}, Event{Event: "newMessage", Data: map[string]string{"text": "hi"}})

	ev := nextEvent(t, r1)
	assert.Equal(t, "newMessage", ev.Event)

	// no recipients online at all is fine too
	h.DeliverToUsers(context.Background(), []string{"r2"}, Event{Event: "newMessage", Data: "dropped"})

	select {
	case payload := <-r1.send:
		t.Fatalf("unexpected delivery: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeliverNoRecipients(t *testing.T) {
	h := newTestHub(t)
	// must not block or panic
	h.DeliverToUsers(context.Background(), nil, Event{Event: "newMessage", Data: "x"})
}
