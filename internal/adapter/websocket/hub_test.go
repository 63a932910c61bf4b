package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func attach(h *Hub, sessionID string) *Client {
	c := &Client{hub: h, send: make(chan []byte, 8), sessionID: sessionID}
	h.register <- c
	return c
}

func receive(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return Envelope{}
	}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_BroadcastScopesBySession(t *testing.T) {
	h := startHub(t)
	all := attach(h, "")
	mine := attach(h, "s1")
	other := attach(h, "s2")

	h.Broadcast("voice.response", map[string]interface{}{"session_id": "s1", "text": "hi"})

	env := receive(t, all)
	assert.Equal(t, "voice.response", env.Type)
	assert.Equal(t, "s1", env.SessionID)
	assert.JSONEq(t, `{"session_id":"s1","text":"hi"}`, string(env.Payload))

	assert.Equal(t, "s1", receive(t, mine).SessionID)
	assertNothing(t, other)
}

func TestHub_UnscopedEventsReachEveryone(t *testing.T) {
	h := startHub(t)
	a := attach(h, "s1")
	b := attach(h, "s2")

	h.Broadcast("registry.reloaded", map[string]int{"count": 12})

	assert.Equal(t, "registry.reloaded", receive(t, a).Type)
	assert.Equal(t, "registry.reloaded", receive(t, b).Type)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := startHub(t)
	c := attach(h, "s1")
	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 5*time.Millisecond)

	h.unregister <- c

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Eventually(t, func() bool { return h.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_UnencodablePayloadIsDropped(t *testing.T) {
	h := startHub(t)
	c := attach(h, "")

	h.Broadcast("bad", make(chan int))

	assertNothing(t, c)
}
