package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRoutesEventsPerUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	aliceClient := NewClient(hub, nil, "alice@example.com")
	bobClient := NewClient(hub, nil, "bob@example.com")
	hub.Register <- aliceClient
	hub.Register <- bobClient

	// Register goes through a channel; wait for the hub to pick it up.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 2
	}, time.Second, 10*time.Millisecond)

	hub.Publish("alice@example.com", []byte("event"))

	select {
	case msg := <-aliceClient.send:
		assert.Equal(t, []byte("event"), msg)
	case <-time.After(time.Second):
		t.Fatal("alice's client never received the event")
	}
	select {
	case <-bobClient.send:
		t.Fatal("bob's client received another user's event")
	default:
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, nil, "alice@example.com")
	hub.Register <- client
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	// Fill the buffer and keep publishing; overflow is dropped, not stuck.
	for i := 0; i < cap(client.send)+10; i++ {
		hub.Publish("alice@example.com", []byte("event"))
	}
	assert.Len(t, client.send, cap(client.send))
}

func TestHubPublishToUnknownUser(t *testing.T) {
	hub := NewHub()
	// No Run loop needed; Publish only reads the registry.
	hub.Publish("ghost@example.com", []byte("event"))
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, nil, "alice@example.com")
	hub.Register <- client
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Unregister <- client
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-client.send
	assert.False(t, open)
}
