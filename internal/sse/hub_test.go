package sse

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func newClient(id string, ideas ...uuid.UUID) *Client {
	c := &Client{
		ID:     id,
		UserID: uuid.New(),
		Ideas:  make(map[uuid.UUID]bool),
		Send:   make(chan []byte, 256),
	}
	for _, idea := range ideas {
		c.Ideas[idea] = true
	}
	return c
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.broadcast)
}

func TestHub_RegisterClient(t *testing.T) {
	hub := startHub(t)
	client := newClient("client-1")

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	_, exists := hub.clients[client.ID]
	hub.mu.RUnlock()

	assert.True(t, exists)
}

func TestHub_UnregisterClient_ClosesSendChannel(t *testing.T) {
	hub := startHub(t)
	client := newClient("client-1")

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	_, exists := hub.clients[client.ID]
	hub.mu.RUnlock()
	assert.False(t, exists)

	_, ok := <-client.Send
	assert.False(t, ok)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := newClient("client-1")
	hub.Register(client)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, ok := <-client.Send
	assert.False(t, ok)
}

func stoppedHub(t *testing.T, clients ...*Client) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	for _, c := range clients {
		hub.Register(c)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	return hub
}

func TestHub_UnregisterAfterStopReturns(t *testing.T) {
	client := newClient("client-1")
	hub := stoppedHub(t, client)

	_, ok := <-client.Send
	require.False(t, ok)

	returned := make(chan struct{})
	go func() {
		hub.Unregister(client)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after the hub stopped")
	}
}

func TestHub_RegisterAfterStopClosesClient(t *testing.T) {
	hub := stoppedHub(t)
	client := newClient("late")

	returned := make(chan struct{})
	go func() {
		hub.Register(client)
		hub.Unregister(client)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Register blocked after the hub stopped")
	}
	_, ok := <-client.Send
	assert.False(t, ok)
}

func TestHub_SubscribeAndUnsubscribe(t *testing.T) {
	hub := startHub(t)
	client := newClient("client-1")
	ideaID := uuid.New()

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	assert.True(t, hub.SubscribeToIdea(client.ID, client.UserID, ideaID))
	hub.mu.RLock()
	assert.True(t, client.Ideas[ideaID])
	hub.mu.RUnlock()

	assert.True(t, hub.UnsubscribeFromIdea(client.ID, client.UserID, ideaID))
	hub.mu.RLock()
	assert.False(t, client.Ideas[ideaID])
	hub.mu.RUnlock()
}

func TestHub_SubscribeNonexistentClient(t *testing.T) {
	hub := startHub(t)

	assert.False(t, hub.SubscribeToIdea("nonexistent", uuid.New(), uuid.New()))
	assert.False(t, hub.UnsubscribeFromIdea("nonexistent", uuid.New(), uuid.New()))
}

func TestHub_SubscribeRequiresStreamOwner(t *testing.T) {
	hub := startHub(t)
	ideaID := uuid.New()
	client := newClient("client-1", ideaID)
	stranger := uuid.New()

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	assert.False(t, hub.SubscribeToIdea(client.ID, stranger, uuid.New()))
	assert.False(t, hub.UnsubscribeFromIdea(client.ID, stranger, ideaID))

	hub.mu.RLock()
	assert.Len(t, client.Ideas, 1)
	assert.True(t, client.Ideas[ideaID])
	hub.mu.RUnlock()
}

func TestHub_BroadcastTeamUpdate_ToSubscribedClient(t *testing.T) {
	hub := startHub(t)
	ideaID := uuid.New()
	updatedBy := uuid.New()
	client := newClient("client-1", ideaID)

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastTeamUpdate(ideaID, updatedBy, "member_removed")

	select {
	case msg := <-client.Send:
		var event struct {
			Type string           `json:"type"`
			Data TeamUpdatedEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg, &event))

		assert.Equal(t, EventTeamUpdated, event.Type)
		assert.Equal(t, ideaID, event.Data.IdeaID)
		assert.Equal(t, updatedBy, event.Data.UpdatedBy)
		assert.Equal(t, "member_removed", event.Data.Action)

	case <-time.After(100 * time.Millisecond):
		t.Fatal("did not receive message")
	}
}

func TestHub_BroadcastTeamUpdate_OnlyToViewersOfIdea(t *testing.T) {
	hub := startHub(t)
	ideaID := uuid.New()

	viewer1 := newClient("client-1", ideaID)
	viewer2 := newClient("client-2", ideaID)
	other := newClient("client-3", uuid.New())

	hub.Register(viewer1)
	hub.Register(viewer2)
	hub.Register(other)
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastTeamUpdate(ideaID, uuid.New(), "role_added")

	receivedCount := 0
	for _, c := range []*Client{viewer1, viewer2} {
		select {
		case <-c.Send:
			receivedCount++
		case <-time.After(50 * time.Millisecond):
		}
	}

	select {
	case <-other.Send:
		t.Fatal("client on another idea should not receive message")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, 2, receivedCount)
}

func TestHub_BroadcastTeamUpdate_FullBufferDropped(t *testing.T) {
	hub := startHub(t)
	ideaID := uuid.New()
	client := newClient("client-1", ideaID)
	client.Send = make(chan []byte, 1)

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	client.Send <- []byte("fill")

	hub.BroadcastTeamUpdate(ideaID, uuid.New(), "lead_changed")
	time.Sleep(10 * time.Millisecond)

	<-client.Send

	select {
	case <-client.Send:
		t.Fatal("should not receive dropped message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterNonexistentClient(t *testing.T) {
	hub := startHub(t)

	hub.Unregister(newClient("nonexistent"))
	time.Sleep(10 * time.Millisecond)
}
