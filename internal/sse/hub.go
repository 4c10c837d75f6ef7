package sse

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

const EventTeamUpdated = "team_updated"

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// TeamUpdatedEvent tells viewers of an idea that its team changed and
// should be re-fetched.
type TeamUpdatedEvent struct {
	IdeaID    uuid.UUID `json:"idea_id"`
	Action    string    `json:"action"`
	UpdatedBy uuid.UUID `json:"updated_by"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Ideas  map[uuid.UUID]bool
	Send   chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *IdeaMessage
	done       chan struct{}
	mu         sync.RWMutex
}

type IdeaMessage struct {
	IdeaID uuid.UUID
	Event  Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *IdeaMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run dispatches registrations and broadcasts until ctx is done. Once it
// returns, Register and Unregister return immediately.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Event)
			if err != nil {
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				if client.Ideas[msg.IdeaID] {
					select {
					case client.Send <- data:
					default:
						// slow client; it re-fetches on its next event
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds client to the hub. A client registered after the hub has
// stopped gets its Send channel closed straight away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SubscribeToIdea reports false when no stream with clientID belongs to
// userID.
func (h *Hub) SubscribeToIdea(clientID string, userID, ideaID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[clientID]
	if !ok || client.UserID != userID {
		return false
	}
	client.Ideas[ideaID] = true
	return true
}

func (h *Hub) UnsubscribeFromIdea(clientID string, userID, ideaID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[clientID]
	if !ok || client.UserID != userID {
		return false
	}
	delete(client.Ideas, ideaID)
	return true
}

// BroadcastTeamUpdate never blocks the caller; when the queue is full the
// event is dropped.
func (h *Hub) BroadcastTeamUpdate(ideaID, updatedBy uuid.UUID, action string) {
	msg := &IdeaMessage{
		IdeaID: ideaID,
		Event: Event{
			Type: EventTeamUpdated,
			Data: TeamUpdatedEvent{
				IdeaID:    ideaID,
				Action:    action,
				UpdatedBy: updatedBy,
			},
		},
	}
	select {
	case h.broadcast <- msg:
	default:
	}
}
