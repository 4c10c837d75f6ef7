package handlers

import (
	"fmt"

	"github.com/dimitrije/ideaforge-api/internal/middleware"
	"github.com/dimitrije/ideaforge-api/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

type SSEHandler struct {
	teamBase
}

func NewSSEHandler(hub HubInterface, ideaService IdeaServiceInterface, teamService TeamServiceInterface, log logrus.FieldLogger) *SSEHandler {
	return &SSEHandler{teamBase{
		ideaService: ideaService,
		teamService: teamService,
		hub:         hub,
		log:         log,
	}}
}

// Connect streams team_updated events for one idea until the client goes
// away.
func (h *SSEHandler) Connect(c *drift.Context) {
	r, ok := h.begin(c)
	if !ok {
		return
	}
	if _, _, err := h.snapshotFor(r); err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:     clientID,
		UserID: r.userID,
		Ideas:  map[uuid.UUID]bool{r.idea.ID: true},
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// Subscribe adds another idea to an open event stream. Only the user who
// opened the stream can change what it follows.
func (h *SSEHandler) Subscribe(c *drift.Context) {
	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return
	}

	r, ok := h.begin(c)
	if !ok {
		return
	}
	if _, _, err := h.snapshotFor(r); err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}

	if !h.hub.SubscribeToIdea(clientID, r.userID, r.idea.ID) {
		c.NotFound("event stream not found")
		return
	}

	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("subscribed to idea %s", r.idea.ID),
	})
}

func (h *SSEHandler) Unsubscribe(c *drift.Context) {
	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return
	}

	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	ideaID, ok := parseUUIDParam(c, "id", "idea")
	if !ok {
		return
	}

	if !h.hub.UnsubscribeFromIdea(clientID, userID, ideaID) {
		c.NotFound("event stream not found")
		return
	}

	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("unsubscribed from idea %s", ideaID),
	})
}
