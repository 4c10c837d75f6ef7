package handlers

import (
	"net/http"
	"strings"

	"github.com/dimitrije/ideaforge-api/internal/middleware"
	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/services"
	"github.com/dimitrije/ideaforge-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

type IdeaHandler struct {
	teamBase
}

func NewIdeaHandler(ideaService IdeaServiceInterface, teamService TeamServiceInterface, hub HubInterface, log logrus.FieldLogger) *IdeaHandler {
	return &IdeaHandler{teamBase{
		ideaService: ideaService,
		teamService: teamService,
		hub:         hub,
		log:         log,
	}}
}

func (h *IdeaHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateIdeaRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	idea, err := h.ideaService.Create(c.Request.Context(), userID, req.Title, req.Privacy, req.NDAProtected, req.MaxTeamSize)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("failed to create idea")
		c.InternalServerError("failed to create idea")
		return
	}

	_ = c.JSON(http.StatusCreated, toIdea(idea, models.PermissionsFor(idea, userID, false)))
}

func (h *IdeaHandler) Get(c *drift.Context) {
	req, ok := h.begin(c)
	if !ok {
		return
	}

	_, perms, err := h.snapshotFor(req)
	if err != nil {
		writeError(c, h.log, err, req.fields())
		return
	}
	_ = c.JSON(http.StatusOK, toIdea(req.idea, perms))
}

func (h *IdeaHandler) Update(c *drift.Context) {
	req, ok := h.begin(c)
	if !ok {
		return
	}
	if req.idea.AuthorID != req.userID {
		c.Forbidden("only the idea's author can edit it")
		return
	}

	var body dto.UpdateIdeaRequest
	if err := c.BindJSON(&body); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if body.Title != nil {
		trimmed := strings.TrimSpace(*body.Title)
		body.Title = &trimmed
	}
	if err := validateStruct(body); err != nil {
		c.BadRequest(err.Error())
		return
	}

	idea, err := h.ideaService.Update(req.ctx, req.idea.ID, services.IdeaUpdate{
		Title:        body.Title,
		Privacy:      body.Privacy,
		NDAProtected: body.NDAProtected,
		MaxTeamSize:  body.MaxTeamSize,
	})
	if err != nil {
		writeError(c, h.log, err, req.fields())
		return
	}
	idea.Author = req.idea.Author

	_, perms, err := h.snapshotFor(request{ctx: req.ctx, userID: req.userID, idea: idea})
	if err != nil {
		writeError(c, h.log, err, req.fields())
		return
	}
	h.hub.BroadcastTeamUpdate(idea.ID, req.userID, "idea_updated")
	_ = c.JSON(http.StatusOK, toIdea(idea, perms))
}
