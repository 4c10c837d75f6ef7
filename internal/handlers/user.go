package handlers

import (
	"strings"

	"github.com/dimitrije/ideaforge-api/internal/middleware"
	"github.com/dimitrije/ideaforge-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	userService UserServiceInterface
	log         logrus.FieldLogger
}

func NewUserHandler(userService UserServiceInterface, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.NotFound("user not found")
		return
	}

	_ = c.JSON(200, toUser(user))
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, req.Name, req.AvatarURL)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("failed to update user")
		c.InternalServerError("failed to update user")
		return
	}

	_ = c.JSON(200, toUser(user))
}
