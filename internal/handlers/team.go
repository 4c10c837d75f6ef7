package handlers

import (
	"net/http"
	"strings"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/services"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/dimitrije/ideaforge-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

const (
	actionLeadChanged   = "lead_changed"
	actionMemberRemoved = "member_removed"
	actionMemberLeft    = "member_left"
	actionRoleAdded     = "role_added"
	actionRoleRemoved   = "role_removed"
)

type TeamHandler struct {
	teamBase
}

func NewTeamHandler(ideaService IdeaServiceInterface, teamService TeamServiceInterface, locks services.RowLocker, hub HubInterface, log logrus.FieldLogger) *TeamHandler {
	return &TeamHandler{teamBase{
		ideaService: ideaService,
		teamService: teamService,
		locks:       locks,
		hub:         hub,
		log:         log,
	}}
}

func (h *TeamHandler) Get(c *drift.Context) {
	r, ok := h.begin(c)
	if !ok {
		return
	}

	snap, perms, err := h.snapshotFor(r)
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}
	_ = c.JSON(http.StatusOK, toSnapshot(snap, r.userID, perms))
}

func (h *TeamHandler) Promote(c *drift.Context) {
	h.setLead(c, true)
}

func (h *TeamHandler) Demote(c *drift.Context) {
	h.setLead(c, false)
}

func (h *TeamHandler) setLead(c *drift.Context, lead bool) {
	r, ok := h.beginAsAuthor(c)
	if !ok {
		return
	}
	memberID, ok := parseUUIDParam(c, "memberId", "member")
	if !ok {
		return
	}

	err := h.withRowLock(r.ctx, r.idea.ID, memberID.String(), func() error {
		return h.teamService.SetLead(r.ctx, r.idea.ID, memberID, lead)
	})
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}
	h.respondSnapshot(c, r, actionLeadChanged)
}

// RemoveMember removes a member and, with it, any sub-roles hanging off it.
func (h *TeamHandler) RemoveMember(c *drift.Context) {
	r, ok := h.beginAsAuthor(c)
	if !ok {
		return
	}
	memberID, ok := parseUUIDParam(c, "memberId", "member")
	if !ok {
		return
	}

	err := h.withRowLock(r.ctx, r.idea.ID, memberID.String(), func() error {
		return h.teamService.RemoveMember(r.ctx, r.idea.ID, memberID)
	})
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}
	h.respondSnapshot(c, r, actionMemberRemoved)
}

func (h *TeamHandler) Leave(c *drift.Context) {
	r, ok := h.begin(c)
	if !ok {
		return
	}

	snap, err := h.teamService.Snapshot(r.ctx, r.idea.ID)
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}
	member, isMember := snap.MemberByUser(r.userID)
	if !isMember {
		c.NotFound("you are not on this team")
		return
	}

	err = h.withRowLock(r.ctx, r.idea.ID, member.ID.String(), func() error {
		return h.teamService.LeaveTeam(r.ctx, r.idea.ID, r.userID)
	})
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}
	h.respondSnapshot(c, r, actionMemberLeft)
}

func (h *TeamHandler) AddRole(c *drift.Context) {
	r, ok := h.beginAsAuthor(c)
	if !ok {
		return
	}

	var req dto.AddRoleSlotRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	req.RoleType = strings.TrimSpace(req.RoleType)
	if err := validateStruct(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	skills, err := team.NormalizeSkills(req.RequiredSkills)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	slot := models.RoleSlot{
		RoleType:       req.RoleType,
		Description:    req.Description,
		RequiredSkills: skills,
		IsCore:         true,
		MaxPositions:   req.MaxPositions,
		Priority:       req.Priority,
	}
	if req.IsCore != nil {
		slot.IsCore = *req.IsCore
	}
	if slot.MaxPositions == 0 {
		slot.MaxPositions = 1
	}
	if slot.Priority == "" {
		slot.Priority = models.PriorityMedium
	}

	err = h.withRowLock(r.ctx, r.idea.ID, "role:"+strings.ToLower(slot.RoleType), func() error {
		_, err := h.teamService.AddRoleSlot(r.ctx, r.idea.ID, slot)
		return err
	})
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}
	h.respondSnapshot(c, r, actionRoleAdded)
}

func (h *TeamHandler) RemoveRole(c *drift.Context) {
	r, ok := h.beginAsAuthor(c)
	if !ok {
		return
	}
	slotID, ok := parseUUIDParam(c, "roleId", "role")
	if !ok {
		return
	}

	err := h.withRowLock(r.ctx, r.idea.ID, slotID.String(), func() error {
		return h.teamService.RemoveRoleSlot(r.ctx, r.idea.ID, slotID)
	})
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}
	h.respondSnapshot(c, r, actionRoleRemoved)
}
