package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/services"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/dimitrije/ideaforge-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

const (
	actionApproachAccepted = "approach_accepted"
	actionConflictResolved = "conflict_resolved"
)

type ApproachHandler struct {
	teamBase
	userService     UserServiceInterface
	approachService ApproachServiceInterface
	evaluator       *team.Evaluator
	now             func() time.Time
}

func NewApproachHandler(
	ideaService IdeaServiceInterface,
	teamService TeamServiceInterface,
	userService UserServiceInterface,
	approachService ApproachServiceInterface,
	evaluator *team.Evaluator,
	locks services.RowLocker,
	hub HubInterface,
	log logrus.FieldLogger,
) *ApproachHandler {
	return &ApproachHandler{
		teamBase: teamBase{
			ideaService: ideaService,
			teamService: teamService,
			locks:       locks,
			hub:         hub,
			log:         log,
		},
		userService:     userService,
		approachService: approachService,
		evaluator:       evaluator,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Submit evaluates an approach against the current team before storing it.
// Open roles answer 201; filled roles answer 409 with the resolution
// options. Invalid approaches are rejected and never stored.
func (h *ApproachHandler) Submit(c *drift.Context) {
	r, ok := h.begin(c)
	if !ok {
		return
	}

	var req dto.SubmitApproachRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	req.Role = strings.TrimSpace(req.Role)
	if err := validateStruct(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	snap, _, err := h.snapshotFor(r)
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}
	if _, isMember := snap.MemberByUser(r.userID); isMember {
		writeError(c, h.log, services.ErrAlreadyMember, r.fields())
		return
	}

	applicant, err := h.userService.GetByID(r.ctx, r.userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	ev, err := h.evaluator.Evaluate(models.Approach{
		IdeaID:    r.idea.ID,
		Applicant: applicant.Ref(),
		Role:      req.Role,
	}, snap)
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}

	approach, err := h.approachService.Create(r.ctx, r.idea.ID, r.userID, ev.Role, req.Description)
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}
	h.hub.BroadcastTeamUpdate(r.idea.ID, r.userID, "approach_submitted")

	resp := dto.ApproachResultResponse{
		Approach: toApproach(*approach, false),
		Status:   string(ev.Outcome),
		Conflict: toConflict(ev.Conflict),
	}
	if ev.Outcome == team.OutcomeConflict {
		_ = c.JSON(http.StatusConflict, resp)
		return
	}
	_ = c.JSON(http.StatusCreated, resp)
}

// List shows approaches to the author and team members. Pitches of
// NDA-protected ideas are only shown to the author.
func (h *ApproachHandler) List(c *drift.Context) {
	r, ok := h.begin(c)
	if !ok {
		return
	}

	isAuthor := r.idea.AuthorID == r.userID
	if !isAuthor {
		isMember, err := h.teamService.IsMember(r.ctx, r.idea.ID, r.userID)
		if err != nil {
			writeError(c, h.log, err, r.fields())
			return
		}
		if !isMember {
			c.Forbidden("only the author and team members can see approaches")
			return
		}
	}

	approaches, err := h.approachService.ListByIdea(r.ctx, r.idea.ID)
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}

	hidePitch := r.idea.NDAProtected && !isAuthor
	resp := make([]dto.ApproachResponse, 0, len(approaches))
	for _, a := range approaches {
		resp = append(resp, toApproach(a, hidePitch))
	}
	_ = c.JSON(http.StatusOK, resp)
}

// Accept seats the applicant of an approach whose role is still open.
func (h *ApproachHandler) Accept(c *drift.Context) {
	h.decide(c, actionApproachAccepted, func(approach models.Approach, snap *team.Snapshot) (*team.Plan, error) {
		return h.evaluator.Assign(approach, snap, h.now())
	})
}

// Resolve applies the author's choice for a conflicting approach. Only the
// option type and its inputs are taken from the request; the plan itself
// is rebuilt from the current team.
func (h *ApproachHandler) Resolve(c *drift.Context) {
	var req dto.ResolveConflictRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := validateStruct(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	h.decide(c, actionConflictResolved, func(approach models.Approach, snap *team.Snapshot) (*team.Plan, error) {
		return h.evaluator.Resolve(
			team.ResolutionOption{Type: team.OptionType(req.Option)},
			approach,
			snap,
			team.ResolveInput{
				CustomRoleName: req.CustomRoleName,
				OrphanPolicy:   team.OrphanPolicy(req.OrphanPolicy),
				Now:            h.now(),
			},
		)
	})
}

func (h *ApproachHandler) decide(c *drift.Context, action string, plan func(models.Approach, *team.Snapshot) (*team.Plan, error)) {
	r, ok := h.beginAsAuthor(c)
	if !ok {
		return
	}
	approachID, ok := parseUUIDParam(c, "approachId", "approach")
	if !ok {
		return
	}

	err := h.withRowLock(r.ctx, r.idea.ID, "approach:"+approachID.String(), func() error {
		approach, err := h.approachService.GetByID(r.ctx, r.idea.ID, approachID)
		if err != nil {
			return err
		}
		snap, err := h.teamService.Snapshot(r.ctx, r.idea.ID)
		if err != nil {
			return err
		}
		if _, isMember := snap.MemberByUser(approach.Applicant.ID); isMember {
			return services.ErrAlreadyMember
		}
		p, err := plan(*approach, snap)
		if err != nil {
			return err
		}
		return h.teamService.Execute(r.ctx, p)
	})
	if err != nil {
		writeError(c, h.log, err, r.fields())
		return
	}
	h.respondSnapshot(c, r, action)
}
