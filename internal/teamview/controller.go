package teamview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dimitrije/ideaforge-api/internal/client"
	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Backend is the subset of the API client the controller drives.
type Backend interface {
	Team(ctx context.Context, ideaID uuid.UUID) (*client.TeamView, error)
	Promote(ctx context.Context, ideaID, memberID uuid.UUID) (*client.TeamView, error)
	Demote(ctx context.Context, ideaID, memberID uuid.UUID) (*client.TeamView, error)
	RemoveMember(ctx context.Context, ideaID, memberID uuid.UUID) (*client.TeamView, error)
	Leave(ctx context.Context, ideaID uuid.UUID) (*client.TeamView, error)
	AddRole(ctx context.Context, ideaID uuid.UUID, role client.RoleInput) (*client.TeamView, error)
	RemoveRole(ctx context.Context, ideaID, slotID uuid.UUID) (*client.TeamView, error)
	SubmitApproach(ctx context.Context, ideaID uuid.UUID, role, description string) (*client.ApproachResult, error)
	Accept(ctx context.Context, ideaID, approachID uuid.UUID) (*client.TeamView, error)
	Resolve(ctx context.Context, ideaID, approachID uuid.UUID, option team.OptionType, in team.ResolveInput) (*client.TeamView, error)
}

// Controller holds one viewer's copy of an idea's team and the state of
// every row. The team is only ever replaced wholesale by what the backend
// returns; nothing is patched locally.
type Controller struct {
	backend   Backend
	evaluator *team.Evaluator
	ideaID    uuid.UUID
	viewer    models.UserRef
	log       logrus.FieldLogger
	now       func() time.Time

	mu   sync.Mutex
	view *client.TeamView
	rows map[string]*Row
}

func NewController(backend Backend, evaluator *team.Evaluator, ideaID uuid.UUID, viewer models.UserRef, log logrus.FieldLogger) *Controller {
	return &Controller{
		backend:   backend,
		evaluator: evaluator,
		ideaID:    ideaID,
		viewer:    viewer,
		log:       log.WithField("idea_id", ideaID),
		now:       func() time.Time { return time.Now().UTC() },
		rows:      make(map[string]*Row),
	}
}

// Snapshot returns the current team, or nil before the first Refresh.
func (c *Controller) Snapshot() *team.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return nil
	}
	return c.view.Snapshot.Clone()
}

func (c *Controller) Permissions() models.Permissions {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return models.Permissions{}
	}
	return c.view.Permissions
}

// Metrics are derived from the current snapshot on every call.
func (c *Controller) Metrics() team.Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return team.Metrics{}
	}
	return c.view.Snapshot.Metrics()
}

// Row returns a copy of the row's state. Unknown rows are Idle.
func (c *Controller) Row(key string) Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rows[key]; ok {
		return *r
	}
	return Row{}
}

func (c *Controller) row(key string) *Row {
	r, ok := c.rows[key]
	if !ok {
		r = &Row{}
		c.rows[key] = r
	}
	return r
}

func (c *Controller) Refresh(ctx context.Context) error {
	view, err := c.backend.Team(ctx, c.ideaID)
	if err != nil {
		c.log.WithError(err).Warn("failed to load team")
		return err
	}
	c.mu.Lock()
	c.view = view
	c.mu.Unlock()
	return nil
}

func (c *Controller) OpenMenu(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.row(key)
	switch r.State {
	case Idle, MenuOpen:
		r.State = MenuOpen
		return nil
	}
	return ErrRowBusy
}

func (c *Controller) CloseMenu(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rows[key]; ok && r.State == MenuOpen {
		r.State = Idle
	}
}

func (c *Controller) DismissError(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rows[key]; ok {
		r.Err = ""
	}
}

// pending is a row that has been moved to Submitting. Exactly one of done
// or fail must be called.
type pending struct {
	c        *Controller
	key      string
	fallback RowState
}

// begin checks the gate against the current team, then claims the row.
func (c *Controller) begin(key string, gate func(*client.TeamView) error) (*pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view == nil {
		return nil, ErrNotLoaded
	}
	r := c.row(key)
	if r.State == Submitting {
		return nil, ErrRowBusy
	}
	if gate != nil {
		if err := gate(c.view); err != nil {
			if !errors.Is(err, ErrForbidden) {
				r.Err = err.Error()
			}
			return nil, err
		}
	}

	p := &pending{c: c, key: key, fallback: Idle}
	if r.State == ConflictModalOpen {
		p.fallback = ConflictModalOpen
	}
	r.State = Submitting
	r.Err = ""
	return p, nil
}

// done installs the backend's team and returns the row to Idle.
func (p *pending) done(view *client.TeamView) {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	if view != nil {
		p.c.view = view
	}
	delete(p.c.rows, p.key)
}

// fail leaves the team untouched and shows err on the row.
func (p *pending) fail(err error) {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	r := p.c.row(p.key)
	r.State = p.fallback
	r.Err = err.Error()
}

func (p *pending) finish(view *client.TeamView, err error, action string) error {
	log := p.c.log.WithFields(logrus.Fields{"row": p.key, "action": action})
	if err != nil {
		log.WithError(err).Warn("team action failed")
		p.fail(err)
		return err
	}
	log.Debug("team action succeeded")
	p.done(view)
	return nil
}

func requireManager(v *client.TeamView) error {
	if !v.Permissions.CanManageTeam {
		return ErrForbidden
	}
	return nil
}

func requireSeat(memberID uuid.UUID) func(*client.TeamView) error {
	return func(v *client.TeamView) error {
		if err := requireManager(v); err != nil {
			return err
		}
		if _, ok := v.Snapshot.FindMember(memberID); !ok {
			return ErrUnknownMember
		}
		return nil
	}
}

func (c *Controller) Promote(ctx context.Context, memberID uuid.UUID) error {
	return c.memberAction(ctx, memberID, "promote", c.backend.Promote)
}

func (c *Controller) Demote(ctx context.Context, memberID uuid.UUID) error {
	return c.memberAction(ctx, memberID, "demote", c.backend.Demote)
}

// Remove takes the member off the team together with their sub-roles.
func (c *Controller) Remove(ctx context.Context, memberID uuid.UUID) error {
	return c.memberAction(ctx, memberID, "remove", c.backend.RemoveMember)
}

func (c *Controller) memberAction(ctx context.Context, memberID uuid.UUID, action string, call func(context.Context, uuid.UUID, uuid.UUID) (*client.TeamView, error)) error {
	p, err := c.begin(MemberRow(memberID), requireSeat(memberID))
	if err != nil {
		return err
	}
	view, err := call(ctx, c.ideaID, memberID)
	return p.finish(view, err, action)
}

// Leave removes the viewer from the team.
func (c *Controller) Leave(ctx context.Context) error {
	c.mu.Lock()
	var key string
	if c.view != nil {
		if m, ok := c.view.Snapshot.MemberByUser(c.viewer.ID); ok {
			key = MemberRow(m.ID)
		}
	}
	loaded := c.view != nil
	c.mu.Unlock()

	if !loaded {
		return ErrNotLoaded
	}
	if key == "" {
		return ErrNotMember
	}

	p, err := c.begin(key, nil)
	if err != nil {
		return err
	}
	view, err := c.backend.Leave(ctx, c.ideaID)
	return p.finish(view, err, "leave")
}

func (c *Controller) AddRole(ctx context.Context, role client.RoleInput) error {
	role.RoleType = strings.TrimSpace(role.RoleType)
	p, err := c.begin(RoleRow(role.RoleType), func(v *client.TeamView) error {
		if err := requireManager(v); err != nil {
			return err
		}
		if role.RoleType == "" {
			return team.ErrInvalidRole
		}
		return nil
	})
	if err != nil {
		return err
	}
	view, err := c.backend.AddRole(ctx, c.ideaID, role)
	return p.finish(view, err, "add_role")
}

func (c *Controller) RemoveRole(ctx context.Context, slotID uuid.UUID) error {
	c.mu.Lock()
	var key string
	if c.view != nil {
		if slot, ok := c.view.Snapshot.FindSlot(slotID); ok {
			key = RoleRow(slot.RoleType)
		}
	}
	loaded := c.view != nil
	c.mu.Unlock()

	if !loaded {
		return ErrNotLoaded
	}
	if key == "" {
		return ErrUnknownSlot
	}

	p, err := c.begin(key, func(v *client.TeamView) error {
		if err := requireManager(v); err != nil {
			return err
		}
		slot, ok := v.Snapshot.FindSlot(slotID)
		if !ok {
			return ErrUnknownSlot
		}
		if slot.CurrentPositions > 0 {
			return ErrSlotOccupied
		}
		return nil
	})
	if err != nil {
		return err
	}
	view, err := c.backend.RemoveRole(ctx, c.ideaID, slotID)
	return p.finish(view, err, "remove_role")
}

// SubmitApproach files the viewer's approach. The role is evaluated
// locally first so invalid roles and self-applications never leave the
// client. A conflict is a normal result: the author resolves it.
func (c *Controller) SubmitApproach(ctx context.Context, role, description string) (*client.ApproachResult, error) {
	p, err := c.begin(ComposerRow, func(v *client.TeamView) error {
		_, err := c.evaluator.Evaluate(models.Approach{
			IdeaID:      c.ideaID,
			Applicant:   c.viewer,
			Role:        role,
			Description: description,
		}, v.Snapshot)
		if err != nil {
			return err
		}
		if !v.Permissions.CanApproach {
			return ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, err := c.backend.SubmitApproach(ctx, c.ideaID, role, description)
	if err != nil {
		return nil, p.finish(nil, err, "submit_approach")
	}
	_ = p.finish(nil, nil, "submit_approach")

	// The approach does not change the team, but slot application counts
	// moved; pick them up from the backend.
	if err := c.Refresh(ctx); err != nil {
		c.log.WithError(err).Debug("refresh after approach failed")
	}
	return res, nil
}

// Review evaluates an approach for the author. A conflicting approach opens
// the conflict modal on its row; an open one leaves the row Idle, ready to
// Accept.
func (c *Controller) Review(approach models.Approach) (*team.Evaluation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view == nil {
		return nil, ErrNotLoaded
	}
	if err := requireManager(c.view); err != nil {
		return nil, err
	}
	r := c.row(ApproachRow(approach.ID))
	if r.State == Submitting {
		return nil, ErrRowBusy
	}

	ev, err := c.evaluator.Evaluate(approach, c.view.Snapshot)
	if err != nil {
		r.Err = err.Error()
		return nil, err
	}
	if ev.Outcome == team.OutcomeConflict {
		a := approach
		r.State = ConflictModalOpen
		r.Conflict = ev.Conflict
		r.Approach = &a
	} else {
		r.State = Idle
		r.Conflict = nil
		r.Approach = nil
	}
	r.Err = ""
	return ev, nil
}

// Accept seats the applicant of an approach to an open role.
func (c *Controller) Accept(ctx context.Context, approach models.Approach) error {
	p, err := c.begin(ApproachRow(approach.ID), func(v *client.TeamView) error {
		if err := requireManager(v); err != nil {
			return err
		}
		_, err := c.evaluator.Assign(approach, v.Snapshot, c.now())
		return err
	})
	if err != nil {
		return err
	}
	view, err := c.backend.Accept(ctx, c.ideaID, approach.ID)
	return p.finish(view, err, "accept")
}

// Resolve applies the chosen option for the approach whose conflict modal
// is open. The plan is built locally first so that a missing sub-role
// name or an unknown option is reported without a request. On failure the
// modal stays open with the error.
func (c *Controller) Resolve(ctx context.Context, approachID uuid.UUID, option team.OptionType, in team.ResolveInput) error {
	key := ApproachRow(approachID)

	c.mu.Lock()
	r, ok := c.rows[key]
	var approach models.Approach
	open := ok && r.State == ConflictModalOpen && r.Approach != nil
	if open {
		approach = *r.Approach
	}
	busy := ok && r.State == Submitting
	c.mu.Unlock()

	if busy {
		return ErrRowBusy
	}
	if !open {
		return ErrNoModal
	}
	if in.Now.IsZero() {
		in.Now = c.now()
	}

	p, err := c.begin(key, func(v *client.TeamView) error {
		if err := requireManager(v); err != nil {
			return err
		}
		_, err := c.evaluator.Resolve(team.ResolutionOption{Type: option}, approach, v.Snapshot, in)
		return err
	})
	if err != nil {
		return err
	}
	view, err := c.backend.Resolve(ctx, c.ideaID, approachID, option, in)
	return p.finish(view, err, "resolve")
}

// CancelConflict closes the conflict modal without a request.
func (c *Controller) CancelConflict(approachID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rows[ApproachRow(approachID)]
	if !ok {
		return nil
	}
	if r.State == Submitting {
		return ErrRowBusy
	}
	delete(c.rows, ApproachRow(approachID))
	return nil
}
