package handlers

import (
	"context"
	"net/http"

	"github.com/dimitrije/ideaforge-api/internal/middleware"
	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/services"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

// teamBase carries what every team-mutating handler needs: the idea and
// team stores, per-row locks and the event hub.
type teamBase struct {
	ideaService IdeaServiceInterface
	teamService TeamServiceInterface
	locks       services.RowLocker
	hub         HubInterface
	log         logrus.FieldLogger
}

// request is the parsed common part of every /ideas/:id/... call.
type request struct {
	ctx    context.Context
	userID uuid.UUID
	idea   *models.Idea
}

func (r request) fields() logrus.Fields {
	return logrus.Fields{"idea_id": r.idea.ID, "user_id": r.userID}
}

// begin authenticates, parses :id and loads the idea. It writes the error
// response itself and returns false when the handler should stop.
func (b *teamBase) begin(c *drift.Context) (request, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return request{}, false
	}

	ideaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid idea id")
		return request{}, false
	}

	ctx := c.Request.Context()
	idea, err := b.ideaService.GetByID(ctx, ideaID)
	if err != nil {
		writeError(c, b.log, err, logrus.Fields{"idea_id": ideaID})
		return request{}, false
	}
	return request{ctx: ctx, userID: userID, idea: idea}, true
}

// beginAsAuthor is begin plus the author-only gate.
func (b *teamBase) beginAsAuthor(c *drift.Context) (request, bool) {
	r, ok := b.begin(c)
	if !ok {
		return r, false
	}
	if r.idea.AuthorID != r.userID {
		c.Forbidden(errForbidden.Error())
		return r, false
	}
	return r, true
}

// withRowLock runs fn while holding the lock for one row of the team view.
func (b *teamBase) withRowLock(ctx context.Context, ideaID uuid.UUID, row string, fn func() error) error {
	release, err := b.locks.Acquire(ctx, services.RowKey(ideaID, row))
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// snapshotFor loads the team and the viewer's permissions on it. Private
// ideas only show their team to the author and members.
func (b *teamBase) snapshotFor(r request) (*team.Snapshot, models.Permissions, error) {
	snap, err := b.teamService.Snapshot(r.ctx, r.idea.ID)
	if err != nil {
		return nil, models.Permissions{}, err
	}
	_, isMember := snap.MemberByUser(r.userID)
	if r.idea.Privacy == models.PrivacyPrivate && !isMember && r.idea.AuthorID != r.userID {
		return nil, models.Permissions{}, services.ErrIdeaNotFound
	}
	return snap, models.PermissionsFor(r.idea, r.userID, isMember), nil
}

// respondSnapshot answers a successful mutation with the authoritative
// team and tells other viewers to re-fetch.
func (b *teamBase) respondSnapshot(c *drift.Context, r request, action string) {
	b.log.WithFields(r.fields()).WithField("action", action).Info("team updated")
	b.hub.BroadcastTeamUpdate(r.idea.ID, r.userID, action)

	snap, err := b.teamService.Snapshot(r.ctx, r.idea.ID)
	if err != nil {
		writeError(c, b.log, err, r.fields())
		return
	}
	_, isMember := snap.MemberByUser(r.userID)
	_ = c.JSON(http.StatusOK, toSnapshot(snap, r.userID, models.PermissionsFor(r.idea, r.userID, isMember)))
}

func parseUUIDParam(c *drift.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.BadRequest("invalid " + label + " id")
		return uuid.Nil, false
	}
	return id, true
}
