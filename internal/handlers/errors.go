package handlers

import (
	"errors"
	"net/http"

	"github.com/dimitrije/ideaforge-api/internal/services"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/dimitrije/ideaforge-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

var errForbidden = errors.New("only the idea's author can manage its team")

var (
	badRequestErrors = []error{
		team.ErrInvalidRole,
		team.ErrSelfApplication,
		team.ErrMissingCustomRole,
		team.ErrUnknownOption,
		team.ErrNoRoleSlot,
		team.ErrOrphanPolicyRequired,
		team.ErrMalformedPayload,
	}
	notFoundErrors = []error{
		services.ErrIdeaNotFound,
		services.ErrMemberNotFound,
		services.ErrSlotNotFound,
		services.ErrApproachNotFound,
	}
	conflictErrors = []error{
		team.ErrNoConflict,
		team.ErrRoleFilled,
		team.ErrStalePlan,
		team.ErrCapacityExceeded,
		team.ErrDuplicateMember,
		team.ErrOrphanSubRole,
		team.ErrInconsistentTeam,
		services.ErrSlotOccupied,
		services.ErrRoleExists,
		services.ErrAlreadyMember,
		services.ErrRowBusy,
	}
)

func matches(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps domain and service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case matches(err, badRequestErrors):
		return http.StatusBadRequest
	case matches(err, notFoundErrors):
		return http.StatusNotFound
	case matches(err, conflictErrors):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError responds with the error's own text for anything the user can
// act on. Everything else is logged and answered with a generic message.
func writeError(c *drift.Context, log logrus.FieldLogger, err error, fields logrus.Fields) {
	switch statusFor(err) {
	case http.StatusBadRequest:
		c.BadRequest(err.Error())
	case http.StatusForbidden:
		c.Forbidden(err.Error())
	case http.StatusNotFound:
		c.NotFound(err.Error())
	case http.StatusConflict:
		if errors.Is(err, team.ErrInconsistentTeam) {
			// A slot counter drifted from the member rows; recount-slots repairs it.
			log.WithFields(fields).WithError(err).Warn("role slot count out of step with team")
		}
		_ = c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "conflict", Message: err.Error()})
	default:
		log.WithFields(fields).WithError(err).Error("team request failed")
		c.InternalServerError("something went wrong, please try again")
	}
}
