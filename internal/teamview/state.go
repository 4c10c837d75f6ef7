package teamview

import (
	"errors"
	"strings"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/google/uuid"
)

var (
	ErrRowBusy       = errors.New("an action is already in progress for this row")
	ErrForbidden     = errors.New("you are not allowed to do that")
	ErrNotLoaded     = errors.New("team has not been loaded yet")
	ErrUnknownMember = errors.New("member is not on this team")
	ErrUnknownSlot   = errors.New("role slot does not exist")
	ErrSlotOccupied  = errors.New("role slot still has assigned members")
	ErrNotMember     = errors.New("you are not on this team")
	ErrNoModal       = errors.New("no conflict is open for this approach")
)

// RowState is the single UI state of an interactive row. Menu open while
// submitting and similar combinations cannot be expressed.
type RowState int

const (
	Idle RowState = iota
	MenuOpen
	ConflictModalOpen
	Submitting
)

func (s RowState) String() string {
	switch s {
	case Idle:
		return "idle"
	case MenuOpen:
		return "menu_open"
	case ConflictModalOpen:
		return "conflict_modal_open"
	case Submitting:
		return "submitting"
	}
	return "unknown"
}

// Row is what the view shows for one member, role or approach. Err is the
// last failure, verbatim, until dismissed or the next attempt starts.
type Row struct {
	State    RowState
	Err      string
	Conflict *team.ConflictData
	Approach *models.Approach
}

// Row keys. Adding and removing the same role share a row, as do all
// actions on one member.

func MemberRow(memberID uuid.UUID) string {
	return "member:" + memberID.String()
}

func RoleRow(roleType string) string {
	return "role:" + strings.ToLower(strings.TrimSpace(roleType))
}

func ApproachRow(approachID uuid.UUID) string {
	return "approach:" + approachID.String()
}

// ComposerRow is the viewer's own approach form.
const ComposerRow = "approach:new"
