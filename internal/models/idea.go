package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PrivacyPublic  = "Public"
	PrivacyTeam    = "Team"
	PrivacyPrivate = "Private"
)

const DefaultMaxTeamSize = 10

type Idea struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	AuthorID     uuid.UUID `json:"author_id"`
	Privacy      string    `json:"privacy"`
	NDAProtected bool      `json:"nda_protected"`
	MaxTeamSize  int       `json:"max_team_size"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Author       *User     `json:"author,omitempty"`
}

func ValidPrivacy(p string) bool {
	switch p {
	case PrivacyPublic, PrivacyTeam, PrivacyPrivate:
		return true
	}
	return false
}

// Permissions is what the viewing user may do with an idea's team.
type Permissions struct {
	CanManageTeam bool `json:"can_manage_team"`
	CanEdit       bool `json:"can_edit"`
	CanApproach   bool `json:"can_approach"`
}

// PermissionsFor derives the capability set of viewerID. isMember reports
// whether the viewer already holds a seat (top-level or sub-role).
func PermissionsFor(idea *Idea, viewerID uuid.UUID, isMember bool) Permissions {
	isAuthor := idea.AuthorID == viewerID
	return Permissions{
		CanManageTeam: isAuthor,
		CanEdit:       isAuthor,
		CanApproach:   !isAuthor && !isMember,
	}
}
