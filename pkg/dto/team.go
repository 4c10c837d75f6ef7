package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TeamMemberResponse struct {
	ID           uuid.UUID       `json:"id"`
	User         UserRefResponse `json:"user"`
	AssignedRole string          `json:"assigned_role"`
	IsLead       bool            `json:"is_lead"`
	AssignedAt   time.Time       `json:"assigned_at"`
	ParentID     *uuid.UUID      `json:"parent_id,omitempty"`
}

type RoleSlotResponse struct {
	ID               uuid.UUID `json:"id"`
	RoleType         string    `json:"role_type"`
	Description      string    `json:"description"`
	RequiredSkills   []string  `json:"required_skills"`
	IsCore           bool      `json:"is_core"`
	MaxPositions     int       `json:"max_positions"`
	CurrentPositions int       `json:"current_positions"`
	Priority         string    `json:"priority"`
	ApplicationCount int       `json:"application_count"`
}

type TeamMetricsResponse struct {
	CurrentSize          int `json:"current_size"`
	MaxTeamSize          int `json:"max_team_size"`
	CompletionPercentage int `json:"completion_percentage"`
	OpenPositions        int `json:"open_positions"`
	CoreRolesFilled      int `json:"core_roles_filled"`
	TotalCoreRoles       int `json:"total_core_roles"`
}

type TeamSnapshotResponse struct {
	IdeaID          uuid.UUID                          `json:"idea_id"`
	ViewerID        uuid.UUID                          `json:"viewer_id"`
	Author          UserRefResponse                    `json:"author"`
	TeamComposition []TeamMemberResponse               `json:"team_composition"`
	SubRoles        map[uuid.UUID][]TeamMemberResponse `json:"sub_roles"`
	RolesNeeded     []RoleSlotResponse                 `json:"roles_needed"`
	TeamMetrics     TeamMetricsResponse                `json:"team_metrics"`
	Permissions     PermissionsResponse                `json:"permissions"`
}

// AddRoleSlotRequest keeps required_skills raw so every tolerated list shape
// goes through the same normalizer.
type AddRoleSlotRequest struct {
	RoleType       string          `json:"role_type" validate:"required,max=100"`
	Description    string          `json:"description" validate:"max=2000"`
	RequiredSkills json.RawMessage `json:"required_skills"`
	IsCore         *bool           `json:"is_core"`
	MaxPositions   int             `json:"max_positions" validate:"omitempty,min=1,max=50"`
	Priority       string          `json:"priority" validate:"omitempty,oneof=low medium high critical"`
}
