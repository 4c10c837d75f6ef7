package dto

import "github.com/google/uuid"

type CreateIdeaRequest struct {
	Title        string `json:"title" validate:"required,max=255"`
	Privacy      string `json:"privacy" validate:"omitempty,oneof=Public Team Private"`
	NDAProtected bool   `json:"nda_protected"`
	MaxTeamSize  int    `json:"max_team_size" validate:"omitempty,min=1,max=100"`
}

type UpdateIdeaRequest struct {
	Title        *string `json:"title" validate:"omitnil,min=1,max=255"`
	Privacy      *string `json:"privacy" validate:"omitempty,oneof=Public Team Private"`
	NDAProtected *bool   `json:"nda_protected"`
	MaxTeamSize  *int    `json:"max_team_size" validate:"omitempty,min=1,max=100"`
}

type IdeaResponse struct {
	ID           uuid.UUID           `json:"id"`
	Title        string              `json:"title"`
	Author       UserRefResponse     `json:"author"`
	Privacy      string              `json:"privacy"`
	NDAProtected bool                `json:"nda_protected"`
	MaxTeamSize  int                 `json:"max_team_size"`
	Permissions  PermissionsResponse `json:"permissions"`
}

type PermissionsResponse struct {
	CanManageTeam bool `json:"can_manage_team"`
	CanEdit       bool `json:"can_edit"`
	CanApproach   bool `json:"can_approach"`
}
