package dto

import (
	"time"

	"github.com/google/uuid"
)

type SubmitApproachRequest struct {
	Role        string `json:"role" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=5000"`
}

type ApproachResponse struct {
	ID          uuid.UUID       `json:"id"`
	IdeaID      uuid.UUID       `json:"idea_id"`
	Applicant   UserRefResponse `json:"applicant"`
	Role        string          `json:"role"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ResolutionOptionResponse struct {
	Type                  string              `json:"type"`
	SuggestedRole         string              `json:"suggested_role,omitempty"`
	SkillLevelSuggestions []string            `json:"skill_level_suggestions,omitempty"`
	CurrentMember         *TeamMemberResponse `json:"current_member,omitempty"`
}

type ConflictResponse struct {
	ExistingMember TeamMemberResponse         `json:"existing_member"`
	Message        string                     `json:"message"`
	Options        []ResolutionOptionResponse `json:"options"`
}

// ApproachResultResponse is returned for 201 (open) and 409 (conflict).
type ApproachResultResponse struct {
	Approach ApproachResponse  `json:"approach"`
	Status   string            `json:"status"`
	Conflict *ConflictResponse `json:"conflict,omitempty"`
}

type ResolveConflictRequest struct {
	Option         string `json:"option" validate:"required,max=50"`
	CustomRoleName string `json:"custom_role_name" validate:"max=100"`
	OrphanPolicy   string `json:"orphan_policy" validate:"omitempty,oneof=reassign cascade"`
}
