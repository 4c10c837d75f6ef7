package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

type TeamMember struct {
	ID           uuid.UUID  `json:"id"`
	IdeaID       uuid.UUID  `json:"idea_id"`
	User         UserRef    `json:"user"`
	AssignedRole string     `json:"assigned_role"`
	IsLead       bool       `json:"is_lead"`
	AssignedAt   time.Time  `json:"assigned_at"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
}

// IsSubRole reports whether the member hangs off another member and is
// therefore outside core capacity accounting.
func (m TeamMember) IsSubRole() bool {
	return m.ParentID != nil
}

type RoleSlot struct {
	ID               uuid.UUID `json:"id"`
	IdeaID           uuid.UUID `json:"idea_id"`
	RoleType         string    `json:"role_type"`
	Description      string    `json:"description"`
	RequiredSkills   []string  `json:"required_skills"`
	IsCore           bool      `json:"is_core"`
	MaxPositions     int       `json:"max_positions"`
	CurrentPositions int       `json:"current_positions"`
	Priority         string    `json:"priority"`
	ApplicationCount int       `json:"application_count"`
}

func (s RoleSlot) Filled() bool {
	return s.CurrentPositions >= s.MaxPositions
}

func (s RoleSlot) Remaining() int {
	if s.Filled() {
		return 0
	}
	return s.MaxPositions - s.CurrentPositions
}

type Approach struct {
	ID          uuid.UUID `json:"id"`
	IdeaID      uuid.UUID `json:"idea_id"`
	Applicant   UserRef   `json:"applicant"`
	Role        string    `json:"role"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
