package team

import (
	"testing"
	"time"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func user(name string) models.UserRef {
	return models.UserRef{ID: uuid.New(), DisplayName: name}
}

func member(ideaID uuid.UUID, u models.UserRef, role string) models.TeamMember {
	return models.TeamMember{
		ID:           uuid.New(),
		IdeaID:       ideaID,
		User:         u,
		AssignedRole: role,
		AssignedAt:   baseTime,
	}
}

func subRole(parent models.TeamMember, u models.UserRef, role string) models.TeamMember {
	m := member(parent.IdeaID, u, role)
	parentID := parent.ID
	m.ParentID = &parentID
	return m
}

func slot(ideaID uuid.UUID, role string, max, current int) models.RoleSlot {
	return models.RoleSlot{
		ID:               uuid.New(),
		IdeaID:           ideaID,
		RoleType:         role,
		IsCore:           true,
		MaxPositions:     max,
		CurrentPositions: current,
		Priority:         models.PriorityHigh,
	}
}

// developerTeam is a team whose only Developer seat is held by M1.
type developerTeam struct {
	snap   *Snapshot
	author models.UserRef
	m1     models.TeamMember
	slot   models.RoleSlot
}

func newDeveloperTeam(t *testing.T) developerTeam {
	t.Helper()
	ideaID := uuid.New()
	author := user("Ada")
	m1 := member(ideaID, user("Grace"), "Developer")
	dev := slot(ideaID, "Developer", 1, 1)

	snap, err := NewSnapshot(ideaID, author, []models.TeamMember{m1}, []models.RoleSlot{dev}, 5)
	require.NoError(t, err)
	return developerTeam{snap: snap, author: author, m1: m1, slot: dev}
}

func approach(ideaID uuid.UUID, applicant models.UserRef, role string) models.Approach {
	return models.Approach{
		ID:          uuid.New(),
		IdeaID:      ideaID,
		Applicant:   applicant,
		Role:        role,
		Description: "I have shipped three products in this space.",
		CreatedAt:   baseTime,
	}
}
