package handlers

import (
	"context"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/services"
	"github.com/dimitrije/ideaforge-api/internal/sse"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name string, avatarURL *string) (*models.User, error)
}

// IdeaServiceInterface defines the methods used by handlers from IdeaService
type IdeaServiceInterface interface {
	Create(ctx context.Context, authorID uuid.UUID, title, privacy string, ndaProtected bool, maxTeamSize int) (*models.Idea, error)
	GetByID(ctx context.Context, ideaID uuid.UUID) (*models.Idea, error)
	Update(ctx context.Context, ideaID uuid.UUID, upd services.IdeaUpdate) (*models.Idea, error)
}

// TeamServiceInterface defines the methods used by handlers from TeamService
type TeamServiceInterface interface {
	Snapshot(ctx context.Context, ideaID uuid.UUID) (*team.Snapshot, error)
	IsMember(ctx context.Context, ideaID, userID uuid.UUID) (bool, error)
	SetLead(ctx context.Context, ideaID, memberID uuid.UUID, lead bool) error
	RemoveMember(ctx context.Context, ideaID, memberID uuid.UUID) error
	LeaveTeam(ctx context.Context, ideaID, userID uuid.UUID) error
	AddRoleSlot(ctx context.Context, ideaID uuid.UUID, slot models.RoleSlot) (*models.RoleSlot, error)
	RemoveRoleSlot(ctx context.Context, ideaID, slotID uuid.UUID) error
	Execute(ctx context.Context, plan *team.Plan) error
}

// ApproachServiceInterface defines the methods used by handlers from ApproachService
type ApproachServiceInterface interface {
	Create(ctx context.Context, ideaID, applicantID uuid.UUID, role, description string) (*models.Approach, error)
	GetByID(ctx context.Context, ideaID, approachID uuid.UUID) (*models.Approach, error)
	ListByIdea(ctx context.Context, ideaID uuid.UUID) ([]models.Approach, error)
}

// HubInterface defines the methods used by handlers from the SSE hub
type HubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	SubscribeToIdea(clientID string, userID, ideaID uuid.UUID) bool
	UnsubscribeFromIdea(clientID string, userID, ideaID uuid.UUID) bool
	BroadcastTeamUpdate(ideaID, updatedBy uuid.UUID, action string)
}
