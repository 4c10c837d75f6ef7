package testutil

import (
	"context"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/services"
	"github.com/dimitrije/ideaforge-api/internal/sse"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, name string, avatarURL *string) (*models.User, error) {
	args := m.Called(ctx, id, name, avatarURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockIdeaService mocks the IdeaService
type MockIdeaService struct {
	mock.Mock
}

func (m *MockIdeaService) Create(ctx context.Context, authorID uuid.UUID, title, privacy string, ndaProtected bool, maxTeamSize int) (*models.Idea, error) {
	args := m.Called(ctx, authorID, title, privacy, ndaProtected, maxTeamSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Idea), args.Error(1)
}

func (m *MockIdeaService) GetByID(ctx context.Context, ideaID uuid.UUID) (*models.Idea, error) {
	args := m.Called(ctx, ideaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Idea), args.Error(1)
}

func (m *MockIdeaService) Update(ctx context.Context, ideaID uuid.UUID, upd services.IdeaUpdate) (*models.Idea, error) {
	args := m.Called(ctx, ideaID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Idea), args.Error(1)
}

// MockTeamService mocks the TeamService
type MockTeamService struct {
	mock.Mock
}

func (m *MockTeamService) Snapshot(ctx context.Context, ideaID uuid.UUID) (*team.Snapshot, error) {
	args := m.Called(ctx, ideaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*team.Snapshot), args.Error(1)
}

func (m *MockTeamService) IsMember(ctx context.Context, ideaID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, ideaID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamService) SetLead(ctx context.Context, ideaID, memberID uuid.UUID, lead bool) error {
	args := m.Called(ctx, ideaID, memberID, lead)
	return args.Error(0)
}

func (m *MockTeamService) RemoveMember(ctx context.Context, ideaID, memberID uuid.UUID) error {
	args := m.Called(ctx, ideaID, memberID)
	return args.Error(0)
}

func (m *MockTeamService) LeaveTeam(ctx context.Context, ideaID, userID uuid.UUID) error {
	args := m.Called(ctx, ideaID, userID)
	return args.Error(0)
}

func (m *MockTeamService) AddRoleSlot(ctx context.Context, ideaID uuid.UUID, slot models.RoleSlot) (*models.RoleSlot, error) {
	args := m.Called(ctx, ideaID, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoleSlot), args.Error(1)
}

func (m *MockTeamService) RemoveRoleSlot(ctx context.Context, ideaID, slotID uuid.UUID) error {
	args := m.Called(ctx, ideaID, slotID)
	return args.Error(0)
}

func (m *MockTeamService) Execute(ctx context.Context, plan *team.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

// MockApproachService mocks the ApproachService
type MockApproachService struct {
	mock.Mock
}

func (m *MockApproachService) Create(ctx context.Context, ideaID, applicantID uuid.UUID, role, description string) (*models.Approach, error) {
	args := m.Called(ctx, ideaID, applicantID, role, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Approach), args.Error(1)
}

func (m *MockApproachService) GetByID(ctx context.Context, ideaID, approachID uuid.UUID) (*models.Approach, error) {
	args := m.Called(ctx, ideaID, approachID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Approach), args.Error(1)
}

func (m *MockApproachService) ListByIdea(ctx context.Context, ideaID uuid.UUID) ([]models.Approach, error) {
	args := m.Called(ctx, ideaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Approach), args.Error(1)
}

// MockHub mocks the SSE hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) SubscribeToIdea(clientID string, userID, ideaID uuid.UUID) bool {
	args := m.Called(clientID, userID, ideaID)
	return args.Bool(0)
}

func (m *MockHub) UnsubscribeFromIdea(clientID string, userID, ideaID uuid.UUID) bool {
	args := m.Called(clientID, userID, ideaID)
	return args.Bool(0)
}

func (m *MockHub) BroadcastTeamUpdate(ideaID, updatedBy uuid.UUID, action string) {
	m.Called(ideaID, updatedBy, action)
}
