package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/dimitrije/ideaforge-api/internal/database"
	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, avatar_url, created_at, updated_at
	`, user.Email, user.Name, user.AvatarURL).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

func WithAvatar(url string) UserOption {
	return func(u *models.User) {
		u.AvatarURL = &url
	}
}

// CreateIdea creates a public idea authored by author
func (f *Fixtures) CreateIdea(t *testing.T, author *models.User, opts ...IdeaOption) *models.Idea {
	t.Helper()
	f.counter++

	idea := &models.Idea{
		Title:       fmt.Sprintf("Test Idea %d", f.counter),
		AuthorID:    author.ID,
		Privacy:     models.PrivacyPublic,
		MaxTeamSize: models.DefaultMaxTeamSize,
	}

	for _, opt := range opts {
		opt(idea)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO ideas (title, author_id, privacy, nda_protected, max_team_size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, idea.Title, idea.AuthorID, idea.Privacy, idea.NDAProtected, idea.MaxTeamSize).Scan(
		&idea.ID, &idea.CreatedAt, &idea.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create idea: %v", err)
	}
	idea.Author = author

	return idea
}

// IdeaOption configures a test idea
type IdeaOption func(*models.Idea)

func WithTitle(title string) IdeaOption {
	return func(i *models.Idea) {
		i.Title = title
	}
}

func WithPrivacy(privacy string) IdeaOption {
	return func(i *models.Idea) {
		i.Privacy = privacy
	}
}

func WithNDA() IdeaOption {
	return func(i *models.Idea) {
		i.NDAProtected = true
	}
}

func WithMaxTeamSize(size int) IdeaOption {
	return func(i *models.Idea) {
		i.MaxTeamSize = size
	}
}

// AddRoleSlot declares a core slot for role on idea with room for max members
func (f *Fixtures) AddRoleSlot(t *testing.T, idea *models.Idea, role string, max int) *models.RoleSlot {
	t.Helper()

	slot := &models.RoleSlot{
		IdeaID:         idea.ID,
		RoleType:       role,
		RequiredSkills: []string{},
		IsCore:         true,
		MaxPositions:   max,
		Priority:       models.PriorityMedium,
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO role_slots (idea_id, role_type, is_core, max_positions, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, slot.IdeaID, slot.RoleType, slot.IsCore, slot.MaxPositions, slot.Priority).Scan(&slot.ID)
	if err != nil {
		t.Fatalf("failed to create role slot: %v", err)
	}

	return slot
}

// AddMember seats user on idea's team. A non-nil parent makes it a sub-role.
// Slot counters are recomputed so the row stays consistent with the members.
func (f *Fixtures) AddMember(t *testing.T, idea *models.Idea, user *models.User, role string, parent *models.TeamMember) *models.TeamMember {
	t.Helper()

	member := &models.TeamMember{
		IdeaID:       idea.ID,
		User:         user.Ref(),
		AssignedRole: role,
	}
	if parent != nil {
		pid := parent.ID
		member.ParentID = &pid
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO team_members (idea_id, user_id, assigned_role, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, assigned_at
	`, member.IdeaID, user.ID, member.AssignedRole, member.ParentID).Scan(&member.ID, &member.AssignedAt)
	if err != nil {
		t.Fatalf("failed to add team member: %v", err)
	}

	_, err = f.db.Pool.Exec(ctx, `
		UPDATE role_slots rs SET current_positions = (
			SELECT COUNT(*) FROM team_members tm
			WHERE tm.idea_id = rs.idea_id AND tm.parent_id IS NULL
			  AND LOWER(tm.assigned_role) = LOWER(rs.role_type)
		)
		WHERE rs.idea_id = $1
	`, idea.ID)
	if err != nil {
		t.Fatalf("failed to recount role slots: %v", err)
	}

	return member
}

// CreateApproach stores an approach without running it through the evaluator
func (f *Fixtures) CreateApproach(t *testing.T, idea *models.Idea, applicant *models.User, role string) *models.Approach {
	t.Helper()

	approach := &models.Approach{
		IdeaID:      idea.ID,
		Applicant:   applicant.Ref(),
		Role:        role,
		Description: "I would like to help",
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO approaches (idea_id, applicant_id, role, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, approach.IdeaID, applicant.ID, approach.Role, approach.Description).Scan(&approach.ID, &approach.CreatedAt)
	if err != nil {
		t.Fatalf("failed to create approach: %v", err)
	}

	return approach
}

// MemberCount returns the number of seats (including sub-roles) on idea
func (f *Fixtures) MemberCount(t *testing.T, ideaID uuid.UUID) int {
	t.Helper()

	var n int
	if err := f.db.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM team_members WHERE idea_id = $1`, ideaID).Scan(&n); err != nil {
		t.Fatalf("failed to count members: %v", err)
	}
	return n
}
