package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/services"
	"github.com/dimitrije/ideaforge-api/pkg/dto"
	"github.com/dimitrije/ideaforge-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestIdeaHandler_Create_Success(t *testing.T) {
	env := newHandlerEnv(t)
	created := &models.Idea{
		ID:          uuid.New(),
		Title:       "Bike sharing for dogs",
		AuthorID:    env.outsider.ID,
		Privacy:     models.PrivacyTeam,
		MaxTeamSize: 4,
	}
	env.ideas.On("Create", mock.Anything, env.outsider.ID, "Bike sharing for dogs", models.PrivacyTeam, true, 4).Return(created, nil)

	body := dto.CreateIdeaRequest{Title: "  Bike sharing for dogs ", Privacy: models.PrivacyTeam, NDAProtected: true, MaxTeamSize: 4}
	rec := env.client.POST("/ideas", body, env.as(t, env.outsider))

	testutil.AssertStatus(t, rec, http.StatusCreated)
	var resp dto.IdeaResponse
	testutil.ParseJSON(t, rec, &resp)
	assert.Equal(t, created.ID, resp.ID)
	assert.Equal(t, env.outsider.ID, resp.Author.ID)
	assert.True(t, resp.Permissions.CanManageTeam)
	assert.True(t, resp.Permissions.CanEdit)
	assert.False(t, resp.Permissions.CanApproach)
	env.ideas.AssertExpectations(t)
}

func TestIdeaHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{"missing title", map[string]any{"title": " "}, "title is required"},
		{"bad privacy", map[string]any{"title": "x", "privacy": "Secret"}, "privacy must be one of: Public, Team, Private"},
		{"team too large", map[string]any{"title": "x", "max_team_size": 500}, "max_team_size must be at most 100"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newHandlerEnv(t)

			rec := env.client.POST("/ideas", tc.body, env.as(t, env.author))

			testutil.AssertStatus(t, rec, http.StatusBadRequest)
			assert.Contains(t, rec.Body.String(), tc.message)
			env.ideas.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestIdeaHandler_Create_ServiceError(t *testing.T) {
	env := newHandlerEnv(t)
	env.ideas.On("Create", mock.Anything, env.author.ID, "x", "", false, 0).Return(nil, errors.New("db down"))

	rec := env.client.POST("/ideas", map[string]any{"title": "x"}, env.as(t, env.author))

	testutil.AssertStatus(t, rec, http.StatusInternalServerError)
	assert.True(t, env.errorLogged())
}

func TestIdeaHandler_Get_MemberPermissions(t *testing.T) {
	env := newHandlerEnv(t)
	env.expectSnapshot(env.snap)
	grace := models.User{ID: env.dev.User.ID, Email: "grace@example.com", Name: "Grace"}

	rec := env.client.GET(env.path(""), env.as(t, grace))

	testutil.AssertStatus(t, rec, http.StatusOK)
	var resp dto.IdeaResponse
	testutil.ParseJSON(t, rec, &resp)
	assert.Equal(t, "Solar kettles", resp.Title)
	assert.Equal(t, "Ada", resp.Author.DisplayName)
	assert.Equal(t, dto.PermissionsResponse{}, resp.Permissions)
}

func TestIdeaHandler_Get_PrivateHiddenFromOutsider(t *testing.T) {
	env := newHandlerEnv(t)
	env.idea.Privacy = models.PrivacyPrivate
	env.expectSnapshot(env.snap)

	rec := env.client.GET(env.path(""), env.as(t, env.outsider))

	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestIdeaHandler_Update_Success(t *testing.T) {
	env := newHandlerEnv(t)
	updated := *env.idea
	updated.Privacy = models.PrivacyPrivate
	updated.NDAProtected = true
	updated.Author = nil
	env.ideas.On("Update", mock.Anything, env.idea.ID, mock.MatchedBy(func(u services.IdeaUpdate) bool {
		return u.Title == nil && u.Privacy != nil && *u.Privacy == models.PrivacyPrivate &&
			u.NDAProtected != nil && *u.NDAProtected && u.MaxTeamSize == nil
	})).Return(&updated, nil)
	env.expectSnapshot(env.snap)

	body := map[string]any{"privacy": "Private", "nda_protected": true}
	rec := env.client.PATCH(env.path(""), body, env.as(t, env.author))

	testutil.AssertStatus(t, rec, http.StatusOK)
	var resp dto.IdeaResponse
	testutil.ParseJSON(t, rec, &resp)
	assert.Equal(t, models.PrivacyPrivate, resp.Privacy)
	assert.True(t, resp.NDAProtected)
	assert.Equal(t, "Ada", resp.Author.DisplayName)
	env.hub.AssertCalled(t, "BroadcastTeamUpdate", env.idea.ID, env.author.ID, "idea_updated")
}

func TestIdeaHandler_Update_NotAuthor(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.client.PATCH(env.path(""), map[string]any{"title": "Mine now"}, env.as(t, env.outsider))

	testutil.AssertStatus(t, rec, http.StatusForbidden)
	env.ideas.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdeaHandler_Update_EmptyTitle(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.client.PATCH(env.path(""), map[string]any{"title": "   "}, env.as(t, env.author))

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, rec.Body.String(), "title must be at least 1")
}
