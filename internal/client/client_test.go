package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/dimitrije/ideaforge-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorded is the last request the fake backend saw.
type recorded struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func fakeBackend(t *testing.T, status int, payload any) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &rec.body))
		}

		switch p := payload.(type) {
		case string:
			w.WriteHeader(status)
			_, _ = w.Write([]byte(p))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			assert.NoError(t, json.NewEncoder(w).Encode(p))
		}
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", "token-123"), rec
}

type wireFixture struct {
	ideaID, authorID uuid.UUID
	lead, junior     dto.TeamMemberResponse
	slot             dto.RoleSlotResponse
}

func newWireFixture() wireFixture {
	ideaID := uuid.New()
	lead := dto.TeamMemberResponse{
		ID:           uuid.New(),
		User:         dto.UserRefResponse{ID: uuid.New(), DisplayName: "Grace"},
		AssignedRole: "Developer",
		IsLead:       true,
		AssignedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	junior := dto.TeamMemberResponse{
		ID:           uuid.New(),
		User:         dto.UserRefResponse{ID: uuid.New(), DisplayName: "Ken"},
		AssignedRole: "Junior Developer",
		AssignedAt:   lead.AssignedAt.Add(time.Hour),
		ParentID:     &lead.ID,
	}
	return wireFixture{
		ideaID:   ideaID,
		authorID: uuid.New(),
		lead:     lead,
		junior:   junior,
		slot: dto.RoleSlotResponse{
			ID: uuid.New(), RoleType: "Developer", RequiredSkills: []string{"Go"},
			IsCore: true, MaxPositions: 1, CurrentPositions: 1, Priority: "high",
		},
	}
}

func (f wireFixture) snapshot() dto.TeamSnapshotResponse {
	return dto.TeamSnapshotResponse{
		IdeaID:          f.ideaID,
		ViewerID:        f.authorID,
		Author:          dto.UserRefResponse{ID: f.authorID, DisplayName: "Ada"},
		TeamComposition: []dto.TeamMemberResponse{f.lead},
		SubRoles:        map[uuid.UUID][]dto.TeamMemberResponse{f.lead.ID: {f.junior}},
		RolesNeeded:     []dto.RoleSlotResponse{f.slot},
		TeamMetrics:     dto.TeamMetricsResponse{MaxTeamSize: 5},
		Permissions:     dto.PermissionsResponse{CanManageTeam: true, CanEdit: true},
	}
}

func TestClient_Team_DecodesSnapshot(t *testing.T) {
	f := newWireFixture()
	c, rec := fakeBackend(t, http.StatusOK, f.snapshot())

	view, err := c.Team(context.Background(), f.ideaID)

	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/v1/ideas/"+f.ideaID.String()+"/team", rec.path)
	assert.Equal(t, "Bearer token-123", rec.auth)

	snap := view.Snapshot
	assert.Equal(t, f.ideaID, snap.IdeaID)
	assert.Equal(t, "Ada", snap.Author.DisplayName)
	require.Len(t, snap.Members, 1)
	assert.Equal(t, f.lead.ID, snap.Members[0].ID)
	assert.True(t, snap.Members[0].IsLead)
	require.Len(t, snap.SubRoles[f.lead.ID], 1)
	assert.Equal(t, "Junior Developer", snap.SubRoles[f.lead.ID][0].AssignedRole)
	require.Len(t, snap.RolesNeeded, 1)
	assert.Equal(t, []string{"Go"}, snap.RolesNeeded[0].RequiredSkills)
	assert.Equal(t, 5, snap.MaxTeamSize)
	assert.Equal(t, models.Permissions{CanManageTeam: true, CanEdit: true}, view.Permissions)
	assert.Equal(t, f.authorID, view.ViewerID)
}

func TestClient_Team_ToleratesLegacyShapes(t *testing.T) {
	ideaID, authorID, memberID, userID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	payload := `{
		"idea_id": "` + ideaID.String() + `",
		"author": "` + authorID.String() + `",
		"team_composition": [
			{"id": "` + memberID.String() + `", "user": {"_id": "` + userID.String() + `", "name": "Grace", "profilePicture": "g.png"},
			 "assigned_role": "Designer", "assigned_at": "2026-03-01T12:00:00Z"}
		],
		"roles_needed": "[{\"roleType\": \"Designer\", \"maxPositions\": 2, \"currentPositions\": 1, \"skills\": \"Figma, Sketch\"}, \"Marketer\"]",
		"team_metrics": {"max_team_size": 4}
	}`
	c, _ := fakeBackend(t, http.StatusOK, payload)

	view, err := c.Team(context.Background(), ideaID)

	require.NoError(t, err)
	snap := view.Snapshot
	assert.Equal(t, authorID, snap.Author.ID)
	require.Len(t, snap.Members, 1)
	assert.Equal(t, userID, snap.Members[0].User.ID)
	assert.Equal(t, "Grace", snap.Members[0].User.DisplayName)
	require.NotNil(t, snap.Members[0].User.Avatar)
	assert.Equal(t, "g.png", *snap.Members[0].User.Avatar)

	require.Len(t, snap.RolesNeeded, 2)
	assert.Equal(t, "Designer", snap.RolesNeeded[0].RoleType)
	assert.Equal(t, 2, snap.RolesNeeded[0].MaxPositions)
	assert.Equal(t, []string{"Figma", "Sketch"}, snap.RolesNeeded[0].RequiredSkills)
	assert.Equal(t, "Marketer", snap.RolesNeeded[1].RoleType)
	assert.Equal(t, 1, snap.RolesNeeded[1].MaxPositions)
	assert.Equal(t, 2, snap.Metrics().OpenPositions)
}

func TestClient_Team_RejectsInconsistentPayloads(t *testing.T) {
	f := newWireFixture()

	orphaned := f.snapshot()
	orphaned.SubRoles = map[uuid.UUID][]dto.TeamMemberResponse{uuid.New(): {f.junior}}

	overfull := f.snapshot()
	overfull.RolesNeeded[0].CurrentPositions = 2

	tests := []struct {
		name    string
		payload any
		target  error
	}{
		{"orphaned sub-role", orphaned, team.ErrOrphanSubRole},
		{"slot over capacity", overfull, team.ErrCapacityExceeded},
		{"not json", "<html>", team.ErrMalformedPayload},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := fakeBackend(t, http.StatusOK, tc.payload)

			_, err := c.Team(context.Background(), f.ideaID)

			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestClient_Team_SubRoleKeysAnySpelling(t *testing.T) {
	f := newWireFixture()
	snap := f.snapshot()
	snap.SubRoles = nil
	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	junior, err := json.Marshal(f.junior)
	require.NoError(t, err)
	var juniorMap map[string]any
	require.NoError(t, json.Unmarshal(junior, &juniorMap))

	for _, key := range []string{
		strings.ToUpper(f.lead.ID.String()),
		"{" + f.lead.ID.String() + "}",
	} {
		t.Run(key, func(t *testing.T) {
			payload["sub_roles"] = map[string]any{key: []any{juniorMap}}
			c, _ := fakeBackend(t, http.StatusOK, payload)

			view, err := c.Team(context.Background(), f.ideaID)

			require.NoError(t, err)
			subs := view.Snapshot.SubRoles[f.lead.ID]
			require.Len(t, subs, 1)
			assert.Equal(t, f.junior.ID, subs[0].ID)
			assert.Equal(t, f.lead.ID, *subs[0].ParentID)
		})
	}
}

func TestClient_Errors_SurfaceBackendText(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload any
		message string
	}{
		{"conflict body", http.StatusConflict, dto.ErrorResponse{Error: "conflict", Message: "another action is already in progress for this row"}, "another action is already in progress for this row"},
		{"error only", http.StatusForbidden, map[string]string{"error": "only the idea's author can manage its team"}, "only the idea's author can manage its team"},
		{"plain text", http.StatusBadGateway, "upstream unavailable", "upstream unavailable"},
		{"empty body", http.StatusInternalServerError, "", "request failed with status 500"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := fakeBackend(t, tc.status, tc.payload)

			_, err := c.Promote(context.Background(), uuid.New(), uuid.New())

			require.Error(t, err)
			assert.Equal(t, tc.message, err.Error())
			assert.Equal(t, tc.status, StatusOf(err))
		})
	}
}

func TestClient_Mutations_HitRoutes(t *testing.T) {
	f := newWireFixture()
	ideaID, memberID, slotID, approachID := f.ideaID, uuid.New(), uuid.New(), uuid.New()
	base := "/api/v1/ideas/" + ideaID.String()

	tests := []struct {
		name   string
		call   func(c *Client) (*TeamView, error)
		method string
		path   string
	}{
		{"promote", func(c *Client) (*TeamView, error) { return c.Promote(context.Background(), ideaID, memberID) }, http.MethodPost, base + "/members/" + memberID.String() + "/promote"},
		{"demote", func(c *Client) (*TeamView, error) { return c.Demote(context.Background(), ideaID, memberID) }, http.MethodPost, base + "/members/" + memberID.String() + "/demote"},
		{"remove member", func(c *Client) (*TeamView, error) { return c.RemoveMember(context.Background(), ideaID, memberID) }, http.MethodDelete, base + "/members/" + memberID.String()},
		{"leave", func(c *Client) (*TeamView, error) { return c.Leave(context.Background(), ideaID) }, http.MethodPost, base + "/leave"},
		{"remove role", func(c *Client) (*TeamView, error) { return c.RemoveRole(context.Background(), ideaID, slotID) }, http.MethodDelete, base + "/roles/" + slotID.String()},
		{"accept", func(c *Client) (*TeamView, error) { return c.Accept(context.Background(), ideaID, approachID) }, http.MethodPost, base + "/approaches/" + approachID.String() + "/accept"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := fakeBackend(t, http.StatusOK, f.snapshot())

			view, err := tc.call(c)

			require.NoError(t, err)
			assert.NotNil(t, view.Snapshot)
			assert.Equal(t, tc.method, rec.method)
			assert.Equal(t, tc.path, rec.path)
		})
	}
}

func TestClient_AddRole_SendsBody(t *testing.T) {
	f := newWireFixture()
	c, rec := fakeBackend(t, http.StatusOK, f.snapshot())
	isCore := false

	_, err := c.AddRole(context.Background(), f.ideaID, RoleInput{
		RoleType:       "Marketer",
		RequiredSkills: json.RawMessage(`"SEO, Ads"`),
		IsCore:         &isCore,
		MaxPositions:   2,
	})

	require.NoError(t, err)
	assert.Equal(t, "Marketer", rec.body["role_type"])
	assert.Equal(t, "SEO, Ads", rec.body["required_skills"])
	assert.Equal(t, false, rec.body["is_core"])
	assert.Equal(t, float64(2), rec.body["max_positions"])
	assert.NotContains(t, rec.body, "priority")
}

func TestClient_Resolve_SendsChoiceOnly(t *testing.T) {
	f := newWireFixture()
	c, rec := fakeBackend(t, http.StatusOK, f.snapshot())
	approachID := uuid.New()

	_, err := c.Resolve(context.Background(), f.ideaID, approachID, team.OptionReplaceExisting, team.ResolveInput{
		OrphanPolicy: team.OrphanReassign,
	})

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/ideas/"+f.ideaID.String()+"/approaches/"+approachID.String()+"/resolve", rec.path)
	assert.Equal(t, map[string]any{"option": "replace_existing", "orphan_policy": "reassign"}, rec.body)
}

func TestClient_SubmitApproach_Open(t *testing.T) {
	f := newWireFixture()
	applicant := uuid.New()
	approach := dto.ApproachResponse{
		ID: uuid.New(), IdeaID: f.ideaID,
		Applicant: dto.UserRefResponse{ID: applicant, DisplayName: "Linus"},
		Role:      "Designer", Description: "pitch",
	}
	c, rec := fakeBackend(t, http.StatusCreated, dto.ApproachResultResponse{Approach: approach, Status: "open"})

	res, err := c.SubmitApproach(context.Background(), f.ideaID, "designer", "pitch")

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"role": "designer", "description": "pitch"}, rec.body)
	assert.Equal(t, team.OutcomeOpen, res.Outcome)
	assert.Nil(t, res.Conflict)
	assert.Equal(t, approach.ID, res.Approach.ID)
	assert.Equal(t, applicant, res.Approach.Applicant.ID)
}

func TestClient_SubmitApproach_Conflict(t *testing.T) {
	f := newWireFixture()
	approach := dto.ApproachResponse{
		ID: uuid.New(), IdeaID: f.ideaID,
		Applicant: dto.UserRefResponse{ID: uuid.New(), DisplayName: "Linus"},
		Role:      "Developer",
	}
	conflict := &dto.ConflictResponse{
		ExistingMember: f.lead,
		Message:        "Developer is already filled by Grace",
		Options: []dto.ResolutionOptionResponse{
			{Type: "create_subrole", SuggestedRole: "Senior Developer", SkillLevelSuggestions: []string{"Junior Developer"}},
			{Type: "replace_existing", CurrentMember: &f.lead},
			{Type: "increase_capacity"},
		},
	}
	c, _ := fakeBackend(t, http.StatusConflict, dto.ApproachResultResponse{Approach: approach, Status: "conflict", Conflict: conflict})

	res, err := c.SubmitApproach(context.Background(), f.ideaID, "Developer", "pitch")

	require.NoError(t, err)
	assert.Equal(t, team.OutcomeConflict, res.Outcome)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, f.lead.ID, res.Conflict.ExistingMember.ID)
	assert.Equal(t, "Developer is already filled by Grace", res.Conflict.Message)
	require.Len(t, res.Conflict.Options, 3)
	assert.Equal(t, team.OptionCreateSubRole, res.Conflict.Options[0].Type)
	assert.Equal(t, "Senior Developer", res.Conflict.Options[0].SuggestedRole)
	require.NotNil(t, res.Conflict.Options[1].CurrentMember)
	assert.Equal(t, f.lead.ID, res.Conflict.Options[1].CurrentMember.ID)
	assert.Equal(t, team.OptionIncreaseCapacity, res.Conflict.Options[2].Type)
}

func TestClient_SubmitApproach_PlainConflictIsError(t *testing.T) {
	c, _ := fakeBackend(t, http.StatusConflict, dto.ErrorResponse{Error: "conflict", Message: "user is already on the team"})

	res, err := c.SubmitApproach(context.Background(), uuid.New(), "Developer", "pitch")

	assert.Nil(t, res)
	require.Error(t, err)
	assert.Equal(t, "user is already on the team", err.Error())
	assert.Equal(t, http.StatusConflict, StatusOf(err))
}

func TestClient_Approaches(t *testing.T) {
	ideaID := uuid.New()
	applicant := uuid.New()
	payload := `[{"id": "` + uuid.NewString() + `", "idea_id": "` + ideaID.String() + `", "applicant": "` + applicant.String() + `", "role": "Designer", "created_at": "2026-03-01T12:00:00Z"}]`
	c, _ := fakeBackend(t, http.StatusOK, payload)

	list, err := c.Approaches(context.Background(), ideaID)

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, applicant, list[0].Applicant.ID)
	assert.Empty(t, list[0].Description)
}

func TestClient_Ideas(t *testing.T) {
	ideaID, authorID := uuid.New(), uuid.New()
	resp := dto.IdeaResponse{
		ID: ideaID, Title: "Solar kettles",
		Author:      dto.UserRefResponse{ID: authorID, DisplayName: "Ada"},
		Privacy:     "Team",
		MaxTeamSize: 6,
		Permissions: dto.PermissionsResponse{CanApproach: true},
	}

	c, rec := fakeBackend(t, http.StatusCreated, resp)
	view, err := c.CreateIdea(context.Background(), CreateIdeaInput{Title: "Solar kettles", Privacy: "Team", MaxTeamSize: 6})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/v1/ideas", rec.path)
	assert.Equal(t, ideaID, view.Idea.ID)
	assert.Equal(t, authorID, view.Idea.AuthorID)
	assert.Equal(t, "Ada", view.Author.DisplayName)
	assert.True(t, view.Permissions.CanApproach)

	c, rec = fakeBackend(t, http.StatusOK, resp)
	nda := true
	_, err = c.UpdateIdea(context.Background(), ideaID, UpdateIdeaInput{NDAProtected: &nda})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, map[string]any{"nda_protected": true}, rec.body)
}

func TestClient_Me(t *testing.T) {
	id := uuid.New()
	c, rec := fakeBackend(t, http.StatusOK, dto.UserResponse{ID: id, Email: "ada@example.com", Name: "Ada"})

	u, err := c.Me(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/users/me", rec.path)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "Ada", u.Name)
}
