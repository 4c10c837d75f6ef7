package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/ideaforge-api/internal/client"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/dimitrije/ideaforge-api/internal/teamview"
	"github.com/dimitrije/ideaforge-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method, path string
	body         map[string]any
}

// fakeAPI serves a team where Ada is the author and Grace holds the only
// Developer seat. Mutations answer with the same team.
type fakeAPI struct {
	t        *testing.T
	srv      *httptest.Server
	ideaID   uuid.UUID
	author   dto.UserRefResponse
	grace    dto.TeamMemberResponse
	approach dto.ApproachResponse

	mu    sync.Mutex
	calls []call
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{
		t:      t,
		ideaID: uuid.New(),
		author: dto.UserRefResponse{ID: uuid.New(), DisplayName: "Ada"},
	}
	f.grace = dto.TeamMemberResponse{
		ID:           uuid.New(),
		User:         dto.UserRefResponse{ID: uuid.New(), DisplayName: "Grace"},
		AssignedRole: "Developer",
		AssignedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.approach = dto.ApproachResponse{
		ID:          uuid.New(),
		IdeaID:      f.ideaID,
		Applicant:   dto.UserRefResponse{ID: uuid.New(), DisplayName: "Linus"},
		Role:        "Developer",
		Description: "kernels",
		CreatedAt:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}

	base := "/api/v1/ideas/" + f.ideaID.String()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		f.reply(w, r, dto.UserResponse{ID: f.author.ID, Name: "Ada", Email: "ada@example.com"})
	})
	mux.HandleFunc("GET "+base+"/approaches", func(w http.ResponseWriter, r *http.Request) {
		f.reply(w, r, []dto.ApproachResponse{f.approach})
	})
	mux.HandleFunc(base+"/", func(w http.ResponseWriter, r *http.Request) {
		f.reply(w, r, f.snapshot())
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) snapshot() dto.TeamSnapshotResponse {
	return dto.TeamSnapshotResponse{
		IdeaID:          f.ideaID,
		ViewerID:        f.author.ID,
		Author:          f.author,
		TeamComposition: []dto.TeamMemberResponse{f.grace},
		RolesNeeded: []dto.RoleSlotResponse{{
			ID: uuid.New(), RoleType: "Developer", IsCore: true,
			MaxPositions: 1, CurrentPositions: 1, Priority: "high", ApplicationCount: 1,
		}},
		TeamMetrics: dto.TeamMetricsResponse{MaxTeamSize: 5},
		Permissions: dto.PermissionsResponse{CanManageTeam: true, CanEdit: true},
	}
}

func (f *fakeAPI) reply(w http.ResponseWriter, r *http.Request, payload any) {
	c := call{method: r.Method, path: r.URL.Path}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		assert.NoError(f.t, json.Unmarshal(raw, &c.body))
	}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	assert.NoError(f.t, json.NewEncoder(w).Encode(payload))
}

func (f *fakeAPI) mutations() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{
		"--api", f.srv.URL + "/api/v1",
		"--token", "token-123",
		"--idea", f.ideaID.String(),
	}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTeamShow(t *testing.T) {
	f := newFakeAPI(t)

	out, err := f.run(t, "team", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Team 1/5")
	assert.Contains(t, out, "Grace")
	assert.Contains(t, out, "Developer")
	assert.Contains(t, out, "100% of core roles filled (1/1), 0 open positions")
	assert.Empty(t, f.mutations())
}

func TestTeamPromote(t *testing.T) {
	f := newFakeAPI(t)

	_, err := f.run(t, "team", "promote", f.grace.ID.String())

	require.NoError(t, err)
	calls := f.mutations()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.Equal(t, "/api/v1/ideas/"+f.ideaID.String()+"/members/"+f.grace.ID.String()+"/promote", calls[0].path)
}

func TestTeamPromote_UnknownMemberNeverSent(t *testing.T) {
	f := newFakeAPI(t)

	_, err := f.run(t, "team", "promote", uuid.NewString())

	assert.ErrorIs(t, err, teamview.ErrUnknownMember)
	assert.Empty(t, f.mutations())
}

func TestRoleAdd_SendsSkills(t *testing.T) {
	f := newFakeAPI(t)

	_, err := f.run(t, "role", "add", "Designer", "--skills", "Figma, UX", "--max", "2", "--core=false")

	require.NoError(t, err)
	calls := f.mutations()
	require.Len(t, calls, 1)
	assert.Equal(t, "Designer", calls[0].body["role_type"])
	assert.Equal(t, []any{"Figma", "UX"}, calls[0].body["required_skills"])
	assert.Equal(t, float64(2), calls[0].body["max_positions"])
	assert.Equal(t, false, calls[0].body["is_core"])
}

func TestRoleAdd_BlankRoleRejectedLocally(t *testing.T) {
	f := newFakeAPI(t)

	_, err := f.run(t, "role", "add", "   ")

	assert.ErrorIs(t, err, team.ErrInvalidRole)
	assert.Equal(t, 2, exitCode(err))
	assert.Empty(t, f.mutations())
}

func TestApproachResolve_ShowsOptions(t *testing.T) {
	f := newFakeAPI(t)

	out, err := f.run(t, "approach", "resolve", f.approach.ID.String())

	require.NoError(t, err)
	assert.Contains(t, out, "Developer is already filled by Grace")
	assert.Contains(t, out, "create_subrole")
	assert.Contains(t, out, "as Senior Developer")
	assert.Contains(t, out, "replace_existing")
	assert.Contains(t, out, "increase_capacity")
	assert.Empty(t, f.mutations())
}

func TestApproachResolve_AppliesChoice(t *testing.T) {
	f := newFakeAPI(t)

	_, err := f.run(t, "approach", "resolve", f.approach.ID.String(), "--option", "create_subrole", "--custom-role", "Kernel Developer")

	require.NoError(t, err)
	calls := f.mutations()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/v1/ideas/"+f.ideaID.String()+"/approaches/"+f.approach.ID.String()+"/resolve", calls[0].path)
	assert.Equal(t, "create_subrole", calls[0].body["option"])
	assert.Equal(t, "Kernel Developer", calls[0].body["custom_role_name"])
}

func TestApproachResolve_UnknownOptionRejectedLocally(t *testing.T) {
	f := newFakeAPI(t)

	_, err := f.run(t, "approach", "resolve", f.approach.ID.String(), "--option", "merge")

	assert.ErrorIs(t, err, team.ErrUnknownOption)
	assert.Empty(t, f.mutations())
}

func TestApproachList_MarksConflicts(t *testing.T) {
	f := newFakeAPI(t)

	out, err := f.run(t, "approach", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "Linus")
	assert.Contains(t, out, "conflict")
	assert.Contains(t, out, "kernels")
}

func TestMissingToken(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--token", "", "--idea", uuid.NewString(), "team", "show"})

	err := root.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"backend rejection", &client.APIError{Status: 409, Message: "busy"}, 3},
		{"forbidden locally", teamview.ErrForbidden, 2},
		{"row busy", teamview.ErrRowBusy, 2},
		{"missing sub-role name", team.ErrMissingCustomRole, 2},
		{"anything else", errors.New("boom"), 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}
}
