package handlers

import (
	"testing"
	"time"

	"github.com/dimitrije/ideaforge-api/internal/middleware"
	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/services"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/dimitrije/ideaforge-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// handlerEnv wires every handler against mocks behind the real auth
// middleware, with an idea authored by author whose only Developer seat is
// held by dev.
type handlerEnv struct {
	ideas      *testutil.MockIdeaService
	teams      *testutil.MockTeamService
	users      *testutil.MockUserService
	approaches *testutil.MockApproachService
	hub        *testutil.MockHub
	locks      *services.MemoryRowLocker
	logs       *test.Hook
	client     *testutil.HTTPTestClient

	author   models.User
	outsider models.User
	idea     *models.Idea
	dev      models.TeamMember
	devSlot  models.RoleSlot
	designer models.RoleSlot
	snap     *team.Snapshot
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	env := &handlerEnv{
		ideas:      new(testutil.MockIdeaService),
		teams:      new(testutil.MockTeamService),
		users:      new(testutil.MockUserService),
		approaches: new(testutil.MockApproachService),
		hub:        new(testutil.MockHub),
		locks:      services.NewMemoryRowLocker(),
		author:     models.User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada"},
		outsider:   models.User{ID: uuid.New(), Email: "linus@example.com", Name: "Linus"},
	}

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	env.logs = hook

	env.idea = &models.Idea{
		ID:          uuid.New(),
		Title:       "Solar kettles",
		AuthorID:    env.author.ID,
		Privacy:     models.PrivacyPublic,
		MaxTeamSize: 5,
		Author:      &env.author,
	}
	env.dev = models.TeamMember{
		ID:           uuid.New(),
		IdeaID:       env.idea.ID,
		User:         models.UserRef{ID: uuid.New(), DisplayName: "Grace"},
		AssignedRole: "Developer",
		AssignedAt:   fixedNow.Add(-time.Hour),
	}
	env.devSlot = models.RoleSlot{
		ID: uuid.New(), IdeaID: env.idea.ID, RoleType: "Developer",
		RequiredSkills: []string{"Go"}, IsCore: true,
		MaxPositions: 1, CurrentPositions: 1, Priority: models.PriorityHigh,
	}
	env.designer = models.RoleSlot{
		ID: uuid.New(), IdeaID: env.idea.ID, RoleType: "Designer",
		RequiredSkills: []string{}, IsCore: true,
		MaxPositions: 1, Priority: models.PriorityMedium,
	}
	env.snap = env.snapshotWith(t, []models.TeamMember{env.dev})

	env.ideas.On("GetByID", mock.Anything, env.idea.ID).Return(env.idea, nil).Maybe()
	env.hub.On("BroadcastTeamUpdate", env.idea.ID, mock.Anything, mock.Anything).Return().Maybe()

	teamHandler := NewTeamHandler(env.ideas, env.teams, env.locks, env.hub, log)
	evaluator := team.NewEvaluator(nil)
	approachHandler := NewApproachHandler(env.ideas, env.teams, env.users, env.approaches, evaluator, env.locks, env.hub, log)
	approachHandler.now = func() time.Time { return fixedNow }
	ideaHandler := NewIdeaHandler(env.ideas, env.teams, env.hub, log)
	userHandler := NewUserHandler(env.users, log)
	sseHandler := NewSSEHandler(env.hub, env.ideas, env.teams, log)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestJWTService()))

	app.Get("/users/me", userHandler.GetMe)
	app.Patch("/users/me", userHandler.UpdateMe)

	app.Post("/ideas", ideaHandler.Create)
	app.Get("/ideas/:id", ideaHandler.Get)
	app.Patch("/ideas/:id", ideaHandler.Update)

	app.Get("/ideas/:id/team", teamHandler.Get)
	app.Post("/ideas/:id/leave", teamHandler.Leave)
	app.Post("/ideas/:id/members/:memberId/promote", teamHandler.Promote)
	app.Post("/ideas/:id/members/:memberId/demote", teamHandler.Demote)
	app.Delete("/ideas/:id/members/:memberId", teamHandler.RemoveMember)
	app.Post("/ideas/:id/roles", teamHandler.AddRole)
	app.Delete("/ideas/:id/roles/:roleId", teamHandler.RemoveRole)

	app.Post("/ideas/:id/approaches", approachHandler.Submit)
	app.Get("/ideas/:id/approaches", approachHandler.List)
	app.Post("/ideas/:id/approaches/:approachId/accept", approachHandler.Accept)
	app.Post("/ideas/:id/approaches/:approachId/resolve", approachHandler.Resolve)

	app.Get("/ideas/:id/events", sseHandler.Connect)
	app.Post("/sse/:clientId/subscribe/:id", sseHandler.Subscribe)
	app.Post("/sse/:clientId/unsubscribe/:id", sseHandler.Unsubscribe)

	env.client = testutil.NewHTTPTestClient(t, app)
	return env
}

func (e *handlerEnv) snapshotWith(t *testing.T, members []models.TeamMember) *team.Snapshot {
	t.Helper()
	snap, err := team.NewSnapshot(e.idea.ID, e.author.Ref(), members, []models.RoleSlot{e.devSlot, e.designer}, e.idea.MaxTeamSize)
	require.NoError(t, err)
	return snap
}

func (e *handlerEnv) expectSnapshot(snap *team.Snapshot) {
	e.teams.On("Snapshot", mock.Anything, e.idea.ID).Return(snap, nil)
}

func (e *handlerEnv) as(t *testing.T, u models.User) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, u.ID, u.Email))}
}

func (e *handlerEnv) path(suffix string) string {
	return "/ideas/" + e.idea.ID.String() + suffix
}

// errorLogged reports whether an error-level entry was written.
func (e *handlerEnv) errorLogged() bool {
	for _, entry := range e.logs.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			return true
		}
	}
	return false
}
