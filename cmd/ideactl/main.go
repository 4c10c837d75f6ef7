package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/dimitrije/ideaforge-api/internal/client"
	"github.com/dimitrije/ideaforge-api/internal/config"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/dimitrije/ideaforge-api/internal/teamview"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

type globalFlags struct {
	apiURL     string
	token      string
	idea       string
	qualifiers string
	verbose    bool
}

// session is one authenticated viewer looking at one idea's team.
type session struct {
	api    *client.Client
	ctrl   *teamview.Controller
	ideaID uuid.UUID
	out    io.Writer
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		// cobra already printed the error
		return exitCode(err)
	}
	return 0
}

func newRootCmd(out io.Writer) *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:          "ideactl",
		Short:        "Manage the team behind an idea",
		Version:      version,
		SilenceUsage: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&g.apiURL, "api", envOr("IDEAFORGE_API_URL", "http://localhost:8080/api/v1"), "API base URL")
	pf.StringVar(&g.token, "token", os.Getenv("IDEAFORGE_TOKEN"), "Bearer token")
	pf.StringVar(&g.idea, "idea", os.Getenv("IDEAFORGE_IDEA"), "Idea ID")
	pf.StringVar(&g.qualifiers, "qualifiers", os.Getenv("ROLE_QUALIFIERS_FILE"), "YAML file with seniority qualifiers")
	pf.BoolVar(&g.verbose, "verbose", false, "Log requests to stderr")

	root.AddCommand(
		newIdeaCmd(&g, out),
		newTeamCmd(&g, out),
		newRoleCmd(&g, out),
		newApproachCmd(&g, out),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (g *globalFlags) logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if g.verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

func (g *globalFlags) client() (*client.Client, error) {
	if g.token == "" {
		return nil, errors.New("no token: pass --token or set IDEAFORGE_TOKEN")
	}
	return client.New(g.apiURL, g.token, client.WithLogger(g.logger())), nil
}

// open resolves the viewer and loads the idea's team.
func (g *globalFlags) open(ctx context.Context, out io.Writer) (*session, error) {
	api, ideaID, err := g.ideaClient()
	if err != nil {
		return nil, err
	}
	qualifiers, err := config.LoadQualifiers(g.qualifiers)
	if err != nil {
		return nil, err
	}

	me, err := api.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to identify viewer: %w", err)
	}

	ctrl := teamview.NewController(api, team.NewEvaluator(qualifiers), ideaID, me.Ref(), g.logger())
	if err := ctrl.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	return &session{api: api, ctrl: ctrl, ideaID: ideaID, out: out}, nil
}

// exitCode maps failures to distinct codes: 2 for refusals before any
// request was sent, 3 for backend rejections, 1 otherwise.
func exitCode(err error) int {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return 3
	case errors.Is(err, teamview.ErrForbidden),
		errors.Is(err, teamview.ErrRowBusy),
		errors.Is(err, team.ErrInvalidRole),
		errors.Is(err, team.ErrSelfApplication),
		errors.Is(err, team.ErrMissingCustomRole),
		errors.Is(err, team.ErrUnknownOption),
		errors.Is(err, team.ErrOrphanPolicyRequired):
		return 2
	}
	return 1
}
