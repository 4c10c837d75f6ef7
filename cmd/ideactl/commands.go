package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dimitrije/ideaforge-api/internal/client"
	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newIdeaCmd(g *globalFlags, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{Use: "idea", Short: "Create and inspect ideas"}

	var create client.CreateIdeaInput
	createCmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Post a new idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := g.client()
			if err != nil {
				return err
			}
			create.Title = args[0]
			v, err := api.CreateIdea(cmd.Context(), create)
			if err != nil {
				return err
			}
			renderIdea(out, v)
			return nil
		},
	}
	cf := createCmd.Flags()
	cf.StringVar(&create.Privacy, "privacy", models.PrivacyPublic, "Public, Team or Private")
	cf.BoolVar(&create.NDAProtected, "nda", false, "Hide approach pitches from everyone but the author")
	cf.IntVar(&create.MaxTeamSize, "max-team-size", 0, "Team size cap (server default when 0)")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the idea and what you may do with it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, ideaID, err := g.ideaClient()
			if err != nil {
				return err
			}
			v, err := api.Idea(cmd.Context(), ideaID)
			if err != nil {
				return err
			}
			renderIdea(out, v)
			return nil
		},
	}

	var (
		title, privacy string
		nda            bool
	)
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Change title, privacy or NDA protection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, ideaID, err := g.ideaClient()
			if err != nil {
				return err
			}
			var in client.UpdateIdeaInput
			f := cmd.Flags()
			if f.Changed("title") {
				in.Title = &title
			}
			if f.Changed("privacy") {
				in.Privacy = &privacy
			}
			if f.Changed("nda") {
				in.NDAProtected = &nda
			}
			v, err := api.UpdateIdea(cmd.Context(), ideaID, in)
			if err != nil {
				return err
			}
			renderIdea(out, v)
			return nil
		},
	}
	uf := updateCmd.Flags()
	uf.StringVar(&title, "title", "", "New title")
	uf.StringVar(&privacy, "privacy", "", "Public, Team or Private")
	uf.BoolVar(&nda, "nda", false, "NDA protection")

	cmd.AddCommand(createCmd, showCmd, updateCmd)
	return cmd
}

func newTeamCmd(g *globalFlags, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{Use: "team", Short: "Show and manage team members"}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show members, open roles and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), out)
			if err != nil {
				return err
			}
			s.render()
			return nil
		},
	})

	memberCmd := func(use, short string, run func(s *session, cmd *cobra.Command, id uuid.UUID) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <member-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid member id %q", args[0])
				}
				s, err := g.open(cmd.Context(), out)
				if err != nil {
					return err
				}
				if err := run(s, cmd, id); err != nil {
					return err
				}
				s.render()
				return nil
			},
		}
	}

	cmd.AddCommand(
		memberCmd("promote", "Make a member team lead", func(s *session, cmd *cobra.Command, id uuid.UUID) error {
			return s.ctrl.Promote(cmd.Context(), id)
		}),
		memberCmd("demote", "Remove a member's lead flag", func(s *session, cmd *cobra.Command, id uuid.UUID) error {
			return s.ctrl.Demote(cmd.Context(), id)
		}),
		memberCmd("remove", "Remove a member and their sub-roles", func(s *session, cmd *cobra.Command, id uuid.UUID) error {
			return s.ctrl.Remove(cmd.Context(), id)
		}),
		&cobra.Command{
			Use:   "leave",
			Short: "Leave the team",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := g.open(cmd.Context(), out)
				if err != nil {
					return err
				}
				if err := s.ctrl.Leave(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "You left the team.")
				return nil
			},
		},
	)
	return cmd
}

func newRoleCmd(g *globalFlags, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{Use: "role", Short: "Declare and retire role slots"}

	var (
		in     client.RoleInput
		skills string
		core   bool
	)
	addCmd := &cobra.Command{
		Use:   "add <role>",
		Short: "Declare a role the team needs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), out)
			if err != nil {
				return err
			}
			in.RoleType = args[0]
			if skills != "" {
				raw, err := json.Marshal(splitSkills(skills))
				if err != nil {
					return err
				}
				in.RequiredSkills = raw
			}
			if cmd.Flags().Changed("core") {
				in.IsCore = &core
			}
			if err := s.ctrl.AddRole(cmd.Context(), in); err != nil {
				return err
			}
			s.render()
			return nil
		},
	}
	af := addCmd.Flags()
	af.StringVar(&in.Description, "description", "", "What the role involves")
	af.StringVar(&skills, "skills", "", "Comma-separated required skills")
	af.BoolVar(&core, "core", true, "Count the role toward team completion")
	af.IntVar(&in.MaxPositions, "max", 1, "Number of top-level seats")
	af.StringVar(&in.Priority, "priority", models.PriorityMedium, "low, medium, high or critical")

	removeCmd := &cobra.Command{
		Use:   "remove <slot-id>",
		Short: "Retire an empty role slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid slot id %q", args[0])
			}
			s, err := g.open(cmd.Context(), out)
			if err != nil {
				return err
			}
			if err := s.ctrl.RemoveRole(cmd.Context(), id); err != nil {
				return err
			}
			s.render()
			return nil
		},
	}

	cmd.AddCommand(addCmd, removeCmd)
	return cmd
}

func newApproachCmd(g *globalFlags, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{Use: "approach", Short: "Apply for roles and review applications"}

	var pitch string
	submitCmd := &cobra.Command{
		Use:   "submit <role>",
		Short: "Apply for a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), out)
			if err != nil {
				return err
			}
			res, err := s.ctrl.SubmitApproach(cmd.Context(), args[0], pitch)
			if err != nil {
				return err
			}
			renderApproachResult(out, res)
			return nil
		},
	}
	submitCmd.Flags().StringVar(&pitch, "pitch", "", "Why you fit the role")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List approaches to the idea",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context(), out)
			if err != nil {
				return err
			}
			list, err := s.api.Approaches(cmd.Context(), s.ideaID)
			if err != nil {
				return err
			}
			renderApproaches(out, s.ctrl, list)
			return nil
		},
	}

	acceptCmd := &cobra.Command{
		Use:   "accept <approach-id>",
		Short: "Seat the applicant in an open role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, a, err := g.openApproach(cmd, out, args[0])
			if err != nil {
				return err
			}
			if err := s.ctrl.Accept(cmd.Context(), a); err != nil {
				return err
			}
			s.render()
			return nil
		},
	}

	var (
		option       string
		customRole   string
		orphanPolicy string
	)
	resolveCmd := &cobra.Command{
		Use:   "resolve <approach-id>",
		Short: "Resolve an approach to a role that is already held",
		Long: "Shows the conflict and its options. With --option the chosen resolution is applied:\n" +
			"  create_subrole     seat the applicant under the current holder (--custom-role to name it)\n" +
			"  replace_existing   swap the current holder out (--orphan-policy reassign|cascade for their sub-roles)\n" +
			"  increase_capacity  add a seat to the role",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, a, err := g.openApproach(cmd, out, args[0])
			if err != nil {
				return err
			}
			ev, err := s.ctrl.Review(a)
			if err != nil {
				return err
			}
			if ev.Outcome != team.OutcomeConflict {
				fmt.Fprintf(out, "%s is open; use `ideactl approach accept %s`.\n", ev.Role, a.ID)
				return nil
			}
			renderConflict(out, ev.Conflict)
			if option == "" {
				return nil
			}
			err = s.ctrl.Resolve(cmd.Context(), a.ID, team.OptionType(option), team.ResolveInput{
				CustomRoleName: customRole,
				OrphanPolicy:   team.OrphanPolicy(orphanPolicy),
			})
			if err != nil {
				return err
			}
			s.render()
			return nil
		},
	}
	rf := resolveCmd.Flags()
	rf.StringVar(&option, "option", "", "create_subrole, replace_existing or increase_capacity")
	rf.StringVar(&customRole, "custom-role", "", "Sub-role name (defaults to the first suggestion)")
	rf.StringVar(&orphanPolicy, "orphan-policy", "", "reassign or cascade")

	cmd.AddCommand(submitCmd, listCmd, acceptCmd, resolveCmd)
	return cmd
}

func (g *globalFlags) ideaClient() (*client.Client, uuid.UUID, error) {
	if g.idea == "" {
		return nil, uuid.Nil, errors.New("no idea: pass --idea or set IDEAFORGE_IDEA")
	}
	ideaID, err := uuid.Parse(g.idea)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid idea id %q", g.idea)
	}
	api, err := g.client()
	if err != nil {
		return nil, uuid.Nil, err
	}
	return api, ideaID, nil
}

// openApproach loads the session and finds the approach among the idea's.
func (g *globalFlags) openApproach(cmd *cobra.Command, out io.Writer, rawID string) (*session, models.Approach, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, models.Approach{}, fmt.Errorf("invalid approach id %q", rawID)
	}
	s, err := g.open(cmd.Context(), out)
	if err != nil {
		return nil, models.Approach{}, err
	}
	list, err := s.api.Approaches(cmd.Context(), s.ideaID)
	if err != nil {
		return nil, models.Approach{}, err
	}
	for _, a := range list {
		if a.ID == id {
			return s, a, nil
		}
	}
	return nil, models.Approach{}, fmt.Errorf("approach %s not found", id)
}

func splitSkills(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
