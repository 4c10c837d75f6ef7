package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dimitrije/ideaforge-api/internal/client"
	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/dimitrije/ideaforge-api/internal/teamview"
)

var (
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	leadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
)

func (s *session) render() {
	renderTeam(s.out, s.ctrl)
}

func renderTeam(out io.Writer, ctrl *teamview.Controller) {
	snap := ctrl.Snapshot()
	if snap == nil {
		fmt.Fprintln(out, dimStyle.Render("team not loaded"))
		return
	}
	m := ctrl.Metrics()

	fmt.Fprintln(out, headStyle.Render(fmt.Sprintf("Team %d/%d", m.CurrentSize, m.MaxTeamSize)))
	fmt.Fprintf(out, "  author  %s\n", snap.Author.DisplayName)
	for _, member := range snap.Members {
		fmt.Fprintln(out, memberLine(ctrl, member, "  "))
		for _, sub := range snap.SubRoles[member.ID] {
			fmt.Fprintln(out, memberLine(ctrl, sub, "    └ "))
		}
	}

	fmt.Fprintln(out, headStyle.Render("Roles"))
	for _, slot := range snap.RolesNeeded {
		line := fmt.Sprintf("  %-20s %d/%d  %-8s apps:%d", slot.RoleType, slot.CurrentPositions, slot.MaxPositions, slot.Priority, slot.ApplicationCount)
		if slot.IsCore {
			line += "  core"
		}
		line += dimStyle.Render("  " + slot.ID.String())
		fmt.Fprintln(out, line)
		if msg := ctrl.Row(teamview.RoleRow(slot.RoleType)).Err; msg != "" {
			fmt.Fprintln(out, errorStyle.Render("    ! "+msg))
		}
	}

	fmt.Fprintf(out, "%d%% of core roles filled (%d/%d), %d open positions\n",
		m.CompletionPercentage, m.CoreRolesFilled, m.TotalCoreRoles, m.OpenPositions)
}

func memberLine(ctrl *teamview.Controller, m models.TeamMember, indent string) string {
	name := m.User.DisplayName
	if m.IsLead {
		name = leadStyle.Render(name + " ★")
	}
	line := fmt.Sprintf("%s%-24s %s%s", indent, name, m.AssignedRole, dimStyle.Render("  "+m.ID.String()))
	if msg := ctrl.Row(teamview.MemberRow(m.ID)).Err; msg != "" {
		line += "\n" + errorStyle.Render(indent+"  ! "+msg)
	}
	return line
}

func renderIdea(out io.Writer, v *client.IdeaView) {
	fmt.Fprintln(out, headStyle.Render(v.Idea.Title))
	fmt.Fprintf(out, "  id       %s\n", v.Idea.ID)
	fmt.Fprintf(out, "  author   %s\n", v.Author.DisplayName)
	fmt.Fprintf(out, "  privacy  %s\n", v.Idea.Privacy)
	if v.Idea.NDAProtected {
		fmt.Fprintln(out, "  NDA protected")
	}
	var can []string
	if v.Permissions.CanManageTeam {
		can = append(can, "manage team")
	}
	if v.Permissions.CanEdit {
		can = append(can, "edit")
	}
	if v.Permissions.CanApproach {
		can = append(can, "approach")
	}
	if len(can) > 0 {
		fmt.Fprintln(out, dimStyle.Render("  you can: "+strings.Join(can, ", ")))
	}
}

func renderApproachResult(out io.Writer, res *client.ApproachResult) {
	if res.Outcome == team.OutcomeConflict && res.Conflict != nil {
		fmt.Fprintf(out, "Approach %s sent. %s; the author will decide how to fit you in.\n", res.Approach.ID, res.Conflict.Message)
		return
	}
	fmt.Fprintf(out, "Approach %s sent for %s.\n", res.Approach.ID, res.Approach.Role)
}

func renderApproaches(out io.Writer, ctrl *teamview.Controller, list []models.Approach) {
	if len(list) == 0 {
		fmt.Fprintln(out, dimStyle.Render("no approaches yet"))
		return
	}
	manage := ctrl.Permissions().CanManageTeam
	for _, a := range list {
		status := ""
		if manage {
			if ev, err := ctrl.Review(a); err != nil {
				status = errorStyle.Render(err.Error())
			} else if ev.Outcome == team.OutcomeConflict {
				status = leadStyle.Render("conflict")
			} else {
				status = "open"
			}
			_ = ctrl.CancelConflict(a.ID)
		}
		fmt.Fprintf(out, "%s  %-20s %-20s %s\n", dimStyle.Render(a.ID.String()), a.Applicant.DisplayName, a.Role, status)
		if a.Description != "" {
			fmt.Fprintln(out, dimStyle.Render("    "+a.Description))
		}
	}
}

func renderConflict(out io.Writer, c *team.ConflictData) {
	fmt.Fprintln(out, headStyle.Render("Conflict"))
	fmt.Fprintf(out, "  %s\n", c.Message)
	for _, o := range c.Options {
		switch o.Type {
		case team.OptionCreateSubRole:
			line := "  create_subrole     seat the applicant under " + c.ExistingMember.User.DisplayName
			if o.SuggestedRole != "" {
				line += " as " + o.SuggestedRole
			}
			fmt.Fprintln(out, line)
			if len(o.Alternatives) > 0 {
				fmt.Fprintln(out, dimStyle.Render("                     or: "+strings.Join(o.Alternatives, ", ")))
			}
		case team.OptionReplaceExisting:
			fmt.Fprintf(out, "  replace_existing   replace %s\n", c.ExistingMember.User.DisplayName)
		case team.OptionIncreaseCapacity:
			fmt.Fprintln(out, "  increase_capacity  add a seat to the role")
		}
	}
}
