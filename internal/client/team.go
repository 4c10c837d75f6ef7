package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/google/uuid"
)

// TeamView is the backend's authoritative team for one viewer.
type TeamView struct {
	Snapshot    *team.Snapshot
	Permissions models.Permissions
	ViewerID    uuid.UUID
}

// ApproachResult is what submitting an approach produced. Conflict is set
// when the role was already held.
type ApproachResult struct {
	Approach models.Approach
	Outcome  team.Outcome
	Conflict *team.ConflictData
}

// RoleInput describes a role slot to declare. RequiredSkills may be any
// shape the backend tolerates.
type RoleInput struct {
	RoleType       string          `json:"role_type"`
	Description    string          `json:"description,omitempty"`
	RequiredSkills json.RawMessage `json:"required_skills,omitempty"`
	IsCore         *bool           `json:"is_core,omitempty"`
	MaxPositions   int             `json:"max_positions,omitempty"`
	Priority       string          `json:"priority,omitempty"`
}

type wireMember struct {
	ID           uuid.UUID       `json:"id"`
	User         json.RawMessage `json:"user"`
	AssignedRole string          `json:"assigned_role"`
	IsLead       bool            `json:"is_lead"`
	AssignedAt   time.Time       `json:"assigned_at"`
	ParentID     *uuid.UUID      `json:"parent_id"`
}

type wireMetrics struct {
	MaxTeamSize int `json:"max_team_size"`
}

type wireSnapshot struct {
	IdeaID          uuid.UUID               `json:"idea_id"`
	ViewerID        uuid.UUID               `json:"viewer_id"`
	Author          json.RawMessage         `json:"author"`
	TeamComposition []wireMember            `json:"team_composition"`
	SubRoles        map[string][]wireMember `json:"sub_roles"`
	RolesNeeded     json.RawMessage         `json:"roles_needed"`
	TeamMetrics     wireMetrics             `json:"team_metrics"`
	Permissions     models.Permissions      `json:"permissions"`
}

func (m wireMember) toModel(ideaID uuid.UUID, parentID *uuid.UUID) (models.TeamMember, error) {
	user, err := team.NormalizeUserRef(m.User)
	if err != nil {
		return models.TeamMember{}, err
	}
	member := models.TeamMember{
		ID:           m.ID,
		IdeaID:       ideaID,
		User:         user,
		AssignedRole: m.AssignedRole,
		IsLead:       m.IsLead,
		AssignedAt:   m.AssignedAt,
		ParentID:     m.ParentID,
	}
	if member.ParentID == nil && parentID != nil {
		pid := *parentID
		member.ParentID = &pid
	}
	return member, nil
}

// decodeTeam turns a snapshot payload into a validated team.Snapshot. Every
// user reference and slot list passes through the normalizers.
func decodeTeam(raw []byte) (*TeamView, error) {
	var w wireSnapshot
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", team.ErrMalformedPayload, err)
	}

	author, err := team.NormalizeUserRef(w.Author)
	if err != nil {
		return nil, err
	}
	slots, err := team.NormalizeRoleSlots(w.RolesNeeded)
	if err != nil {
		return nil, err
	}

	members := make([]models.TeamMember, 0, len(w.TeamComposition))
	for _, m := range w.TeamComposition {
		member, err := m.toModel(w.IdeaID, nil)
		if err != nil {
			return nil, err
		}
		// Seats are top-level by definition of where they appear.
		member.ParentID = nil
		members = append(members, member)
	}
	// Keys are parsed rather than matched as text so any UUID spelling the
	// backend uses lands on its parent.
	keys := make([]string, 0, len(w.SubRoles))
	for key := range w.SubRoles {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	byParent := make(map[uuid.UUID][]wireMember, len(keys))
	for _, key := range keys {
		pid, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: sub-role parent %q", team.ErrMalformedPayload, key)
		}
		subs := w.SubRoles[key]
		if len(subs) > 0 && !seated(w.TeamComposition, pid) {
			return nil, fmt.Errorf("%w: %s", team.ErrOrphanSubRole, pid)
		}
		byParent[pid] = append(byParent[pid], subs...)
	}
	// Sub-roles follow their parents in seat order so the result does not
	// depend on map iteration.
	for _, parent := range w.TeamComposition {
		for _, m := range byParent[parent.ID] {
			pid := parent.ID
			member, err := m.toModel(w.IdeaID, &pid)
			if err != nil {
				return nil, err
			}
			members = append(members, member)
		}
	}

	snap, err := team.NewSnapshot(w.IdeaID, author, members, slots, w.TeamMetrics.MaxTeamSize)
	if err != nil {
		return nil, err
	}
	return &TeamView{Snapshot: snap, Permissions: w.Permissions, ViewerID: w.ViewerID}, nil
}

func seated(members []wireMember, id uuid.UUID) bool {
	for _, m := range members {
		if m.ID == id {
			return true
		}
	}
	return false
}

func ideaPath(ideaID uuid.UUID, suffix string) string {
	return "/ideas/" + ideaID.String() + suffix
}

func (c *Client) teamCall(ctx context.Context, method, path string, body any) (*TeamView, error) {
	_, raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return decodeTeam(raw)
}

func (c *Client) Team(ctx context.Context, ideaID uuid.UUID) (*TeamView, error) {
	return c.teamCall(ctx, http.MethodGet, ideaPath(ideaID, "/team"), nil)
}

func (c *Client) Promote(ctx context.Context, ideaID, memberID uuid.UUID) (*TeamView, error) {
	return c.teamCall(ctx, http.MethodPost, ideaPath(ideaID, "/members/"+memberID.String()+"/promote"), nil)
}

func (c *Client) Demote(ctx context.Context, ideaID, memberID uuid.UUID) (*TeamView, error) {
	return c.teamCall(ctx, http.MethodPost, ideaPath(ideaID, "/members/"+memberID.String()+"/demote"), nil)
}

func (c *Client) RemoveMember(ctx context.Context, ideaID, memberID uuid.UUID) (*TeamView, error) {
	return c.teamCall(ctx, http.MethodDelete, ideaPath(ideaID, "/members/"+memberID.String()), nil)
}

func (c *Client) Leave(ctx context.Context, ideaID uuid.UUID) (*TeamView, error) {
	return c.teamCall(ctx, http.MethodPost, ideaPath(ideaID, "/leave"), nil)
}

func (c *Client) AddRole(ctx context.Context, ideaID uuid.UUID, role RoleInput) (*TeamView, error) {
	return c.teamCall(ctx, http.MethodPost, ideaPath(ideaID, "/roles"), role)
}

func (c *Client) RemoveRole(ctx context.Context, ideaID, slotID uuid.UUID) (*TeamView, error) {
	return c.teamCall(ctx, http.MethodDelete, ideaPath(ideaID, "/roles/"+slotID.String()), nil)
}

func (c *Client) Accept(ctx context.Context, ideaID, approachID uuid.UUID) (*TeamView, error) {
	return c.teamCall(ctx, http.MethodPost, ideaPath(ideaID, "/approaches/"+approachID.String()+"/accept"), nil)
}

// Resolve sends the chosen option and its inputs. The backend rebuilds the
// plan itself.
func (c *Client) Resolve(ctx context.Context, ideaID, approachID uuid.UUID, option team.OptionType, in team.ResolveInput) (*TeamView, error) {
	body := map[string]string{"option": string(option)}
	if in.CustomRoleName != "" {
		body["custom_role_name"] = in.CustomRoleName
	}
	if in.OrphanPolicy != "" {
		body["orphan_policy"] = string(in.OrphanPolicy)
	}
	return c.teamCall(ctx, http.MethodPost, ideaPath(ideaID, "/approaches/"+approachID.String()+"/resolve"), body)
}
