package handlers

import (
	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/dimitrije/ideaforge-api/pkg/dto"
	"github.com/google/uuid"
)

func toUserRef(u models.UserRef) dto.UserRefResponse {
	return dto.UserRefResponse{ID: u.ID, DisplayName: u.DisplayName, Avatar: u.Avatar}
}

func toMember(m models.TeamMember) dto.TeamMemberResponse {
	return dto.TeamMemberResponse{
		ID:           m.ID,
		User:         toUserRef(m.User),
		AssignedRole: m.AssignedRole,
		IsLead:       m.IsLead,
		AssignedAt:   m.AssignedAt,
		ParentID:     m.ParentID,
	}
}

func toSlot(s models.RoleSlot) dto.RoleSlotResponse {
	skills := s.RequiredSkills
	if skills == nil {
		skills = []string{}
	}
	return dto.RoleSlotResponse{
		ID:               s.ID,
		RoleType:         s.RoleType,
		Description:      s.Description,
		RequiredSkills:   skills,
		IsCore:           s.IsCore,
		MaxPositions:     s.MaxPositions,
		CurrentPositions: s.CurrentPositions,
		Priority:         s.Priority,
		ApplicationCount: s.ApplicationCount,
	}
}

func toPermissions(p models.Permissions) dto.PermissionsResponse {
	return dto.PermissionsResponse{
		CanManageTeam: p.CanManageTeam,
		CanEdit:       p.CanEdit,
		CanApproach:   p.CanApproach,
	}
}

func toSnapshot(snap *team.Snapshot, viewerID uuid.UUID, perms models.Permissions) dto.TeamSnapshotResponse {
	members := make([]dto.TeamMemberResponse, 0, len(snap.Members))
	for _, m := range snap.Members {
		members = append(members, toMember(m))
	}

	subRoles := make(map[uuid.UUID][]dto.TeamMemberResponse, len(snap.SubRoles))
	for parentID, subs := range snap.SubRoles {
		out := make([]dto.TeamMemberResponse, 0, len(subs))
		for _, m := range subs {
			out = append(out, toMember(m))
		}
		subRoles[parentID] = out
	}

	slots := make([]dto.RoleSlotResponse, 0, len(snap.RolesNeeded))
	for _, s := range snap.RolesNeeded {
		slots = append(slots, toSlot(s))
	}

	m := snap.Metrics()
	return dto.TeamSnapshotResponse{
		IdeaID:          snap.IdeaID,
		ViewerID:        viewerID,
		Author:          toUserRef(snap.Author),
		TeamComposition: members,
		SubRoles:        subRoles,
		RolesNeeded:     slots,
		TeamMetrics: dto.TeamMetricsResponse{
			CurrentSize:          m.CurrentSize,
			MaxTeamSize:          m.MaxTeamSize,
			CompletionPercentage: m.CompletionPercentage,
			OpenPositions:        m.OpenPositions,
			CoreRolesFilled:      m.CoreRolesFilled,
			TotalCoreRoles:       m.TotalCoreRoles,
		},
		Permissions: toPermissions(perms),
	}
}

func toApproach(a models.Approach, hidePitch bool) dto.ApproachResponse {
	resp := dto.ApproachResponse{
		ID:          a.ID,
		IdeaID:      a.IdeaID,
		Applicant:   toUserRef(a.Applicant),
		Role:        a.Role,
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
	}
	if hidePitch {
		resp.Description = ""
	}
	return resp
}

func toConflict(c *team.ConflictData) *dto.ConflictResponse {
	if c == nil {
		return nil
	}
	opts := make([]dto.ResolutionOptionResponse, 0, len(c.Options))
	for _, o := range c.Options {
		opt := dto.ResolutionOptionResponse{
			Type:                  string(o.Type),
			SuggestedRole:         o.SuggestedRole,
			SkillLevelSuggestions: o.Alternatives,
		}
		if o.CurrentMember != nil {
			cm := toMember(*o.CurrentMember)
			opt.CurrentMember = &cm
		}
		opts = append(opts, opt)
	}
	return &dto.ConflictResponse{
		ExistingMember: toMember(c.ExistingMember),
		Message:        c.Message,
		Options:        opts,
	}
}

func toIdea(idea *models.Idea, perms models.Permissions) dto.IdeaResponse {
	resp := dto.IdeaResponse{
		ID:           idea.ID,
		Title:        idea.Title,
		Author:       dto.UserRefResponse{ID: idea.AuthorID},
		Privacy:      idea.Privacy,
		NDAProtected: idea.NDAProtected,
		MaxTeamSize:  idea.MaxTeamSize,
		Permissions:  toPermissions(perms),
	}
	if idea.Author != nil {
		resp.Author = toUserRef(idea.Author.Ref())
	}
	return resp
}

func toUser(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
	}
}
