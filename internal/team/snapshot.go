package team

import (
	"fmt"
	"strings"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/google/uuid"
)

// Snapshot is a consistent view of one idea's team. It is treated as
// immutable: every change produces a new Snapshot.
type Snapshot struct {
	IdeaID      uuid.UUID
	Author      models.UserRef
	Members     []models.TeamMember
	SubRoles    map[uuid.UUID][]models.TeamMember
	RolesNeeded []models.RoleSlot
	MaxTeamSize int
}

type Metrics struct {
	CurrentSize          int `json:"current_size"`
	MaxTeamSize          int `json:"max_team_size"`
	CompletionPercentage int `json:"completion_percentage"`
	OpenPositions        int `json:"open_positions"`
	CoreRolesFilled      int `json:"core_roles_filled"`
	TotalCoreRoles       int `json:"total_core_roles"`
}

// NewSnapshot splits members into top-level seats and sub-roles, keeping
// the given order, and validates the result.
func NewSnapshot(ideaID uuid.UUID, author models.UserRef, members []models.TeamMember, slots []models.RoleSlot, maxTeamSize int) (*Snapshot, error) {
	s := &Snapshot{
		IdeaID:      ideaID,
		Author:      author,
		Members:     []models.TeamMember{},
		SubRoles:    make(map[uuid.UUID][]models.TeamMember),
		RolesNeeded: make([]models.RoleSlot, 0, len(slots)),
		MaxTeamSize: maxTeamSize,
	}

	var subs []models.TeamMember
	for _, m := range members {
		if m.IsSubRole() {
			subs = append(subs, cloneMember(m))
			continue
		}
		s.Members = append(s.Members, cloneMember(m))
	}
	for _, m := range subs {
		s.SubRoles[*m.ParentID] = append(s.SubRoles[*m.ParentID], m)
	}
	for _, slot := range slots {
		s.RolesNeeded = append(s.RolesNeeded, cloneSlot(slot))
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Snapshot) validate() error {
	seen := make(map[uuid.UUID]bool)
	top := make(map[uuid.UUID]bool)
	for _, m := range s.Members {
		if seen[m.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, m.ID)
		}
		seen[m.ID] = true
		top[m.ID] = true
	}
	for parentID, subs := range s.SubRoles {
		if !top[parentID] {
			return fmt.Errorf("%w: %s", ErrOrphanSubRole, parentID)
		}
		for _, m := range subs {
			if seen[m.ID] {
				return fmt.Errorf("%w: %s", ErrDuplicateMember, m.ID)
			}
			seen[m.ID] = true
		}
	}
	for _, slot := range s.RolesNeeded {
		if slot.CurrentPositions < 0 || slot.CurrentPositions > slot.MaxPositions {
			return fmt.Errorf("%w: %s (%d/%d)", ErrCapacityExceeded, slot.RoleType, slot.CurrentPositions, slot.MaxPositions)
		}
	}
	return nil
}

// Metrics is derived on every call from the member and slot lists.
func (s *Snapshot) Metrics() Metrics {
	m := Metrics{
		CurrentSize: len(s.Members),
		MaxTeamSize: s.MaxTeamSize,
	}
	for _, slot := range s.RolesNeeded {
		if slot.IsCore {
			m.TotalCoreRoles++
			if slot.Filled() {
				m.CoreRolesFilled++
			}
		}
		m.OpenPositions += slot.Remaining()
	}
	if m.TotalCoreRoles > 0 {
		m.CompletionPercentage = m.CoreRolesFilled * 100 / m.TotalCoreRoles
	}
	return m
}

// All returns every member, each top-level seat followed by its sub-roles.
func (s *Snapshot) All() []models.TeamMember {
	out := make([]models.TeamMember, 0, len(s.Members))
	for _, m := range s.Members {
		out = append(out, m)
		out = append(out, s.SubRoles[m.ID]...)
	}
	return out
}

// FindMember looks up a member by id among seats and sub-roles.
func (s *Snapshot) FindMember(id uuid.UUID) (models.TeamMember, bool) {
	for _, m := range s.All() {
		if m.ID == id {
			return m, true
		}
	}
	return models.TeamMember{}, false
}

// MemberByUser returns the seat or sub-role held by userID.
func (s *Snapshot) MemberByUser(userID uuid.UUID) (models.TeamMember, bool) {
	for _, m := range s.All() {
		if m.User.ID == userID {
			return m, true
		}
	}
	return models.TeamMember{}, false
}

func (s *Snapshot) FindSlot(id uuid.UUID) (models.RoleSlot, bool) {
	for _, slot := range s.RolesNeeded {
		if slot.ID == id {
			return slot, true
		}
	}
	return models.RoleSlot{}, false
}

// SlotForRole matches role against slot role types, ignoring case.
func (s *Snapshot) SlotForRole(role string) (models.RoleSlot, bool) {
	i := s.slotIndexByRole(role)
	if i < 0 {
		return models.RoleSlot{}, false
	}
	return s.RolesNeeded[i], true
}

func (s *Snapshot) slotIndexByRole(role string) int {
	role = strings.TrimSpace(role)
	for i, slot := range s.RolesNeeded {
		if strings.EqualFold(strings.TrimSpace(slot.RoleType), role) {
			return i
		}
	}
	return -1
}

func (s *Snapshot) slotIndex(id uuid.UUID) int {
	for i, slot := range s.RolesNeeded {
		if slot.ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) memberIndex(id uuid.UUID) int {
	for i, m := range s.Members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// holder returns the earliest top-level member assigned to role.
func (s *Snapshot) holder(role string) (models.TeamMember, bool) {
	role = strings.TrimSpace(role)
	for _, m := range s.Members {
		if strings.EqualFold(strings.TrimSpace(m.AssignedRole), role) {
			return m, true
		}
	}
	return models.TeamMember{}, false
}

func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		IdeaID:      s.IdeaID,
		Author:      s.Author,
		Members:     make([]models.TeamMember, len(s.Members)),
		SubRoles:    make(map[uuid.UUID][]models.TeamMember, len(s.SubRoles)),
		RolesNeeded: make([]models.RoleSlot, len(s.RolesNeeded)),
		MaxTeamSize: s.MaxTeamSize,
	}
	for i, m := range s.Members {
		c.Members[i] = cloneMember(m)
	}
	for parentID, subs := range s.SubRoles {
		cp := make([]models.TeamMember, len(subs))
		for i, m := range subs {
			cp[i] = cloneMember(m)
		}
		c.SubRoles[parentID] = cp
	}
	for i, slot := range s.RolesNeeded {
		c.RolesNeeded[i] = cloneSlot(slot)
	}
	return c
}

func cloneMember(m models.TeamMember) models.TeamMember {
	if m.ParentID != nil {
		parent := *m.ParentID
		m.ParentID = &parent
	}
	return m
}

func cloneSlot(s models.RoleSlot) models.RoleSlot {
	if s.RequiredSkills != nil {
		s.RequiredSkills = append([]string(nil), s.RequiredSkills...)
	}
	return s
}
