package team

import (
	"fmt"
	"strings"
	"time"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/google/uuid"
)

// OrphanPolicy decides what happens to a replaced member's sub-roles.
type OrphanPolicy string

const (
	OrphanReassign OrphanPolicy = "reassign"
	OrphanCascade  OrphanPolicy = "cascade"
)

type ResolveInput struct {
	CustomRoleName string
	OrphanPolicy   OrphanPolicy
	Now            time.Time
}

// Plan is everything needed to realize a resolution against storage,
// without further lookups. Producing one has no side effects.
type Plan struct {
	Kind                  OptionType          `json:"kind"`
	IdeaID                uuid.UUID           `json:"idea_id"`
	ApproachID            uuid.UUID           `json:"approach_id"`
	NewMember             models.TeamMember   `json:"new_member"`
	RemoveMember          *models.TeamMember  `json:"remove_member,omitempty"`
	Orphans               []models.TeamMember `json:"orphans,omitempty"`
	OrphanPolicy          OrphanPolicy        `json:"orphan_policy,omitempty"`
	SlotID                *uuid.UUID          `json:"slot_id,omitempty"`
	MaxPositionsDelta     int                 `json:"max_positions_delta"`
	CurrentPositionsDelta int                 `json:"current_positions_delta"`
}

func ValidOption(t OptionType) bool {
	switch t {
	case OptionCreateSubRole, OptionReplaceExisting, OptionIncreaseCapacity:
		return true
	}
	return false
}

func ValidOrphanPolicy(p OrphanPolicy) bool {
	return p == OrphanReassign || p == OrphanCascade
}

// Resolve re-evaluates approach against snap and builds the plan for the
// chosen option. The option's type is authoritative; its other fields are
// recomputed so a stale or forged option cannot steer the plan.
func (e *Evaluator) Resolve(option ResolutionOption, approach models.Approach, snap *Snapshot, in ResolveInput) (*Plan, error) {
	if !ValidOption(option.Type) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, option.Type)
	}

	ev, err := e.Evaluate(approach, snap)
	if err != nil {
		return nil, err
	}
	if ev.Outcome != OutcomeConflict {
		return nil, ErrNoConflict
	}

	opt, _ := ev.Conflict.option(option.Type)
	existing := ev.Conflict.ExistingMember
	plan := &Plan{
		Kind:       option.Type,
		IdeaID:     snap.IdeaID,
		ApproachID: approach.ID,
		NewMember:  newMember(snap.IdeaID, approach.Applicant, ev.Role, in.Now),
	}

	switch option.Type {
	case OptionCreateSubRole:
		name := strings.TrimSpace(in.CustomRoleName)
		if name == "" {
			name = opt.SuggestedRole
		}
		if name == "" {
			return nil, ErrMissingCustomRole
		}
		parentID := existing.ID
		plan.NewMember.ParentID = &parentID
		plan.NewMember.AssignedRole = name

	case OptionReplaceExisting:
		orphans := snap.SubRoles[existing.ID]
		if len(orphans) > 0 {
			if !ValidOrphanPolicy(in.OrphanPolicy) {
				return nil, ErrOrphanPolicyRequired
			}
			plan.OrphanPolicy = in.OrphanPolicy
			plan.Orphans = make([]models.TeamMember, len(orphans))
			for i, m := range orphans {
				plan.Orphans[i] = cloneMember(m)
			}
		}
		removed := cloneMember(existing)
		plan.RemoveMember = &removed
		plan.NewMember.AssignedRole = existing.AssignedRole

	case OptionIncreaseCapacity:
		if ev.Slot == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoRoleSlot, ev.Role)
		}
		slotID := ev.Slot.ID
		plan.SlotID = &slotID
		plan.MaxPositionsDelta = 1
		plan.CurrentPositionsDelta = 1
	}

	return plan, nil
}

// Assign builds the direct-assign plan for an approach to an open slot.
func (e *Evaluator) Assign(approach models.Approach, snap *Snapshot, now time.Time) (*Plan, error) {
	ev, err := e.Evaluate(approach, snap)
	if err != nil {
		return nil, err
	}
	if ev.Outcome != OutcomeOpen {
		return nil, fmt.Errorf("%w: %s", ErrRoleFilled, ev.Role)
	}

	slotID := ev.Slot.ID
	return &Plan{
		Kind:                  OptionAssign,
		IdeaID:                snap.IdeaID,
		ApproachID:            approach.ID,
		NewMember:             newMember(snap.IdeaID, approach.Applicant, ev.Role, now),
		SlotID:                &slotID,
		CurrentPositionsDelta: 1,
	}, nil
}

func newMember(ideaID uuid.UUID, user models.UserRef, role string, now time.Time) models.TeamMember {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return models.TeamMember{
		ID:           uuid.New(),
		IdeaID:       ideaID,
		User:         user,
		AssignedRole: role,
		AssignedAt:   now,
	}
}
