package team

import "fmt"

// Apply returns a new snapshot with plan applied. snap is left untouched.
func Apply(snap *Snapshot, plan *Plan) (*Snapshot, error) {
	if plan.IdeaID != snap.IdeaID {
		return nil, fmt.Errorf("%w: plan targets idea %s", ErrStalePlan, plan.IdeaID)
	}

	next := snap.Clone()
	member := cloneMember(plan.NewMember)

	switch plan.Kind {
	case OptionCreateSubRole:
		if member.ParentID == nil || next.memberIndex(*member.ParentID) < 0 {
			return nil, fmt.Errorf("%w: sub-role parent is gone", ErrStalePlan)
		}
		parentID := *member.ParentID
		next.SubRoles[parentID] = append(next.SubRoles[parentID], member)

	case OptionReplaceExisting:
		if plan.RemoveMember == nil {
			return nil, fmt.Errorf("%w: nothing to replace", ErrStalePlan)
		}
		oldID := plan.RemoveMember.ID
		idx := next.memberIndex(oldID)
		if idx < 0 {
			return nil, fmt.Errorf("%w: member %s already left", ErrStalePlan, oldID)
		}
		orphans := next.SubRoles[oldID]
		if len(orphans) > 0 && !ValidOrphanPolicy(plan.OrphanPolicy) {
			return nil, ErrOrphanPolicyRequired
		}
		delete(next.SubRoles, oldID)
		next.Members[idx] = member
		if plan.OrphanPolicy == OrphanReassign && len(orphans) > 0 {
			for i := range orphans {
				newParent := member.ID
				orphans[i].ParentID = &newParent
			}
			next.SubRoles[member.ID] = orphans
		}

	case OptionIncreaseCapacity, OptionAssign:
		if plan.SlotID != nil {
			i := next.slotIndex(*plan.SlotID)
			if i < 0 {
				return nil, fmt.Errorf("%w: slot %s removed", ErrStalePlan, *plan.SlotID)
			}
			next.RolesNeeded[i].MaxPositions += plan.MaxPositionsDelta
			next.RolesNeeded[i].CurrentPositions += plan.CurrentPositionsDelta
		}
		next.Members = append(next.Members, member)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, plan.Kind)
	}

	if err := next.validate(); err != nil {
		return nil, err
	}
	return next, nil
}
