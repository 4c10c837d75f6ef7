package team

import (
	"fmt"
	"strings"

	"github.com/dimitrije/ideaforge-api/internal/models"
)

type Outcome string

const (
	OutcomeOpen     Outcome = "open"
	OutcomeConflict Outcome = "conflict"
)

type OptionType string

const (
	OptionCreateSubRole    OptionType = "create_subrole"
	OptionReplaceExisting  OptionType = "replace_existing"
	OptionIncreaseCapacity OptionType = "increase_capacity"

	// OptionAssign is the plan kind for an approach that hit an open slot.
	OptionAssign OptionType = "assign"
)

// DefaultQualifiers is the seniority vocabulary used for sub-role names.
var DefaultQualifiers = []string{"Senior", "Junior", "Associate", "Lead"}

const maxSuggestions = 4

type ResolutionOption struct {
	Type          OptionType         `json:"type"`
	SuggestedRole string             `json:"suggested_role,omitempty"`
	Alternatives  []string           `json:"skill_level_suggestions,omitempty"`
	CurrentMember *models.TeamMember `json:"current_member,omitempty"`
}

type ConflictData struct {
	ExistingMember models.TeamMember  `json:"existing_member"`
	Message        string             `json:"message"`
	Options        []ResolutionOption `json:"options"`
}

func (c *ConflictData) option(t OptionType) (ResolutionOption, bool) {
	for _, o := range c.Options {
		if o.Type == t {
			return o, true
		}
	}
	return ResolutionOption{}, false
}

type Evaluation struct {
	Outcome  Outcome
	Role     string
	Slot     *models.RoleSlot
	Conflict *ConflictData
}

type Evaluator struct {
	qualifiers []string
}

// NewEvaluator builds an evaluator with the given qualifier vocabulary.
// A nil vocabulary selects DefaultQualifiers.
func NewEvaluator(qualifiers []string) *Evaluator {
	if qualifiers == nil {
		qualifiers = DefaultQualifiers
	}
	return &Evaluator{qualifiers: append([]string(nil), qualifiers...)}
}

func (e *Evaluator) Evaluate(approach models.Approach, snap *Snapshot) (*Evaluation, error) {
	if approach.Applicant.ID == snap.Author.ID {
		return nil, ErrSelfApplication
	}

	role := strings.TrimSpace(approach.Role)
	if role == "" {
		return nil, ErrInvalidRole
	}

	slot, hasSlot := snap.SlotForRole(role)
	holder, held := snap.holder(role)
	if !hasSlot && !held {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	ev := &Evaluation{Role: role}
	if hasSlot {
		ev.Role = slot.RoleType
		ev.Slot = &slot
	} else {
		ev.Role = holder.AssignedRole
	}

	if !held {
		if !slot.Filled() {
			ev.Outcome = OutcomeOpen
			return ev, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrInconsistentTeam, slot.RoleType)
	}

	ev.Outcome = OutcomeConflict
	ev.Conflict = e.conflict(ev.Role, holder)
	return ev, nil
}

func (e *Evaluator) conflict(role string, existing models.TeamMember) *ConflictData {
	names := e.Suggestions(role)
	sub := ResolutionOption{Type: OptionCreateSubRole}
	if len(names) > 0 {
		sub.SuggestedRole = names[0]
		sub.Alternatives = names[1:]
	}
	current := existing

	return &ConflictData{
		ExistingMember: existing,
		Message:        fmt.Sprintf("%s is already filled by %s", role, displayName(existing.User)),
		Options: []ResolutionOption{
			sub,
			{Type: OptionReplaceExisting, CurrentMember: &current},
			{Type: OptionIncreaseCapacity},
		},
	}
}

// Suggestions prefixes each qualifier to base, skipping qualifiers the base
// already starts with. The first entry is the primary suggestion.
func (e *Evaluator) Suggestions(base string) []string {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil
	}
	first := strings.Fields(base)[0]

	seen := make(map[string]bool)
	var out []string
	for _, q := range e.qualifiers {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q == "" || seen[key] || strings.EqualFold(q, first) {
			continue
		}
		seen[key] = true
		out = append(out, q+" "+base)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func displayName(u models.UserRef) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID.String()
}
