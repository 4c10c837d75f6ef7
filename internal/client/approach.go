package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/google/uuid"
)

type wireApproach struct {
	ID          uuid.UUID       `json:"id"`
	IdeaID      uuid.UUID       `json:"idea_id"`
	Applicant   json.RawMessage `json:"applicant"`
	Role        string          `json:"role"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (a wireApproach) toModel() (models.Approach, error) {
	applicant, err := team.NormalizeUserRef(a.Applicant)
	if err != nil {
		return models.Approach{}, err
	}
	return models.Approach{
		ID:          a.ID,
		IdeaID:      a.IdeaID,
		Applicant:   applicant,
		Role:        a.Role,
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
	}, nil
}

type wireOption struct {
	Type          string      `json:"type"`
	SuggestedRole string      `json:"suggested_role"`
	Alternatives  []string    `json:"skill_level_suggestions"`
	CurrentMember *wireMember `json:"current_member"`
}

type wireConflict struct {
	ExistingMember wireMember   `json:"existing_member"`
	Message        string       `json:"message"`
	Options        []wireOption `json:"options"`
}

type wireApproachResult struct {
	Approach *wireApproach `json:"approach"`
	Status   string        `json:"status"`
	Conflict *wireConflict `json:"conflict"`
}

func (w *wireConflict) toModel(ideaID uuid.UUID) (*team.ConflictData, error) {
	existing, err := w.ExistingMember.toModel(ideaID, nil)
	if err != nil {
		return nil, err
	}
	out := &team.ConflictData{
		ExistingMember: existing,
		Message:        w.Message,
		Options:        make([]team.ResolutionOption, 0, len(w.Options)),
	}
	for _, o := range w.Options {
		opt := team.ResolutionOption{
			Type:          team.OptionType(o.Type),
			SuggestedRole: o.SuggestedRole,
			Alternatives:  o.Alternatives,
		}
		if o.CurrentMember != nil {
			cm, err := o.CurrentMember.toModel(ideaID, nil)
			if err != nil {
				return nil, err
			}
			opt.CurrentMember = &cm
		}
		out.Options = append(out.Options, opt)
	}
	return out, nil
}

// SubmitApproach files an approach for role. A filled role is not an
// error: the result carries the conflict and its resolution options.
func (c *Client) SubmitApproach(ctx context.Context, ideaID uuid.UUID, role, description string) (*ApproachResult, error) {
	body := map[string]string{"role": role, "description": description}
	status, raw, err := c.do(ctx, http.MethodPost, ideaPath(ideaID, "/approaches"), body, http.StatusConflict)
	if err != nil {
		return nil, err
	}

	var w wireApproachResult
	if err := decode(raw, &w); err != nil {
		return nil, err
	}
	// A 409 without an approach is an ordinary conflict error, such as the
	// viewer already being on the team.
	if w.Approach == nil {
		return nil, &APIError{Status: status, Message: errorMessage(status, raw)}
	}

	approach, err := w.Approach.toModel()
	if err != nil {
		return nil, err
	}
	result := &ApproachResult{Approach: approach, Outcome: team.OutcomeOpen}
	if status == http.StatusConflict || w.Conflict != nil {
		result.Outcome = team.OutcomeConflict
		if w.Conflict != nil {
			if result.Conflict, err = w.Conflict.toModel(ideaID); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

func (c *Client) Approaches(ctx context.Context, ideaID uuid.UUID) ([]models.Approach, error) {
	_, raw, err := c.do(ctx, http.MethodGet, ideaPath(ideaID, "/approaches"), nil)
	if err != nil {
		return nil, err
	}
	var ws []wireApproach
	if err := decode(raw, &ws); err != nil {
		return nil, err
	}
	out := make([]models.Approach, 0, len(ws))
	for _, w := range ws {
		a, err := w.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
