package client

import (
	"context"
	"net/http"

	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/google/uuid"
)

// IdeaView is an idea together with what the viewer may do with it.
type IdeaView struct {
	Idea        models.Idea
	Author      models.UserRef
	Permissions models.Permissions
}

type wireIdea struct {
	ID           uuid.UUID          `json:"id"`
	Title        string             `json:"title"`
	Author       models.UserRef     `json:"author"`
	Privacy      string             `json:"privacy"`
	NDAProtected bool               `json:"nda_protected"`
	MaxTeamSize  int                `json:"max_team_size"`
	Permissions  models.Permissions `json:"permissions"`
}

func (w wireIdea) toView() *IdeaView {
	return &IdeaView{
		Idea: models.Idea{
			ID:           w.ID,
			Title:        w.Title,
			AuthorID:     w.Author.ID,
			Privacy:      w.Privacy,
			NDAProtected: w.NDAProtected,
			MaxTeamSize:  w.MaxTeamSize,
		},
		Author:      w.Author,
		Permissions: w.Permissions,
	}
}

type CreateIdeaInput struct {
	Title        string `json:"title"`
	Privacy      string `json:"privacy,omitempty"`
	NDAProtected bool   `json:"nda_protected"`
	MaxTeamSize  int    `json:"max_team_size,omitempty"`
}

// UpdateIdeaInput leaves nil fields unchanged.
type UpdateIdeaInput struct {
	Title        *string `json:"title,omitempty"`
	Privacy      *string `json:"privacy,omitempty"`
	NDAProtected *bool   `json:"nda_protected,omitempty"`
	MaxTeamSize  *int    `json:"max_team_size,omitempty"`
}

func (c *Client) ideaCall(ctx context.Context, method, path string, body any) (*IdeaView, error) {
	_, raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	var w wireIdea
	if err := decode(raw, &w); err != nil {
		return nil, err
	}
	return w.toView(), nil
}

func (c *Client) CreateIdea(ctx context.Context, in CreateIdeaInput) (*IdeaView, error) {
	return c.ideaCall(ctx, http.MethodPost, "/ideas", in)
}

func (c *Client) Idea(ctx context.Context, ideaID uuid.UUID) (*IdeaView, error) {
	return c.ideaCall(ctx, http.MethodGet, ideaPath(ideaID, ""), nil)
}

func (c *Client) UpdateIdea(ctx context.Context, ideaID uuid.UUID, in UpdateIdeaInput) (*IdeaView, error) {
	return c.ideaCall(ctx, http.MethodPatch, ideaPath(ideaID, ""), in)
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	_, raw, err := c.do(ctx, http.MethodGet, "/users/me", nil)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := decode(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
