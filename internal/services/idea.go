package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/ideaforge-api/internal/database"
	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type IdeaService struct {
	db *database.DB
}

func NewIdeaService(db *database.DB) *IdeaService {
	return &IdeaService{db: db}
}

// IdeaUpdate carries the optional fields of a PATCH; nil means unchanged.
type IdeaUpdate struct {
	Title        *string
	Privacy      *string
	NDAProtected *bool
	MaxTeamSize  *int
}

func (s *IdeaService) Create(ctx context.Context, authorID uuid.UUID, title, privacy string, ndaProtected bool, maxTeamSize int) (*models.Idea, error) {
	if privacy == "" {
		privacy = models.PrivacyPublic
	}
	if maxTeamSize <= 0 {
		maxTeamSize = models.DefaultMaxTeamSize
	}

	var idea models.Idea
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO ideas (title, author_id, privacy, nda_protected, max_team_size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, title, author_id, privacy, nda_protected, max_team_size, created_at, updated_at
	`, title, authorID, privacy, ndaProtected, maxTeamSize).Scan(
		&idea.ID, &idea.Title, &idea.AuthorID, &idea.Privacy, &idea.NDAProtected,
		&idea.MaxTeamSize, &idea.CreatedAt, &idea.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create idea: %w", err)
	}
	return &idea, nil
}

func (s *IdeaService) GetByID(ctx context.Context, ideaID uuid.UUID) (*models.Idea, error) {
	var idea models.Idea
	var author models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT i.id, i.title, i.author_id, i.privacy, i.nda_protected, i.max_team_size, i.created_at, i.updated_at,
		       u.id, u.email, u.name, u.avatar_url
		FROM ideas i
		JOIN users u ON u.id = i.author_id
		WHERE i.id = $1
	`, ideaID).Scan(
		&idea.ID, &idea.Title, &idea.AuthorID, &idea.Privacy, &idea.NDAProtected,
		&idea.MaxTeamSize, &idea.CreatedAt, &idea.UpdatedAt,
		&author.ID, &author.Email, &author.Name, &author.AvatarURL,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIdeaNotFound
	}
	if err != nil {
		return nil, err
	}
	idea.Author = &author
	return &idea, nil
}

func (s *IdeaService) Update(ctx context.Context, ideaID uuid.UUID, upd IdeaUpdate) (*models.Idea, error) {
	var idea models.Idea
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE ideas SET
			title = COALESCE($1, title),
			privacy = COALESCE($2, privacy),
			nda_protected = COALESCE($3, nda_protected),
			max_team_size = COALESCE($4, max_team_size),
			updated_at = NOW()
		WHERE id = $5
		RETURNING id, title, author_id, privacy, nda_protected, max_team_size, created_at, updated_at
	`, upd.Title, upd.Privacy, upd.NDAProtected, upd.MaxTeamSize, ideaID).Scan(
		&idea.ID, &idea.Title, &idea.AuthorID, &idea.Privacy, &idea.NDAProtected,
		&idea.MaxTeamSize, &idea.CreatedAt, &idea.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIdeaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update idea: %w", err)
	}
	return &idea, nil
}
