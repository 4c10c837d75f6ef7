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

type ApproachService struct {
	db *database.DB
}

func NewApproachService(db *database.DB) *ApproachService {
	return &ApproachService{db: db}
}

// Create stores an approach and bumps the matching slot's application count.
func (s *ApproachService) Create(ctx context.Context, ideaID, applicantID uuid.UUID, role, description string) (*models.Approach, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var a models.Approach
	err = tx.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO approaches (idea_id, applicant_id, role, description)
			VALUES ($1, $2, $3, $4)
			RETURNING id, idea_id, applicant_id, role, description, created_at
		)
		SELECT ins.id, ins.idea_id, ins.role, ins.description, ins.created_at, u.id, u.name, u.avatar_url
		FROM ins JOIN users u ON u.id = ins.applicant_id
	`, ideaID, applicantID, role, description).Scan(
		&a.ID, &a.IdeaID, &a.Role, &a.Description, &a.CreatedAt,
		&a.Applicant.ID, &a.Applicant.DisplayName, &a.Applicant.Avatar,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create approach: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE role_slots SET application_count = application_count + 1
		WHERE idea_id = $1 AND LOWER(role_type) = LOWER($2)
	`, ideaID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to count application: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &a, nil
}

func (s *ApproachService) GetByID(ctx context.Context, ideaID, approachID uuid.UUID) (*models.Approach, error) {
	var a models.Approach
	err := s.db.Pool.QueryRow(ctx, `
		SELECT a.id, a.idea_id, a.role, a.description, a.created_at, u.id, u.name, u.avatar_url
		FROM approaches a
		JOIN users u ON u.id = a.applicant_id
		WHERE a.id = $1 AND a.idea_id = $2
	`, approachID, ideaID).Scan(
		&a.ID, &a.IdeaID, &a.Role, &a.Description, &a.CreatedAt,
		&a.Applicant.ID, &a.Applicant.DisplayName, &a.Applicant.Avatar,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrApproachNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ApproachService) ListByIdea(ctx context.Context, ideaID uuid.UUID) ([]models.Approach, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT a.id, a.idea_id, a.role, a.description, a.created_at, u.id, u.name, u.avatar_url
		FROM approaches a
		JOIN users u ON u.id = a.applicant_id
		WHERE a.idea_id = $1
		ORDER BY a.created_at DESC
	`, ideaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	approaches := []models.Approach{}
	for rows.Next() {
		var a models.Approach
		if err := rows.Scan(
			&a.ID, &a.IdeaID, &a.Role, &a.Description, &a.CreatedAt,
			&a.Applicant.ID, &a.Applicant.DisplayName, &a.Applicant.Avatar,
		); err != nil {
			return nil, err
		}
		approaches = append(approaches, a)
	}
	return approaches, rows.Err()
}
