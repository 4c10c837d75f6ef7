package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/ideaforge-api/internal/database"
	"github.com/dimitrije/ideaforge-api/internal/models"
	"github.com/dimitrije/ideaforge-api/internal/team"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const recountSlotsSQL = `
	UPDATE role_slots rs SET current_positions = (
		SELECT COUNT(*) FROM team_members tm
		WHERE tm.idea_id = rs.idea_id AND tm.parent_id IS NULL
		  AND LOWER(tm.assigned_role) = LOWER(rs.role_type)
	)
	WHERE rs.idea_id = $1
`

type TeamService struct {
	db *database.DB
}

func NewTeamService(db *database.DB) *TeamService {
	return &TeamService{db: db}
}

// Snapshot loads the full team of an idea.
func (s *TeamService) Snapshot(ctx context.Context, ideaID uuid.UUID) (*team.Snapshot, error) {
	return loadSnapshot(ctx, s.db.Pool, ideaID)
}

func loadSnapshot(ctx context.Context, q querier, ideaID uuid.UUID) (*team.Snapshot, error) {
	var author models.UserRef
	var maxTeamSize int
	err := q.QueryRow(ctx, `
		SELECT i.max_team_size, u.id, u.name, u.avatar_url
		FROM ideas i
		JOIN users u ON u.id = i.author_id
		WHERE i.id = $1
	`, ideaID).Scan(&maxTeamSize, &author.ID, &author.DisplayName, &author.Avatar)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIdeaNotFound
	}
	if err != nil {
		return nil, err
	}

	members, err := loadMembers(ctx, q, ideaID)
	if err != nil {
		return nil, err
	}
	slots, err := loadSlots(ctx, q, ideaID)
	if err != nil {
		return nil, err
	}

	return team.NewSnapshot(ideaID, author, members, slots, maxTeamSize)
}

func loadMembers(ctx context.Context, q querier, ideaID uuid.UUID) ([]models.TeamMember, error) {
	rows, err := q.Query(ctx, `
		SELECT tm.id, tm.idea_id, tm.assigned_role, tm.is_lead, tm.assigned_at, tm.parent_id,
		       u.id, u.name, u.avatar_url
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.idea_id = $1
		ORDER BY tm.assigned_at, tm.id
	`, ideaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.TeamMember
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(
			&m.ID, &m.IdeaID, &m.AssignedRole, &m.IsLead, &m.AssignedAt, &m.ParentID,
			&m.User.ID, &m.User.DisplayName, &m.User.Avatar,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func loadSlots(ctx context.Context, q querier, ideaID uuid.UUID) ([]models.RoleSlot, error) {
	rows, err := q.Query(ctx, `
		SELECT id, idea_id, role_type, description, required_skills, is_core,
		       max_positions, current_positions, priority, application_count
		FROM role_slots
		WHERE idea_id = $1
		ORDER BY created_at, id
	`, ideaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.RoleSlot
	for rows.Next() {
		var r models.RoleSlot
		if err := rows.Scan(
			&r.ID, &r.IdeaID, &r.RoleType, &r.Description, &r.RequiredSkills, &r.IsCore,
			&r.MaxPositions, &r.CurrentPositions, &r.Priority, &r.ApplicationCount,
		); err != nil {
			return nil, err
		}
		slots = append(slots, r)
	}
	return slots, rows.Err()
}

func (s *TeamService) IsMember(ctx context.Context, ideaID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM team_members WHERE idea_id = $1 AND user_id = $2)
	`, ideaID, userID).Scan(&exists)
	return exists, err
}

func (s *TeamService) SetLead(ctx context.Context, ideaID, memberID uuid.UUID, lead bool) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE team_members SET is_lead = $1
		WHERE id = $2 AND idea_id = $3
	`, lead, memberID, ideaID)
	if err != nil {
		return fmt.Errorf("failed to update lead flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// RemoveMember deletes a member together with its sub-roles and recounts
// the idea's slots.
func (s *TeamService) RemoveMember(ctx context.Context, ideaID, memberID uuid.UUID) error {
	return s.deleteMember(ctx, ideaID, `DELETE FROM team_members WHERE idea_id = $1 AND id = $2`, memberID)
}

// LeaveTeam removes the caller's own membership.
func (s *TeamService) LeaveTeam(ctx context.Context, ideaID, userID uuid.UUID) error {
	return s.deleteMember(ctx, ideaID, `DELETE FROM team_members WHERE idea_id = $1 AND user_id = $2`, userID)
}

func (s *TeamService) deleteMember(ctx context.Context, ideaID uuid.UUID, query string, key uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockIdea(ctx, tx, ideaID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, query, ideaID, key)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}

	if _, err := tx.Exec(ctx, recountSlotsSQL, ideaID); err != nil {
		return fmt.Errorf("failed to recount slots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AddRoleSlot declares a new slot. Members already holding the role are
// counted into it immediately.
func (s *TeamService) AddRoleSlot(ctx context.Context, ideaID uuid.UUID, slot models.RoleSlot) (*models.RoleSlot, error) {
	if slot.RequiredSkills == nil {
		slot.RequiredSkills = []string{}
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockIdea(ctx, tx, ideaID); err != nil {
		return nil, err
	}

	created := slot
	created.IdeaID = ideaID
	err = tx.QueryRow(ctx, `
		INSERT INTO role_slots (idea_id, role_type, description, required_skills, is_core, max_positions, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, ideaID, slot.RoleType, slot.Description, slot.RequiredSkills, slot.IsCore, slot.MaxPositions, slot.Priority).Scan(&created.ID)
	if err != nil {
		return nil, mapConstraint(err, "failed to create role slot")
	}

	if _, err := tx.Exec(ctx, recountSlotsSQL, ideaID); err != nil {
		return nil, mapConstraint(err, "failed to recount slots")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &created, nil
}

// RemoveRoleSlot deletes an unoccupied slot.
func (s *TeamService) RemoveRoleSlot(ctx context.Context, ideaID, slotID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM role_slots
		WHERE id = $1 AND idea_id = $2 AND current_positions = 0
	`, slotID, ideaID)
	if err != nil {
		return fmt.Errorf("failed to remove role slot: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM role_slots WHERE id = $1 AND idea_id = $2)
	`, slotID, ideaID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrSlotOccupied
	}
	return ErrSlotNotFound
}

// Execute persists a resolution or assignment plan. The team is re-read
// under the idea's row lock and the plan re-applied to it first, so a plan
// built from a stale view fails with team.ErrStalePlan instead of writing.
func (s *TeamService) Execute(ctx context.Context, plan *team.Plan) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockIdea(ctx, tx, plan.IdeaID); err != nil {
		return err
	}

	current, err := loadSnapshot(ctx, tx, plan.IdeaID)
	if err != nil {
		return err
	}
	if _, err := team.Apply(current, plan); err != nil {
		return err
	}

	m := plan.NewMember
	_, err = tx.Exec(ctx, `
		INSERT INTO team_members (id, idea_id, user_id, assigned_role, is_lead, parent_id, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, plan.IdeaID, m.User.ID, m.AssignedRole, m.IsLead, m.ParentID, m.AssignedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAlreadyMember
		}
		return fmt.Errorf("failed to add member: %w", err)
	}

	if plan.RemoveMember != nil {
		if plan.OrphanPolicy == team.OrphanReassign {
			_, err = tx.Exec(ctx, `UPDATE team_members SET parent_id = $1 WHERE parent_id = $2`, m.ID, plan.RemoveMember.ID)
			if err != nil {
				return fmt.Errorf("failed to reassign sub-roles: %w", err)
			}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM team_members WHERE id = $1 AND idea_id = $2`, plan.RemoveMember.ID, plan.IdeaID)
		if err != nil {
			return fmt.Errorf("failed to remove replaced member: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return team.ErrStalePlan
		}
	}

	if plan.SlotID != nil && plan.MaxPositionsDelta != 0 {
		tag, err := tx.Exec(ctx, `
			UPDATE role_slots SET max_positions = max_positions + $1
			WHERE id = $2 AND idea_id = $3
		`, plan.MaxPositionsDelta, *plan.SlotID, plan.IdeaID)
		if err != nil {
			return mapConstraint(err, "failed to resize role slot")
		}
		if tag.RowsAffected() == 0 {
			return team.ErrStalePlan
		}
	}

	if _, err := tx.Exec(ctx, recountSlotsSQL, plan.IdeaID); err != nil {
		return mapConstraint(err, "failed to recount slots")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecountAll recomputes current_positions for every slot and widens
// max_positions where stored data had drifted past it.
func (s *TeamService) RecountAll(ctx context.Context) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		WITH counts AS (
			SELECT rs.id, (
				SELECT COUNT(*) FROM team_members tm
				WHERE tm.idea_id = rs.idea_id AND tm.parent_id IS NULL
				  AND LOWER(tm.assigned_role) = LOWER(rs.role_type)
			) AS filled
			FROM role_slots rs
		)
		UPDATE role_slots rs
		SET current_positions = counts.filled,
		    max_positions = GREATEST(rs.max_positions, counts.filled)
		FROM counts
		WHERE counts.id = rs.id
		  AND (rs.current_positions <> counts.filled OR rs.max_positions < counts.filled)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to recount slots: %w", err)
	}
	return tag.RowsAffected(), nil
}

func lockIdea(ctx context.Context, tx pgx.Tx, ideaID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM ideas WHERE id = $1 FOR UPDATE`, ideaID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrIdeaNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock idea: %w", err)
	}
	return nil
}

func mapConstraint(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrRoleExists
		case pgCheckViolation:
			return team.ErrCapacityExceeded
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
