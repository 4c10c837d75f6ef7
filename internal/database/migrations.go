package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(500),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS ideas (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		title VARCHAR(255) NOT NULL,
		author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		privacy VARCHAR(20) NOT NULL DEFAULT 'Public',
		nda_protected BOOLEAN NOT NULL DEFAULT FALSE,
		max_team_size INTEGER NOT NULL DEFAULT 10,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (privacy IN ('Public', 'Team', 'Private'))
	)`,

	`CREATE TABLE IF NOT EXISTS role_slots (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		idea_id UUID NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
		role_type VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		required_skills TEXT[] NOT NULL DEFAULT '{}',
		is_core BOOLEAN NOT NULL DEFAULT TRUE,
		max_positions INTEGER NOT NULL DEFAULT 1,
		current_positions INTEGER NOT NULL DEFAULT 0,
		priority VARCHAR(20) NOT NULL DEFAULT 'medium',
		application_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (max_positions >= 1),
		CHECK (current_positions >= 0 AND current_positions <= max_positions)
	)`,

	// One slot per role name per idea; role matching is case-insensitive
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_role_slots_idea_role ON role_slots(idea_id, LOWER(role_type))`,

	`CREATE TABLE IF NOT EXISTS team_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		idea_id UUID NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		assigned_role VARCHAR(100) NOT NULL,
		is_lead BOOLEAN NOT NULL DEFAULT FALSE,
		parent_id UUID REFERENCES team_members(id) ON DELETE CASCADE,
		assigned_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(idea_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS approaches (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		idea_id UUID NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
		applicant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(100) NOT NULL,
		description TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ideas_author_id ON ideas(author_id)`,
	`CREATE INDEX IF NOT EXISTS idx_role_slots_idea_id ON role_slots(idea_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_idea_id ON team_members(idea_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_parent_id ON team_members(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_approaches_idea_id ON approaches(idea_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
