package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref returns the canonical reference used inside team snapshots.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, DisplayName: u.Name, Avatar: u.AvatarURL}
}

// UserRef is the single shape a user takes once it has crossed the
// normalization boundary.
type UserRef struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Avatar      *string   `json:"avatar,omitempty"`
}
