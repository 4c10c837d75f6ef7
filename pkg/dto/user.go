package dto

import "github.com/google/uuid"

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
}

type UpdateUserRequest struct {
	Name      string  `json:"name" validate:"required,max=255"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

type UserRefResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Avatar      *string   `json:"avatar,omitempty"`
}
