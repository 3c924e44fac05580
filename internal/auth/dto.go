package auth

import (
	"github.com/google/uuid"

	"github.com/replate-app/replate-backend/pkg/enums"
)

// RegisterRequest contains the payload for creating a new account.
type RegisterRequest struct {
	FirstName string         `json:"first_name" validate:"required"`
	LastName  string         `json:"last_name" validate:"required"`
	Email     string         `json:"email" validate:"required,email"`
	Password  string         `json:"password" validate:"required,min=8"`
	Role      enums.UserRole `json:"role" validate:"required"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserSummary is the account view returned by auth endpoints.
type UserSummary struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Role      enums.UserRole `json:"role"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	AccessToken    string     `json:"access_token"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	User           UserSummary `json:"user"`
}
