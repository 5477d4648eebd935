package users

import "github.com/audiobookroom/audiobookroom/pkg/pagination"

// CreateUserPayload represents the request body for creating a user.
type CreateUserPayload struct {
	Username             string `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Password             string `json:"password" validate:"required,min=8"`
	RoleID               int    `json:"role_id" validate:"required"`
	RequirePasswordReset bool   `json:"require_password_reset"`
}

// UpdateUserPayload represents the request body for updating a user.
type UpdateUserPayload struct {
	Username *string `json:"username" mod:"trim" validate:"omitempty,min=3,max=50"`
	RoleID   *int    `json:"role_id"`
	IsActive *bool   `json:"is_active"`
}

// ResetPasswordPayload represents the request body for resetting a password.
type ResetPasswordPayload struct {
	CurrentPassword      *string `json:"current_password"`
	NewPassword          string  `json:"new_password" validate:"required,min=8"`
	RequirePasswordReset bool    `json:"require_password_reset"`
}

// ListUsersQuery represents the query parameters for listing users.
type ListUsersQuery struct {
	pagination.Query
}
