package auth

// LoginPayload represents the login request body.
type LoginPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

// SetupPayload is used both for the first admin and for listener signup.
type SetupPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

// StatusResponse represents the auth status response.
type StatusResponse struct {
	HaveUser   bool `json:"have_user"`
	NeedsSetup bool `json:"needs_setup"`
}

// MeResponse represents the current user response.
type MeResponse struct {
	ID                 int      `json:"id"`
	Username           string   `json:"username"`
	RoleID             int      `json:"role_id"`
	RoleName           string   `json:"role_name"`
	Permissions        []string `json:"permissions"`
	MustChangePassword bool     `json:"must_change_password"`
}
