package auth

import (
	"net/http"
	"strconv"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/labstack/echo/v4"
)

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate extracts and validates the JWT from the cookie.
// If valid, it verifies the user is still active and adds user info to the context.
// If not authenticated, it returns 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		cookie, err := c.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		claims, err := m.authService.ValidateToken(cookie.Value)
		if err != nil {
			return errcodes.Unauthorized("Invalid or expired token")
		}

		user, err := m.authService.GetUserByID(ctx, claims.UserID)
		if err != nil {
			return errcodes.Unauthorized("User not found or inactive")
		}

		if user.MustChangePassword && !isSelfPasswordResetRequest(c, user.ID) {
			return errcodes.PasswordResetRequired()
		}

		c.Set("user_id", user.ID)
		c.Set("username", user.Username)
		c.Set("user", user)

		return next(c)
	}
}

// RequirePermission returns middleware that checks if the user has the required permission.
// Must be used after Authenticate middleware.
func (m *Middleware) RequirePermission(resource, operation string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get("user").(*models.User)
			if !ok {
				return errcodes.Unauthorized("Authentication required")
			}

			if !user.HasPermission(resource, operation) {
				return errcodes.Forbidden("Trying to " + operation + " " + resource)
			}

			return next(c)
		}
	}
}

func isSelfPasswordResetRequest(c echo.Context, userID int) bool {
	if c.Request().Method != http.MethodPost {
		return false
	}

	path := c.Path()
	if path == "" {
		path = c.Request().URL.Path
	}
	if path != "/users/:id/reset-password" {
		return false
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return false
	}

	return id == userID
}

// GetUserFromContext retrieves the user set by Authenticate.
func GetUserFromContext(c echo.Context) (*models.User, bool) {
	user, ok := c.Get("user").(*models.User)
	return user, ok
}

// GetUserIDFromContext retrieves the user ID from the Echo context.
func GetUserIDFromContext(c echo.Context) (int, bool) {
	userID, ok := c.Get("user_id").(int)
	return userID, ok
}
