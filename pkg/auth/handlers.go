package auth

import (
	"net/http"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "audiobookroom_session"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = 7 * 24 * time.Hour // 7 days
)

type handler struct {
	authService *Service
}

func buildMeResponse(user *models.User) MeResponse {
	permissions := make([]string, 0)
	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
		for _, p := range user.Role.Permissions {
			permissions = append(permissions, p.Resource+":"+p.Operation)
		}
	}

	return MeResponse{
		ID:                 user.ID,
		Username:           user.Username,
		RoleID:             user.RoleID,
		RoleName:           roleName,
		Permissions:        permissions,
		MustChangePassword: user.MustChangePassword,
	}
}

func sessionCookie(c echo.Context, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *handler) startSession(c echo.Context, user *models.User) error {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}
	c.SetCookie(sessionCookie(c, token, int(CookieMaxAge.Seconds())))
	return errors.WithStack(c.JSON(http.StatusOK, buildMeResponse(user)))
}

func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		return err
	}

	return h.startSession(c, user)
}

func (h *handler) logout(c echo.Context) error {
	c.SetCookie(sessionCookie(c, "", -1))
	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"}))
}

// me runs behind Authenticate.
func (h *handler) me(c echo.Context) error {
	user, ok := GetUserFromContext(c)
	if !ok {
		return errors.New("user missing from authenticated context")
	}
	return errors.WithStack(c.JSON(http.StatusOK, buildMeResponse(user)))
}

func (h *handler) status(c echo.Context) error {
	ctx := c.Request().Context()

	count, err := h.authService.CountUsers(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, StatusResponse{
		HaveUser:   count > 0,
		NeedsSetup: count == 0,
	}))
}

func (h *handler) setup(c echo.Context) error {
	ctx := c.Request().Context()

	params := SetupPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.CreateFirstAdmin(ctx, params.Username, params.Password)
	if err != nil {
		return err
	}

	return h.startSession(c, user)
}

func (h *handler) signup(c echo.Context) error {
	ctx := c.Request().Context()

	params := SetupPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Signup(ctx, params.Username, params.Password)
	if err != nil {
		return err
	}

	return h.startSession(c, user)
}
