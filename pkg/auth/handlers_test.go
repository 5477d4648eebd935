package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/audiobookroom/audiobookroom/pkg/binder"
	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/migrations"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestContext(t *testing.T, payload, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func sessionCookieFrom(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", CookieName)
	return nil
}

func TestHandler_Setup_CreatesAdmin(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	c, rr := newTestContext(t, `{"username":"admin","password":"securepassword123"}`, http.MethodPost, "/auth/setup")
	require.NoError(t, h.setup(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "admin", resp.Username)
	assert.Equal(t, models.RoleAdmin, resp.RoleName)
	assert.Contains(t, resp.Permissions, "users:write")

	cookie := sessionCookieFrom(t, rr)
	assert.True(t, cookie.HttpOnly)
	claims, err := svc.ValidateToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.UserID)
}

func TestHandler_Setup_RejectsWhenUsersExist(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	_, err := svc.CreateFirstAdmin(context.Background(), "existingadmin", "securepassword123")
	require.NoError(t, err)

	c, _ := newTestContext(t, `{"username":"newadmin","password":"securepassword123"}`, http.MethodPost, "/auth/setup")
	err = h.setup(c)
	require.Error(t, err)

	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusForbidden, errResp.HTTPCode)
	assert.Contains(t, errResp.Message, "Setup")
}

func TestHandler_Signup_CreatesListener(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	c, rr := newTestContext(t, `{"username":"reader","password":"securepassword123"}`, http.MethodPost, "/auth/signup")
	require.NoError(t, h.signup(c))

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.RoleListener, resp.RoleName)
	assert.Contains(t, resp.Permissions, "progress:write")
	assert.NotContains(t, resp.Permissions, "books:write")

	c, _ = newTestContext(t, `{"username":"READER","password":"securepassword123"}`, http.MethodPost, "/auth/signup")
	err := h.signup(c)
	var errResp *errcodes.Error
	require.ErrorAs(t, err, &errResp)
	assert.Equal(t, http.StatusConflict, errResp.HTTPCode)
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	_, err := svc.Signup(context.Background(), "reader", "securepassword123")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		c, _ := newTestContext(t, `{"username":"reader","password":"wrongpassword"}`, http.MethodPost, "/auth/login")
		err := h.login(c)
		var errResp *errcodes.Error
		require.ErrorAs(t, err, &errResp)
		assert.Equal(t, http.StatusUnauthorized, errResp.HTTPCode)
	})

	t.Run("username is case-insensitive", func(t *testing.T) {
		c, rr := newTestContext(t, `{"username":"Reader","password":"securepassword123"}`, http.MethodPost, "/auth/login")
		require.NoError(t, h.login(c))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, sessionCookieFrom(t, rr).Value)
	})
}

func TestHandler_Login_ReturnsMustChangePassword(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	user, err := svc.Signup(context.Background(), "resetme", "securepassword123")
	require.NoError(t, err)
	_, err = db.NewUpdate().
		Model((*models.User)(nil)).
		Set("must_change_password = ?", true).
		Where("id = ?", user.ID).
		Exec(context.Background())
	require.NoError(t, err)

	c, rr := newTestContext(t, `{"username":"resetme","password":"securepassword123"}`, http.MethodPost, "/auth/login")
	require.NoError(t, h.login(c))

	var resp MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.MustChangePassword)
}

func TestHandler_Status(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, "test-jwt-secret")
	h := &handler{authService: svc}

	c, rr := newTestContext(t, "", http.MethodGet, "/auth/status")
	require.NoError(t, h.status(c))
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.HaveUser)
	assert.True(t, resp.NeedsSetup)

	_, err := svc.CreateFirstAdmin(context.Background(), "admin", "securepassword123")
	require.NoError(t, err)

	c, rr = newTestContext(t, "", http.MethodGet, "/auth/status")
	require.NoError(t, h.status(c))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.HaveUser)
}

func TestHandler_Logout_ClearsCookie(t *testing.T) {
	t.Parallel()
	h := &handler{}

	c, rr := newTestContext(t, "", http.MethodPost, "/auth/logout")
	require.NoError(t, h.logout(c))
	cookie := sessionCookieFrom(t, rr)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}
