package users

import (
	"net/http"
	"strconv"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/audiobookroom/audiobookroom/pkg/pagination"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	userService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Create(ctx, CreateUserOptions{
		Username:             params.Username,
		Password:             params.Password,
		RoleID:               params.RoleID,
		RequirePasswordReset: params.RequirePasswordReset,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, user))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	user, err := h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListUsersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	users, total, err := h.userService.List(ctx, ListOptions{
		Limit:  params.Limit(),
		Offset: params.Offset(),
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, pagination.New(params.Query, users, total)))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	params := UpdateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	opts := UpdateOptions{Columns: []string{}}

	if params.Username != nil && *params.Username != user.Username {
		user.Username = *params.Username
		opts.Columns = append(opts.Columns, "username")
	}
	if params.RoleID != nil && *params.RoleID != user.RoleID {
		user.RoleID = *params.RoleID
		opts.Columns = append(opts.Columns, "role_id")
	}
	if params.IsActive != nil && *params.IsActive != user.IsActive {
		currentUserID, _ := c.Get("user_id").(int)
		if currentUserID == id && !*params.IsActive {
			return errcodes.ValidationError("You cannot deactivate your own account")
		}
		user.IsActive = *params.IsActive
		opts.Columns = append(opts.Columns, "is_active")
	}

	err = h.userService.Update(ctx, user, opts)
	if err != nil {
		return err
	}

	user, err = h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) resetPassword(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	params := ResetPasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	currentUserID, _ := c.Get("user_id").(int)
	isSelf := currentUserID == id

	forcedReset := false
	if current, ok := c.Get("user").(*models.User); ok {
		forcedReset = current.MustChangePassword
	}

	if isSelf && !forcedReset {
		if params.CurrentPassword == nil || *params.CurrentPassword == "" {
			return errcodes.ValidationError("Current password is required when resetting your own password")
		}

		valid, err := h.userService.VerifyPassword(ctx, id, *params.CurrentPassword)
		if err != nil {
			return err
		}
		if !valid {
			return errcodes.ValidationError("Current password is incorrect")
		}
	}
	if isSelf {
		// Changing your own password always clears the forced-reset flag.
		params.RequirePasswordReset = false
	} else {
		user, ok := c.Get("user").(*models.User)
		if !ok {
			return errcodes.Unauthorized("Authentication required")
		}
		if !user.HasPermission(models.ResourceUsers, models.OperationWrite) {
			return errcodes.Forbidden("Resetting another user's password")
		}
		if _, err := h.userService.Retrieve(ctx, id); err != nil {
			return err
		}
	}

	err = h.userService.ResetPassword(ctx, id, params.NewPassword, params.RequirePasswordReset)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Password reset successfully"}))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	currentUserID, _ := c.Get("user_id").(int)
	if currentUserID == id {
		return errcodes.ValidationError("You cannot delete your own account")
	}

	err = h.userService.Delete(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
