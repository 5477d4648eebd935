package roles

import (
	"net/http"
	"strconv"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	roleService *Service
}

func (h *handler) list(c echo.Context) error {
	roles, err := h.roleService.ListRoles(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Roles []*models.Role `json:"roles"`
	}{roles}
	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Role")
	}

	role, err := h.roleService.RetrieveRole(c.Request().Context(), RetrieveRoleOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, role))
}

func (h *handler) create(c echo.Context) error {
	params := CreateRolePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	role, err := h.roleService.CreateRole(c.Request().Context(), params.Name, params.Permissions)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusCreated, role))
}

func (h *handler) setPermissions(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Role")
	}

	params := SetPermissionsPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	role, err := h.roleService.SetPermissions(c.Request().Context(), id, params.Permissions)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, role))
}

func (h *handler) delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Role")
	}

	if err := h.roleService.DeleteRole(c.Request().Context(), id); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
