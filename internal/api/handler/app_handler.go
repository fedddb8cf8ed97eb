package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/etherealapi/identity-platform/internal/core/ports"
)

// AppHandler exposes the application surface: registration with access-key
// issuance, key reset, public lookups and the key-authenticated account
// operations.
type AppHandler struct {
	apps ports.AppService
}

func NewAppHandler(apps ports.AppService) *AppHandler {
	return &AppHandler{apps: apps}
}

type registerAppRequest struct {
	Name  string `json:"name" validate:"required"`
	URL   string `json:"url" validate:"required,url"`
	Email string `json:"email" validate:"required,email"`
}

type resetKeysRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	BackupCode string `json:"backup_code" validate:"required"`
}

type updateAppNameRequest struct {
	Name string `json:"name" validate:"required"`
}

type updateAppURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type updateAppEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RegisterApp registers an application and returns its access-key pair and
// backup code. This is the only time the pair is ever shown.
//
// @Summary      Register an application
// @Tags         apps
// @Accept       json
// @Produce      json
// @Param        body  body      registerAppRequest  true  "Application details"
// @Success      201   {object}  domain.AccessKeys
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /apps [post]
func (h *AppHandler) RegisterApp(c echo.Context) error {
	var req registerAppRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	keys, err := h.apps.RegisterApp(c.Request().Context(), req.Name, req.Email, req.URL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, keys)
}

// ResetAccessKeys rotates an application's key pair using the contact email
// and backup code.
//
// @Summary      Reset access keys
// @Tags         apps
// @Accept       json
// @Produce      json
// @Param        body  body      resetKeysRequest  true  "Reset credentials"
// @Success      200   {object}  domain.AccessKeys
// @Failure      401   {object}  map[string]string
// @Router       /apps/reset-keys [post]
func (h *AppHandler) ResetAccessKeys(c echo.Context) error {
	var req resetKeysRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	keys, err := h.apps.ResetAccessKeys(c.Request().Context(), req.Name, req.Email, req.BackupCode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, keys)
}

// GetApp returns the public view of an application.
//
// @Summary      Get application
// @Tags         apps
// @Produce      json
// @Success      200   {object}  ports.AppView
// @Failure      404   {object}  map[string]string
// @Router       /apps/{appName} [get]
func (h *AppHandler) GetApp(c echo.Context) error {
	view, err := h.apps.GetApp(c.Request().Context(), c.Param("appName"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// ListApps returns the public view of every active application.
//
// @Summary      List applications
// @Tags         apps
// @Produce      json
// @Success      200   {array}  ports.AppView
// @Router       /apps [get]
func (h *AppHandler) ListApps(c echo.Context) error {
	views, err := h.apps.ListApps(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// GetAppAccount returns the calling application's own account.
//
// @Summary      Get own application account
// @Tags         apps
// @Produce      json
// @Success      200   {object}  ports.AppAccountView
// @Failure      401   {object}  map[string]string
// @Router       /apps/me [get]
func (h *AppHandler) GetAppAccount(c echo.Context) error {
	keys, err := ctxAccessKeys(c)
	if err != nil {
		return err
	}

	view, err := h.apps.GetAppAccount(c.Request().Context(), keys)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateAppName changes the calling application's name.
//
// @Summary      Update application name
// @Tags         apps
// @Accept       json
// @Success      204
// @Router       /apps/me/name [patch]
func (h *AppHandler) UpdateAppName(c echo.Context) error {
	keys, err := ctxAccessKeys(c)
	if err != nil {
		return err
	}

	var req updateAppNameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.apps.UpdateAppName(c.Request().Context(), keys, req.Name); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateAppURL changes the calling application's URL.
//
// @Summary      Update application URL
// @Tags         apps
// @Accept       json
// @Success      204
// @Router       /apps/me/url [patch]
func (h *AppHandler) UpdateAppURL(c echo.Context) error {
	keys, err := ctxAccessKeys(c)
	if err != nil {
		return err
	}

	var req updateAppURLRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.apps.UpdateAppURL(c.Request().Context(), keys, req.URL); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateAppEmail changes the calling application's contact email.
//
// @Summary      Update application email
// @Tags         apps
// @Accept       json
// @Success      204
// @Router       /apps/me/email [patch]
func (h *AppHandler) UpdateAppEmail(c echo.Context) error {
	keys, err := ctxAccessKeys(c)
	if err != nil {
		return err
	}

	var req updateAppEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.apps.UpdateAppEmail(c.Request().Context(), keys, req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeactivateApp soft-deletes the calling application and invalidates its
// access keys.
//
// @Summary      Deactivate application
// @Tags         apps
// @Success      204
// @Router       /apps/me [delete]
func (h *AppHandler) DeactivateApp(c echo.Context) error {
	keys, err := ctxAccessKeys(c)
	if err != nil {
		return err
	}

	if err := h.apps.DeactivateApp(c.Request().Context(), keys); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAppUsers lists the active followers of the calling application.
//
// @Summary      List application users
// @Tags         apps
// @Produce      json
// @Success      200   {array}  ports.AppUserView
// @Failure      401   {object}  map[string]string
// @Router       /apps/me/users [get]
func (h *AppHandler) GetAppUsers(c echo.Context) error {
	keys, err := ctxAccessKeys(c)
	if err != nil {
		return err
	}

	views, err := h.apps.GetAppUsers(c.Request().Context(), keys)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}
