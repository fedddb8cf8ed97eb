package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/etherealapi/identity-platform/internal/api/middleware"
	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

// UserHandler exposes the platform-user surface: registration, session
// management, profile updates, deactivation and the follow graph.
type UserHandler struct {
	users  ports.UserService
	parser middleware.CookieParser
}

func NewUserHandler(users ports.UserService, parser middleware.CookieParser) *UserHandler {
	return &UserHandler{users: users, parser: parser}
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type updateUsernameRequest struct {
	Username string `json:"username" validate:"required"`
}

type updateNameRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type followAppRequest struct {
	Alias string `json:"alias"`
}

// CreateUser registers a platform user.
//
// @Summary      Register a platform user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Registration details"
// @Success      201
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.CreateUser(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusCreated)
}

// SignIn authenticates a user and sets the session cookie.
//
// @Summary      Sign in
// @Tags         users
// @Accept       json
// @Success      204
// @Failure      401   {object}  map[string]string
// @Router       /users/sign-in [post]
func (h *UserHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	session, err := h.users.SignIn(ctx, req.Email, req.Password, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return err
	}

	cookie, err := h.users.SessionCookie(ctx, session.ID)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		Expires:  cookie.ExpiresAt,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return c.NoContent(http.StatusNoContent)
}

// SignOut terminates the caller's session and clears the cookie.
//
// @Summary      Sign out
// @Tags         users
// @Success      204
// @Failure      401   {object}  map[string]string
// @Router       /users/sign-out [post]
func (h *UserHandler) SignOut(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	if err := h.users.SignOut(c.Request().Context(), sessionID); err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
	})
	return c.NoContent(http.StatusNoContent)
}

// SessionStatus probes whether the caller's session is alive. The probe
// never fails: a missing or unparseable cookie reads as "not alive".
//
// @Summary      Session status
// @Tags         users
// @Produce      json
// @Success      200   {object}  ports.SessionStatus
// @Router       /users/session [get]
func (h *UserHandler) SessionStatus(c echo.Context) error {
	status := ports.SessionStatus{IsSessionAlive: false}

	cookie, err := c.Cookie(domain.SessionCookieName)
	if err == nil {
		if sessionID, parseErr := h.parser.ParseCookie(cookie.Name + "=" + cookie.Value); parseErr == nil {
			status = h.users.SessionStatus(c.Request().Context(), sessionID)
		}
	}
	return c.JSON(http.StatusOK, status)
}

// GetUser returns the caller's own account.
//
// @Summary      Get own account
// @Tags         users
// @Produce      json
// @Success      200   {object}  domain.User
// @Failure      401   {object}  map[string]string
// @Router       /users/me [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetUser(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateEmail changes the caller's email address.
//
// @Summary      Update email
// @Tags         users
// @Accept       json
// @Success      204
// @Router       /users/me/email [patch]
func (h *UserHandler) UpdateEmail(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	var req updateEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.UpdateEmail(c.Request().Context(), sessionID, req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateUsername changes the caller's username.
//
// @Summary      Update username
// @Tags         users
// @Accept       json
// @Success      204
// @Router       /users/me/username [patch]
func (h *UserHandler) UpdateUsername(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	var req updateUsernameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.UpdateUsername(c.Request().Context(), sessionID, req.Username); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateName changes the caller's first and last name.
//
// @Summary      Update name
// @Tags         users
// @Accept       json
// @Success      204
// @Router       /users/me/name [patch]
func (h *UserHandler) UpdateName(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	var req updateNameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.UpdateName(c.Request().Context(), sessionID, req.FirstName, req.LastName); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword rotates the caller's password after verifying the old one.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Success      204
// @Failure      401   {object}  map[string]string
// @Router       /users/me/password [patch]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.ChangePassword(c.Request().Context(), sessionID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeactivateUser soft-deletes the caller's account and fans out the
// cascading cleanup.
//
// @Summary      Deactivate account
// @Tags         users
// @Success      204
// @Router       /users/me [delete]
func (h *UserHandler) DeactivateUser(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	if err := h.users.DeactivateUser(c.Request().Context(), sessionID); err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
	})
	return c.NoContent(http.StatusNoContent)
}

// FollowApp creates or revives the caller's follow record for an app.
//
// @Summary      Follow an application
// @Tags         users
// @Accept       json
// @Success      201
// @Failure      409   {object}  map[string]string
// @Router       /users/me/apps/{appName} [post]
func (h *UserHandler) FollowApp(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	var req followAppRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.users.FollowApp(c.Request().Context(), sessionID, c.Param("appName"), req.Alias); err != nil {
		return err
	}
	return c.NoContent(http.StatusCreated)
}

// UnfollowApp deactivates the caller's follow record for an app.
//
// @Summary      Unfollow an application
// @Tags         users
// @Success      204
// @Failure      404   {object}  map[string]string
// @Router       /users/me/apps/{appName} [delete]
func (h *UserHandler) UnfollowApp(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	if err := h.users.UnfollowApp(c.Request().Context(), sessionID, c.Param("appName")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAppUser returns the caller's follow record for an app.
//
// @Summary      Get own app-user record
// @Tags         users
// @Produce      json
// @Success      200   {object}  ports.AppUserView
// @Failure      404   {object}  map[string]string
// @Router       /users/me/apps/{appName} [get]
func (h *UserHandler) GetAppUser(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	view, err := h.users.GetAppUser(c.Request().Context(), sessionID, c.Param("appName"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// GetAppURL returns the URL of an app the caller follows.
//
// @Summary      Get followed app URL
// @Tags         users
// @Produce      json
// @Success      200   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /users/me/apps/{appName}/url [get]
func (h *UserHandler) GetAppURL(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	appURL, err := h.users.GetAppURL(c.Request().Context(), sessionID, c.Param("appName"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"url": appURL})
}

// FollowedApps lists the apps the caller actively follows.
//
// @Summary      List followed applications
// @Tags         users
// @Produce      json
// @Success      200   {array}  ports.AppView
// @Router       /users/me/apps [get]
func (h *UserHandler) FollowedApps(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	views, err := h.users.FollowedApps(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// AppsForUser lists every registered app annotated with the caller's follow
// state.
//
// @Summary      List applications with follow state
// @Tags         users
// @Produce      json
// @Success      200   {array}  ports.RelatedAppView
// @Router       /users/me/related-apps [get]
func (h *UserHandler) AppsForUser(c echo.Context) error {
	sessionID, err := ctxSessionID(c)
	if err != nil {
		return err
	}

	views, err := h.users.AppsForUser(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}
