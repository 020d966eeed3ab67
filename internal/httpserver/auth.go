package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/budget_api/internal/logging"
	"github.com/Skotchmaster/budget_api/internal/middleware"
	"github.com/Skotchmaster/budget_api/internal/service"
	"github.com/Skotchmaster/budget_api/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) SignUp(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.sign_up")

	var req transport.SignUpRequest
	if err := bindAndValidate(c, l, "sign_up_error", &req); err != nil {
		return err
	}

	res, err := h.Svc.Register(ctx, req.Input())
	if err != nil {
		return mapError(l, "sign_up_error", err)
	}

	l.Info("sign_up_success")
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHTTP) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.sign_in")

	var req transport.SignInRequest
	if err := bindAndValidate(c, l, "sign_in_error", &req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return mapError(l, "sign_in_error", err)
	}

	l.Info("sign_in_success")
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshRequest
	if err := bindAndValidate(c, l, "refresh_error", &req); err != nil {
		return err
	}

	pair, err := h.Svc.Refresh(ctx, req.Token)
	if err != nil {
		return mapError(l, "refresh_error", err)
	}

	l.Info("refresh_success")
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var req transport.LogoutRequest
	if err := bindAndValidate(c, l, "logout_error", &req); err != nil {
		return err
	}

	if err := h.Svc.Logout(ctx, req.Email); err != nil {
		return mapError(l, "logout_error", err)
	}

	l.Info("logout_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: service.LogoutMessage})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	user, err := h.Svc.Me(ctx, middleware.EmailFromContext(c))
	if err != nil {
		return mapError(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) Users(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.users")

	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		return mapError(l, "list_users_error", err)
	}
	return c.JSON(http.StatusOK, users)
}
