package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/budget_api/internal/logging"
	"github.com/Skotchmaster/budget_api/internal/tokens"
)

const ContextEmailKey = "email"

var ErrUnauthorized = errors.New("unauthorized")

// CheckBearerToken verifies the Authorization header as an access token and
// returns its claims. Every failure is the same ErrUnauthorized.
func CheckBearerToken(r *http.Request, svc *tokens.Service) (*tokens.Claims, error) {
	header := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return nil, ErrUnauthorized
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := svc.Verify(token, tokens.KindAccess)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

type BearerAuth struct {
	Tokens *tokens.Service
}

func NewBearerAuth(svc *tokens.Service) *BearerAuth {
	return &BearerAuth{Tokens: svc}
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := CheckBearerToken(c.Request(), m.Tokens)
		if err != nil {
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 401, "reason", "invalid bearer token")
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}

		c.Set(ContextEmailKey, claims.Email)
		return next(c)
	}
}

// EmailFromContext returns the email RequireAuth stored for the request.
func EmailFromContext(c echo.Context) string {
	email, _ := c.Get(ContextEmailKey).(string)
	return email
}
