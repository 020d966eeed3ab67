package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/budget_api/internal/events"
	"github.com/Skotchmaster/budget_api/internal/hash"
	"github.com/Skotchmaster/budget_api/internal/logging"
	"github.com/Skotchmaster/budget_api/internal/models"
	"github.com/Skotchmaster/budget_api/internal/tokens"
)

const LogoutMessage = "Logged out successfully"

type AuthService struct {
	Repo       UserRepo
	Tokens     *tokens.Service
	Events     events.Publisher
	BcryptCost int
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type AuthResult struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := NormalizeEmail(in.Email)
	l := logging.FromContext(ctx).With("svc", "auth.register", "email", email)

	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	_, err := s.Repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		l.Warn("register_failed", "status", 409, "reason", "email already registered")
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		l.Error("register_failed", "status", 500, "reason", "cannot look up user", "error", err)
		return nil, err
	}

	pwHash, err := hash.HashPassword(in.Password, s.BcryptCost)
	if errors.Is(err, hash.ErrPasswordTooLong) {
		l.Warn("register_failed", "status", 400, "reason", "password too long")
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	pair, err := s.Tokens.IssuePair(email)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: pwHash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		RefreshToken: &pair.RefreshToken,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			l.Warn("register_failed", "status", 409, "reason", "email already registered", "error", err)
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		l.Error("register_failed", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, user.ID.String(), map[string]any{
		"type":   "user_registered",
		"userId": user.ID,
		"email":  user.Email,
	})

	l.Info("register_success", "user_id", user.ID)
	return &AuthResult{
		User:         user.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Login fails with the same ErrInvalidCredentials for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "reason", "cannot look up user", "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.Tokens.IssuePair(email)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	if err := s.Repo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, user.ID.String(), map[string]any{
		"type":   "user_logged_in",
		"userId": user.ID,
	})

	l.Info("login_success", "user_id", user.ID)
	return &AuthResult{
		User:         user.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh rotates the stored refresh token. A token that was already rotated away
// no longer matches and is rejected.
func (s *AuthService) Refresh(ctx context.Context, token string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Tokens.Verify(token, tokens.KindRefresh)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token", "error", err)
		return nil, ErrUnauthorized
	}

	user, err := s.Repo.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "user not found")
			return nil, ErrUnauthorized
		}
		l.Error("refresh_failed", "status", 500, "reason", "cannot look up user", "error", err)
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != token {
		l.Warn("refresh_failed", "status", 401, "reason", "stale refresh token", "user_id", user.ID)
		return nil, ErrUnauthorized
	}

	pair, err := s.Tokens.IssuePair(user.Email)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	swapped, err := s.Repo.RotateRefreshToken(ctx, user.ID, token, pair.RefreshToken)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}
	if !swapped {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token rotated concurrently", "user_id", user.ID)
		return nil, ErrUnauthorized
	}

	l.Info("refresh_success", "user_id", user.ID)
	return &pair, nil
}

// Logout is idempotent: an unknown email or an absent session still succeeds.
func (s *AuthService) Logout(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.logout", "email", email)

	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}

	if err := s.Repo.ClearRefreshToken(ctx, email); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot clear refresh token", "error", err)
		return err
	}

	publish(ctx, s.Events, events.TopicUsers, email, map[string]any{
		"type":  "user_logged_out",
		"email": email,
	})

	l.Info("logout_success")
	return nil
}

func (s *AuthService) Me(ctx context.Context, email string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.me")

	user, err := s.Repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("me_failed", "status", 401, "reason", "user not found")
			return nil, ErrUnauthorized
		}
		l.Error("me_failed", "status", 500, "reason", "cannot look up user", "error", err)
		return nil, err
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Repo.ListUsers(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_users_failed", "svc", "auth.users", "status", 500, "error", err)
		return nil, err
	}
	return users, nil
}
