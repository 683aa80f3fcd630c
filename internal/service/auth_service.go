package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/NirVa-gh/AppAuth/internal/auth"
	"github.com/NirVa-gh/AppAuth/internal/config"
	"github.com/NirVa-gh/AppAuth/internal/domain"
	"github.com/NirVa-gh/AppAuth/internal/repository"
	"github.com/NirVa-gh/AppAuth/pkg/util"
)

const minPasswordLength = 6

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	throttle   *auth.LoginThrottle
	bcryptCost int
}

// AuthDependencies encapsulates collaborator requirements for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Throttle *auth.LoginThrottle
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLHours),
		throttle:   deps.Throttle,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a new account and returns it with a session token.
// A failure at any step leaves no account behind.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, string, time.Time, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if username == "" || email == "" || password == "" {
		return nil, "", time.Time{}, util.NewValidationError("username, email and password are required", nil)
	}
	if len(password) < minPasswordLength {
		return nil, "", time.Time{}, util.NewValidationError("password must be at least 6 characters", nil)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, "", time.Time{}, util.MapError(err)
	}
	if exists {
		return nil, "", time.Time{}, util.NewConflict("username or email already taken", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	// A concurrent registration can win between the pre-check and the
	// insert; the store's uniqueness constraint surfaces that as Conflict.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.Generate(user.Username, &user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login authenticates an account by username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	if username == "" || password == "" {
		return nil, "", time.Time{}, util.NewValidationError("username and password are required", nil)
	}

	if !s.throttle.Allow(ctx, username) {
		return nil, "", time.Time{}, util.NewRateLimited("too many failed login attempts, try again later")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", time.Time{}, util.NewNotFound("user", nil)
		}
		return nil, "", time.Time{}, util.MapError(err)
	}

	ok, err := auth.ComparePassword(user.PasswordHash, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if !ok {
		s.throttle.RecordFailure(ctx, username)
		return nil, "", time.Time{}, util.NewUnauthorized("invalid password")
	}
	s.throttle.Reset(ctx, username)

	token, exp, err := s.tokenMgr.Generate(user.Username, &user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
