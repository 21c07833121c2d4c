package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lborres/studysync/core"
	"github.com/lborres/studysync/pkg/crypto"
	"github.com/lborres/studysync/pkg/metrics"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgUserExists         = "User with this email already exists"
	msgRegisterFailed     = "Registration failed. Please try again."
	msgLoginFailed        = "Login failed. Please try again."
)

type AuthService struct {
	users          core.UserStorage
	passwordHasher crypto.PasswordHandler
	sessions       *SessionManager
	deps           actionDeps
}

var _ IdentityResolver = (*AuthService)(nil)

func NewAuthService(users core.UserStorage, passwordHasher crypto.PasswordHandler, sessions *SessionManager, logger *zap.Logger, m *metrics.Metrics) *AuthService {
	s := &AuthService{
		users:          users,
		passwordHasher: passwordHasher,
		sessions:       sessions,
	}
	s.deps = newActionDeps(s, nil, logger, m)
	return s
}

// Register creates a user and issues a session token for it
func (s *AuthService) Register(ctx context.Context, form core.Form) (res core.Result[core.SessionUser], token *core.IssuedToken) {
	defer s.deps.track("register", &res.Kind)()

	// Step 1: Validate input
	input, err := core.ParseRegisterInput(form)
	if err != nil {
		return invalid[core.SessionUser](err), nil
	}

	// Step 2: Reject duplicate emails
	existing, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, core.ErrUserNotFound) {
		s.deps.logger.Error("failed to check existing user", zap.Error(err))
		return core.Fail[core.SessionUser](core.FailureInternal, msgRegisterFailed), nil
	}
	if existing != nil {
		return core.Fail[core.SessionUser](core.FailureConflict, msgUserExists), nil
	}

	// Step 3: Hash the password
	hash, err := s.passwordHasher.Hash(input.Password)
	if err != nil {
		s.deps.logger.Error("failed to hash password", zap.Error(err))
		return core.Fail[core.SessionUser](core.FailureInternal, msgRegisterFailed), nil
	}

	// Step 4: Create the user; the store's unique index catches a concurrent duplicate
	user := &core.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, core.ErrUserExists) {
			return core.Fail[core.SessionUser](core.FailureConflict, msgUserExists), nil
		}
		s.deps.logger.Error("failed to create user", zap.Error(err))
		return core.Fail[core.SessionUser](core.FailureInternal, msgRegisterFailed), nil
	}

	// Step 5: Issue the session
	return s.startSession(user, "Registration successful", msgRegisterFailed)
}

// Login verifies credentials. Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, form core.Form) (res core.Result[core.SessionUser], token *core.IssuedToken) {
	defer s.deps.track("login", &res.Kind)()

	// Step 1: Validate input
	input, err := core.ParseLoginInput(form)
	if err != nil {
		return invalid[core.SessionUser](err), nil
	}

	// Step 2: Find the user by email
	user, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return core.Fail[core.SessionUser](core.FailureUnauthorized, msgInvalidCredentials), nil
		}
		s.deps.logger.Error("failed to find user", zap.Error(err))
		return core.Fail[core.SessionUser](core.FailureInternal, msgLoginFailed), nil
	}

	// Step 3: Verify the password
	ok, err := s.passwordHasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		s.deps.logger.Error("failed to verify password", zap.String("userId", user.ID), zap.Error(err))
		return core.Fail[core.SessionUser](core.FailureInternal, msgLoginFailed), nil
	}
	if !ok {
		return core.Fail[core.SessionUser](core.FailureUnauthorized, msgInvalidCredentials), nil
	}

	// Step 4: Issue the session
	return s.startSession(user, "Login successful", msgLoginFailed)
}

func (s *AuthService) startSession(user *core.User, message, failure string) (core.Result[core.SessionUser], *core.IssuedToken) {
	token, err := s.sessions.Issue(core.Claims{UserID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil {
		s.deps.logger.Error("failed to issue session", zap.String("userId", user.ID), zap.Error(err))
		return core.Fail[core.SessionUser](core.FailureInternal, failure), nil
	}

	return core.Succeed(&core.SessionUser{ID: user.ID, Email: user.Email, Name: user.Name}, message), token
}

// Logout has no server-side state to clear; the transport drops the cookie
func (s *AuthService) Logout() core.Result[core.NoData] {
	s.deps.metrics.ObserveAction("logout", "", time.Now())
	return core.Succeed[core.NoData](nil, "Logged out successfully")
}

// CurrentUser verifies the token and loads its user. Any failure,
// including a user that no longer exists, resolves to nil.
func (s *AuthService) CurrentUser(ctx context.Context, token string) *core.SessionUser {
	claims, ok := s.sessions.Verify(token)
	if !ok {
		return nil
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, core.ErrUserNotFound) {
			s.deps.logger.Warn("failed to load session user", zap.String("userId", claims.UserID), zap.Error(err))
		}
		return nil
	}

	return &core.SessionUser{ID: user.ID, Email: user.Email, Name: user.Name}
}

func (s *AuthService) Session(ctx context.Context, token string) (res core.Result[core.SessionUser]) {
	defer s.deps.track("getSession", &res.Kind)()

	user := s.CurrentUser(ctx, token)
	if user == nil {
		return core.Unauthorized[core.SessionUser]()
	}
	return core.Succeed(user, "")
}
