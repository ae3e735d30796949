package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
	"github.com/pesio-ai/be-procurement/internal/common/logger"
	"github.com/pesio-ai/be-procurement/internal/repository"
)

const minPasswordLength = 8

// UserService handles accounts and sign-in
type UserService struct {
	users  UserRepository
	tokens *auth.TokenIssuer
	perms  PermissionChecker
	log    *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserRepository, tokens *auth.TokenIssuer, perms PermissionChecker, log *logger.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, perms: perms, log: log}
}

// RegisterInput represents a registration call
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginResult carries a signed session token
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *repository.User `json:"user"`
}

// Register creates an account. Anyone may register as a requester; other
// roles need a caller allowed to write users. actor may be nil.
func (s *UserService) Register(ctx context.Context, actor *auth.UserContext, in *RegisterInput) (*repository.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.InvalidInput("name", "name is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, errors.InvalidInput("email", "invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, errors.InvalidInput("password", "password must be at least 8 characters")
	}

	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = auth.RoleRequester
	}
	if !auth.ValidRole(role) {
		return nil, errors.InvalidInput("role", "role must be requester, approver or admin")
	}
	if role != auth.RoleRequester && !allowed(s.perms, actor, "users", "write") {
		return nil, errors.Forbidden("only administrators can create " + role + " accounts")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &repository.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("User registered")
	return u, nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords fail identically.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := errors.New(errors.ErrCodeUnauthorized, "invalid email or password")

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		s.log.Warn().Str("user_id", u.ID).Msg("Failed login attempt")
		return nil, invalid
	}

	token, exp, err := s.tokens.Issue(auth.UserContext{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// Me returns the authenticated user's account
func (s *UserService) Me(ctx context.Context, actor *auth.UserContext) (*repository.User, error) {
	return s.users.GetByID(ctx, actor.UserID)
}
