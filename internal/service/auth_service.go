package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/security/auth"
)

// AuthService handles account registration and login.
type AuthService struct {
	users         domain.UserRepository
	tokens        *auth.TokenManager
	tokenLifetime time.Duration
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(users domain.UserRepository, tokens *auth.TokenManager, tokenLifetime time.Duration, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:         users,
		tokens:        tokens,
		tokenLifetime: tokenLifetime,
		logger:        logger,
	}
}

// RegisterResult represents registration response
type RegisterResult struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// LoginResult represents login response
type LoginResult struct {
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	Token     string   `json:"token"`
	ExpiresIn int      `json:"expires_in"` // seconds
	TokenType string   `json:"token_type"`
}

// Register creates a new user account with the default role.
func (s *AuthService) Register(ctx context.Context, email, password string) (*RegisterResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []string{domain.RoleUser},
		IsVerified:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, errors.New("email already registered")
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.Roles, s.tokenLifetime)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID), slog.String("email", user.Email))

	return &RegisterResult{UserID: user.ID, Email: user.Email, Token: token}, nil
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Info("login attempt with non-existent email", slog.String("email", email))
		return nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		return nil, errors.New("invalid credentials")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.Roles, s.tokenLifetime)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return &LoginResult{
		UserID:    user.ID,
		Email:     user.Email,
		Roles:     user.Roles,
		Token:     token,
		ExpiresIn: int(s.tokenLifetime.Seconds()),
		TokenType: "Bearer",
	}, nil
}

// GetUser fetches a user by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
