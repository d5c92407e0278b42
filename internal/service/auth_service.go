package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hu-tracker/internal/auth"
	"hu-tracker/internal/config"
	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/workflow"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo *repository.UserRepository
	authSvc  *auth.Service
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo *repository.UserRepository, authSvc *auth.Service) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		authSvc:  authSvc,
	}
}

// Session is what a successful login returns
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login authenticates a user and returns a signed token
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, workflow.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.authSvc.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.authSvc.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Register creates an operator account. A taken email matches workflow.ErrDuplicate.
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	if role == "" {
		role = models.RoleCommittee
	}
	if role != models.RoleAdmin && role != models.RoleCommittee {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if len(password) < auth.MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := s.authSvc.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Me returns the account behind a token
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// EnsureAdmin creates the configured admin account when it does not exist yet.
// Nothing is created without a configured password.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	_, err := s.userRepo.GetByEmail(ctx, cfg.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, workflow.ErrNotFound) {
		return err
	}
	if cfg.Password == "" {
		slog.Warn("ADMIN_PASSWORD is not set, skipping admin bootstrap", "email", cfg.Email)
		return nil
	}

	if _, err := s.Register(ctx, cfg.Name, cfg.Email, cfg.Password, models.RoleAdmin); err != nil {
		// another instance may have created it in the meantime
		if errors.Is(err, workflow.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	slog.Info("Admin user created", "email", cfg.Email)
	return nil
}
