package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"accounts-api/internal/entities"
	"accounts-api/internal/jwt"
	"accounts-api/internal/mail"
	"accounts-api/internal/models"
	"accounts-api/internal/password"
	"accounts-api/internal/repository"
)

// How long a password-reset token stays usable.
const resetTokenTTL = 30 * time.Minute

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error)
	Forget(ctx context.Context, email string) error
	Reset(ctx context.Context, newPassword, token string) (*models.AuthResponse, error)
	Me(ctx context.Context, userID int64) (*entities.User, error)
}

type authService struct {
	userRepo    repository.UserRepository
	jwtService  *jwt.JWTService
	hasher      password.Hasher
	mailer      mail.Sender
	frontendURL string
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, jwtService *jwt.JWTService, hasher password.Hasher, mailer mail.Sender, frontendURL string) AuthService {
	return &authService{
		userRepo:    userRepo,
		jwtService:  jwtService,
		hasher:      hasher,
		mailer:      mailer,
		frontendURL: frontendURL,
	}
}

// Login authenticates a user and returns user info with a signed token.
// An unknown email and a wrong password produce the same error.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.AuthResponse{Token: token, User: user}, nil
}

// Register creates a new user account with the default role and logs it in
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	birthAt, err := ParseBirthAt(req.BirthAt)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, &entities.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
		BirthAt:      birthAt,
		Role:         entities.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Generate a token for automatic login after registration
	token, err := s.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.RegisterResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    user,
	}, nil
}

// Forget starts the password-reset flow. It behaves identically whether or
// not the email belongs to an account, to avoid account enumeration.
func (s *authService) Forget(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token := uuid.NewString()
	if err := s.userRepo.SetResetToken(ctx, user.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, resetLink); err != nil {
		// Mail failures must not leak whether the account exists.
		log.Printf("Warning: failed to send reset email: %v", err)
	}
	return nil
}

// Reset consumes a reset token and sets a new password
func (s *authService) Reset(ctx context.Context, newPassword, token string) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to resolve reset token: %w", err)
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.UpdatePartial(ctx, user.ID, repository.UserChanges{
		PasswordHash: &hashed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	// Single use: the token is gone even if the client retries.
	if err := s.userRepo.ClearResetToken(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to clear reset token: %w", err)
	}

	signed, err := s.jwtService.GenerateToken(updated.ID, updated.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.AuthResponse{Token: signed, User: updated}, nil
}

// Me returns the current user for an authenticated request
func (s *authService) Me(ctx context.Context, userID int64) (*entities.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
