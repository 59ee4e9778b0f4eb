package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/constants"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles registration, login and current-user lookups.
type AuthService struct {
	userRepo repository.UserRepository
	log      *logrus.Entry
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		log:      logrus.WithField("service", "auth"),
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new user account.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.Validation("email is required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, apperrors.Validationf("password must be at least %d characters", constants.MinPasswordLength)
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, apperrors.Conflict("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Storage(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Storage(err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, apperrors.Storage(err)
	}

	s.log.WithField("email", user.Email).Info("new user registered")
	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Forbidden("invalid email or password")
		}
		return nil, apperrors.Storage(err)
	}

	if !user.IsActive {
		return nil, apperrors.Forbidden("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Forbidden("invalid email or password")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, apperrors.Storage(err)
	}

	s.log.WithField("email", user.Email).Info("user logged in")
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, apperrors.Storage(err)
	}

	return user, nil
}
