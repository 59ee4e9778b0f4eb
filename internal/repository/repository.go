package repository

import (
	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uuid.UUID) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// Update persists changes to a user row
	Update(user *models.User) error
}
