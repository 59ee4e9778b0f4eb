package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/database"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/utils"
)

// UserService exposes the user directory and profile maintenance.
type UserService struct {
	db  *gorm.DB
	log *logrus.Entry
}

// NewUserService creates a new UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:  db,
		log: logrus.WithField("service", "user"),
	}
}

// ListUsersInput carries the directory search parameters.
type ListUsersInput struct {
	Search     string
	Pagination utils.PaginationParams
}

// ListUsers returns active users matching the search term, newest first.
func (s *UserService) ListUsers(input ListUsersInput) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{}).Where("is_active = ?", true)

	if search := strings.TrimSpace(input.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Storage(err)
	}

	var users []models.User
	if err := query.
		Order("created_at DESC").
		Scopes(database.Paginate(input.Pagination)).
		Find(&users).Error; err != nil {
		return nil, 0, apperrors.Storage(err)
	}

	return users, total, nil
}

// GetUser retrieves a single user by ID.
func (s *UserService) GetUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, apperrors.Storage(err)
	}
	return &user, nil
}

// UpdateProfileInput holds the profile fields a user may change.
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Avatar      *string
	ClearAvatar bool
}

// UpdateProfile updates the authenticated user's own profile fields.
func (s *UserService) UpdateProfile(userID uuid.UUID, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, apperrors.Validation("first name cannot be empty")
		}
		user.FirstName = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, apperrors.Validation("last name cannot be empty")
		}
		user.LastName = name
	}
	if input.ClearAvatar {
		user.Avatar = ""
	} else if input.Avatar != nil {
		user.Avatar = strings.TrimSpace(*input.Avatar)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, apperrors.Storage(err)
	}

	s.log.WithField("user_id", userID).Info("profile updated")
	return user, nil
}

// UserStats aggregates a user's activity counts.
type UserStats struct {
	ProjectsOwned  int64 `json:"projects_owned"`
	ProjectsMember int64 `json:"projects_member"`
	TasksAssigned  int64 `json:"tasks_assigned"`
	TasksCreated   int64 `json:"tasks_created"`
	Comments       int64 `json:"comments"`
}

// GetStats computes activity counts for a user.
func (s *UserService) GetStats(userID uuid.UUID) (*UserStats, error) {
	if _, err := s.GetUser(userID); err != nil {
		return nil, err
	}

	stats := &UserStats{}
	counts := []struct {
		model any
		where string
		dest  *int64
	}{
		{&models.Project{}, "owner_id = ?", &stats.ProjectsOwned},
		{&models.ProjectMember{}, "user_id = ?", &stats.ProjectsMember},
		{&models.TaskAssignee{}, "user_id = ?", &stats.TasksAssigned},
		{&models.Task{}, "creator_id = ?", &stats.TasksCreated},
		{&models.Comment{}, "author_id = ?", &stats.Comments},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Where(c.where, userID).Count(c.dest).Error; err != nil {
			return nil, apperrors.Storage(err)
		}
	}

	return stats, nil
}
