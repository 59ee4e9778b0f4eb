package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/access"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/database"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProjectService owns project lifecycle and membership management.
type ProjectService struct {
	db    *gorm.DB
	guard *access.Guard
	log   *logrus.Entry
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{
		db:    db,
		guard: access.NewGuard(db),
		log:   logrus.WithField("service", "projects"),
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name        string
	Key         string
	Description string
	OwnerID     uuid.UUID
}

// defaultColumns seeds a fresh project's main board.
var defaultColumns = []models.Column{
	{Name: "To Do", Position: 0, Color: "#64748B"},
	{Name: "In Progress", Position: 1, Color: "#3B82F6"},
	{Name: "Review", Position: 2, Color: "#F59E0B"},
	{Name: "Done", Position: 3, Color: "#10B981"},
}

// Create creates a project together with its key counter and a default
// kanban board, all in one transaction.
func (s *ProjectService) Create(input CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.Validation("project name is required")
	}

	key, err := utils.NormalizeProjectKey(input.Key)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var existing models.Project
	err = s.db.Where("key = ?", key).First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("project key \"" + key + "\" already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Storage(err)
	}

	project := &models.Project{
		Name:        input.Name,
		Key:         key,
		Description: input.Description,
		OwnerID:     input.OwnerID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}

		counter := models.ProjectCounter{ProjectID: project.ID}
		if err := tx.Create(&counter).Error; err != nil {
			return err
		}

		board := models.Board{
			ProjectID: project.ID,
			Name:      "Main Board",
			Type:      models.BoardTypeKanban,
			Position:  0,
		}
		if err := tx.Create(&board).Error; err != nil {
			return err
		}

		for i := range defaultColumns {
			column := defaultColumns[i]
			column.BoardID = board.ID
			if err := tx.Create(&column).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Storage(err)
	}

	s.log.WithFields(logrus.Fields{"key": project.Key, "owner": input.OwnerID}).Info("project created")
	return s.loadProject(project.ID)
}

// ListProjectsInput filters the project listing.
type ListProjectsInput struct {
	UserID          uuid.UUID
	Search          string
	IncludeArchived bool
	Pagination      utils.PaginationParams
}

// List returns projects the user owns or belongs to.
func (s *ProjectService) List(input ListProjectsInput) ([]models.Project, int64, error) {
	query := s.db.Model(&models.Project{}).
		Where("owner_id = ? OR EXISTS (?)",
			input.UserID,
			s.db.Model(&models.ProjectMember{}).
				Select("1").
				Where("project_members.project_id = projects.id").
				Where("project_members.user_id = ?", input.UserID),
		)

	if !input.IncludeArchived {
		query = query.Where("is_archived = ?", false)
	}
	if input.Search != "" {
		like := "%" + input.Search + "%"
		query = query.Where("name LIKE ? OR key LIKE ? OR description LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Storage(err)
	}

	var projects []models.Project
	err := query.
		Order("created_at DESC").
		Scopes(database.Paginate(input.Pagination)).
		Preload("Owner").
		Find(&projects).Error
	if err != nil {
		return nil, 0, apperrors.Storage(err)
	}

	return projects, total, nil
}

// Get returns a project with members, boards and labels after an access check.
func (s *ProjectService) Get(projectID, userID uuid.UUID) (*models.Project, error) {
	if _, err := s.guard.ResolveProject(projectID, userID); err != nil {
		return nil, err
	}
	return s.loadProject(projectID)
}

// UpdateProjectInput carries optional field updates.
type UpdateProjectInput struct {
	Name        *string
	Key         *string
	Description *string
}

// Update modifies project fields; owners and admins only.
func (s *ProjectService) Update(projectID, userID uuid.UUID, input UpdateProjectInput) (*models.Project, error) {
	grant, err := s.guard.ResolveProject(projectID, userID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireRole(grant.Role, models.RoleOwner, models.RoleAdmin); err != nil {
		return nil, err
	}

	project := grant.Project
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.Validation("project name cannot be empty")
		}
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Key != nil {
		key, err := utils.NormalizeProjectKey(*input.Key)
		if err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		if key != project.Key {
			var existing models.Project
			err := s.db.Where("key = ?", key).First(&existing).Error
			if err == nil {
				return nil, apperrors.Conflict("project key \"" + key + "\" already exists")
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.Storage(err)
			}
			project.Key = key
		}
	}

	if err := s.db.Save(project).Error; err != nil {
		return nil, apperrors.Storage(err)
	}

	s.log.WithField("key", project.Key).Info("project updated")
	return project, nil
}

// Archive marks a project archived; owner only.
func (s *ProjectService) Archive(projectID, userID uuid.UUID) (*models.Project, error) {
	return s.setArchived(projectID, userID, true)
}

// Restore clears the archived flag; owner only.
func (s *ProjectService) Restore(projectID, userID uuid.UUID) (*models.Project, error) {
	return s.setArchived(projectID, userID, false)
}

func (s *ProjectService) setArchived(projectID, userID uuid.UUID, archived bool) (*models.Project, error) {
	grant, err := s.guard.ResolveProject(projectID, userID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireRole(grant.Role, models.RoleOwner); err != nil {
		return nil, err
	}

	project := grant.Project
	project.IsArchived = archived
	if archived {
		now := time.Now()
		project.ArchivedAt = &now
	} else {
		project.ArchivedAt = nil
	}

	if err := s.db.Save(project).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return project, nil
}

// Delete removes a project and every descendant entity in one transaction,
// so no board, column, task or subtask can outlive its project.
func (s *ProjectService) Delete(projectID, userID uuid.UUID) error {
	grant, err := s.guard.ResolveProject(projectID, userID)
	if err != nil {
		return err
	}
	if err := access.RequireRole(grant.Role, models.RoleOwner); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var boardIDs []uuid.UUID
		if err := tx.Model(&models.Board{}).Where("project_id = ?", projectID).
			Pluck("id", &boardIDs).Error; err != nil {
			return err
		}

		var columnIDs []uuid.UUID
		if len(boardIDs) > 0 {
			if err := tx.Model(&models.Column{}).Where("board_id IN ?", boardIDs).
				Pluck("id", &columnIDs).Error; err != nil {
				return err
			}
		}

		var taskIDs []uuid.UUID
		if len(columnIDs) > 0 {
			if err := tx.Model(&models.Task{}).Where("column_id IN ?", columnIDs).
				Pluck("id", &taskIDs).Error; err != nil {
				return err
			}
		}

		if len(taskIDs) > 0 {
			for _, model := range []interface{}{
				&models.TaskAssignee{},
				&models.TaskLabel{},
				&models.TaskWatcher{},
				&models.Subtask{},
				&models.Comment{},
				&models.Attachment{},
			} {
				if err := tx.Where("task_id IN ?", taskIDs).Delete(model).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", taskIDs).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		if len(columnIDs) > 0 {
			if err := tx.Where("id IN ?", columnIDs).Delete(&models.Column{}).Error; err != nil {
				return err
			}
		}
		if len(boardIDs) > 0 {
			if err := tx.Where("id IN ?", boardIDs).Delete(&models.Board{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("project_id = ?", projectID).Delete(&models.Label{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectCounter{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, "id = ?", projectID).Error
	})
	if err != nil {
		return apperrors.Storage(err)
	}

	s.log.WithField("project_id", projectID).Info("project deleted")
	return nil
}

// ListMembers returns all members of a project.
func (s *ProjectService) ListMembers(projectID, userID uuid.UUID) ([]models.ProjectMember, error) {
	if _, err := s.guard.ResolveProject(projectID, userID); err != nil {
		return nil, err
	}

	var members []models.ProjectMember
	err := s.db.Where("project_id = ?", projectID).
		Preload("User").
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return members, nil
}

// AddMemberInput adds a user to a project with a role.
type AddMemberInput struct {
	ProjectID uuid.UUID
	ActorID   uuid.UUID
	UserID    uuid.UUID
	Role      models.ProjectRole
}

// AddMember grants project membership; owners and admins only.
func (s *ProjectService) AddMember(input AddMemberInput) (*models.ProjectMember, error) {
	grant, err := s.guard.ResolveProject(input.ProjectID, input.ActorID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireRole(grant.Role, models.RoleOwner, models.RoleAdmin); err != nil {
		return nil, err
	}

	switch input.Role {
	case models.RoleAdmin, models.RoleMember, models.RoleViewer:
	case models.RoleOwner:
		return nil, apperrors.Validation("the OWNER role cannot be granted through membership")
	default:
		return nil, apperrors.Validationf("unknown role %q", input.Role)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", input.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", input.UserID)
		}
		return nil, apperrors.Storage(err)
	}

	var existing models.ProjectMember
	err = s.db.Where("project_id = ? AND user_id = ?", input.ProjectID, input.UserID).
		First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("user is already a member of this project")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Storage(err)
	}

	member := &models.ProjectMember{
		ProjectID: input.ProjectID,
		UserID:    input.UserID,
		Role:      input.Role,
		JoinedAt:  time.Now(),
	}
	if err := s.db.Create(member).Error; err != nil {
		return nil, apperrors.Storage(err)
	}

	s.log.WithFields(logrus.Fields{"project_id": input.ProjectID, "user_id": input.UserID}).Info("member added")
	member.User = user
	return member, nil
}

// RemoveMember revokes membership; owners and admins only, and the project
// owner can never be removed.
func (s *ProjectService) RemoveMember(projectID, memberUserID, actorID uuid.UUID) error {
	grant, err := s.guard.ResolveProject(projectID, actorID)
	if err != nil {
		return err
	}
	if err := access.RequireRole(grant.Role, models.RoleOwner, models.RoleAdmin); err != nil {
		return err
	}

	if memberUserID == grant.Project.OwnerID {
		return apperrors.Forbidden("cannot remove the project owner")
	}

	result := s.db.Where("project_id = ? AND user_id = ?", projectID, memberUserID).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		return apperrors.Storage(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("project member", memberUserID)
	}

	s.log.WithFields(logrus.Fields{"project_id": projectID, "user_id": memberUserID}).Info("member removed")
	return nil
}

func (s *ProjectService) loadProject(projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := s.db.
		Preload("Owner").
		Preload("Members.User").
		Preload("Boards", func(db *gorm.DB) *gorm.DB {
			return db.Order("boards.position ASC")
		}).
		Preload("Boards.Columns", func(db *gorm.DB) *gorm.DB {
			return db.Order("columns.position ASC")
		}).
		Preload("Labels").
		First(&project, "id = ?", projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("project", projectID)
		}
		return nil, apperrors.Storage(err)
	}
	return &project, nil
}
