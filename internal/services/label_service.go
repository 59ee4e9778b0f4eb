package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/access"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LabelService owns project-scoped labels. Names are unique per project.
type LabelService struct {
	db    *gorm.DB
	guard *access.Guard
	log   *logrus.Entry
}

func NewLabelService(db *gorm.DB) *LabelService {
	return &LabelService{
		db:    db,
		guard: access.NewGuard(db),
		log:   logrus.WithField("service", "labels"),
	}
}

// CreateLabel adds a label to a project. Requires OWNER or ADMIN.
func (s *LabelService) CreateLabel(projectID, actorID uuid.UUID, name, color string) (*models.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("label name is required")
	}

	grant, err := s.guard.ResolveProject(projectID, actorID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireRole(grant.Role, models.RoleOwner, models.RoleAdmin); err != nil {
		return nil, err
	}

	var existing models.Label
	err = s.db.Where("project_id = ? AND name = ?", projectID, name).First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("a label with this name already exists in the project")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Storage(err)
	}

	label := &models.Label{
		ProjectID: projectID,
		Name:      name,
		Color:     color,
	}
	if err := s.db.Create(label).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return label, nil
}

// ListLabels returns a project's labels, name order.
func (s *LabelService) ListLabels(projectID, userID uuid.UUID) ([]models.Label, error) {
	if _, err := s.guard.ResolveProject(projectID, userID); err != nil {
		return nil, err
	}

	var labels []models.Label
	err := s.db.Where("project_id = ?", projectID).Order("name ASC").Find(&labels).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return labels, nil
}

// UpdateLabelInput carries optional label field updates.
type UpdateLabelInput struct {
	Name  *string
	Color *string
}

func (s *LabelService) UpdateLabel(labelID, actorID uuid.UUID, input UpdateLabelInput) (*models.Label, error) {
	label, err := s.loadLabel(labelID)
	if err != nil {
		return nil, err
	}

	grant, err := s.guard.ResolveProject(label.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireRole(grant.Role, models.RoleOwner, models.RoleAdmin); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.Validation("label name cannot be empty")
		}
		if name != label.Name {
			var existing models.Label
			err := s.db.Where("project_id = ? AND name = ? AND id != ?", label.ProjectID, name, labelID).
				First(&existing).Error
			if err == nil {
				return nil, apperrors.Conflict("a label with this name already exists in the project")
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.Storage(err)
			}
			label.Name = name
		}
	}
	if input.Color != nil {
		label.Color = *input.Color
	}

	if err := s.db.Save(label).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return label, nil
}

// DeleteLabel removes a label and detaches it from every task.
func (s *LabelService) DeleteLabel(labelID, actorID uuid.UUID) error {
	label, err := s.loadLabel(labelID)
	if err != nil {
		return err
	}

	grant, err := s.guard.ResolveProject(label.ProjectID, actorID)
	if err != nil {
		return err
	}
	if err := access.RequireRole(grant.Role, models.RoleOwner, models.RoleAdmin); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("label_id = ?", labelID).Delete(&models.TaskLabel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Label{}, "id = ?", labelID).Error
	})
	if err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

func (s *LabelService) loadLabel(labelID uuid.UUID) (*models.Label, error) {
	var label models.Label
	if err := s.db.First(&label, "id = ?", labelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("label", labelID)
		}
		return nil, apperrors.Storage(err)
	}
	return &label, nil
}
