package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/access"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/ordering"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubtaskService owns a task's subtask checklist.
type SubtaskService struct {
	db    *gorm.DB
	guard *access.Guard
	log   *logrus.Entry
}

func NewSubtaskService(db *gorm.DB) *SubtaskService {
	return &SubtaskService{
		db:    db,
		guard: access.NewGuard(db),
		log:   logrus.WithField("service", "subtasks"),
	}
}

// CreateSubtask inserts a subtask at the requested position, appending when
// no position is given.
func (s *SubtaskService) CreateSubtask(taskID, actorID uuid.UUID, title string, position *int) (*models.Subtask, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.Validation("subtask title is required")
	}
	if _, _, err := s.guard.ResolveTask(taskID, actorID); err != nil {
		return nil, err
	}

	subtask := &models.Subtask{
		TaskID: taskID,
		Title:  title,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pos, err := ordering.ResolveInsertPosition(tx, ordering.Subtasks, taskID, position)
		if err != nil {
			return err
		}
		subtask.Position = pos
		if err := tx.Create(subtask).Error; err != nil {
			return apperrors.Storage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return subtask, nil
}

// ListSubtasks returns a task's subtasks in position order.
func (s *SubtaskService) ListSubtasks(taskID, userID uuid.UUID) ([]models.Subtask, error) {
	if _, _, err := s.guard.ResolveTask(taskID, userID); err != nil {
		return nil, err
	}

	var subtasks []models.Subtask
	err := s.db.Where("task_id = ?", taskID).Order("position ASC").Find(&subtasks).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return subtasks, nil
}

// UpdateSubtask renames a subtask.
func (s *SubtaskService) UpdateSubtask(subtaskID, userID uuid.UUID, title string) (*models.Subtask, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.Validation("subtask title cannot be empty")
	}

	subtask, _, err := s.guard.ResolveSubtask(subtaskID, userID)
	if err != nil {
		return nil, err
	}

	subtask.Title = title
	if err := s.db.Save(subtask).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return subtask, nil
}

// ToggleSubtask flips completion, recording who completed it and when.
func (s *SubtaskService) ToggleSubtask(subtaskID, userID uuid.UUID) (*models.Subtask, error) {
	subtask, _, err := s.guard.ResolveSubtask(subtaskID, userID)
	if err != nil {
		return nil, err
	}

	if subtask.Completed {
		subtask.Completed = false
		subtask.CompletedBy = nil
		subtask.CompletedAt = nil
	} else {
		now := time.Now()
		subtask.Completed = true
		subtask.CompletedBy = &userID
		subtask.CompletedAt = &now
	}

	err = s.db.Model(subtask).Select("completed", "completed_by", "completed_at").
		Updates(map[string]interface{}{
			"completed":    subtask.Completed,
			"completed_by": subtask.CompletedBy,
			"completed_at": subtask.CompletedAt,
		}).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return subtask, nil
}

// DeleteSubtask removes a subtask and compacts its task's checklist.
func (s *SubtaskService) DeleteSubtask(subtaskID, userID uuid.UUID) error {
	subtask, _, err := s.guard.ResolveSubtask(subtaskID, userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Subtask{}, "id = ?", subtaskID).Error; err != nil {
			return err
		}
		return ordering.Compact(tx, ordering.Subtasks, subtask.TaskID, subtask.Position)
	})
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindUnknown {
			return err
		}
		return apperrors.Storage(err)
	}
	return nil
}

// ReorderSubtasks applies a complete ordering of a task's subtasks.
func (s *SubtaskService) ReorderSubtasks(taskID, userID uuid.UUID, subtaskIDs []uuid.UUID) error {
	if _, _, err := s.guard.ResolveTask(taskID, userID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return ordering.Reorder(tx, ordering.Subtasks, taskID, subtaskIDs)
	})
}
