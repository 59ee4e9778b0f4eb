package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/access"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/ordering"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BoardService owns boards and their columns.
type BoardService struct {
	db    *gorm.DB
	guard *access.Guard
	log   *logrus.Entry
}

func NewBoardService(db *gorm.DB) *BoardService {
	return &BoardService{
		db:    db,
		guard: access.NewGuard(db),
		log:   logrus.WithField("service", "boards"),
	}
}

// CreateBoardInput creates a board under a project.
type CreateBoardInput struct {
	ProjectID uuid.UUID
	ActorID   uuid.UUID
	Name      string
	Type      models.BoardType
	Position  *int
}

// CreateBoard inserts a board at the requested position, appending when no
// position is given.
func (s *BoardService) CreateBoard(input CreateBoardInput) (*models.Board, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.Validation("board name is required")
	}
	if _, err := s.guard.ResolveProject(input.ProjectID, input.ActorID); err != nil {
		return nil, err
	}

	boardType := input.Type
	if boardType == "" {
		boardType = models.BoardTypeKanban
	}

	board := &models.Board{
		ProjectID: input.ProjectID,
		Name:      input.Name,
		Type:      boardType,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pos, err := ordering.ResolveInsertPosition(tx, ordering.Boards, input.ProjectID, input.Position)
		if err != nil {
			return err
		}
		board.Position = pos
		if err := tx.Create(board).Error; err != nil {
			return apperrors.Storage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"board": board.Name, "project_id": input.ProjectID}).Info("board created")
	return board, nil
}

// ListBoards returns a project's boards with their columns, both in position
// order.
func (s *BoardService) ListBoards(projectID, userID uuid.UUID) ([]models.Board, error) {
	if _, err := s.guard.ResolveProject(projectID, userID); err != nil {
		return nil, err
	}

	var boards []models.Board
	err := s.db.Where("project_id = ?", projectID).
		Order("position ASC").
		Preload("Columns", func(db *gorm.DB) *gorm.DB {
			return db.Order("columns.position ASC")
		}).
		Find(&boards).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return boards, nil
}

// GetBoard returns one board with columns and their tasks in position order.
func (s *BoardService) GetBoard(boardID, userID uuid.UUID) (*models.Board, error) {
	board, _, err := s.guard.ResolveBoard(boardID, userID)
	if err != nil {
		return nil, err
	}

	err = s.db.
		Preload("Columns", func(db *gorm.DB) *gorm.DB {
			return db.Order("columns.position ASC")
		}).
		Preload("Columns.Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("tasks.position ASC")
		}).
		Preload("Columns.Tasks.Assignees.User").
		Preload("Columns.Tasks.TaskLabels.Label").
		First(board, "id = ?", boardID).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return board, nil
}

// UpdateBoardInput carries optional board field updates.
type UpdateBoardInput struct {
	Name *string
	Type *models.BoardType
}

func (s *BoardService) UpdateBoard(boardID, userID uuid.UUID, input UpdateBoardInput) (*models.Board, error) {
	board, _, err := s.guard.ResolveBoard(boardID, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.Validation("board name cannot be empty")
		}
		board.Name = *input.Name
	}
	if input.Type != nil {
		board.Type = *input.Type
	}

	if err := s.db.Save(board).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return board, nil
}

// DeleteBoard removes a board and its columns' contents, compacting the
// project's remaining boards.
func (s *BoardService) DeleteBoard(boardID, userID uuid.UUID) error {
	board, _, err := s.guard.ResolveBoard(boardID, userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var columnIDs []uuid.UUID
		if err := tx.Model(&models.Column{}).Where("board_id = ?", boardID).
			Pluck("id", &columnIDs).Error; err != nil {
			return err
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

		if err := tx.Delete(&models.Board{}, "id = ?", boardID).Error; err != nil {
			return err
		}

		return ordering.Compact(tx, ordering.Boards, board.ProjectID, board.Position)
	})
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindUnknown {
			return err
		}
		return apperrors.Storage(err)
	}

	s.log.WithField("board_id", boardID).Info("board deleted")
	return nil
}

// ReorderBoards applies a complete ordering of a project's boards.
func (s *BoardService) ReorderBoards(projectID, userID uuid.UUID, boardIDs []uuid.UUID) error {
	if _, err := s.guard.ResolveProject(projectID, userID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return ordering.Reorder(tx, ordering.Boards, projectID, boardIDs)
	})
}

// CreateColumnInput creates a column under a board.
type CreateColumnInput struct {
	BoardID  uuid.UUID
	ActorID  uuid.UUID
	Name     string
	Color    string
	WIPLimit *int
	Position *int
}

func (s *BoardService) CreateColumn(input CreateColumnInput) (*models.Column, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.Validation("column name is required")
	}
	if input.WIPLimit != nil && *input.WIPLimit < 1 {
		return nil, apperrors.Validation("wip limit must be positive")
	}
	if _, _, err := s.guard.ResolveBoard(input.BoardID, input.ActorID); err != nil {
		return nil, err
	}

	column := &models.Column{
		BoardID:  input.BoardID,
		Name:     input.Name,
		Color:    input.Color,
		WIPLimit: input.WIPLimit,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pos, err := ordering.ResolveInsertPosition(tx, ordering.Columns, input.BoardID, input.Position)
		if err != nil {
			return err
		}
		column.Position = pos
		if err := tx.Create(column).Error; err != nil {
			return apperrors.Storage(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"column": column.Name, "board_id": input.BoardID}).Info("column created")
	return column, nil
}

// UpdateColumnInput carries optional column field updates.
type UpdateColumnInput struct {
	Name     *string
	Color    *string
	WIPLimit *int
	ClearWIP bool
}

func (s *BoardService) UpdateColumn(columnID, userID uuid.UUID, input UpdateColumnInput) (*models.Column, error) {
	column, _, err := s.guard.ResolveColumn(columnID, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.Validation("column name cannot be empty")
		}
		column.Name = *input.Name
	}
	if input.Color != nil {
		column.Color = *input.Color
	}
	if input.ClearWIP {
		column.WIPLimit = nil
	} else if input.WIPLimit != nil {
		if *input.WIPLimit < 1 {
			return nil, apperrors.Validation("wip limit must be positive")
		}
		column.WIPLimit = input.WIPLimit
	}

	if err := s.db.Save(column).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return column, nil
}

// ToggleColumnCollapse flips a column's collapsed flag.
func (s *BoardService) ToggleColumnCollapse(columnID, userID uuid.UUID) (*models.Column, error) {
	column, _, err := s.guard.ResolveColumn(columnID, userID)
	if err != nil {
		return nil, err
	}

	column.IsCollapsed = !column.IsCollapsed
	if err := s.db.Save(column).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return column, nil
}

// DeleteColumn removes an empty column and compacts its board's remaining
// columns. Columns that still hold tasks are rejected.
func (s *BoardService) DeleteColumn(columnID, userID uuid.UUID) error {
	column, _, err := s.guard.ResolveColumn(columnID, userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var taskCount int64
		if err := tx.Model(&models.Task{}).Where("column_id = ?", columnID).
			Count(&taskCount).Error; err != nil {
			return err
		}
		if taskCount > 0 {
			return apperrors.Validationf("cannot delete column with %d task(s); move or delete tasks first", taskCount)
		}
		if err := tx.Delete(&models.Column{}, "id = ?", columnID).Error; err != nil {
			return err
		}
		return ordering.Compact(tx, ordering.Columns, column.BoardID, column.Position)
	})
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindUnknown {
			return err
		}
		return apperrors.Storage(err)
	}

	s.log.WithField("column_id", columnID).Info("column deleted")
	return nil
}

// ReorderColumns applies a complete ordering of a board's columns.
func (s *BoardService) ReorderColumns(boardID, userID uuid.UUID, columnIDs []uuid.UUID) error {
	if _, _, err := s.guard.ResolveBoard(boardID, userID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return ordering.Reorder(tx, ordering.Columns, boardID, columnIDs)
	})
}
