// Package access resolves whether a user may touch a project-scoped entity.
// Every leveled entity (board, column, task, subtask) is loaded together with
// its ancestor chain up to the owning project, then the same membership test
// applies. Access is re-derived from storage on every call; nothing is cached.
package access

import (
	"errors"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/models"
	"gorm.io/gorm"
)

// Grant is the outcome of a successful access check: the owning project and
// the caller's effective role within it.
type Grant struct {
	Project *models.Project
	Role    models.ProjectRole
}

type Guard struct {
	db *gorm.DB
}

func NewGuard(db *gorm.DB) *Guard {
	return &Guard{db: db}
}

// ResolveProject checks that the project exists and the user is its owner or
// a member, returning the project and the effective role.
func (g *Guard) ResolveProject(projectID, userID uuid.UUID) (*Grant, error) {
	var project models.Project
	if err := g.db.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("project", projectID)
		}
		return nil, apperrors.Storage(err)
	}

	return g.membership(&project, userID)
}

// ResolveBoard loads a board with its project and applies the membership test.
func (g *Guard) ResolveBoard(boardID, userID uuid.UUID) (*models.Board, *Grant, error) {
	var board models.Board
	err := g.db.Preload("Project").First(&board, "id = ?", boardID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("board", boardID)
		}
		return nil, nil, apperrors.Storage(err)
	}

	grant, err := g.membership(&board.Project, userID)
	if err != nil {
		return nil, nil, err
	}
	return &board, grant, nil
}

// ResolveColumn loads a column with its board and project.
func (g *Guard) ResolveColumn(columnID, userID uuid.UUID) (*models.Column, *Grant, error) {
	var column models.Column
	err := g.db.Preload("Board.Project").First(&column, "id = ?", columnID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("column", columnID)
		}
		return nil, nil, apperrors.Storage(err)
	}

	grant, err := g.membership(&column.Board.Project, userID)
	if err != nil {
		return nil, nil, err
	}
	return &column, grant, nil
}

// ResolveTask loads a task with its column, board and project.
func (g *Guard) ResolveTask(taskID, userID uuid.UUID) (*models.Task, *Grant, error) {
	var task models.Task
	err := g.db.Preload("Column.Board.Project").First(&task, "id = ?", taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("task", taskID)
		}
		return nil, nil, apperrors.Storage(err)
	}

	grant, err := g.membership(&task.Column.Board.Project, userID)
	if err != nil {
		return nil, nil, err
	}
	return &task, grant, nil
}

// ResolveSubtask loads a subtask with the full task, column, board and
// project chain.
func (g *Guard) ResolveSubtask(subtaskID, userID uuid.UUID) (*models.Subtask, *Grant, error) {
	var subtask models.Subtask
	err := g.db.Preload("Task.Column.Board.Project").First(&subtask, "id = ?", subtaskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("subtask", subtaskID)
		}
		return nil, nil, apperrors.Storage(err)
	}

	grant, err := g.membership(&subtask.Task.Column.Board.Project, userID)
	if err != nil {
		return nil, nil, err
	}
	return &subtask, grant, nil
}

func (g *Guard) membership(project *models.Project, userID uuid.UUID) (*Grant, error) {
	if project.OwnerID == userID {
		return &Grant{Project: project, Role: models.RoleOwner}, nil
	}

	var member models.ProjectMember
	err := g.db.Where("project_id = ? AND user_id = ?", project.ID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Forbidden("you do not have access to this project")
		}
		return nil, apperrors.Storage(err)
	}

	return &Grant{Project: project, Role: member.Role}, nil
}

// RequireRole fails with Forbidden unless role is one of allowed.
func RequireRole(role models.ProjectRole, allowed ...models.ProjectRole) error {
	for _, a := range allowed {
		if role == a {
			return nil
		}
	}
	return apperrors.Forbidden("insufficient project role for this action")
}
