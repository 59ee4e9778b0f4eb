package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/access"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/constants"
	"github.com/hayashide/project-management-api/internal/database"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/ordering"
	"github.com/hayashide/project-management-api/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TaskService owns tasks: creation with key allocation, listing with filters,
// positional moves, assignees and watchers.
type TaskService struct {
	db    *gorm.DB
	guard *access.Guard
	ai    *AIService
	log   *logrus.Entry
}

func NewTaskService(db *gorm.DB, ai *AIService) *TaskService {
	return &TaskService{
		db:    db,
		guard: access.NewGuard(db),
		ai:    ai,
		log:   logrus.WithField("service", "tasks"),
	}
}

// CreateTaskInput creates a task in a column.
type CreateTaskInput struct {
	ColumnID    uuid.UUID
	ActorID     uuid.UUID
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	Position    *int
	DueDate     *time.Time
	AssigneeIDs []uuid.UUID
	LabelIDs    []uuid.UUID
}

// CreateTask inserts a task at the requested position and allocates the next
// project-scoped key. Key allocation and position shifting share one
// transaction so a rollback releases neither.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.Validation("task title is required")
	}

	column, grant, err := s.guard.ResolveColumn(input.ColumnID, input.ActorID)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		ColumnID:    column.ID,
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		CreatorID:   input.ActorID,
		DueDate:     input.DueDate,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		pos, err := ordering.ResolveInsertPosition(tx, ordering.Tasks, column.ID, input.Position)
		if err != nil {
			return err
		}
		task.Position = pos

		key, err := allocateTaskKey(tx, grant.Project)
		if err != nil {
			return err
		}
		task.Key = key

		if err := tx.Create(task).Error; err != nil {
			return apperrors.Storage(err)
		}

		for _, userID := range input.AssigneeIDs {
			assignee := models.TaskAssignee{
				TaskID:     task.ID,
				UserID:     userID,
				AssignedBy: input.ActorID,
			}
			if err := tx.Create(&assignee).Error; err != nil {
				return apperrors.Storage(err)
			}
		}

		for _, labelID := range input.LabelIDs {
			var label models.Label
			if err := tx.First(&label, "id = ? AND project_id = ?", labelID, grant.Project.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound("label", labelID)
				}
				return apperrors.Storage(err)
			}
			if err := tx.Create(&models.TaskLabel{TaskID: task.ID, LabelID: labelID}).Error; err != nil {
				return apperrors.Storage(err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"key": task.Key, "column_id": column.ID}).Info("task created")
	return s.GetTask(task.ID, input.ActorID)
}

// allocateTaskKey increments the project's counter with a single atomic
// UPDATE and formats the next key. Must run inside the task-create
// transaction so a rollback releases the number.
func allocateTaskKey(tx *gorm.DB, project *models.Project) (string, error) {
	res := tx.Model(&models.ProjectCounter{}).
		Where("project_id = ?", project.ID).
		Update("last_number", gorm.Expr("last_number + 1"))
	if res.Error != nil {
		return "", apperrors.Storage(res.Error)
	}
	if res.RowsAffected == 0 {
		// Counter row missing (legacy project); seed it at 1.
		counter := models.ProjectCounter{ProjectID: project.ID, LastNumber: 1}
		if err := tx.Create(&counter).Error; err != nil {
			return "", apperrors.Storage(err)
		}
		return fmt.Sprintf("%s-1", project.Key), nil
	}

	var counter models.ProjectCounter
	if err := tx.First(&counter, "project_id = ?", project.ID).Error; err != nil {
		return "", apperrors.Storage(err)
	}
	return fmt.Sprintf("%s-%d", project.Key, counter.LastNumber), nil
}

// TaskFilter narrows ListTasks results. Zero values mean "no filter".
type TaskFilter struct {
	ProjectID  *uuid.UUID
	ColumnID   *uuid.UUID
	Search     string
	Status     models.TaskStatus
	Priority   models.TaskPriority
	AssigneeID *uuid.UUID
	LabelIDs   []uuid.UUID
	DueBefore  *time.Time
	DueAfter   *time.Time
	SortBy     string
	SortOrder  string
}

var taskSortColumns = map[string]string{
	"created_at": "tasks.created_at",
	"updated_at": "tasks.updated_at",
	"due_date":   "tasks.due_date",
	"priority":   "tasks.priority",
	"position":   "tasks.position",
	"title":      "tasks.title",
}

// ListTasks returns tasks across the caller's accessible projects, filtered
// and paginated.
func (s *TaskService) ListTasks(userID uuid.UUID, filter TaskFilter, params utils.PaginationParams) ([]models.Task, int64, error) {
	query := s.db.Model(&models.Task{}).
		Joins("JOIN columns ON columns.id = tasks.column_id").
		Joins("JOIN boards ON boards.id = columns.board_id").
		Joins("JOIN projects ON projects.id = boards.project_id").
		Where("projects.owner_id = ? OR EXISTS (SELECT 1 FROM project_members pm WHERE pm.project_id = projects.id AND pm.user_id = ?)",
			userID, userID)

	if filter.ProjectID != nil {
		query = query.Where("projects.id = ?", *filter.ProjectID)
	}
	if filter.ColumnID != nil {
		query = query.Where("tasks.column_id = ?", *filter.ColumnID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("tasks.title LIKE ? OR tasks.description LIKE ? OR tasks.key LIKE ?", like, like, like)
	}
	if filter.Status != "" {
		query = query.Where("tasks.status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("tasks.priority = ?", filter.Priority)
	}
	if filter.AssigneeID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = tasks.id AND ta.user_id = ?)",
			*filter.AssigneeID)
	}
	if len(filter.LabelIDs) > 0 {
		query = query.Where("EXISTS (SELECT 1 FROM task_labels tl WHERE tl.task_id = tasks.id AND tl.label_id IN ?)",
			filter.LabelIDs)
	}
	if filter.DueBefore != nil {
		query = query.Where("tasks.due_date IS NOT NULL AND tasks.due_date <= ?", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		query = query.Where("tasks.due_date IS NOT NULL AND tasks.due_date >= ?", *filter.DueAfter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Storage(err)
	}

	sortColumn, ok := taskSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "tasks.created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	var tasks []models.Task
	err := query.
		Order(fmt.Sprintf("%s %s", sortColumn, direction)).
		Scopes(database.Paginate(params)).
		Preload("Assignees.User").
		Preload("TaskLabels.Label").
		Find(&tasks).Error
	if err != nil {
		return nil, 0, apperrors.Storage(err)
	}

	return tasks, total, nil
}

// GetTask returns a task with its full composite loaded.
func (s *TaskService) GetTask(taskID, userID uuid.UUID) (*models.Task, error) {
	task, _, err := s.guard.ResolveTask(taskID, userID)
	if err != nil {
		return nil, err
	}

	err = s.db.
		Preload("Creator").
		Preload("Assignees.User").
		Preload("TaskLabels.Label").
		Preload("Watchers.User").
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("subtasks.position ASC")
		}).
		Preload("Attachments").
		First(task, "id = ?", taskID).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return task, nil
}

// UpdateTaskInput carries optional task field updates. A nil field is left
// untouched; ClearDueDate removes the due date.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
}

func (s *TaskService) UpdateTask(taskID, userID uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	task, _, err := s.guard.ResolveTask(taskID, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.Validation("task title cannot be empty")
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.db.Save(task).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return s.GetTask(taskID, userID)
}

// DeleteTask removes a task with its dependents and compacts the column.
func (s *TaskService) DeleteTask(taskID, userID uuid.UUID) error {
	task, _, err := s.guard.ResolveTask(taskID, userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.TaskAssignee{},
			&models.TaskLabel{},
			&models.TaskWatcher{},
			&models.Subtask{},
			&models.Comment{},
			&models.Attachment{},
		} {
			if err := tx.Where("task_id = ?", taskID).Delete(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.Task{}, "id = ?", taskID).Error; err != nil {
			return err
		}

		return ordering.Compact(tx, ordering.Tasks, task.ColumnID, task.Position)
	})
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindUnknown {
			return err
		}
		return apperrors.Storage(err)
	}

	s.log.WithField("key", task.Key).Info("task deleted")
	return nil
}

// MoveTask repositions a task within its column or across columns of the
// same project. Cross-project moves are rejected because task keys embed the
// project key.
func (s *TaskService) MoveTask(taskID, userID, targetColumnID uuid.UUID, targetPosition int) (*models.Task, error) {
	task, grant, err := s.guard.ResolveTask(taskID, userID)
	if err != nil {
		return nil, err
	}

	targetColumn, targetGrant, err := s.guard.ResolveColumn(targetColumnID, userID)
	if err != nil {
		return nil, err
	}
	if targetGrant.Project.ID != grant.Project.ID {
		return nil, apperrors.Validation("cannot move a task to a different project")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return ordering.Move(tx, ordering.Tasks, task.ID, task.ColumnID, task.Position, targetColumn.ID, targetPosition)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"key": task.Key, "column_id": targetColumn.ID}).Info("task moved")
	return s.GetTask(taskID, userID)
}

// ReorderTasks applies a complete ordering of a column's tasks.
func (s *TaskService) ReorderTasks(columnID, userID uuid.UUID, taskIDs []uuid.UUID) error {
	if _, _, err := s.guard.ResolveColumn(columnID, userID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return ordering.Reorder(tx, ordering.Tasks, columnID, taskIDs)
	})
}

// AssignTask adds a user to a task's assignees. The assignee must have
// access to the project.
func (s *TaskService) AssignTask(taskID, actorID, assigneeID uuid.UUID) error {
	_, grant, err := s.guard.ResolveTask(taskID, actorID)
	if err != nil {
		return err
	}

	if _, err := s.guard.ResolveProject(grant.Project.ID, assigneeID); err != nil {
		if apperrors.IsForbidden(err) {
			return apperrors.Validation("assignee is not a member of this project")
		}
		return err
	}

	var existing models.TaskAssignee
	err = s.db.Where("task_id = ? AND user_id = ?", taskID, assigneeID).First(&existing).Error
	if err == nil {
		return apperrors.Conflict("user is already assigned to this task")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Storage(err)
	}

	assignee := models.TaskAssignee{
		TaskID:     taskID,
		UserID:     assigneeID,
		AssignedBy: actorID,
	}
	if err := s.db.Create(&assignee).Error; err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// UnassignTask removes a user from a task's assignees.
func (s *TaskService) UnassignTask(taskID, actorID, assigneeID uuid.UUID) error {
	if _, _, err := s.guard.ResolveTask(taskID, actorID); err != nil {
		return err
	}

	res := s.db.Where("task_id = ? AND user_id = ?", taskID, assigneeID).
		Delete(&models.TaskAssignee{})
	if res.Error != nil {
		return apperrors.Storage(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("task assignee", assigneeID)
	}
	return nil
}

// AddLabel attaches a project label to a task.
func (s *TaskService) AddLabel(taskID, actorID, labelID uuid.UUID) error {
	_, grant, err := s.guard.ResolveTask(taskID, actorID)
	if err != nil {
		return err
	}

	var label models.Label
	if err := s.db.First(&label, "id = ? AND project_id = ?", labelID, grant.Project.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("label", labelID)
		}
		return apperrors.Storage(err)
	}

	var existing models.TaskLabel
	err = s.db.Where("task_id = ? AND label_id = ?", taskID, labelID).First(&existing).Error
	if err == nil {
		return apperrors.Conflict("label is already attached to this task")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Storage(err)
	}

	if err := s.db.Create(&models.TaskLabel{TaskID: taskID, LabelID: labelID}).Error; err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// RemoveLabel detaches a label from a task.
func (s *TaskService) RemoveLabel(taskID, actorID, labelID uuid.UUID) error {
	if _, _, err := s.guard.ResolveTask(taskID, actorID); err != nil {
		return err
	}

	res := s.db.Where("task_id = ? AND label_id = ?", taskID, labelID).
		Delete(&models.TaskLabel{})
	if res.Error != nil {
		return apperrors.Storage(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("task label", labelID)
	}
	return nil
}

// WatchTask subscribes the caller to a task.
func (s *TaskService) WatchTask(taskID, userID uuid.UUID) error {
	if _, _, err := s.guard.ResolveTask(taskID, userID); err != nil {
		return err
	}

	var existing models.TaskWatcher
	err := s.db.Where("task_id = ? AND user_id = ?", taskID, userID).First(&existing).Error
	if err == nil {
		return apperrors.Conflict("you are already watching this task")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Storage(err)
	}

	if err := s.db.Create(&models.TaskWatcher{TaskID: taskID, UserID: userID}).Error; err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

// UnwatchTask unsubscribes the caller from a task.
func (s *TaskService) UnwatchTask(taskID, userID uuid.UUID) error {
	if _, _, err := s.guard.ResolveTask(taskID, userID); err != nil {
		return err
	}

	res := s.db.Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&models.TaskWatcher{})
	if res.Error != nil {
		return apperrors.Storage(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("task watcher", userID)
	}
	return nil
}

// GenerateTasks drafts tasks from free-form text and inserts them at the end
// of the target column through the normal create path.
func (s *TaskService) GenerateTasks(ctx context.Context, columnID, actorID uuid.UUID, text string) ([]models.Task, error) {
	if s.ai == nil || !s.ai.Enabled() {
		return nil, apperrors.Validation("AI task generation is not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Validation("text is required")
	}
	if _, _, err := s.guard.ResolveColumn(columnID, actorID); err != nil {
		return nil, err
	}

	drafts, err := s.ai.DraftTasksFromText(ctx, text)
	if err != nil {
		s.log.WithError(err).Error("task drafting failed")
		return nil, apperrors.Storage(err)
	}
	if len(drafts) > constants.MaxAIGeneratedTasks {
		drafts = drafts[:constants.MaxAIGeneratedTasks]
	}

	created := make([]models.Task, 0, len(drafts))
	for _, draft := range drafts {
		if strings.TrimSpace(draft.Title) == "" {
			continue
		}
		priority := models.TaskPriority(strings.ToUpper(draft.Priority))
		switch priority {
		case models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh, models.TaskPriorityUrgent:
		default:
			priority = models.TaskPriorityMedium
		}

		task, err := s.CreateTask(CreateTaskInput{
			ColumnID:    columnID,
			ActorID:     actorID,
			Title:       draft.Title,
			Description: draft.Description,
			Priority:    priority,
			DueDate:     draft.DueDate,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, *task)
	}

	return created, nil
}
