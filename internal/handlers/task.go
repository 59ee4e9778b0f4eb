package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/hayashide/project-management-api/internal/errors"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/services"
	"github.com/hayashide/project-management-api/internal/utils"
)

// TaskHandler coordinates task HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// Create adds a task to a column.
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	columnID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type CreateRequest struct {
		Title       string              `json:"title" binding:"required,max=500"`
		Description string              `json:"description"`
		Status      models.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
		Position    *int                `json:"position"`
		DueDate     *time.Time          `json:"due_date"`
		AssigneeIDs []uuid.UUID         `json:"assignee_ids"`
		LabelIDs    []uuid.UUID         `json:"label_ids"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		ColumnID:    columnID,
		ActorID:     userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Position:    req.Position,
		DueDate:     req.DueDate,
		AssigneeIDs: req.AssigneeIDs,
		LabelIDs:    req.LabelIDs,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// List returns tasks across accessible projects, filtered and paginated.
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	filter := services.TaskFilter{
		Search:    c.Query("search"),
		Status:    models.TaskStatus(c.Query("status")),
		Priority:  models.TaskPriority(c.Query("priority")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if v := c.Query("project_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project_id")
			return
		}
		filter.ProjectID = &id
	}
	if v := c.Query("column_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid column_id")
			return
		}
		filter.ColumnID = &id
	}
	if v := c.Query("assignee_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignee_id")
			return
		}
		filter.AssigneeID = &id
	}
	for _, v := range c.QueryArray("label_id") {
		id, err := uuid.Parse(v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid label_id")
			return
		}
		filter.LabelIDs = append(filter.LabelIDs, id)
	}
	if v := c.Query("due_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due_before")
			return
		}
		filter.DueBefore = &t
	}
	if v := c.Query("due_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due_after")
			return
		}
		filter.DueAfter = &t
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := h.taskService.ListTasks(userID, filter, params)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":      tasks,
		"pagination": utils.NewPaginationResponse(params, total),
	})
}

// Get returns a task with its full composite.
func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(taskID, userID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Update modifies task fields.
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type UpdateRequest struct {
		Title        *string              `json:"title"`
		Description  *string              `json:"description"`
		Status       *models.TaskStatus   `json:"status"`
		Priority     *models.TaskPriority `json:"priority"`
		DueDate      *time.Time           `json:"due_date"`
		ClearDueDate bool                 `json:"clear_due_date"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(taskID, userID, services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Delete removes a task with its dependents.
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(taskID, userID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// Move repositions a task within or across columns.
func (h *TaskHandler) Move(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type MoveRequest struct {
		ColumnID uuid.UUID `json:"column_id" binding:"required"`
		Position int       `json:"position"`
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.MoveTask(taskID, userID, req.ColumnID, req.Position)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Reorder replaces the position ordering of a column's tasks.
func (h *TaskHandler) Reorder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	columnID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type ReorderRequest struct {
		TaskIDs []uuid.UUID `json:"task_ids" binding:"required"`
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.ReorderTasks(columnID, userID, req.TaskIDs); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tasks reordered successfully",
	})
}

// Assign adds an assignee to a task.
func (h *TaskHandler) Assign(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type AssignRequest struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.AssignTask(taskID, userID, req.UserID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task assigned successfully",
	})
}

// Unassign removes an assignee from a task.
func (h *TaskHandler) Unassign(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	assigneeID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.taskService.UnassignTask(taskID, userID, assigneeID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task unassigned successfully",
	})
}

// AddLabel attaches a label to a task.
func (h *TaskHandler) AddLabel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type LabelRequest struct {
		LabelID uuid.UUID `json:"label_id" binding:"required"`
	}

	var req LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.AddLabel(taskID, userID, req.LabelID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Label added successfully",
	})
}

// RemoveLabel detaches a label from a task.
func (h *TaskHandler) RemoveLabel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	labelID, ok := pathID(c, "labelId")
	if !ok {
		return
	}

	if err := h.taskService.RemoveLabel(taskID, userID, labelID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Label removed successfully",
	})
}

// Watch subscribes the caller to a task.
func (h *TaskHandler) Watch(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.WatchTask(taskID, userID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Watching task",
	})
}

// Unwatch unsubscribes the caller from a task.
func (h *TaskHandler) Unwatch(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.UnwatchTask(taskID, userID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stopped watching task",
	})
}

// Generate drafts tasks from free-form text and appends them to the column.
func (h *TaskHandler) Generate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	columnID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type GenerateRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	tasks, err := h.taskService.GenerateTasks(c.Request.Context(), columnID, userID, req.Text)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"tasks": tasks})
}
