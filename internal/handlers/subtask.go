package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/hayashide/project-management-api/internal/errors"
	"github.com/hayashide/project-management-api/internal/services"
)

// SubtaskHandler coordinates subtask HTTP handlers.
type SubtaskHandler struct {
	subtaskService *services.SubtaskService
}

func NewSubtaskHandler(subtaskService *services.SubtaskService) *SubtaskHandler {
	return &SubtaskHandler{
		subtaskService: subtaskService,
	}
}

// Create adds a subtask to a task's checklist.
func (h *SubtaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type CreateRequest struct {
		Title    string `json:"title" binding:"required,max=500"`
		Position *int   `json:"position"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	subtask, err := h.subtaskService.CreateSubtask(taskID, userID, req.Title, req.Position)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, subtask)
}

// List returns a task's subtasks in position order.
func (h *SubtaskHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	subtasks, err := h.subtaskService.ListSubtasks(taskID, userID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subtasks": subtasks})
}

// Update renames a subtask.
func (h *SubtaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subtaskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type UpdateRequest struct {
		Title string `json:"title" binding:"required,max=500"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	subtask, err := h.subtaskService.UpdateSubtask(subtaskID, userID, req.Title)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, subtask)
}

// Toggle flips a subtask's completion state.
func (h *SubtaskHandler) Toggle(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subtaskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	subtask, err := h.subtaskService.ToggleSubtask(subtaskID, userID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, subtask)
}

// Delete removes a subtask.
func (h *SubtaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subtaskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.subtaskService.DeleteSubtask(subtaskID, userID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Subtask deleted successfully",
	})
}

// Reorder replaces the position ordering of a task's subtasks.
func (h *SubtaskHandler) Reorder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type ReorderRequest struct {
		SubtaskIDs []uuid.UUID `json:"subtask_ids" binding:"required"`
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.subtaskService.ReorderSubtasks(taskID, userID, req.SubtaskIDs); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Subtasks reordered successfully",
	})
}
