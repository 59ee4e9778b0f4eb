package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/hayashide/project-management-api/internal/errors"
	"github.com/hayashide/project-management-api/internal/services"
)

// CommentHandler coordinates comment HTTP handlers.
type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// Create posts a root comment or a reply on a task.
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type CreateRequest struct {
		Content  string     `json:"content" binding:"required"`
		ParentID *uuid.UUID `json:"parent_id"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.CreateComment(taskID, userID, req.Content, req.ParentID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// List returns a task's comment threads.
func (h *CommentHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(taskID, userID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// Update edits a comment.
func (h *CommentHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type UpdateRequest struct {
		Content string `json:"content" binding:"required"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.UpdateComment(commentID, userID, req.Content)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// Delete removes a comment without replies.
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(commentID, userID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
	})
}
