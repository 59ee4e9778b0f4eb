package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/hayashide/project-management-api/internal/errors"
	"github.com/hayashide/project-management-api/internal/services"
)

// AttachmentHandler coordinates attachment-metadata HTTP handlers.
type AttachmentHandler struct {
	attachmentService *services.AttachmentService
}

func NewAttachmentHandler(attachmentService *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
	}
}

// Create records an uploaded file against a task.
func (h *AttachmentHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type CreateRequest struct {
		FileName string `json:"file_name" binding:"required,max=500"`
		FileSize int64  `json:"file_size"`
		MimeType string `json:"mime_type"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	attachment, err := h.attachmentService.CreateAttachment(services.CreateAttachmentInput{
		TaskID:   taskID,
		ActorID:  userID,
		FileName: req.FileName,
		FileSize: req.FileSize,
		MimeType: req.MimeType,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

// List returns a task's attachments.
func (h *AttachmentHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	attachments, err := h.attachmentService.ListAttachments(taskID, userID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attachments": attachments})
}

// Delete removes an attachment record.
func (h *AttachmentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	attachmentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.attachmentService.DeleteAttachment(attachmentID, userID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Attachment deleted successfully",
	})
}
