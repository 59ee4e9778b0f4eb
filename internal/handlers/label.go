package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/hayashide/project-management-api/internal/errors"
	"github.com/hayashide/project-management-api/internal/services"
)

// LabelHandler coordinates label HTTP handlers.
type LabelHandler struct {
	labelService *services.LabelService
}

func NewLabelHandler(labelService *services.LabelService) *LabelHandler {
	return &LabelHandler{
		labelService: labelService,
	}
}

// Create adds a label to a project.
func (h *LabelHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type CreateRequest struct {
		Name  string `json:"name" binding:"required,max=100"`
		Color string `json:"color"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	label, err := h.labelService.CreateLabel(projectID, userID, req.Name, req.Color)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, label)
}

// List returns a project's labels.
func (h *LabelHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	labels, err := h.labelService.ListLabels(projectID, userID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"labels": labels})
}

// Update modifies a label.
func (h *LabelHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	labelID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type UpdateRequest struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	label, err := h.labelService.UpdateLabel(labelID, userID, services.UpdateLabelInput{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, label)
}

// Delete removes a label and detaches it everywhere.
func (h *LabelHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	labelID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.labelService.DeleteLabel(labelID, userID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Label deleted successfully",
	})
}
