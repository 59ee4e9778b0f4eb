package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/dto"
	apierrors "github.com/hayashide/project-management-api/internal/errors"
	"github.com/hayashide/project-management-api/internal/middleware"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/services"
	"github.com/hayashide/project-management-api/internal/utils"
)

// ProjectHandler coordinates project and membership HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// currentUser pulls the authenticated user ID out of the context, answering
// 401 when the middleware did not set one.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses a UUID path parameter, answering 400 on garbage.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// Create creates a project with its default board.
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateRequest struct {
		Name        string `json:"name" binding:"required,max=255"`
		Key         string `json:"key" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.Create(services.CreateProjectInput{
		Name:        req.Name,
		Key:         req.Key,
		Description: req.Description,
		OwnerID:     userID,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// List returns the caller's projects, paginated.
func (h *ProjectHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	projects, total, err := h.projectService.List(services.ListProjectsInput{
		UserID:          userID,
		Search:          c.Query("search"),
		IncludeArchived: c.Query("include_archived") == "true",
		Pagination:      params,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":   projects,
		"pagination": utils.NewPaginationResponse(params, total),
	})
}

// Get returns one project with boards and columns.
func (h *ProjectHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.Get(projectID, userID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// Update modifies project fields.
func (h *ProjectHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type UpdateRequest struct {
		Name        *string `json:"name"`
		Key         *string `json:"key"`
		Description *string `json:"description"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.Update(projectID, userID, services.UpdateProjectInput{
		Name:        req.Name,
		Key:         req.Key,
		Description: req.Description,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// Archive hides a project from default listings.
func (h *ProjectHandler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

// Restore brings an archived project back.
func (h *ProjectHandler) Restore(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *ProjectHandler) setArchived(c *gin.Context, archived bool) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var project *models.Project
	var err error
	if archived {
		project, err = h.projectService.Archive(projectID, userID)
	} else {
		project, err = h.projectService.Restore(projectID, userID)
	}
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// Delete permanently removes a project and everything under it.
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(projectID, userID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
	})
}

// ListMembers returns a project's membership roster.
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	members, err := h.projectService.ListMembers(projectID, userID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	memberDTOs := make([]dto.MemberDTO, 0, len(members))
	for _, m := range members {
		memberDTOs = append(memberDTOs, dto.ToMemberDTO(m))
	}
	c.JSON(http.StatusOK, gin.H{"members": memberDTOs})
}

// AddMember grants membership with a role.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type AddMemberRequest struct {
		UserID uuid.UUID          `json:"user_id" binding:"required"`
		Role   models.ProjectRole `json:"role" binding:"required"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.projectService.AddMember(services.AddMemberInput{
		ProjectID: projectID,
		ActorID:   userID,
		UserID:    req.UserID,
		Role:      req.Role,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMemberDTO(*member))
}

// RemoveMember revokes membership.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.projectService.RemoveMember(projectID, memberID, userID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}
