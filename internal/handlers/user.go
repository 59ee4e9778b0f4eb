package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hayashide/project-management-api/internal/dto"
	apierrors "github.com/hayashide/project-management-api/internal/errors"
	"github.com/hayashide/project-management-api/internal/services"
	"github.com/hayashide/project-management-api/internal/utils"
)

// UserHandler serves the user directory and profile endpoints.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// List returns active users, optionally filtered by a search term.
func (h *UserHandler) List(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	users, total, err := h.userService.ListUsers(services.ListUsersInput{
		Search:     c.Query("search"),
		Pagination: params,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	userDTOs := make([]dto.UserDTO, 0, len(users))
	for _, user := range users {
		userDTOs = append(userDTOs, dto.ToUserDTO(user))
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      userDTOs,
		"pagination": utils.NewPaginationResponse(params, total),
	})
}

// Get returns one user's public profile.
func (h *UserHandler) Get(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(id)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateProfile updates the authenticated user's profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type UpdateProfileRequest struct {
		FirstName   *string `json:"first_name" binding:"omitempty,max=100"`
		LastName    *string `json:"last_name" binding:"omitempty,max=100"`
		Avatar      *string `json:"avatar" binding:"omitempty,max=500"`
		ClearAvatar bool    `json:"clear_avatar"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(userID, services.UpdateProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Avatar:      req.Avatar,
		ClearAvatar: req.ClearAvatar,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Stats returns a user's activity counts.
func (h *UserHandler) Stats(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	stats, err := h.userService.GetStats(id)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
