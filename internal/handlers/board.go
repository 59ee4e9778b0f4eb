package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/hayashide/project-management-api/internal/errors"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/services"
)

// BoardHandler coordinates board and column HTTP handlers.
type BoardHandler struct {
	boardService *services.BoardService
}

func NewBoardHandler(boardService *services.BoardService) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
	}
}

// CreateBoard adds a board to a project.
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type CreateRequest struct {
		Name     string           `json:"name" binding:"required,max=255"`
		Type     models.BoardType `json:"type"`
		Position *int             `json:"position"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, err := h.boardService.CreateBoard(services.CreateBoardInput{
		ProjectID: projectID,
		ActorID:   userID,
		Name:      req.Name,
		Type:      req.Type,
		Position:  req.Position,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, board)
}

// ListBoards returns a project's boards in position order.
func (h *BoardHandler) ListBoards(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	boards, err := h.boardService.ListBoards(projectID, userID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"boards": boards})
}

// GetBoard returns one board with its columns and tasks.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(boardID, userID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

// UpdateBoard modifies board fields.
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type UpdateRequest struct {
		Name *string           `json:"name"`
		Type *models.BoardType `json:"type"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, err := h.boardService.UpdateBoard(boardID, userID, services.UpdateBoardInput{
		Name: req.Name,
		Type: req.Type,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

// DeleteBoard removes a board and its contents.
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.boardService.DeleteBoard(boardID, userID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Board deleted successfully",
	})
}

// ReorderBoards replaces the position ordering of a project's boards.
func (h *BoardHandler) ReorderBoards(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type ReorderRequest struct {
		BoardIDs []uuid.UUID `json:"board_ids" binding:"required"`
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.boardService.ReorderBoards(projectID, userID, req.BoardIDs); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Boards reordered successfully",
	})
}

// CreateColumn adds a column to a board.
func (h *BoardHandler) CreateColumn(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type CreateRequest struct {
		Name     string `json:"name" binding:"required,max=255"`
		Color    string `json:"color"`
		WIPLimit *int   `json:"wip_limit"`
		Position *int   `json:"position"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	column, err := h.boardService.CreateColumn(services.CreateColumnInput{
		BoardID:  boardID,
		ActorID:  userID,
		Name:     req.Name,
		Color:    req.Color,
		WIPLimit: req.WIPLimit,
		Position: req.Position,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, column)
}

// UpdateColumn modifies column fields.
func (h *BoardHandler) UpdateColumn(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	columnID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type UpdateRequest struct {
		Name     *string `json:"name"`
		Color    *string `json:"color"`
		WIPLimit *int    `json:"wip_limit"`
		ClearWIP bool    `json:"clear_wip_limit"`
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	column, err := h.boardService.UpdateColumn(columnID, userID, services.UpdateColumnInput{
		Name:     req.Name,
		Color:    req.Color,
		WIPLimit: req.WIPLimit,
		ClearWIP: req.ClearWIP,
	})
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, column)
}

// ToggleColumnCollapse flips the collapsed flag on a column.
func (h *BoardHandler) ToggleColumnCollapse(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	columnID, ok := pathID(c, "id")
	if !ok {
		return
	}

	column, err := h.boardService.ToggleColumnCollapse(columnID, userID)
	if err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, column)
}

// DeleteColumn removes an empty column.
func (h *BoardHandler) DeleteColumn(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	columnID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.boardService.DeleteColumn(columnID, userID); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Column deleted successfully",
	})
}

// ReorderColumns replaces the position ordering of a board's columns.
func (h *BoardHandler) ReorderColumns(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	boardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	type ReorderRequest struct {
		ColumnIDs []uuid.UUID `json:"column_ids" binding:"required"`
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.boardService.ReorderColumns(boardID, userID, req.ColumnIDs); err != nil {
		apierrors.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Columns reordered successfully",
	})
}
