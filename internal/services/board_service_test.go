package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/ordering"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type BoardServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *BoardService
	owner   *models.User
	project *models.Project
}

func (suite *BoardServiceTestSuite) SetupTest() {
	suite.db = openTestDB(&suite.Suite)
	suite.service = NewBoardService(suite.db)
	suite.owner = createTestUser(&suite.Suite, suite.db, "owner@example.com")

	var err error
	suite.project, err = NewProjectService(suite.db).Create(CreateProjectInput{
		Name:    "Demo",
		Key:     "DEMO",
		OwnerID: suite.owner.ID,
	})
	suite.Require().NoError(err)
}

func (suite *BoardServiceTestSuite) TearDownTest() {
	closeTestDB(&suite.Suite, suite.db)
}

func (suite *BoardServiceTestSuite) TestCreateBoard_Appends() {
	board, err := suite.service.CreateBoard(CreateBoardInput{
		ProjectID: suite.project.ID,
		ActorID:   suite.owner.ID,
		Name:      "Sprint",
		Type:      models.BoardTypeScrum,
	})
	suite.Require().NoError(err)

	// The default board occupies 0.
	suite.Equal(1, board.Position)
	suite.Equal(models.BoardTypeScrum, board.Type)
}

func (suite *BoardServiceTestSuite) TestCreateBoard_InsertAtFrontShiftsDefault() {
	pos := 0
	board, err := suite.service.CreateBoard(CreateBoardInput{
		ProjectID: suite.project.ID,
		ActorID:   suite.owner.ID,
		Name:      "Priority",
		Position:  &pos,
	})
	suite.Require().NoError(err)
	suite.Equal(0, board.Position)

	positions, err := ordering.PositionsByID(suite.db, ordering.Boards, suite.project.ID)
	suite.Require().NoError(err)
	suite.Len(positions, 2)

	var defaultBoard models.Board
	suite.Require().NoError(suite.db.Where("project_id = ? AND name = ?", suite.project.ID, "Main Board").First(&defaultBoard).Error)
	suite.Equal(1, positions[defaultBoard.ID])
}

func (suite *BoardServiceTestSuite) TestDeleteBoard_CompactsSiblings() {
	second, err := suite.service.CreateBoard(CreateBoardInput{
		ProjectID: suite.project.ID,
		ActorID:   suite.owner.ID,
		Name:      "Second",
	})
	suite.Require().NoError(err)

	var defaultBoard models.Board
	suite.Require().NoError(suite.db.Where("project_id = ? AND name = ?", suite.project.ID, "Main Board").First(&defaultBoard).Error)

	suite.Require().NoError(suite.service.DeleteBoard(defaultBoard.ID, suite.owner.ID))

	positions, err := ordering.PositionsByID(suite.db, ordering.Boards, suite.project.ID)
	suite.Require().NoError(err)
	suite.Len(positions, 1)
	suite.Equal(0, positions[second.ID])

	// The default board's columns went with it.
	var columnCount int64
	suite.Require().NoError(suite.db.Model(&models.Column{}).Where("board_id = ?", defaultBoard.ID).Count(&columnCount).Error)
	suite.Zero(columnCount)
}

func (suite *BoardServiceTestSuite) TestDeleteColumn_RejectedWhileTasksRemain() {
	column := firstColumn(&suite.Suite, suite.db, suite.project.ID)

	_, err := NewTaskService(suite.db, nil).CreateTask(CreateTaskInput{
		ColumnID: column.ID,
		ActorID:  suite.owner.ID,
		Title:    "blocker",
	})
	suite.Require().NoError(err)

	err = suite.service.DeleteColumn(column.ID, suite.owner.ID)
	suite.Require().Error(err)
	suite.True(apperrors.IsValidation(err))
}

func (suite *BoardServiceTestSuite) TestDeleteColumn_CompactsBoard() {
	column := firstColumn(&suite.Suite, suite.db, suite.project.ID)

	suite.Require().NoError(suite.service.DeleteColumn(column.ID, suite.owner.ID))

	positions, err := ordering.PositionsByID(suite.db, ordering.Columns, column.BoardID)
	suite.Require().NoError(err)
	suite.Require().Len(positions, 3)
	for _, pos := range positions {
		suite.Less(pos, 3)
		suite.GreaterOrEqual(pos, 0)
	}
}

func (suite *BoardServiceTestSuite) TestReorderColumns() {
	column := firstColumn(&suite.Suite, suite.db, suite.project.ID)

	var columns []models.Column
	suite.Require().NoError(suite.db.Where("board_id = ?", column.BoardID).Order("position ASC").Find(&columns).Error)
	suite.Require().Len(columns, 4)

	reversed := []uuid.UUID{columns[3].ID, columns[2].ID, columns[1].ID, columns[0].ID}
	suite.Require().NoError(suite.service.ReorderColumns(column.BoardID, suite.owner.ID, reversed))

	positions, err := ordering.PositionsByID(suite.db, ordering.Columns, column.BoardID)
	suite.Require().NoError(err)
	suite.Equal(3, positions[columns[0].ID])
	suite.Equal(0, positions[columns[3].ID])
}

func (suite *BoardServiceTestSuite) TestUpdateColumn_WIPLimitValidation() {
	column := firstColumn(&suite.Suite, suite.db, suite.project.ID)

	bad := 0
	_, err := suite.service.UpdateColumn(column.ID, suite.owner.ID, UpdateColumnInput{WIPLimit: &bad})
	suite.Require().Error(err)
	suite.True(apperrors.IsValidation(err))

	limit := 5
	updated, err := suite.service.UpdateColumn(column.ID, suite.owner.ID, UpdateColumnInput{WIPLimit: &limit})
	suite.Require().NoError(err)
	suite.Require().NotNil(updated.WIPLimit)
	suite.Equal(5, *updated.WIPLimit)

	cleared, err := suite.service.UpdateColumn(column.ID, suite.owner.ID, UpdateColumnInput{ClearWIP: true})
	suite.Require().NoError(err)
	suite.Nil(cleared.WIPLimit)
}

func (suite *BoardServiceTestSuite) TestToggleColumnCollapse() {
	column := firstColumn(&suite.Suite, suite.db, suite.project.ID)

	toggled, err := suite.service.ToggleColumnCollapse(column.ID, suite.owner.ID)
	suite.Require().NoError(err)
	suite.True(toggled.IsCollapsed)

	toggled, err = suite.service.ToggleColumnCollapse(column.ID, suite.owner.ID)
	suite.Require().NoError(err)
	suite.False(toggled.IsCollapsed)
}

func TestBoardServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BoardServiceTestSuite))
}
