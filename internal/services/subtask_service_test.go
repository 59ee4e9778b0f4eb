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

type SubtaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *SubtaskService
	owner   *models.User
	task    *models.Task
}

func (suite *SubtaskServiceTestSuite) SetupTest() {
	suite.db = openTestDB(&suite.Suite)
	suite.service = NewSubtaskService(suite.db)
	suite.owner = createTestUser(&suite.Suite, suite.db, "owner@example.com")

	project, err := NewProjectService(suite.db).Create(CreateProjectInput{
		Name:    "Demo",
		Key:     "DEMO",
		OwnerID: suite.owner.ID,
	})
	suite.Require().NoError(err)

	column := firstColumn(&suite.Suite, suite.db, project.ID)
	suite.task, err = NewTaskService(suite.db, nil).CreateTask(CreateTaskInput{
		ColumnID: column.ID,
		ActorID:  suite.owner.ID,
		Title:    "Parent task",
	})
	suite.Require().NoError(err)
}

func (suite *SubtaskServiceTestSuite) TearDownTest() {
	closeTestDB(&suite.Suite, suite.db)
}

func (suite *SubtaskServiceTestSuite) TestCreate_Appends() {
	a, err := suite.service.CreateSubtask(suite.task.ID, suite.owner.ID, "step one", nil)
	suite.Require().NoError(err)
	b, err := suite.service.CreateSubtask(suite.task.ID, suite.owner.ID, "step two", nil)
	suite.Require().NoError(err)

	suite.Equal(0, a.Position)
	suite.Equal(1, b.Position)
}

func (suite *SubtaskServiceTestSuite) TestToggle_RecordsCompletion() {
	subtask, err := suite.service.CreateSubtask(suite.task.ID, suite.owner.ID, "step", nil)
	suite.Require().NoError(err)

	toggled, err := suite.service.ToggleSubtask(subtask.ID, suite.owner.ID)
	suite.Require().NoError(err)
	suite.True(toggled.Completed)
	suite.Require().NotNil(toggled.CompletedBy)
	suite.Equal(suite.owner.ID, *toggled.CompletedBy)
	suite.NotNil(toggled.CompletedAt)

	toggled, err = suite.service.ToggleSubtask(subtask.ID, suite.owner.ID)
	suite.Require().NoError(err)
	suite.False(toggled.Completed)
	suite.Nil(toggled.CompletedBy)
	suite.Nil(toggled.CompletedAt)
}

func (suite *SubtaskServiceTestSuite) TestDelete_Compacts() {
	a, err := suite.service.CreateSubtask(suite.task.ID, suite.owner.ID, "one", nil)
	suite.Require().NoError(err)
	b, err := suite.service.CreateSubtask(suite.task.ID, suite.owner.ID, "two", nil)
	suite.Require().NoError(err)
	c, err := suite.service.CreateSubtask(suite.task.ID, suite.owner.ID, "three", nil)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.DeleteSubtask(b.ID, suite.owner.ID))

	positions, err := ordering.PositionsByID(suite.db, ordering.Subtasks, suite.task.ID)
	suite.Require().NoError(err)
	suite.Equal(0, positions[a.ID])
	suite.Equal(1, positions[c.ID])
}

func (suite *SubtaskServiceTestSuite) TestReorder() {
	a, err := suite.service.CreateSubtask(suite.task.ID, suite.owner.ID, "one", nil)
	suite.Require().NoError(err)
	b, err := suite.service.CreateSubtask(suite.task.ID, suite.owner.ID, "two", nil)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.ReorderSubtasks(suite.task.ID, suite.owner.ID, []uuid.UUID{b.ID, a.ID}))

	positions, err := ordering.PositionsByID(suite.db, ordering.Subtasks, suite.task.ID)
	suite.Require().NoError(err)
	suite.Equal(0, positions[b.ID])
	suite.Equal(1, positions[a.ID])
}

func (suite *SubtaskServiceTestSuite) TestStrangerForbidden() {
	subtask, err := suite.service.CreateSubtask(suite.task.ID, suite.owner.ID, "private", nil)
	suite.Require().NoError(err)

	stranger := createTestUser(&suite.Suite, suite.db, "stranger@example.com")
	_, err = suite.service.ToggleSubtask(subtask.ID, stranger.ID)
	suite.True(apperrors.IsForbidden(err))
}

func TestSubtaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SubtaskServiceTestSuite))
}
