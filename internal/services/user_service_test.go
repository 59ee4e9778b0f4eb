package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/hayashide/project-management-api/internal/utils"
)

type UserServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *UserService
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.db = openTestDB(&suite.Suite)
	suite.service = NewUserService(suite.db)
}

func (suite *UserServiceTestSuite) TearDownTest() {
	closeTestDB(&suite.Suite, suite.db)
}

func (suite *UserServiceTestSuite) seedUser(email, first, last string) *models.User {
	user := &models.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		FirstName:    first,
		LastName:     last,
		IsActive:     true,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *UserServiceTestSuite) TestList_ReturnsAllWithoutPagination() {
	suite.seedUser("alice@example.com", "Alice", "Anders")
	suite.seedUser("bob@example.com", "Bob", "Burns")

	users, total, err := suite.service.ListUsers(ListUsersInput{})
	suite.Require().NoError(err)
	suite.Len(users, 2)
	suite.Equal(int64(2), total)
}

func (suite *UserServiceTestSuite) TestList_SearchMatchesNameAndEmail() {
	suite.seedUser("alice@example.com", "Alice", "Anders")
	suite.seedUser("bob@example.com", "Bob", "Burns")

	users, total, err := suite.service.ListUsers(ListUsersInput{Search: "burn"})
	suite.Require().NoError(err)
	suite.Require().Len(users, 1)
	suite.Equal(int64(1), total)
	suite.Equal("bob@example.com", users[0].Email)

	users, _, err = suite.service.ListUsers(ListUsersInput{Search: "ALICE"})
	suite.Require().NoError(err)
	suite.Require().Len(users, 1)
	suite.Equal("alice@example.com", users[0].Email)
}

func (suite *UserServiceTestSuite) TestList_SkipsInactiveUsers() {
	suite.seedUser("alice@example.com", "Alice", "Anders")
	inactive := suite.seedUser("gone@example.com", "Gone", "Away")
	suite.Require().NoError(suite.db.Model(inactive).Update("is_active", false).Error)

	users, total, err := suite.service.ListUsers(ListUsersInput{})
	suite.Require().NoError(err)
	suite.Require().Len(users, 1)
	suite.Equal(int64(1), total)
	suite.Equal("alice@example.com", users[0].Email)
}

func (suite *UserServiceTestSuite) TestList_Paginates() {
	suite.seedUser("alice@example.com", "Alice", "Anders")
	suite.seedUser("bob@example.com", "Bob", "Burns")
	suite.seedUser("carol@example.com", "Carol", "Chase")

	users, total, err := suite.service.ListUsers(ListUsersInput{
		Pagination: utils.PaginationParams{Page: 1, Limit: 2, Offset: 0},
	})
	suite.Require().NoError(err)
	suite.Len(users, 2)
	suite.Equal(int64(3), total)
}

func (suite *UserServiceTestSuite) TestGet_UnknownUserNotFound() {
	_, err := suite.service.GetUser(uuid.New())
	suite.Require().Error(err)
	suite.True(apperrors.IsNotFound(err))
}

func (suite *UserServiceTestSuite) TestUpdateProfile_ChangesNamesAndAvatar() {
	user := suite.seedUser("alice@example.com", "Alice", "Anders")

	first := "Alicia"
	avatar := "https://cdn.example.com/a.png"
	updated, err := suite.service.UpdateProfile(user.ID, UpdateProfileInput{
		FirstName: &first,
		Avatar:    &avatar,
	})
	suite.Require().NoError(err)
	suite.Equal("Alicia", updated.FirstName)
	suite.Equal("Anders", updated.LastName)
	suite.Equal(avatar, updated.Avatar)

	updated, err = suite.service.UpdateProfile(user.ID, UpdateProfileInput{ClearAvatar: true})
	suite.Require().NoError(err)
	suite.Empty(updated.Avatar)
}

func (suite *UserServiceTestSuite) TestUpdateProfile_RejectsBlankName() {
	user := suite.seedUser("alice@example.com", "Alice", "Anders")

	blank := "   "
	_, err := suite.service.UpdateProfile(user.ID, UpdateProfileInput{FirstName: &blank})
	suite.Require().Error(err)
	suite.True(apperrors.IsValidation(err))
}

func (suite *UserServiceTestSuite) TestStats_CountsActivity() {
	owner := suite.seedUser("owner@example.com", "Owner", "One")
	member := suite.seedUser("member@example.com", "Member", "Two")

	project, err := NewProjectService(suite.db).Create(CreateProjectInput{
		Name:    "Demo",
		Key:     "DEMO",
		OwnerID: owner.ID,
	})
	suite.Require().NoError(err)
	addTestMember(&suite.Suite, suite.db, project.ID, member.ID, models.RoleMember)

	taskService := NewTaskService(suite.db, NewAIService(""))
	column := firstColumn(&suite.Suite, suite.db, project.ID)
	task, err := taskService.CreateTask(CreateTaskInput{
		ColumnID: column.ID,
		ActorID:  owner.ID,
		Title:    "First task",
	})
	suite.Require().NoError(err)
	suite.Require().NoError(taskService.AssignTask(task.ID, owner.ID, member.ID))

	_, err = NewCommentService(suite.db).CreateComment(task.ID, member.ID, "looks good", nil)
	suite.Require().NoError(err)

	ownerStats, err := suite.service.GetStats(owner.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(1), ownerStats.ProjectsOwned)
	suite.Equal(int64(0), ownerStats.ProjectsMember)
	suite.Equal(int64(1), ownerStats.TasksCreated)

	memberStats, err := suite.service.GetStats(member.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(1), memberStats.ProjectsMember)
	suite.Equal(int64(1), memberStats.TasksAssigned)
	suite.Equal(int64(1), memberStats.Comments)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
