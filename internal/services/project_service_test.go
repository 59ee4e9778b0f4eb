package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ProjectServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ProjectService
	owner   *models.User
}

func (suite *ProjectServiceTestSuite) SetupTest() {
	suite.db = openTestDB(&suite.Suite)
	suite.service = NewProjectService(suite.db)
	suite.owner = createTestUser(&suite.Suite, suite.db, "owner@example.com")
}

func (suite *ProjectServiceTestSuite) TearDownTest() {
	closeTestDB(&suite.Suite, suite.db)
}

func (suite *ProjectServiceTestSuite) createProject(key string) *models.Project {
	project, err := suite.service.Create(CreateProjectInput{
		Name:    "Project " + key,
		Key:     key,
		OwnerID: suite.owner.ID,
	})
	suite.Require().NoError(err)
	return project
}

func (suite *ProjectServiceTestSuite) TestCreate_SeedsDefaultBoardAndCounter() {
	project := suite.createProject("demo")

	// Key normalized to uppercase.
	suite.Equal("DEMO", project.Key)

	var boards []models.Board
	suite.Require().NoError(suite.db.Where("project_id = ?", project.ID).Find(&boards).Error)
	suite.Require().Len(boards, 1)
	suite.Equal("Main Board", boards[0].Name)
	suite.Equal(0, boards[0].Position)

	var columns []models.Column
	suite.Require().NoError(suite.db.Where("board_id = ?", boards[0].ID).Order("position ASC").Find(&columns).Error)
	suite.Require().Len(columns, 4)
	suite.Equal("To Do", columns[0].Name)
	suite.Equal("In Progress", columns[1].Name)
	suite.Equal("Review", columns[2].Name)
	suite.Equal("Done", columns[3].Name)

	var counter models.ProjectCounter
	suite.Require().NoError(suite.db.First(&counter, "project_id = ?", project.ID).Error)
	suite.Equal(int64(0), counter.LastNumber)
}

func (suite *ProjectServiceTestSuite) TestCreate_DuplicateKeyConflict() {
	suite.createProject("DEMO")

	_, err := suite.service.Create(CreateProjectInput{
		Name:    "Another",
		Key:     "demo",
		OwnerID: suite.owner.ID,
	})
	suite.Require().Error(err)
	suite.True(apperrors.IsConflict(err))
}

func (suite *ProjectServiceTestSuite) TestCreate_BadKeyRejected() {
	_, err := suite.service.Create(CreateProjectInput{
		Name:    "Bad",
		Key:     "1X",
		OwnerID: suite.owner.ID,
	})
	suite.Require().Error(err)
	suite.True(apperrors.IsValidation(err))
}

func (suite *ProjectServiceTestSuite) TestList_SkipsArchivedByDefault() {
	active := suite.createProject("ACT")
	archived := suite.createProject("ARC")
	_, err := suite.service.Archive(archived.ID, suite.owner.ID)
	suite.Require().NoError(err)

	projects, total, err := suite.service.List(ListProjectsInput{UserID: suite.owner.ID})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(projects, 1)
	suite.Equal(active.ID, projects[0].ID)

	projects, total, err = suite.service.List(ListProjectsInput{UserID: suite.owner.ID, IncludeArchived: true})
	suite.Require().NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(projects, 2)
}

func (suite *ProjectServiceTestSuite) TestList_IncludesMemberships() {
	project := suite.createProject("DEMO")
	viewer := createTestUser(&suite.Suite, suite.db, "viewer@example.com")
	addTestMember(&suite.Suite, suite.db, project.ID, viewer.ID, models.RoleViewer)

	projects, _, err := suite.service.List(ListProjectsInput{UserID: viewer.ID})
	suite.Require().NoError(err)
	suite.Require().Len(projects, 1)
	suite.Equal(project.ID, projects[0].ID)
}

func (suite *ProjectServiceTestSuite) TestUpdate_MemberForbidden() {
	project := suite.createProject("DEMO")
	member := createTestUser(&suite.Suite, suite.db, "member@example.com")
	addTestMember(&suite.Suite, suite.db, project.ID, member.ID, models.RoleMember)

	name := "Renamed"
	_, err := suite.service.Update(project.ID, member.ID, UpdateProjectInput{Name: &name})
	suite.Require().Error(err)
	suite.True(apperrors.IsForbidden(err))
}

func (suite *ProjectServiceTestSuite) TestArchive_OwnerOnly() {
	project := suite.createProject("DEMO")
	admin := createTestUser(&suite.Suite, suite.db, "admin@example.com")
	addTestMember(&suite.Suite, suite.db, project.ID, admin.ID, models.RoleAdmin)

	_, err := suite.service.Archive(project.ID, admin.ID)
	suite.Require().Error(err)
	suite.True(apperrors.IsForbidden(err))

	archived, err := suite.service.Archive(project.ID, suite.owner.ID)
	suite.Require().NoError(err)
	suite.True(archived.IsArchived)
	suite.NotNil(archived.ArchivedAt)
}

func (suite *ProjectServiceTestSuite) TestAddMember_Rules() {
	project := suite.createProject("DEMO")
	newcomer := createTestUser(&suite.Suite, suite.db, "new@example.com")

	// OWNER role cannot be granted through membership.
	_, err := suite.service.AddMember(AddMemberInput{
		ProjectID: project.ID,
		ActorID:   suite.owner.ID,
		UserID:    newcomer.ID,
		Role:      models.RoleOwner,
	})
	suite.Require().Error(err)
	suite.True(apperrors.IsValidation(err))

	member, err := suite.service.AddMember(AddMemberInput{
		ProjectID: project.ID,
		ActorID:   suite.owner.ID,
		UserID:    newcomer.ID,
		Role:      models.RoleMember,
	})
	suite.Require().NoError(err)
	suite.Equal(models.RoleMember, member.Role)

	// Adding twice conflicts.
	_, err = suite.service.AddMember(AddMemberInput{
		ProjectID: project.ID,
		ActorID:   suite.owner.ID,
		UserID:    newcomer.ID,
		Role:      models.RoleViewer,
	})
	suite.Require().Error(err)
	suite.True(apperrors.IsConflict(err))

	// Unknown users are reported as missing.
	_, err = suite.service.AddMember(AddMemberInput{
		ProjectID: project.ID,
		ActorID:   suite.owner.ID,
		UserID:    uuid.New(),
		Role:      models.RoleMember,
	})
	suite.Require().Error(err)
	suite.True(apperrors.IsNotFound(err))
}

func (suite *ProjectServiceTestSuite) TestRemoveMember_OwnerCannotBeRemoved() {
	project := suite.createProject("DEMO")
	admin := createTestUser(&suite.Suite, suite.db, "admin@example.com")
	addTestMember(&suite.Suite, suite.db, project.ID, admin.ID, models.RoleAdmin)

	err := suite.service.RemoveMember(project.ID, suite.owner.ID, admin.ID)
	suite.Require().Error(err)
	suite.True(apperrors.IsForbidden(err))
}

func (suite *ProjectServiceTestSuite) TestDelete_CascadesEverything() {
	project := suite.createProject("DEMO")
	column := firstColumn(&suite.Suite, suite.db, project.ID)

	taskService := NewTaskService(suite.db, nil)
	task, err := taskService.CreateTask(CreateTaskInput{
		ColumnID: column.ID,
		ActorID:  suite.owner.ID,
		Title:    "Doomed task",
	})
	suite.Require().NoError(err)

	subtaskService := NewSubtaskService(suite.db)
	_, err = subtaskService.CreateSubtask(task.ID, suite.owner.ID, "Doomed subtask", nil)
	suite.Require().NoError(err)

	commentService := NewCommentService(suite.db)
	_, err = commentService.CreateComment(task.ID, suite.owner.ID, "Doomed comment", nil)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.service.Delete(project.ID, suite.owner.ID))

	for model, label := range map[interface{}]string{
		&models.Project{}:        "projects",
		&models.ProjectCounter{}: "counters",
		&models.Board{}:          "boards",
		&models.Column{}:         "columns",
		&models.Task{}:           "tasks",
		&models.Subtask{}:        "subtasks",
		&models.Comment{}:        "comments",
	} {
		var count int64
		suite.Require().NoError(suite.db.Model(model).Count(&count).Error)
		suite.Zero(count, "expected no %s to remain", label)
	}
}

func (suite *ProjectServiceTestSuite) TestDelete_MemberForbidden() {
	project := suite.createProject("DEMO")
	admin := createTestUser(&suite.Suite, suite.db, "admin@example.com")
	addTestMember(&suite.Suite, suite.db, project.ID, admin.ID, models.RoleAdmin)

	err := suite.service.Delete(project.ID, admin.ID)
	suite.Require().Error(err)
	suite.True(apperrors.IsForbidden(err))
}

func TestProjectServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectServiceTestSuite))
}
