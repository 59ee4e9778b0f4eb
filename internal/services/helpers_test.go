package services

import (
	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB gives each test an isolated in-memory database with the full
// schema migrated.
func openTestDB(s *suite.Suite) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectCounter{},
		&models.ProjectMember{},
		&models.Board{},
		&models.Column{},
		&models.Task{},
		&models.TaskAssignee{},
		&models.TaskLabel{},
		&models.TaskWatcher{},
		&models.Subtask{},
		&models.Comment{},
		&models.Label{},
		&models.Attachment{},
	)
	s.Require().NoError(err)
	return db
}

func closeTestDB(s *suite.Suite, db *gorm.DB) {
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func createTestUser(s *suite.Suite, db *gorm.DB, email string) *models.User {
	user := &models.User{
		Email:        email,
		PasswordHash: "hashedpassword",
		FirstName:    "Test",
		LastName:     "User",
	}
	s.Require().NoError(db.Create(user).Error)
	return user
}

func addTestMember(s *suite.Suite, db *gorm.DB, projectID, userID uuid.UUID, role models.ProjectRole) {
	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}
	s.Require().NoError(db.Create(member).Error)
}

// firstColumn returns the project's first board's first column, which for a
// freshly created project is "To Do".
func firstColumn(s *suite.Suite, db *gorm.DB, projectID uuid.UUID) *models.Column {
	var board models.Board
	s.Require().NoError(db.Where("project_id = ?", projectID).Order("position ASC").First(&board).Error)

	var column models.Column
	s.Require().NoError(db.Where("board_id = ?", board.ID).Order("position ASC").First(&column).Error)
	return &column
}
