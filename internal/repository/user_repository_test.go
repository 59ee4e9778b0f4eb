package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewUserRepository(db), mock
}

func TestFindByID_ReturnsUser(t *testing.T) {
	repo, mock := setupMockDB(t)

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "first_name", "last_name", "is_active"}).
		AddRow(id, "found@example.com", "hash", "Found", "User", true)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WithArgs(id, 1).
		WillReturnRows(rows)

	user, err := repo.FindByID(id)
	require.NoError(t, err)
	require.Equal(t, id, user.ID)
	require.Equal(t, "found@example.com", user.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := setupMockDB(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(id)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_ReturnsUser(t *testing.T) {
	repo, mock := setupMockDB(t)

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "is_active"}).
		AddRow(id, "mail@example.com", "hash", true)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("mail@example.com", 1).
		WillReturnRows(rows)

	user, err := repo.FindByEmail("mail@example.com")
	require.NoError(t, err)
	require.Equal(t, "mail@example.com", user.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("ghost@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByEmail("ghost@example.com")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
