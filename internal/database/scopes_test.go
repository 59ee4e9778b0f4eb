package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hayashide/project-management-api/internal/utils"
)

type paginateRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openScopeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&paginateRow{}))
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&paginateRow{Name: fmt.Sprintf("row-%d", i)}).Error)
	}
	return db
}

func TestPaginate_AppliesOffsetAndLimit(t *testing.T) {
	db := openScopeTestDB(t)

	var rows []paginateRow
	err := db.Scopes(Paginate(utils.PaginationParams{Page: 2, Limit: 2, Offset: 2})).
		Order("id").Find(&rows).Error
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "row-2", rows[0].Name)
}

func TestPaginate_ZeroValueReturnsAllRows(t *testing.T) {
	db := openScopeTestDB(t)

	var rows []paginateRow
	err := db.Scopes(Paginate(utils.PaginationParams{})).Order("id").Find(&rows).Error
	require.NoError(t, err)
	require.Len(t, rows, 5)
}
