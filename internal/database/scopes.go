package database

import (
	"gorm.io/gorm"

	"github.com/hayashide/project-management-api/internal/utils"
)

// Paginate applies pagination to a GORM query. A zero-value params leaves
// the query unlimited so callers without explicit pagination get all rows.
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Limit <= 0 {
			return db
		}
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}
