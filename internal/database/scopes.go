package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/ensemble/internal/utils"
)

// Paginate limits a query to one page
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset()).Limit(params.Limit)
	}
}
