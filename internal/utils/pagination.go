package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ensemble/internal/constants"
)

// PaginationParams is a 1-based page and its size
type PaginationParams struct {
	Page  int
	Limit int
}

// Offset is the number of rows before the page
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// GetPaginationParams reads page and limit from the query, falling back to the
// defaults when they are missing or out of range
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constants.DefaultPageSize)))

	if page < 1 {
		page = 1
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}
	return PaginationParams{Page: page, Limit: limit}
}
