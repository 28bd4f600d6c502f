package service

import (
	"strings"

	"github.com/noah-isme/autoplanning-api/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	dashboardCachePattern = "dash:summary:*"
)

// paginate slices items according to page and size and returns pagination metadata.
func paginate[T any](items []T, page, size int) ([]T, *models.Pagination) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	total := len(items)
	from := (page - 1) * size
	if from > total {
		from = total
	}
	to := from + size
	if to > total {
		to = total
	}
	return items[from:to], &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func matchesSearch(search string, fields ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}
