package persistence

import (
	"strings"

	"github.com/seoblog/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalises to ASC or DESC, defaulting to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, else defaultField.
func ValidateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	f := strings.TrimSpace(sortField)
	if f != "" && allowed[f] {
		return f
	}
	return defaultField
}

var RunSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"started_at":   true,
	"finished_at":  true,
	"product_name": true,
	"status":       true,
	"duration_ms":  true,
}

var ArticleSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"title":         true,
	"quality_score": true,
	"word_count":    true,
	"published_at":  true,
}

var ScheduleSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"last_run_at": true,
}

// paginate applies ordering and the page window of a normalised filter.
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	return query.
		Order(field + " " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}

// likeAny matches the search term case-insensitively against columns.
// LOWER/LIKE keeps it portable between postgres and sqlite.
func likeAny(query *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + strings.ToLower(term) + "%"
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		clauses[i] = "LOWER(" + c + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where(strings.Join(clauses, " OR "), args...)
}
