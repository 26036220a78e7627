package shared

// Filter is the paging and ordering of a list query.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize fills zero values (newest first, 20 per page) and clamps the
// page size.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize < 1:
		f.PageSize = defaultPageSize
	case f.PageSize > maxPageSize:
		f.PageSize = maxPageSize
	}
	if f.OrderBy == "" {
		f.OrderBy = "created_at"
	}
	if f.OrderDir != "asc" && f.OrderDir != "desc" {
		f.OrderDir = "desc"
	}
	if f.Filters == nil {
		f.Filters = map[string]any{}
	}
	return f
}

// Offset returns the row offset of the current page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Paginated is one page of a list query.
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
