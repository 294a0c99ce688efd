package models

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit well inside int range.
	MaxPage = 1_000_000
)

// SortOrder is the direction of a list ordering.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) IsValid() bool { return o == SortAsc || o == SortDesc }

// Page selects a window of a sorted list. SortBy is an API field name that
// repositories map onto a column.
type Page struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder SortOrder
}

// Normalize fills zero values with defaults and clamps the limit.
func (p Page) Normalize(defaultSort string, defaultOrder SortOrder) Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.SortBy == "" {
		p.SortBy = defaultSort
	}
	if !p.SortOrder.IsValid() {
		p.SortOrder = defaultOrder
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageResult is one page of items plus the total matching count.
type PageResult[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}

// TotalPages returns ceil(total/limit), or 0 when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// CompletionRate returns completed/total as a percentage, 0 when total is 0.
func CompletionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// Sortable API fields per resource. Repositories map each onto a column.
var (
	TaskSortFields    = []string{"title", "deadline", "status", "priority", "createdAt", "updatedAt"}
	ProjectSortFields = []string{"name", "status", "startDate", "endDate", "createdAt", "updatedAt"}
	UserSortFields    = []string{"email", "firstName", "lastName", "role", "createdAt", "updatedAt"}
)
