package repository

// SortDirection orders a listing ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	defaultSortBy   = "user_id"
)

// sortable whitelists the columns a caller may order by.
var sortable = map[string]bool{
	"user_id":          true,
	"username":         true,
	"email":            true,
	"full_name":        true,
	"creation_date":    true,
	"last_update_date": true,
}

// PageRequest describes pagination and ordering for a listing. The zero
// value normalizes to page 0, size 10, ascending by user id.
type PageRequest struct {
	Page      int
	Size      int
	SortBy    string
	Direction SortDirection
}

// DefaultPageRequest returns the listing defaults.
func DefaultPageRequest() PageRequest {
	return PageRequest{Page: 0, Size: defaultPageSize, SortBy: defaultSortBy, Direction: SortAsc}
}

// Normalize clamps the request into valid bounds and falls back to the
// defaults for missing or non-whitelisted values.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	if !sortable[p.SortBy] {
		p.SortBy = defaultSortBy
	}
	if p.Direction != SortDesc {
		p.Direction = SortAsc
	}
	return p
}

// Offset returns the row offset of the requested page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// TotalPages computes the page count for a total row count.
func (p PageRequest) TotalPages(total int64) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	pages := int(total) / p.Size
	if int(total)%p.Size != 0 {
		pages++
	}
	return pages
}
