package repository

// Pagination carries the page/size parameters shared by every list
// query. Page numbers are 1-based. Zero values fall back to the first
// page with the default size.
type Pagination struct {
	Page int
	Size int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Limit returns the effective LIMIT for the query.
func (p Pagination) Limit() int {
	if p.Size <= 0 {
		return defaultPageSize
	}
	if p.Size > maxPageSize {
		return maxPageSize
	}
	return p.Size
}

// Offset returns the effective OFFSET for the query.
func (p Pagination) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.Limit()
}
