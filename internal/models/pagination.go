package models

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is the caller's requested page. A Limit of zero or below asks
// for every matching row in a single page.
type PageRequest struct {
	Page  int
	Limit int
}

// Unbounded reports whether all rows were requested.
func (p PageRequest) Unbounded() bool {
	return p.Limit <= 0
}

// Normalize clamps the page to >= 1 and a positive limit to MaxLimit.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for a bounded request.
func (p PageRequest) Offset() int {
	if p.Unbounded() {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Pagination describes the page returned to the client.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination builds the response pagination. For unbounded requests the
// limit equals the number of rows returned and everything fits on page 1.
func NewPagination(req PageRequest, total, returned int) Pagination {
	if req.Unbounded() {
		pages := 0
		if total > 0 {
			pages = 1
		}
		return Pagination{Page: 1, Limit: returned, Total: total, Pages: pages}
	}
	pages := total / req.Limit
	if total%req.Limit != 0 {
		pages++
	}
	return Pagination{Page: req.Page, Limit: req.Limit, Total: total, Pages: pages}
}
