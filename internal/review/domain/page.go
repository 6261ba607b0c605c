package domain

// Paging defaults for review lists.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page describes one slice of a review list.
type Page struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// ClampPage bounds limit to [1, MaxLimit] (0 means DefaultLimit) and offset to >= 0.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// NewPage returns the pagination block for total rows.
func NewPage(total, limit, offset int) Page {
	return Page{Total: total, Limit: limit, Offset: offset, HasMore: offset+limit < total}
}
