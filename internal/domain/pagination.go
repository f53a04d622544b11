package domain

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	From int
	Size int
}

// Offset returns the row offset, clamped to 0.
func (p PaginationParams) Offset() int {
	if p.From < 0 {
		return 0
	}
	return p.From
}

// Limit returns the page size, defaulting to 10 when unset.
func (p PaginationParams) Limit() int {
	if p.Size <= 0 {
		return 10
	}
	return p.Size
}
