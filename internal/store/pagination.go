package store

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int // Items per page (defaults to 20 with a maximum of 100)
	Offset int // Number of items to skip
}

// PaginatedResult contains paginated data and metadata.
type PaginatedResult[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// DefaultPaginationParams returns sensible defaults.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Limit: 20}
}

// Validate checks and corrects pagination parameters.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// NewPaginatedResult assembles a page from items, the total row count, and
// the params that produced it.
func NewPaginatedResult[T any](items []T, total int, params PaginationParams) *PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PaginatedResult[T]{
		Items:   items,
		Total:   total,
		HasMore: params.Offset+len(items) < total,
	}
}
