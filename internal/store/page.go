package store

// Page is one page of an offset-paginated result. Page numbers start at 1.
type Page[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int
	HasNext  bool
	HasPrev  bool
}

// NewPage derives the pagination metadata for the given slice of items.
func NewPage[T any](items []T, page, pageSize, total int) Page[T] {
	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasNext:  (page-1)*pageSize+len(items) < total,
		HasPrev:  page > 1,
	}
}
