package domain

const MaxPageSize = 100

// PageRequest asks for at most Limit items after Cursor.
// A nil Cursor starts from the newest item.
type PageRequest struct {
	Cursor *string
	Limit  int
}

// Page holds one slice of results. A nil NextCursor means the end was reached.
type Page[T any] struct {
	Items      []T
	NextCursor *string
}

// Normalize applies the default size and the upper bound.
func (p PageRequest) Normalize(defaultSize int) PageRequest {
	if p.Limit <= 0 {
		p.Limit = defaultSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Cursor != nil && *p.Cursor == "" {
		p.Cursor = nil
	}
	return p
}
