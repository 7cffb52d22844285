package crud

import "github.com/timesheet-manager/tm-core/internal/docstore"

// SortOption orders results on one field.
type SortOption struct {
	Field     string
	Direction docstore.Direction
}

// QueryOptions carries the optional sort/skip/limit of a collection-level
// read. Sort keys apply in order, then skip, then limit.
type QueryOptions struct {
	Sort  []SortOption
	Skip  int
	Limit int
}

// ApplyOptions derives a query with the options applied. A nil options
// value returns the query unchanged.
func ApplyOptions[T docstore.Entity](q docstore.Query[T], opts *QueryOptions) docstore.Query[T] {
	if opts == nil {
		return q
	}
	for _, s := range opts.Sort {
		q = q.OrderBy(s.Field, s.Direction)
	}
	if opts.Skip > 0 {
		q = q.Offset(opts.Skip)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	return q
}
