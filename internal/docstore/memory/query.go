package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/timesheet-manager/tm-core/internal/docstore"
)

type filter struct {
	field string
	op    docstore.Op
	value any
}

type order struct {
	field string
	dir   docstore.Direction
}

type query[T docstore.Entity] struct {
	coll    *Collection[T]
	filters []filter
	orders  []order
	offset  int
	limit   int
}

func (q *query[T]) clone() *query[T] {
	cp := *q
	cp.filters = append([]filter(nil), q.filters...)
	cp.orders = append([]order(nil), q.orders...)
	return &cp
}

func (q *query[T]) Where(field string, op docstore.Op, value any) docstore.Query[T] {
	cp := q.clone()
	cp.filters = append(cp.filters, filter{field: field, op: op, value: value})
	return cp
}

func (q *query[T]) OrderBy(field string, dir docstore.Direction) docstore.Query[T] {
	cp := q.clone()
	cp.orders = append(cp.orders, order{field: field, dir: dir})
	return cp
}

func (q *query[T]) Offset(n int) docstore.Query[T] {
	cp := q.clone()
	cp.offset = n
	return cp
}

func (q *query[T]) Limit(n int) docstore.Query[T] {
	cp := q.clone()
	cp.limit = n
	return cp
}

type row struct {
	id     string
	raw    json.RawMessage
	fields map[string]any
}

func (q *query[T]) rows(ctx context.Context) ([]row, error) {
	unlock := q.coll.store.lock(ctx, true)
	docs := q.coll.store.docsLocked(q.coll.name)
	snapshot := make([]row, 0, len(docs))
	for id, raw := range docs {
		snapshot = append(snapshot, row{id: id, raw: raw})
	}
	unlock()

	cmp := newComparer()
	filtered := make([]row, 0, len(snapshot))
	for _, r := range snapshot {
		var fields map[string]any
		if err := json.Unmarshal(r.raw, &fields); err != nil {
			return nil, err
		}
		r.fields = fields
		if q.matches(r, cmp) {
			filtered = append(filtered, r)
		}
	}

	// Stable base order by id so pagination is deterministic even without
	// an explicit OrderBy.
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].id < filtered[j].id })
	if len(q.orders) > 0 {
		sort.SliceStable(filtered, func(i, j int) bool {
			for _, o := range q.orders {
				vi, _ := fieldValue(filtered[i].fields, o.field)
				vj, _ := fieldValue(filtered[j].fields, o.field)
				c := cmp.compare(vi, vj)
				if c == 0 {
					continue
				}
				if o.dir == docstore.Descending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.offset > 0 {
		if q.offset >= len(filtered) {
			return nil, nil
		}
		filtered = filtered[q.offset:]
	}
	if q.limit > 0 && q.limit < len(filtered) {
		filtered = filtered[:q.limit]
	}
	return filtered, nil
}

func (q *query[T]) Documents(ctx context.Context) ([]T, error) {
	rows, err := q.rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		doc, err := q.coll.decode(r.id, r.raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (q *query[T]) Count(ctx context.Context) (int, error) {
	rows, err := q.rows(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (q *query[T]) matches(r row, cmp *comparer) bool {
	for _, f := range q.filters {
		val, ok := fieldValue(r.fields, f.field)
		if !ok {
			return false
		}
		c := cmp.compare(val, normalizeValue(f.value))
		switch f.op {
		case docstore.OpEqual:
			if c != 0 {
				return false
			}
		case docstore.OpGreaterOrEqual:
			if c < 0 {
				return false
			}
		case docstore.OpLessOrEqual:
			if c > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// fieldValue resolves a possibly dotted field path against a decoded document.
func fieldValue(fields map[string]any, path string) (any, bool) {
	cur := any(fields)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// normalizeValue reduces a filter value to its JSON shape so documents and
// filters compare on equal footing (time.Time becomes an RFC 3339 string,
// ints become float64, custom string/int types lose their named type).
func normalizeValue(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

// comparer orders JSON values. Strings compare with French collation, except
// when both sides parse as timestamps, which compare as instants.
type comparer struct {
	col *collate.Collator
}

func newComparer() *comparer {
	return &comparer{col: collate.New(language.French)}
}

func (c *comparer) compare(av, bv any) int {
	switch x := av.(type) {
	case string:
		y, ok := bv.(string)
		if !ok {
			return -1
		}
		if xt, xok := parseTime(x); xok {
			if yt, yok := parseTime(y); yok {
				return xt.Compare(yt)
			}
		}
		return c.col.CompareString(x, y)
	case float64:
		y, ok := toFloat(bv)
		if !ok {
			return -1
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case bool:
		y, ok := bv.(bool)
		if !ok || x == y {
			return 0
		}
		if !x {
			return -1
		}
		return 1
	case nil:
		if bv == nil {
			return 0
		}
		return -1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func parseTime(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, err == nil
}
