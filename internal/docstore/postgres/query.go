package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

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

// build renders the filter and option clauses. Field paths travel as
// parameters; only validated operator and direction tokens reach the SQL
// text. JSONB comparison gives numeric order for numbers and lexicographic
// order for strings. Timestamps stored as RFC 3339 strings may carry any
// UTC offset, so time-valued filters go through ::timestamptz to compare
// instants rather than text.
func (q *query[T]) build(selectList string) (string, []any, error) {
	var sb strings.Builder
	args := make([]any, 0, 2*len(q.filters)+len(q.orders)+2)
	fmt.Fprintf(&sb, `SELECT %s FROM %s`, selectList, q.coll.table)

	for i, f := range q.filters {
		op, ok := sqlOp(f.op)
		if !ok {
			return "", nil, fmt.Errorf("docstore/postgres: unsupported operator %q", f.op)
		}
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		if ts, ok := f.value.(time.Time); ok {
			args = append(args, f.field, ts)
			fmt.Fprintf(&sb, `(doc #>> string_to_array($%d, '.'))::timestamptz %s $%d::timestamptz`, len(args)-1, op, len(args))
			continue
		}
		val, err := json.Marshal(f.value)
		if err != nil {
			return "", nil, fmt.Errorf("docstore/postgres: encode filter value for %s: %w", f.field, err)
		}
		args = append(args, f.field, string(val))
		fmt.Fprintf(&sb, `(doc #> string_to_array($%d, '.')) %s $%d::jsonb`, len(args)-1, op, len(args))
	}

	for i, o := range q.orders {
		if i == 0 {
			sb.WriteString(" ORDER BY ")
		} else {
			sb.WriteString(", ")
		}
		args = append(args, o.field)
		dir := "ASC"
		if o.dir == docstore.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, `doc #> string_to_array($%d, '.') %s`, len(args), dir)
	}

	if q.offset > 0 {
		args = append(args, q.offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}
	if q.limit > 0 {
		args = append(args, q.limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args, nil
}

func sqlOp(op docstore.Op) (string, bool) {
	switch op {
	case docstore.OpEqual:
		return "=", true
	case docstore.OpGreaterOrEqual:
		return ">=", true
	case docstore.OpLessOrEqual:
		return "<=", true
	}
	return "", false
}

func (q *query[T]) Documents(ctx context.Context) ([]T, error) {
	stmt, args, err := q.build("id, doc")
	if err != nil {
		return nil, err
	}
	rows, err := q.coll.store.querier(ctx).Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore/postgres: query %s: %w", q.coll.name, err)
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("docstore/postgres: query %s: %w", q.coll.name, err)
		}
		doc, err := q.coll.decode(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore/postgres: query %s: %w", q.coll.name, err)
	}
	return out, nil
}

func (q *query[T]) Count(ctx context.Context) (int, error) {
	inner, args, err := q.build("1")
	if err != nil {
		return 0, err
	}
	stmt := fmt.Sprintf(`SELECT count(*) FROM (%s) AS sub`, inner)
	var n int
	if err := q.coll.store.querier(ctx).QueryRow(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("docstore/postgres: count %s: %w", q.coll.name, err)
	}
	return n, nil
}
