package validation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/timesheet-manager/tm-core/internal/docstore"
)

// UniquenessOption declares one field set that must be unique across the
// collection. Multi-field sets express composite uniqueness (first + last
// name).
type UniquenessOption struct {
	Fields  []string
	Message string
}

// Unique builds a semantic validator checking the configured field sets
// against the collection. A duplicate held by the document itself (same id)
// does not conflict, so updates with unchanged fields pass.
func Unique[T docstore.Entity](coll docstore.Collection[T], options ...UniquenessOption) Func[T] {
	return func(ctx context.Context, doc T) (Errors, error) {
		fields, err := documentFields(doc)
		if err != nil {
			return nil, fmt.Errorf("validation: uniqueness on %s: %w", coll.Name(), err)
		}
		var out Errors
		for _, option := range options {
			q := docstore.Query[T](coll.Query())
			complete := true
			for _, f := range option.Fields {
				v, ok := fields[f]
				if !ok || v == nil || v == "" {
					complete = false
					break
				}
				q = q.Where(f, docstore.OpEqual, v)
			}
			if !complete {
				continue
			}
			duplicates, err := q.Limit(1).Documents(ctx)
			if err != nil {
				return nil, fmt.Errorf("validation: uniqueness on %s: %w", coll.Name(), err)
			}
			if len(duplicates) > 0 && duplicates[0].DocumentID() != doc.DocumentID() {
				for _, f := range option.Fields {
					out.Add([]string{f}, "isUnique", option.Message)
				}
			}
		}
		return out, nil
	}
}

// documentFields exposes the JSON view of a document for store queries.
func documentFields(doc any) (map[string]any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
