package crud

import (
	"context"

	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/model"
)

// Authorizer decides, per operation, whether the acting principal may touch
// the affected documents. The query form returns a possibly narrowed query
// and an allowed flag instead of a bare boolean, so policies can scope a
// collection-level read (for example to the actor's own documents) without
// denying it outright.
type Authorizer[T docstore.Entity] interface {
	AuthorizeRead(ctx context.Context, actor *model.User, doc T) (bool, error)
	AuthorizeQuery(ctx context.Context, actor *model.User, q docstore.Query[T]) (docstore.Query[T], bool, error)
	AuthorizeCreate(ctx context.Context, actor *model.User, proposed T) (bool, error)
	AuthorizeUpdate(ctx context.Context, actor *model.User, original, proposed T) (bool, error)
	AuthorizeDelete(ctx context.Context, actor *model.User, original T) (bool, error)
}

// RoleAtLeast is the canonical reference-entity policy: reads for actors at
// or above MinRead, mutations for actors at or above MinWrite.
type RoleAtLeast[T docstore.Entity] struct {
	MinRead  model.UserRole
	MinWrite model.UserRole
}

func (p RoleAtLeast[T]) AuthorizeRead(ctx context.Context, actor *model.User, doc T) (bool, error) {
	return actor != nil && actor.Role >= p.MinRead, nil
}

func (p RoleAtLeast[T]) AuthorizeQuery(ctx context.Context, actor *model.User, q docstore.Query[T]) (docstore.Query[T], bool, error) {
	if actor != nil && actor.Role >= p.MinRead {
		return q, true, nil
	}
	return nil, false, nil
}

func (p RoleAtLeast[T]) AuthorizeCreate(ctx context.Context, actor *model.User, proposed T) (bool, error) {
	return actor != nil && actor.Role >= p.MinWrite, nil
}

func (p RoleAtLeast[T]) AuthorizeUpdate(ctx context.Context, actor *model.User, original, proposed T) (bool, error) {
	return actor != nil && actor.Role >= p.MinWrite, nil
}

func (p RoleAtLeast[T]) AuthorizeDelete(ctx context.Context, actor *model.User, original T) (bool, error) {
	return actor != nil && actor.Role >= p.MinWrite, nil
}
