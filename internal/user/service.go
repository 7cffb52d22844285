// Package user manages accounts. Plain users only see themselves;
// subadmins and up administer every account at or below their own role.
package user

import (
	"context"

	"github.com/timesheet-manager/tm-core/internal/crud"
	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

// Service specializes the generic CRUD service for users.
type Service struct {
	*crud.Service[*model.User]
}

// NewService wires the user service.
func NewService(structural *validation.Structural, users docstore.Collection[*model.User]) *Service {
	return &Service{crud.New(users, NewValidator(structural, users), authorizer{})}
}

// authorizer enforces the account policy: users read their own record,
// administrators manage accounts up to their own role, and nobody deletes
// accounts (they are deactivated instead).
type authorizer struct{}

func (authorizer) AuthorizeRead(ctx context.Context, actor *model.User, doc *model.User) (bool, error) {
	if actor == nil {
		return false, nil
	}
	if actor.Role >= model.RoleSubadmin {
		return true, nil
	}
	return actor.Role == model.RoleUser && doc.ID == actor.ID, nil
}

func (authorizer) AuthorizeQuery(ctx context.Context, actor *model.User, q docstore.Query[*model.User]) (docstore.Query[*model.User], bool, error) {
	if actor == nil {
		return nil, false, nil
	}
	if actor.Role >= model.RoleSubadmin {
		return q, true, nil
	}
	if actor.Role == model.RoleUser {
		return q.Where("username", docstore.OpEqual, actor.Username), true, nil
	}
	return nil, false, nil
}

func (authorizer) AuthorizeCreate(ctx context.Context, actor *model.User, proposed *model.User) (bool, error) {
	return actor != nil && actor.Role >= model.RoleSubadmin && proposed.Role <= actor.Role, nil
}

func (authorizer) AuthorizeUpdate(ctx context.Context, actor *model.User, original, proposed *model.User) (bool, error) {
	return actor != nil && actor.Role >= model.RoleSubadmin &&
		original.Role <= actor.Role && proposed.Role <= actor.Role, nil
}

func (authorizer) AuthorizeDelete(ctx context.Context, actor *model.User, original *model.User) (bool, error) {
	// Accounts are never hard-deleted. Flip IsActive instead.
	return false, nil
}
