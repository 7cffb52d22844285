// Package timesheet manages two-week timesheets and their roadsheets.
// A sheet belongs to its user; others may touch it only when their role
// outranks the owner's.
package timesheet

import (
	"context"
	"fmt"

	"github.com/timesheet-manager/tm-core/internal/crud"
	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

// Service specializes the generic CRUD service for timesheets.
type Service struct {
	*crud.Service[*model.Timesheet]
}

// NewService wires the timesheet service.
func NewService(
	structural *validation.Structural,
	timesheets docstore.Collection[*model.Timesheet],
	users docstore.Collection[*model.User],
	projects docstore.Collection[*model.Project],
	phases docstore.Collection[*model.Phase],
	activities docstore.Collection[*model.Activity],
) *Service {
	v := NewValidator(structural, timesheets, users, projects, phases, activities)
	return &Service{crud.New(timesheets, v, &authorizer{users: users})}
}

// authorizer lets anyone above the USER role read every sheet, matching
// the query narrowing. Writes are stricter: the owner manages their own
// sheet, and anyone else must hold a role strictly above the owner's.
// The owner's role comes from the user collection, so a lookup is needed
// whenever the writer is not the owner.
type authorizer struct {
	users docstore.Collection[*model.User]
}

// canManage reports whether the actor owns the sheet or outranks the
// user it belongs to.
func (a *authorizer) canManage(ctx context.Context, actor *model.User, ownerID string) (bool, error) {
	if actor == nil {
		return false, nil
	}
	if ownerID == actor.ID {
		return true, nil
	}
	if actor.Role <= model.RoleUser {
		return false, nil
	}
	owner, err := a.users.Get(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("lecture du propriétaire %s: %w", ownerID, err)
	}
	return actor.Role > owner.Role, nil
}

func (a *authorizer) AuthorizeRead(ctx context.Context, actor *model.User, doc *model.Timesheet) (bool, error) {
	if actor == nil {
		return false, nil
	}
	return doc.User == actor.ID || actor.Role > model.RoleUser, nil
}

func (a *authorizer) AuthorizeQuery(ctx context.Context, actor *model.User, q docstore.Query[*model.Timesheet]) (docstore.Query[*model.Timesheet], bool, error) {
	if actor == nil {
		return nil, false, nil
	}
	if actor.Role > model.RoleUser {
		return q, true, nil
	}
	return q.Where("user", docstore.OpEqual, actor.ID), true, nil
}

func (a *authorizer) AuthorizeCreate(ctx context.Context, actor *model.User, proposed *model.Timesheet) (bool, error) {
	return a.canManage(ctx, actor, proposed.User)
}

// AuthorizeUpdate checks both sides of a reassignment: the actor must hold
// rights over the current owner and over the proposed one.
func (a *authorizer) AuthorizeUpdate(ctx context.Context, actor *model.User, original, proposed *model.Timesheet) (bool, error) {
	ok, err := a.canManage(ctx, actor, original.User)
	if err != nil || !ok {
		return false, err
	}
	if proposed.User == original.User {
		return true, nil
	}
	return a.canManage(ctx, actor, proposed.User)
}

func (a *authorizer) AuthorizeDelete(ctx context.Context, actor *model.User, original *model.Timesheet) (bool, error) {
	return a.canManage(ctx, actor, original.User)
}
