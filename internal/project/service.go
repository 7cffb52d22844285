// Package project exposes the project catalog: readable by everyone,
// maintained by subadmins and up, with unique project codes.
package project

import (
	"context"

	"github.com/timesheet-manager/tm-core/internal/crud"
	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

// Service specializes the generic CRUD service for projects.
type Service struct {
	*crud.Service[*model.Project]
}

// NewValidator builds the project validator.
func NewValidator(structural *validation.Structural, projects docstore.Collection[*model.Project]) *validation.Object[*model.Project] {
	v := validation.NewObject[*model.Project](structural)
	v.Register(validation.Unique(projects, validation.UniquenessOption{
		Fields:  []string{"code"},
		Message: "Le code du projet doit être unique.",
	}))
	return v
}

// NewService wires the project service.
func NewService(structural *validation.Structural, projects docstore.Collection[*model.Project]) *Service {
	authz := crud.RoleAtLeast[*model.Project]{MinRead: model.RoleUser, MinWrite: model.RoleSubadmin}
	return &Service{crud.New(projects, NewValidator(structural, projects), authz)}
}

// SearchByCodePrefix lists projects whose code starts with the given
// prefix. An empty prefix returns nothing rather than the whole catalog.
func (s *Service) SearchByCodePrefix(ctx context.Context, actor *model.User, prefix string, opts *crud.QueryOptions) ([]*model.Project, error) {
	if prefix == "" {
		return nil, nil
	}
	return s.PrefixSearchByField(ctx, actor, "code", prefix, opts)
}
