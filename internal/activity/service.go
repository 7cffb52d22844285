// Package activity exposes the activity catalog.
package activity

import (
	"github.com/timesheet-manager/tm-core/internal/crud"
	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

// Service specializes the generic CRUD service for activities.
type Service struct {
	*crud.Service[*model.Activity]
}

// NewValidator builds the activity validator.
func NewValidator(structural *validation.Structural, activities docstore.Collection[*model.Activity]) *validation.Object[*model.Activity] {
	v := validation.NewObject[*model.Activity](structural)
	v.Register(validation.Unique(activities,
		validation.UniquenessOption{
			Fields:  []string{"code"},
			Message: "Le code de l'activité doit être unique.",
		},
		validation.UniquenessOption{
			Fields:  []string{"name"},
			Message: "Le nom de l'activité doit être unique.",
		},
	))
	return v
}

// NewService wires the activity service.
func NewService(structural *validation.Structural, activities docstore.Collection[*model.Activity]) *Service {
	authz := crud.RoleAtLeast[*model.Activity]{MinRead: model.RoleUser, MinWrite: model.RoleSubadmin}
	return &Service{crud.New(activities, NewValidator(structural, activities), authz)}
}
