// Package phase exposes the phase catalog. A phase carries the list of
// activity codes that may be booked against it.
package phase

import (
	"github.com/timesheet-manager/tm-core/internal/crud"
	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

// Service specializes the generic CRUD service for phases.
type Service struct {
	*crud.Service[*model.Phase]
}

// NewValidator builds the phase validator.
func NewValidator(structural *validation.Structural, phases docstore.Collection[*model.Phase]) *validation.Object[*model.Phase] {
	v := validation.NewObject[*model.Phase](structural)
	v.Register(validation.Unique(phases,
		validation.UniquenessOption{
			Fields:  []string{"code"},
			Message: "Le code de la phase doit être unique.",
		},
		validation.UniquenessOption{
			Fields:  []string{"name"},
			Message: "Le nom de la phase doit être unique.",
		},
	))
	return v
}

// NewService wires the phase service.
func NewService(structural *validation.Structural, phases docstore.Collection[*model.Phase]) *Service {
	authz := crud.RoleAtLeast[*model.Phase]{MinRead: model.RoleUser, MinWrite: model.RoleSubadmin}
	return &Service{crud.New(phases, NewValidator(structural, phases), authz)}
}
