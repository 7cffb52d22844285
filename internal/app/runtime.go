package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/timesheet-manager/tm-core/internal/activity"
	"github.com/timesheet-manager/tm-core/internal/auth"
	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/docstore/memory"
	"github.com/timesheet-manager/tm-core/internal/docstore/postgres"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/phase"
	"github.com/timesheet-manager/tm-core/internal/project"
	"github.com/timesheet-manager/tm-core/internal/timesheet"
	"github.com/timesheet-manager/tm-core/internal/user"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

// Runtime wires the selected store backend, the collections and every
// service on top of them.
type Runtime struct {
	Cfg *Config
	Log *slog.Logger

	Store docstore.Store

	Users      docstore.Collection[*model.User]
	Projects   docstore.Collection[*model.Project]
	Phases     docstore.Collection[*model.Phase]
	Activities docstore.Collection[*model.Activity]
	Timesheets docstore.Collection[*model.Timesheet]

	UserService      *user.Service
	ProjectService   *project.Service
	PhaseService     *phase.Service
	ActivityService  *activity.Service
	TimesheetService *timesheet.Service
	Auth             *auth.Service

	pg *postgres.Store
}

// NewRuntime opens the configured backend and builds the service graph.
func NewRuntime(ctx context.Context, cfg *Config, log *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Cfg: cfg, Log: log}

	switch cfg.StoreBackend {
	case BackendMemory:
		store := memory.New()
		rt.Store = store
		rt.Users = memory.NewCollection(store, "user", func() *model.User { return &model.User{} })
		rt.Projects = memory.NewCollection(store, "project", func() *model.Project { return &model.Project{} })
		rt.Phases = memory.NewCollection(store, "phase", func() *model.Phase { return &model.Phase{} })
		rt.Activities = memory.NewCollection(store, "activity", func() *model.Activity { return &model.Activity{} })
		rt.Timesheets = memory.NewCollection(store, "timesheet", func() *model.Timesheet { return &model.Timesheet{} })
	case BackendPostgres:
		store, err := postgres.Open(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := store.Migrate(ctx, "user", "project", "phase", "activity", "timesheet"); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate postgres store: %w", err)
		}
		rt.pg = store
		rt.Store = store
		rt.Users = postgres.NewCollection(store, "user", func() *model.User { return &model.User{} })
		rt.Projects = postgres.NewCollection(store, "project", func() *model.Project { return &model.Project{} })
		rt.Phases = postgres.NewCollection(store, "phase", func() *model.Phase { return &model.Phase{} })
		rt.Activities = postgres.NewCollection(store, "activity", func() *model.Activity { return &model.Activity{} })
		rt.Timesheets = postgres.NewCollection(store, "timesheet", func() *model.Timesheet { return &model.Timesheet{} })
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	structural := validation.NewStructural()
	rt.UserService = user.NewService(structural, rt.Users)
	rt.ProjectService = project.NewService(structural, rt.Projects)
	rt.PhaseService = phase.NewService(structural, rt.Phases)
	rt.ActivityService = activity.NewService(structural, rt.Activities)
	rt.TimesheetService = timesheet.NewService(structural, rt.Timesheets, rt.Users, rt.Projects, rt.Phases, rt.Activities)
	rt.Auth = auth.New(rt.Store, rt.Users, cfg.BcryptCost)
	return rt, nil
}

// Close releases backend resources.
func (rt *Runtime) Close() {
	if rt.pg != nil {
		rt.pg.Close()
	}
}
