// tm-admin is the operator CLI: it seeds the first superadmin account and
// offers a few maintenance commands against the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/timesheet-manager/tm-core/internal/app"
	"github.com/timesheet-manager/tm-core/internal/model"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tm-admin:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		return fmt.Errorf("usage: tm-admin <seed-admin|deactivate-user>")
	}

	rt, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	switch os.Args[1] {
	case "seed-admin":
		return seedAdmin(ctx, rt, os.Args[2:])
	case "deactivate-user":
		return deactivateUser(ctx, rt, os.Args[2:])
	default:
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

// system is the implicit actor for operator commands. It never gets stored.
func system() *model.User {
	return &model.User{Role: model.RoleSuperadmin}
}

func seedAdmin(ctx context.Context, rt *app.Runtime, args []string) error {
	fs := flag.NewFlagSet("seed-admin", flag.ContinueOnError)
	username := fs.String("username", "admin", "username of the seeded account")
	email := fs.String("email", "admin@example.com", "email of the seeded account")
	password := fs.String("password", "", "initial password (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		return fmt.Errorf("seed-admin: -password is required")
	}

	existing, err := rt.UserService.SearchByField(ctx, system(), "username", *username, nil)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		rt.Log.Info("account already present", slog.String("username", *username))
		return nil
	}

	hash, err := rt.Auth.HashPassword(*password)
	if err != nil {
		return err
	}
	u := &model.User{
		Username:  *username,
		FirstName: "Super",
		LastName:  "Admin",
		Email:     *email,
		Password:  hash,
		Role:      model.RoleSuperadmin,
		IsActive:  true,
		BillingGroups: []model.BillingGroup{
			{ProjectType: model.ProjectTypePrive, Timeline: []model.BillingRate{{Begin: model.Epoch}}},
			{ProjectType: model.ProjectTypePublic, Timeline: []model.BillingRate{{Begin: model.Epoch}}},
		},
	}

	res, err := rt.UserService.Create(ctx, system(), u)
	if err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("seed-admin: account rejected: %+v", res.Errors)
	}
	rt.Log.Info("superadmin created",
		slog.String("id", res.Doc.ID),
		slog.String("username", res.Doc.Username))
	return nil
}

func deactivateUser(ctx context.Context, rt *app.Runtime, args []string) error {
	fs := flag.NewFlagSet("deactivate-user", flag.ContinueOnError)
	username := fs.String("username", "", "username of the account to deactivate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("deactivate-user: -username is required")
	}

	found, err := rt.UserService.SearchByField(ctx, system(), "username", *username, nil)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return fmt.Errorf("deactivate-user: no account named %q", *username)
	}
	u := found[0]
	u.IsActive = false
	res, err := rt.UserService.Update(ctx, system(), u)
	if err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("deactivate-user: update rejected: %+v", res.Errors)
	}
	rt.Log.Info("account deactivated", slog.String("username", *username))
	return nil
}
