// Package auth verifies credentials and manages password changes.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/shared"
)

// Service authenticates users stored in the user collection.
type Service struct {
	store docstore.Store
	users docstore.Collection[*model.User]
	cost  int
}

// New builds the auth service. cost is the bcrypt work factor for newly
// hashed passwords; stored hashes at a different cost are transparently
// upgraded on login.
func New(store docstore.Store, users docstore.Collection[*model.User], cost int) *Service {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: store, users: users, cost: cost}
}

// HashPassword hashes a clear text password at the configured cost.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hachage du mot de passe: %w", err)
	}
	return string(hash), nil
}

// Login checks the credentials against the active account carrying the
// username. On success the returned user has its password hash cleared.
// Bad username, bad password and deactivated account are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	docs, err := s.users.Query().
		Where("username", docstore.OpEqual, username).
		Where("isActive", docstore.OpEqual, true).
		Limit(1).
		Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("recherche de l'utilisateur %s: %w", username, err)
	}
	if len(docs) == 0 {
		return nil, shared.ErrInvalidCredentials
	}
	u := docs[0]

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("vérification du mot de passe: %w", err)
	}

	if cost, err := bcrypt.Cost([]byte(u.Password)); err == nil && cost != s.cost {
		if err := s.rehash(ctx, u.ID, password); err != nil {
			return nil, err
		}
	}

	u.Password = ""
	return u, nil
}

// rehash re-stores the password at the configured cost. Runs in a
// transaction so a concurrent update does not lose fields.
func (s *Service) rehash(ctx context.Context, id, password string) error {
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	return s.store.RunTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("relecture de l'utilisateur %s: %w", id, err)
		}
		u.Password = hash
		return s.users.Set(ctx, id, u)
	})
}

// ChangePassword sets a new password on the target account. The actor must
// either outrank the target or be the target and prove the old password.
func (s *Service) ChangePassword(ctx context.Context, actor *model.User, targetID, oldPassword, newPassword string) error {
	if actor == nil {
		return shared.ErrForbidden
	}
	target, err := s.users.Get(ctx, targetID)
	if err != nil {
		return fmt.Errorf("lecture de l'utilisateur %s: %w", targetID, err)
	}

	switch {
	case actor.Role > target.Role:
	case actor.ID == target.ID:
		if err := bcrypt.CompareHashAndPassword([]byte(target.Password), []byte(oldPassword)); err != nil {
			return shared.ErrInvalidCredentials
		}
	default:
		return shared.Forbiddenf("changement de mot de passe refusé pour %s", targetID)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.RunTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.Get(ctx, targetID)
		if err != nil {
			return fmt.Errorf("relecture de l'utilisateur %s: %w", targetID, err)
		}
		u.Password = hash
		return s.users.Set(ctx, targetID, u)
	})
}
