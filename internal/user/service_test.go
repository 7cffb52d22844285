package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/docstore/memory"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/shared"
	"github.com/timesheet-manager/tm-core/internal/user"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

func newService(t *testing.T) (*user.Service, docstore.Collection[*model.User]) {
	t.Helper()
	users := memory.NewCollection(memory.New(), "user", func() *model.User { return &model.User{} })
	return user.NewService(validation.NewStructural(), users), users
}

func seed(t *testing.T, users docstore.Collection[*model.User], u *model.User) *model.User {
	t.Helper()
	id, err := users.Add(context.Background(), u)
	require.NoError(t, err)
	u.SetDocumentID(id)
	return u
}

func TestPlainUserReadsOnlySelf(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t)

	self := seed(t, users, validUser("jdoe"))
	other := seed(t, users, validUser("mrichard"))

	got, err := svc.GetByID(ctx, self, self.ID)
	require.NoError(t, err)
	assert.Equal(t, self.ID, got.ID)

	_, err = svc.GetByID(ctx, self, other.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestPlainUserQueryNarrowedToSelf(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t)

	self := seed(t, users, validUser("jdoe"))
	seed(t, users, validUser("mrichard"))

	docs, err := svc.Get(ctx, self, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "jdoe", docs[0].Username)

	count, err := svc.Count(ctx, self)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSubadminReadsEveryone(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t)

	seed(t, users, validUser("jdoe"))
	seed(t, users, validUser("mrichard"))
	admin := validUser("boss")
	admin.Role = model.RoleSubadmin
	seed(t, users, admin)

	docs, err := svc.Get(ctx, admin, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestCreateEnforcesRoleCeiling(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t)

	subadmin := validUser("sub")
	subadmin.Role = model.RoleSubadmin
	seed(t, users, subadmin)

	// A subadmin may not mint an admin.
	tooHigh := validUser("newadmin")
	tooHigh.Role = model.RoleAdmin
	_, err := svc.Create(ctx, subadmin, tooHigh)
	require.ErrorIs(t, err, shared.ErrForbidden)

	peer := validUser("newsub")
	peer.Role = model.RoleSubadmin
	res, err := svc.Create(ctx, subadmin, peer)
	require.NoError(t, err)
	assert.True(t, res.Valid, "unexpected errors: %+v", res.Errors)
}

func TestPlainUserCannotCreate(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t)

	actor := seed(t, users, validUser("jdoe"))
	_, err := svc.Create(ctx, actor, validUser("other"))
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateEnforcesRoleCeilingOnBothSides(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t)

	subadmin := validUser("sub")
	subadmin.Role = model.RoleSubadmin
	seed(t, users, subadmin)

	admin := validUser("boss")
	admin.Role = model.RoleAdmin
	seed(t, users, admin)

	// Touching an account above the actor's role is refused.
	admin.FirstName = "Renommé"
	_, err := svc.Update(ctx, subadmin, admin)
	require.ErrorIs(t, err, shared.ErrForbidden)

	// Promoting an account above the actor's role is refused too.
	target := validUser("jdoe")
	seed(t, users, target)
	target.Role = model.RoleAdmin
	_, err = svc.Update(ctx, subadmin, target)
	require.ErrorIs(t, err, shared.ErrForbidden)

	target.Role = model.RoleSubadmin
	res, err := svc.Update(ctx, subadmin, target)
	require.NoError(t, err)
	assert.True(t, res.Valid, "unexpected errors: %+v", res.Errors)
}

func TestAccountsAreNeverDeleted(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t)

	super := validUser("root")
	super.Role = model.RoleSuperadmin
	seed(t, users, super)
	target := seed(t, users, validUser("jdoe"))

	_, err := svc.Delete(ctx, super, target.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	ok, err := users.Exists(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
