package project_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/docstore/memory"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/project"
	"github.com/timesheet-manager/tm-core/internal/shared"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

func newService(t *testing.T) (*project.Service, docstore.Collection[*model.Project]) {
	t.Helper()
	projects := memory.NewCollection(memory.New(), "project", func() *model.Project { return &model.Project{} })
	return project.NewService(validation.NewStructural(), projects), projects
}

func validProject(code string) *model.Project {
	return &model.Project{
		Code: code, Name: "Projet " + code, Client: "Ville",
		Type: model.ProjectTypePublic, IsActive: true,
	}
}

func subadmin() *model.User {
	return &model.User{Base: model.Base{ID: "sub"}, Username: "sub", Role: model.RoleSubadmin}
}

func plainUser() *model.User {
	return &model.User{Base: model.Base{ID: "u1"}, Username: "jdoe", Role: model.RoleUser}
}

func TestCodeMustBeUnique(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	res, err := svc.Create(ctx, subadmin(), validProject("23-456"))
	require.NoError(t, err)
	require.True(t, res.Valid)

	dup, err := svc.Create(ctx, subadmin(), validProject("23-456"))
	require.NoError(t, err)
	require.False(t, dup.Valid)

	code := validation.Find(dup.Errors, "code")
	require.NotNil(t, code)
	assert.Equal(t, "Le code du projet doit être unique.", code.Constraints["isUnique"])
}

func TestCodeFormat(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	res, err := svc.Create(ctx, subadmin(), validProject("ABC"))
	require.NoError(t, err)
	require.False(t, res.Valid)

	code := validation.Find(res.Errors, "code")
	require.NotNil(t, code)
	assert.Contains(t, code.Constraints, "project_code")
}

func TestEveryoneReadsWritesNeedSubadmin(t *testing.T) {
	ctx := context.Background()
	svc, coll := newService(t)

	id, err := coll.Add(ctx, validProject("23-456"))
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, plainUser(), id)
	require.NoError(t, err)
	assert.Equal(t, "23-456", got.Code)

	_, err = svc.Create(ctx, plainUser(), validProject("23-457"))
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Delete(ctx, plainUser(), id)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestSearchByCodePrefix(t *testing.T) {
	ctx := context.Background()
	svc, coll := newService(t)

	for _, code := range []string{"23-456", "23-9", "24-1"} {
		_, err := coll.Add(ctx, validProject(code))
		require.NoError(t, err)
	}

	docs, err := svc.SearchByCodePrefix(ctx, plainUser(), "23", nil)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	// An empty prefix must not list the whole catalog.
	docs, err = svc.SearchByCodePrefix(ctx, plainUser(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
