package crud_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timesheet-manager/tm-core/internal/crud"
	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/docstore/memory"
	"github.com/timesheet-manager/tm-core/internal/model"
	"github.com/timesheet-manager/tm-core/internal/shared"
	"github.com/timesheet-manager/tm-core/internal/validation"
)

// allowAll accepts every operation without narrowing queries.
type allowAll[T docstore.Entity] struct{}

func (allowAll[T]) AuthorizeRead(ctx context.Context, actor *model.User, doc T) (bool, error) {
	return true, nil
}

func (allowAll[T]) AuthorizeQuery(ctx context.Context, actor *model.User, q docstore.Query[T]) (docstore.Query[T], bool, error) {
	return q, true, nil
}

func (allowAll[T]) AuthorizeCreate(ctx context.Context, actor *model.User, proposed T) (bool, error) {
	return true, nil
}

func (allowAll[T]) AuthorizeUpdate(ctx context.Context, actor *model.User, original, proposed T) (bool, error) {
	return true, nil
}

func (allowAll[T]) AuthorizeDelete(ctx context.Context, actor *model.User, original T) (bool, error) {
	return true, nil
}

func newProjectService(t *testing.T, authz crud.Authorizer[*model.Project]) (*crud.Service[*model.Project], docstore.Collection[*model.Project]) {
	t.Helper()
	coll := memory.NewCollection(memory.New(), "project", func() *model.Project { return &model.Project{} })
	structural := validation.NewStructural()
	v := validation.NewObject[*model.Project](structural)
	return crud.New[*model.Project](coll, v, authz), coll
}

func validProject(code string) *model.Project {
	return &model.Project{
		Code:     code,
		Name:     "Projet " + code,
		Client:   "Ville",
		Type:     model.ProjectTypePublic,
		IsActive: true,
	}
}

func anyUser() *model.User {
	return &model.User{Base: model.Base{ID: "u1"}, Role: model.RoleUser}
}

func TestCreateAssignsID(t *testing.T) {
	ctx := context.Background()
	svc, coll := newProjectService(t, allowAll[*model.Project]{})

	res, err := svc.Create(ctx, anyUser(), validProject("23-456"))
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.NotEmpty(t, res.Doc.ID)

	stored, err := coll.Get(ctx, res.Doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "23-456", stored.Code)
}

func TestCreateIgnoresCallerSuppliedID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProjectService(t, allowAll[*model.Project]{})

	p := validProject("23-456")
	p.ID = "forced"
	res, err := svc.Create(ctx, anyUser(), p)
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.NotEqual(t, "forced", res.Doc.ID)
}

func TestCreateReturnsViolationsAsData(t *testing.T) {
	ctx := context.Background()
	svc, coll := newProjectService(t, allowAll[*model.Project]{})

	res, err := svc.Create(ctx, anyUser(), &model.Project{})
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.NotNil(t, validation.Find(res.Errors, "code"))

	count, err := coll.Query().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProjectService(t, allowAll[*model.Project]{})

	doc, err := svc.GetByID(ctx, anyUser(), "absent")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestGetByIDDeniedReturnsForbidden(t *testing.T) {
	ctx := context.Background()
	svc, coll := newProjectService(t, crud.RoleAtLeast[*model.Project]{MinRead: model.RoleAdmin, MinWrite: model.RoleAdmin})

	id, err := coll.Add(ctx, validProject("23-456"))
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, anyUser(), id)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestGetAndCountRespectOptions(t *testing.T) {
	ctx := context.Background()
	svc, coll := newProjectService(t, allowAll[*model.Project]{})

	for _, code := range []string{"23-3", "23-1", "23-2"} {
		_, err := coll.Add(ctx, validProject(code))
		require.NoError(t, err)
	}

	docs, err := svc.Get(ctx, anyUser(), &crud.QueryOptions{
		Sort:  []crud.SortOption{{Field: "code", Direction: docstore.Ascending}},
		Skip:  1,
		Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "23-2", docs[0].Code)

	count, err := svc.Count(ctx, anyUser())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGetDeniedCollection(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProjectService(t, crud.RoleAtLeast[*model.Project]{MinRead: model.RoleAdmin, MinWrite: model.RoleAdmin})

	_, err := svc.Get(ctx, anyUser(), nil)
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Count(ctx, anyUser())
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateRequiresID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProjectService(t, allowAll[*model.Project]{})

	_, err := svc.Update(ctx, anyUser(), validProject("23-456"))
	require.ErrorIs(t, err, shared.ErrBadRequest)
}

func TestUpdateOverwritesDocument(t *testing.T) {
	ctx := context.Background()
	svc, coll := newProjectService(t, allowAll[*model.Project]{})

	id, err := coll.Add(ctx, validProject("23-456"))
	require.NoError(t, err)

	p := validProject("23-456")
	p.ID = id
	p.Name = "Nouveau nom"
	res, err := svc.Update(ctx, anyUser(), p)
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Equal(t, "Nouveau nom", res.Doc.Name)
	assert.Equal(t, id, res.Doc.ID)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, coll := newProjectService(t, allowAll[*model.Project]{})

	id, err := coll.Add(ctx, validProject("23-456"))
	require.NoError(t, err)

	ok, err := svc.Delete(ctx, anyUser(), id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = coll.Get(ctx, id)
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestDeleteDenied(t *testing.T) {
	ctx := context.Background()
	svc, coll := newProjectService(t, crud.RoleAtLeast[*model.Project]{MinRead: model.RoleUser, MinWrite: model.RoleAdmin})

	id, err := coll.Add(ctx, validProject("23-456"))
	require.NoError(t, err)

	_, err = svc.Delete(ctx, anyUser(), id)
	require.ErrorIs(t, err, shared.ErrForbidden)

	ok, err := coll.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSearchByField(t *testing.T) {
	ctx := context.Background()
	svc, coll := newProjectService(t, allowAll[*model.Project]{})

	_, err := coll.Add(ctx, validProject("23-456"))
	require.NoError(t, err)
	_, err = coll.Add(ctx, validProject("24-1"))
	require.NoError(t, err)

	docs, err := svc.SearchByField(ctx, anyUser(), "code", "24-1", nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "24-1", docs[0].Code)
}

func TestPrefixSearchByField(t *testing.T) {
	ctx := context.Background()
	svc, coll := newProjectService(t, allowAll[*model.Project]{})

	for _, code := range []string{"23-456", "23-457", "24-1"} {
		_, err := coll.Add(ctx, validProject(code))
		require.NoError(t, err)
	}

	docs, err := svc.PrefixSearchByField(ctx, anyUser(), "code", "23-", &crud.QueryOptions{
		Sort: []crud.SortOption{{Field: "code", Direction: docstore.Ascending}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "23-456", docs[0].Code)
	assert.Equal(t, "23-457", docs[1].Code)
}
