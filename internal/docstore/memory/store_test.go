package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timesheet-manager/tm-core/internal/docstore"
	"github.com/timesheet-manager/tm-core/internal/docstore/memory"
)

type note struct {
	ID    string    `json:"_id,omitempty"`
	Title string    `json:"title"`
	Rank  float64   `json:"rank"`
	Done  bool      `json:"done"`
	At    time.Time `json:"at"`
}

func (n *note) DocumentID() string      { return n.ID }
func (n *note) SetDocumentID(id string) { n.ID = id }

func newNotes(t *testing.T) (*memory.Store, *memory.Collection[*note]) {
	t.Helper()
	store := memory.New()
	return store, memory.NewCollection(store, "note", func() *note { return &note{} })
}

func TestCollectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, notes := newNotes(t)

	id, err := notes.Add(ctx, &note{Title: "premier", Rank: 1.5, Done: true})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := notes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "premier", got.Title)
	assert.Equal(t, 1.5, got.Rank)
	assert.True(t, got.Done)

	ok, err := notes.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	_, notes := newNotes(t)

	_, err := notes.Get(ctx, "nope")
	require.ErrorIs(t, err, docstore.ErrNotFound)

	ok, err := notes.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetUpsertsAndDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	_, notes := newNotes(t)

	require.NoError(t, notes.Set(ctx, "fixed", &note{Title: "v1"}))
	require.NoError(t, notes.Set(ctx, "fixed", &note{Title: "v2"}))

	got, err := notes.Get(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)
	assert.Equal(t, "fixed", got.ID)

	require.NoError(t, notes.Delete(ctx, "fixed"))
	require.NoError(t, notes.Delete(ctx, "fixed"))
	_, err = notes.Get(ctx, "fixed")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestQueryFiltersAndPagination(t *testing.T) {
	ctx := context.Background()
	_, notes := newNotes(t)

	for _, n := range []*note{
		{Title: "a", Rank: 1, Done: true},
		{Title: "b", Rank: 2, Done: false},
		{Title: "c", Rank: 3, Done: true},
		{Title: "d", Rank: 4, Done: true},
	} {
		_, err := notes.Add(ctx, n)
		require.NoError(t, err)
	}

	done, err := notes.Query().Where("done", docstore.OpEqual, true).
		OrderBy("rank", docstore.Ascending).Documents(ctx)
	require.NoError(t, err)
	require.Len(t, done, 3)
	assert.Equal(t, "a", done[0].Title)
	assert.Equal(t, "d", done[2].Title)

	page, err := notes.Query().Where("done", docstore.OpEqual, true).
		OrderBy("rank", docstore.Ascending).Offset(1).Limit(1).Documents(ctx)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].Title)

	count, err := notes.Query().Where("rank", docstore.OpGreaterOrEqual, 2).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestQueryTimeRange(t *testing.T) {
	ctx := context.Background()
	_, notes := newNotes(t)

	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := notes.Add(ctx, &note{Title: string(rune('a' + i)), At: base.AddDate(0, 0, i)})
		require.NoError(t, err)
	}

	docs, err := notes.Query().
		Where("at", docstore.OpGreaterOrEqual, base.AddDate(0, 0, 1)).
		Where("at", docstore.OpLessOrEqual, base.AddDate(0, 0, 3)).
		OrderBy("at", docstore.Ascending).
		Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "b", docs[0].Title)
	assert.Equal(t, "d", docs[2].Title)
}

func TestOrderByUsesFrenchCollation(t *testing.T) {
	ctx := context.Background()
	_, notes := newNotes(t)

	for _, title := range []string{"zone", "étage", "abri"} {
		_, err := notes.Add(ctx, &note{Title: title})
		require.NoError(t, err)
	}

	docs, err := notes.Query().OrderBy("title", docstore.Ascending).Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "abri", docs[0].Title)
	assert.Equal(t, "étage", docs[1].Title)
	assert.Equal(t, "zone", docs[2].Title)
}

func TestRunTransactionCommitsAndRollsBack(t *testing.T) {
	ctx := context.Background()
	store, notes := newNotes(t)

	err := store.RunTransaction(ctx, func(ctx context.Context) error {
		_, err := notes.Add(ctx, &note{Title: "kept"})
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.RunTransaction(ctx, func(ctx context.Context) error {
		if _, err := notes.Add(ctx, &note{Title: "discarded"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := notes.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	docs, err := notes.Query().Documents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kept", docs[0].Title)
}
