package watchlist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetrack/cinetrack/internal/media"
	"github.com/cinetrack/cinetrack/internal/testutil"
)

func newTestRemoteStore(t *testing.T) *RemoteStore {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	t.Cleanup(tdb.Close)

	store := NewRemoteStore(tdb.Conn)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return store
}

func TestRemoteStore_UpsertAndList(t *testing.T) {
	store := newTestRemoteStore(t)
	ctx := context.Background()

	saved, err := store.Upsert(ctx, Item{
		ID:          newTempID(),
		UserID:      "user-1",
		ExternalID:  603,
		Type:        media.TypeMovie,
		Title:       "The Matrix",
		PosterPath:  "/matrix.jpg",
		VoteAverage: 8.2,
		Status:      media.StatusMovieUnwatched,
		Metadata:    media.Metadata{ID: 603, Title: "The Matrix", MovedToLibrary: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", saved.ID)
	assert.Equal(t, "user-1", saved.UserID)
	assert.Equal(t, "/matrix.jpg", saved.PosterPath)
	assert.True(t, saved.Metadata.MovedToLibrary)

	again, err := store.Upsert(ctx, Item{
		UserID:     "user-1",
		ExternalID: 603,
		Type:       media.TypeMovie,
		Title:      "The Matrix",
		Status:     media.StatusMovieWatched,
		CreatedAt:  time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID, "upsert keeps the row")
	assert.True(t, saved.CreatedAt.Equal(again.CreatedAt), "created_at is never rewritten")
	assert.Equal(t, media.StatusMovieWatched, again.Status)
	assert.Empty(t, again.PosterPath)

	_, err = store.Upsert(ctx, Item{UserID: "user-1", ExternalID: 603, Type: media.TypeShow, Status: media.StatusShowNew})
	require.NoError(t, err)
	_, err = store.Upsert(ctx, Item{UserID: "user-2", ExternalID: 603, Type: media.TypeMovie, Status: media.StatusMovieOnOTT})
	require.NoError(t, err)

	items, err := store.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, media.TypeShow, items[0].Type, "newest first")
	assert.Equal(t, media.TypeMovie, items[1].Type)

	others, err := store.List(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestRemoteStore_Remove(t *testing.T) {
	store := newTestRemoteStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, Item{UserID: "user-1", ExternalID: 1, Type: media.TypeMovie, Status: media.StatusMovieUnwatched})
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, "user-2", 1, media.TypeMovie))
	items, err := store.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, items, 1, "other users cannot remove the item")

	require.NoError(t, store.Remove(ctx, "user-1", 1, media.TypeMovie))
	items, err = store.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRemoteStore_ListActive(t *testing.T) {
	store := newTestRemoteStore(t)
	ctx := context.Background()

	for _, it := range []Item{
		{UserID: "a", ExternalID: 1, Type: media.TypeMovie, Status: media.StatusMovieComingSoon},
		{UserID: "b", ExternalID: 2, Type: media.TypeShow, Status: media.StatusShowReturning},
		{UserID: "a", ExternalID: 3, Type: media.TypeShow, Status: media.StatusShowWatched},
		{UserID: "c", ExternalID: 4, Type: media.TypeMovie, Status: media.StatusMovieOnOTT},
	} {
		_, err := store.Upsert(ctx, it)
		require.NoError(t, err)
	}

	// Touch the first item so it becomes the most recently updated.
	_, err := store.Upsert(ctx, Item{UserID: "a", ExternalID: 1, Type: media.TypeMovie, Status: media.StatusMovieComingSoon})
	require.NoError(t, err)

	active, err := store.ListActive(ctx, 0)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, []int{2, 4, 1}, []int{active[0].ExternalID, active[1].ExternalID, active[2].ExternalID})

	limited, err := store.ListActive(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 2, limited[0].ExternalID)
}
