package watchlist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetrack/cinetrack/internal/config"
	"github.com/cinetrack/cinetrack/internal/media"
	"github.com/cinetrack/cinetrack/internal/metadata"
	"github.com/cinetrack/cinetrack/internal/metadata/tmdb"
	"github.com/cinetrack/cinetrack/internal/testutil"
)

// catalogClient serves show details that the test can change between calls.
type catalogClient struct {
	mu    sync.Mutex
	shows map[int]media.Metadata
	calls int
}

func (c *catalogClient) set(m media.Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shows[m.ID] = m
}

func (c *catalogClient) IsConfigured() bool { return true }

func (c *catalogClient) GetDetails(ctx context.Context, id int, mediaType media.Type) (media.Metadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	m, ok := c.shows[id]
	if !ok {
		return media.Metadata{}, tmdb.ErrNotFound
	}
	return m, nil
}

func (c *catalogClient) GetReleaseDates(ctx context.Context, id int) (media.ReleaseDatesResponse, error) {
	return media.ReleaseDatesResponse{}, nil
}

func (c *catalogClient) GetSeasonDetails(ctx context.Context, showID, seasonNumber int) (tmdb.SeasonDetails, error) {
	return tmdb.SeasonDetails{}, nil
}

func oneSeasonShow() media.Metadata {
	return media.Metadata{
		ID:               4242,
		Name:             "Slow Burn",
		Status:           "Returning Series",
		NumberOfSeasons:  1,
		EpisodeRunTime:   []int{45},
		Seasons:          []media.Season{{SeasonNumber: 1, AirDate: day(-200)}},
		LastEpisodeToAir: &media.Episode{SeasonNumber: 1, EpisodeNumber: 8, AirDate: day(-150)},
	}
}

func TestService_RefreshBypassesCatalogCache(t *testing.T) {
	logger := testutil.NopLogger()
	client := &catalogClient{shows: map[int]media.Metadata{}}
	client.set(oneSeasonShow())

	catalog := metadata.NewServiceWithClient(client, config.TMDBConfig{Region: "US", CacheTTLMinutes: 15}, logger)
	t.Cleanup(catalog.Close)

	store := NewStore(NewLocalStore(afero.NewMemMapFs(), "/data"), nil, logger)
	svc := NewService(store, catalog, nil, "US", logger)
	svc.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	_, err := svc.Add(ctx, LocalUserID, 4242, media.TypeShow)
	require.NoError(t, err)
	watched, err := svc.MarkSeasonWatched(ctx, LocalUserID, 4242, media.TypeShow, 1)
	require.NoError(t, err)
	require.Equal(t, media.StatusShowWatched, watched.Status)

	renewed := oneSeasonShow()
	renewed.NumberOfSeasons = 2
	renewed.Seasons = append(renewed.Seasons, media.Season{SeasonNumber: 2, AirDate: day(60)})
	renewed.NextEpisodeToAir = &media.Episode{SeasonNumber: 2, EpisodeNumber: 1, AirDate: day(60)}
	client.set(renewed)

	refreshed, err := svc.Refresh(ctx, LocalUserID, 4242, media.TypeShow)
	require.NoError(t, err)
	assert.Equal(t, media.StatusShowReturning, refreshed.Status)
	assert.Equal(t, 2, refreshed.Metadata.NumberOfSeasons)
	assert.Equal(t, 2, client.calls, "refresh must reach the catalog")
}
