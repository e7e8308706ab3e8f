// Package mock provides an offline catalog for developer mode. Dates are
// generated relative to the current day so every classification branch can be
// reached without network access.
package mock

import (
	"context"
	"time"

	"github.com/cinetrack/cinetrack/internal/media"
	"github.com/cinetrack/cinetrack/internal/metadata/tmdb"
)

// TMDBClient is a mock implementation of the TMDB client.
type TMDBClient struct {
	now func() time.Time
}

// NewTMDBClient creates a new mock TMDB client.
func NewTMDBClient() *TMDBClient {
	return &TMDBClient{now: time.Now}
}

func (c *TMDBClient) IsConfigured() bool {
	return true
}

func (c *TMDBClient) GetDetails(ctx context.Context, id int, mediaType media.Type) (media.Metadata, error) {
	day := c.dayFunc()
	if mediaType == media.TypeShow {
		for _, build := range mockShows {
			if m := build(day); m.ID == id {
				return m, nil
			}
		}
		return media.Metadata{}, tmdb.ErrNotFound
	}
	for _, build := range mockMovies {
		if m := build(day); m.ID == id {
			return m, nil
		}
	}
	return media.Metadata{}, tmdb.ErrNotFound
}

func (c *TMDBClient) GetReleaseDates(ctx context.Context, id int) (media.ReleaseDatesResponse, error) {
	day := c.dayFunc()
	if build, ok := mockReleaseDates[id]; ok {
		return build(day), nil
	}
	return media.ReleaseDatesResponse{ID: id}, nil
}

func (c *TMDBClient) GetSeasonDetails(ctx context.Context, showID, seasonNumber int) (tmdb.SeasonDetails, error) {
	return tmdb.SeasonDetails{
		SeasonNumber: seasonNumber,
		Episodes: []media.Episode{
			{SeasonNumber: seasonNumber, EpisodeNumber: 1, Runtime: 48},
			{SeasonNumber: seasonNumber, EpisodeNumber: 2, Runtime: 52},
		},
	}, nil
}

func (c *TMDBClient) dayFunc() func(int) string {
	now := c.now()
	return func(offset int) string {
		return now.AddDate(0, 0, offset).Format("2006-01-02")
	}
}

func streaming(region, name string) *media.WatchProviders {
	return &media.WatchProviders{Results: map[string]media.RegionProviders{
		region: {Flatrate: []media.Provider{{ProviderID: 8, ProviderName: name}}},
	}}
}

func trailer(key string) *media.Videos {
	return &media.Videos{Results: []media.Video{
		{Key: key + "-teaser", Site: "YouTube", Type: "Teaser"},
		{Key: key, Site: "YouTube", Type: "Trailer", Official: true},
	}}
}

var mockMovies = []func(day func(int) string) media.Metadata{
	// Streaming in the US for a while.
	func(day func(int) string) media.Metadata {
		return media.Metadata{ID: 603, ImdbID: "tt0133093", Title: "The Matrix", ReleaseDate: "1999-03-30", Runtime: 136,
			Status:         "Released", VoteAverage: 8.2, PosterPath: "/p96dm7sCMn4VYAStA6siNz30G1r.jpg",
			WatchProviders: streaming("US", "Netflix"), Videos: trailer("vKQi3bBA1y8")}
	},
	// In theaters, digital release announced.
	func(day func(int) string) media.Metadata {
		return media.Metadata{ID: 1100001, Title: "Harbor Lights", ReleaseDate: day(-12), Runtime: 118,
			Status: "Released", VoteAverage: 7.1}
	},
	// Announced, nothing dated in the near term.
	func(day func(int) string) media.Metadata {
		return media.Metadata{ID: 1100002, Title: "The Long Orbit", ReleaseDate: day(140),
			Status: "Post Production"}
	},
	// Old release with no provider data anywhere.
	func(day func(int) string) media.Metadata {
		return media.Metadata{ID: 1100003, Title: "Paper Moonlight", ReleaseDate: day(-900), Runtime: 101,
			Status: "Released"}
	},
	// Streaming only outside the US, released eight months ago.
	func(day func(int) string) media.Metadata {
		return media.Metadata{ID: 1100004, Title: "Monsoon Letters", ReleaseDate: day(-240), Runtime: 132,
			Status: "Released", WatchProviders: streaming("IN", "JioHotstar")}
	},
}

var mockReleaseDates = map[int]func(day func(int) string) media.ReleaseDatesResponse{
	1100001: func(day func(int) string) media.ReleaseDatesResponse {
		return media.ReleaseDatesResponse{ID: 1100001, Results: []media.ReleaseDatesByRegion{
			{Iso31661: "US", ReleaseDates: []media.ReleaseDate{
				{Type: media.ReleaseTypeTheatrical, ReleaseDate: day(-12) + "T00:00:00.000Z"},
				{Type: media.ReleaseTypeDigital, ReleaseDate: day(30) + "T00:00:00.000Z", Note: "PVOD"},
			}},
		}}
	},
}

var mockShows = []func(day func(int) string) media.Metadata{
	// Between seasons with the next one scheduled.
	func(day func(int) string) media.Metadata {
		return media.Metadata{ID: 95396, Name: "Severance", Status: "Returning Series", Type: "Scripted",
			FirstAirDate: "2022-02-18", NumberOfSeasons: 2,
			Seasons: []media.Season{
				{SeasonNumber: 1, AirDate: "2022-02-18", EpisodeCount: 9},
				{SeasonNumber: 2, AirDate: "2025-01-17", EpisodeCount: 10},
				{SeasonNumber: 3, AirDate: day(200)},
			},
			LastEpisodeToAir: &media.Episode{SeasonNumber: 2, EpisodeNumber: 10, AirDate: "2025-03-21"},
			NextEpisodeToAir: &media.Episode{SeasonNumber: 3, EpisodeNumber: 1, AirDate: day(200)},
			WatchProviders:   streaming("US", "Apple TV+"), Videos: trailer("xEQP4VVuyrY")}
	},
	// Finished miniseries.
	func(day func(int) string) media.Metadata {
		return media.Metadata{ID: 87108, Name: "Chernobyl", Status: "Ended", Type: "Miniseries",
			FirstAirDate:     "2019-05-06", NumberOfSeasons: 1, EpisodeRunTime: []int{65},
			Seasons:          []media.Season{{SeasonNumber: 1, AirDate: "2019-05-06", EpisodeCount: 5}},
			LastEpisodeToAir: &media.Episode{SeasonNumber: 1, EpisodeNumber: 5, AirDate: "2019-06-03"}}
	},
	// Mid-season, weekly episodes.
	func(day func(int) string) media.Metadata {
		return media.Metadata{ID: 1200001, Name: "Night Ferry", Status: "Returning Series",
			FirstAirDate:     day(-21), NumberOfSeasons: 1,
			Seasons:          []media.Season{{SeasonNumber: 1, AirDate: day(-21), EpisodeCount: 8}},
			LastEpisodeToAir: &media.Episode{SeasonNumber: 1, EpisodeNumber: 4, AirDate: day(-1)},
			NextEpisodeToAir: &media.Episode{SeasonNumber: 1, EpisodeNumber: 5, AirDate: day(6)}}
	},
	// Not yet premiered.
	func(day func(int) string) media.Metadata {
		return media.Metadata{ID: 1200002, Name: "Glass Harbor", Status: "In Production"}
	},
}
