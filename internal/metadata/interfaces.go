package metadata

import (
	"context"

	"github.com/cinetrack/cinetrack/internal/media"
	"github.com/cinetrack/cinetrack/internal/metadata/tmdb"
)

// TMDBClient defines the catalog operations the service depends on.
type TMDBClient interface {
	IsConfigured() bool
	GetDetails(ctx context.Context, id int, mediaType media.Type) (media.Metadata, error)
	GetReleaseDates(ctx context.Context, id int) (media.ReleaseDatesResponse, error)
	GetSeasonDetails(ctx context.Context, showID, seasonNumber int) (tmdb.SeasonDetails, error)
}
