// Package metadata fronts the catalog client with a response cache and the
// optional enrichment steps applied before classification.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cinetrack/cinetrack/internal/config"
	"github.com/cinetrack/cinetrack/internal/media"
	"github.com/cinetrack/cinetrack/internal/metadata/tmdb"
)

var (
	ErrNotConfigured = errors.New("metadata provider not configured")
	ErrNotFound      = errors.New("metadata not found")
)

// Service fetches catalog details and release dates.
type Service struct {
	mu            sync.RWMutex
	tmdb          TMDBClient
	cache         *Cache
	defaultRegion string
	logger        zerolog.Logger
}

// NewService creates a metadata service backed by the real TMDB client.
func NewService(cfg config.TMDBConfig, logger zerolog.Logger) *Service {
	return NewServiceWithClient(tmdb.NewClient(cfg, logger), cfg, logger)
}

// NewServiceWithClient creates a metadata service with a custom client.
func NewServiceWithClient(client TMDBClient, cfg config.TMDBConfig, logger zerolog.Logger) *Service {
	cacheCfg := DefaultCacheConfig()
	if ttl := cfg.CacheTTL(); ttl > 0 {
		cacheCfg.TTL = ttl
	}
	return &Service{
		tmdb:          client,
		cache:         NewCache(cacheCfg),
		defaultRegion: media.NormalizeRegion(cfg.Region),
		logger:        logger.With().Str("component", "metadata").Logger(),
	}
}

// SetClient replaces the catalog client and drops cached responses.
func (s *Service) SetClient(client TMDBClient) {
	s.mu.Lock()
	s.tmdb = client
	s.mu.Unlock()
	s.cache.Clear()
}

func (s *Service) client() TMDBClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tmdb
}

// Close releases the response cache.
func (s *Service) Close() {
	s.cache.Close()
}

// IsConfigured reports whether the catalog client can make requests.
func (s *Service) IsConfigured() bool {
	client := s.client()
	return client != nil && client.IsConfigured()
}

// probeID is a long-lived catalog title used to check reachability.
const probeID = 603

// Probe makes one uncached catalog request and reports whether it succeeded.
func (s *Service) Probe(ctx context.Context) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	if _, err := s.client().GetDetails(ctx, probeID, media.TypeMovie); err != nil {
		return s.wrap(err, "details", probeID)
	}
	return nil
}

// DefaultRegion returns the region used when a caller passes none.
func (s *Service) DefaultRegion() string {
	return s.defaultRegion
}

// Details returns full catalog details for a title. Provider listings for
// every region are kept; callers prune to region once classification is done.
// Shows without an advertised episode runtime are enriched from the season of
// their last aired episode.
func (s *Service) Details(ctx context.Context, externalID int, mediaType media.Type, region string) (media.Metadata, error) {
	if !s.IsConfigured() {
		return media.Metadata{}, ErrNotConfigured
	}

	key := detailsKey(externalID, mediaType)
	if cached, ok := s.cache.GetDetails(key); ok {
		return cached, nil
	}

	details, err := s.client().GetDetails(ctx, externalID, mediaType)
	if err != nil {
		return media.Metadata{}, s.wrap(err, "details", externalID)
	}

	if mediaType == media.TypeShow && len(details.EpisodeRunTime) == 0 {
		s.enrichRuntime(ctx, &details)
	}

	s.cache.Set(key, details)

	s.logger.Debug().
		Int("externalId", externalID).
		Str("type", string(mediaType)).
		Str("region", s.regionOrDefault(region)).
		Msg("Fetched catalog details")

	return details, nil
}

// ReleaseDates returns the per-region release dates of a movie.
func (s *Service) ReleaseDates(ctx context.Context, externalID int) (media.ReleaseDatesResponse, error) {
	if !s.IsConfigured() {
		return media.ReleaseDatesResponse{}, ErrNotConfigured
	}

	key := releaseDatesKey(externalID)
	if cached, ok := s.cache.GetReleaseDates(key); ok {
		return cached, nil
	}

	resp, err := s.client().GetReleaseDates(ctx, externalID)
	if err != nil {
		return media.ReleaseDatesResponse{}, s.wrap(err, "release dates", externalID)
	}

	s.cache.Set(key, resp)
	return resp, nil
}

// Invalidate drops cached responses for a title so the next lookup hits the
// catalog.
func (s *Service) Invalidate(externalID int, mediaType media.Type) {
	s.cache.Delete(detailsKey(externalID, mediaType))
	if mediaType == media.TypeMovie {
		s.cache.Delete(releaseDatesKey(externalID))
	}
}

// ClearCache drops every cached response.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// enrichRuntime fills EpisodeRunTime from the season of the last aired
// episode. Failures leave the field empty.
func (s *Service) enrichRuntime(ctx context.Context, details *media.Metadata) {
	last := details.LastEpisodeToAir
	if last == nil || last.SeasonNumber <= 0 {
		return
	}
	if last.Runtime > 0 {
		details.EpisodeRunTime = []int{last.Runtime}
		return
	}

	season, err := s.client().GetSeasonDetails(ctx, details.ID, last.SeasonNumber)
	if err != nil {
		s.logger.Debug().Err(err).
			Int("externalId", details.ID).
			Int("season", last.SeasonNumber).
			Msg("Runtime enrichment unavailable")
		return
	}

	if runtime := season.AverageRuntime(); runtime > 0 {
		details.EpisodeRunTime = []int{runtime}
	}
}

func (s *Service) regionOrDefault(region string) string {
	if region == "" {
		return s.defaultRegion
	}
	return media.NormalizeRegion(region)
}

func (s *Service) wrap(err error, what string, externalID int) error {
	switch {
	case errors.Is(err, tmdb.ErrNotFound):
		return fmt.Errorf("%w: %s for %d", ErrNotFound, what, externalID)
	case errors.Is(err, tmdb.ErrAPIKeyMissing):
		return fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	return fmt.Errorf("failed to fetch %s for %d: %w", what, externalID, err)
}

func detailsKey(externalID int, mediaType media.Type) string {
	return fmt.Sprintf("details:%s:%d", mediaType, externalID)
}

func releaseDatesKey(externalID int) string {
	return fmt.Sprintf("release_dates:%d", externalID)
}
