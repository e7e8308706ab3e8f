// Package tmdb is a minimal client for the TMDB v3 API covering the
// endpoints the watch list classifies from.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cinetrack/cinetrack/internal/config"
	"github.com/cinetrack/cinetrack/internal/media"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("title not found")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

// Client is a TMDB API client. Outgoing requests share one rate limiter.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
		config:  cfg,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With().Str("component", "tmdb").Logger(),
	}
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// GetDetails fetches movie or show details with providers, videos and
// external ids appended.
func (c *Client) GetDetails(ctx context.Context, id int, mediaType media.Type) (media.Metadata, error) {
	if !c.IsConfigured() {
		return media.Metadata{}, ErrAPIKeyMissing
	}

	path := "movie"
	if mediaType == media.TypeShow {
		path = "tv"
	}

	params := url.Values{}
	params.Set("append_to_response", detailsAppend)

	var details media.Metadata
	if err := c.doRequest(ctx, fmt.Sprintf("%s/%s/%d", c.config.BaseURL, path, id), params, &details); err != nil {
		return media.Metadata{}, err
	}

	if details.ImdbID == "" && details.ExternalIDs != nil {
		details.ImdbID = details.ExternalIDs.ImdbID
	}

	c.logger.Debug().
		Int("id", id).
		Str("type", string(mediaType)).
		Str("title", details.DisplayTitle()).
		Msg("Got details")

	return details, nil
}

// GetReleaseDates fetches the per-region release dates of a movie.
func (c *Client) GetReleaseDates(ctx context.Context, id int) (media.ReleaseDatesResponse, error) {
	if !c.IsConfigured() {
		return media.ReleaseDatesResponse{}, ErrAPIKeyMissing
	}

	var response media.ReleaseDatesResponse
	if err := c.doRequest(ctx, fmt.Sprintf("%s/movie/%d/release_dates", c.config.BaseURL, id), nil, &response); err != nil {
		return media.ReleaseDatesResponse{}, err
	}

	c.logger.Debug().
		Int("id", id).
		Int("regions", len(response.Results)).
		Msg("Got movie release dates")

	return response, nil
}

// GetSeasonDetails fetches one season of a show including its episodes.
func (c *Client) GetSeasonDetails(ctx context.Context, showID, seasonNumber int) (SeasonDetails, error) {
	if !c.IsConfigured() {
		return SeasonDetails{}, ErrAPIKeyMissing
	}

	var details SeasonDetails
	endpoint := fmt.Sprintf("%s/tv/%d/season/%d", c.config.BaseURL, showID, seasonNumber)
	if err := c.doRequest(ctx, endpoint, nil, &details); err != nil {
		return SeasonDetails{}, err
	}

	c.logger.Debug().
		Int("showID", showID).
		Int("seasonNumber", seasonNumber).
		Int("episodes", len(details.Episodes)).
		Msg("Got season details")

	return details, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.config.APIKey)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
