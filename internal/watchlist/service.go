package watchlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinetrack/cinetrack/internal/classify"
	"github.com/cinetrack/cinetrack/internal/media"
)

// MetadataSource fetches catalog data for classification.
type MetadataSource interface {
	Details(ctx context.Context, externalID int, t media.Type, region string) (media.Metadata, error)
	ReleaseDates(ctx context.Context, externalID int) (media.ReleaseDatesResponse, error)
}

// cachedSource is implemented by metadata sources that cache responses.
// Refresh drops the cached entry first so it classifies from current data.
type cachedSource interface {
	Invalidate(externalID int, t media.Type)
}

// Broadcaster pushes change notifications to one user's connected clients.
type Broadcaster interface {
	BroadcastToUser(userID, msgType string, payload interface{}) error
}

// RemovedEvent is the payload of watchlist:removed.
type RemovedEvent struct {
	ExternalID int        `json:"externalId"`
	Type       media.Type `json:"type"`
}

// RevertedEvent is the payload of watchlist:reverted.
type RevertedEvent struct {
	ExternalID int        `json:"externalId"`
	Type       media.Type `json:"type"`
	Operation  string     `json:"operation"`
	Error      string     `json:"error"`
}

// Service applies watch list mutations optimistically and keeps them in
// step with the durable store.
type Service struct {
	store  *Store
	source MetadataSource
	hub    Broadcaster
	locks  *keyedMutex
	region string
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates a watch list service. hub may be nil.
func NewService(store *Store, source MetadataSource, hub Broadcaster, region string, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		source: source,
		hub:    hub,
		locks:  newKeyedMutex(),
		region: media.NormalizeRegion(region),
		now:    time.Now,
		logger: logger.With().Str("component", "watchlist").Logger(),
	}
}

// Region returns the region availability is evaluated in.
func (s *Service) Region() string {
	return s.region
}

// List returns the user's items, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Item, error) {
	return s.store.Get(ctx, userID)
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, userID string, externalID int, t media.Type) (*Item, error) {
	items, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if matches(items[i], externalID, t) {
			return &items[i], nil
		}
	}
	return nil, ErrItemNotFound
}

// Invalidate drops the user's cached list, e.g. when their window regains
// focus.
func (s *Service) Invalidate(userID string) {
	s.store.Cache().Invalidate(userID)
	s.logger.Debug().Str("userId", userID).Msg("Invalidated watchlist cache")
}

// InvalidateAll drops every cached list.
func (s *Service) InvalidateAll() {
	s.store.Cache().InvalidateAll()
}

// Add fetches the title, classifies it and stores it. An item already on
// the list is replaced by the fresh one, keeping its ID.
func (s *Service) Add(ctx context.Context, userID string, externalID int, t media.Type) (*Item, error) {
	if err := validateType(t); err != nil {
		return nil, err
	}

	details, dates, err := s.fetch(ctx, externalID, t)
	if err != nil {
		return nil, err
	}

	key := Key{UserID: userID, ExternalID: externalID, Type: t}
	return s.mutate(ctx, key, "add", func(current *Item) (*Item, error) {
		item := Item{
			ID:         newTempID(),
			ExternalID: externalID,
			Type:       t,
		}
		if current != nil {
			item.ID = current.ID
			item.CreatedAt = current.CreatedAt
		}
		s.classifyFetched(&item, details, dates, true)
		return &item, nil
	})
}

// Remove deletes an item.
func (s *Service) Remove(ctx context.Context, userID string, externalID int, t media.Type) error {
	key := Key{UserID: userID, ExternalID: externalID, Type: t}
	_, err := s.mutate(ctx, key, "remove", func(current *Item) (*Item, error) {
		if current == nil {
			return nil, ErrItemNotFound
		}
		return nil, nil
	})
	return err
}

// ChangeStatus sets the status directly.
func (s *Service) ChangeStatus(ctx context.Context, userID string, externalID int, t media.Type, status media.Status) (*Item, error) {
	if !status.ValidFor(t) {
		return nil, ErrInvalidStatus
	}
	return s.update(ctx, userID, externalID, t, "change status", func(item *Item) error {
		item.Status = status
		if status == media.StatusMovieUnwatched || status == media.StatusMovieWatched {
			item.Metadata.MovedToLibrary = true
		}
		return nil
	})
}

// UpdateMetadata replaces the stored metadata snapshot with the pruned form
// of m. Bookkeeping flags and a manual digital date stay as they were; they
// change only through MoveToLibrary, DismissFromUpcoming, RestoreToUpcoming
// and SetManualReleaseDate.
func (s *Service) UpdateMetadata(ctx context.Context, userID string, externalID int, t media.Type, m media.Metadata) (*Item, error) {
	return s.update(ctx, userID, externalID, t, "update metadata", func(item *Item) error {
		item.Metadata = media.Prune(m, s.region).CarryBookkeeping(item.Metadata)
		item.snapshotDisplay()
		return nil
	})
}

// MarkWatched marks a movie watched, or every released season of a show.
func (s *Service) MarkWatched(ctx context.Context, userID string, externalID int, t media.Type) (*Item, error) {
	return s.update(ctx, userID, externalID, t, "mark watched", func(item *Item) error {
		if item.Type == media.TypeMovie {
			item.Status = media.StatusMovieWatched
			item.Metadata.MovedToLibrary = true
			return nil
		}

		released := classify.ReleasedSeasonCount(item.Metadata, s.now())
		if released == 0 {
			return ErrInvalidSeason
		}
		item.LastWatchedSeason = max(item.LastWatchedSeason, released)
		item.Status = classify.DetermineShowStatusAt(item.Metadata, item.LastWatchedSeason, s.now())
		return nil
	})
}

// MarkUnwatched clears a movie's watched state or a show's progress.
func (s *Service) MarkUnwatched(ctx context.Context, userID string, externalID int, t media.Type) (*Item, error) {
	return s.update(ctx, userID, externalID, t, "mark unwatched", func(item *Item) error {
		if item.Type == media.TypeMovie {
			item.Status = media.StatusMovieUnwatched
			item.Metadata.MovedToLibrary = true
			return nil
		}

		item.LastWatchedSeason = 0
		item.Status = classify.DetermineShowStatusAt(item.Metadata, 0, s.now())
		return nil
	})
}

// MarkSeasonWatched records a show as watched through season. Progress
// never moves backwards here.
func (s *Service) MarkSeasonWatched(ctx context.Context, userID string, externalID int, t media.Type, season int) (*Item, error) {
	return s.update(ctx, userID, externalID, t, "mark season watched", func(item *Item) error {
		if err := validateSeason(*item, season); err != nil {
			return err
		}
		item.LastWatchedSeason = max(item.LastWatchedSeason, season)
		s.reclassifyProgress(item)
		return nil
	})
}

// MarkSeasonUnwatched rolls progress back to the season before season if
// it had been reached.
func (s *Service) MarkSeasonUnwatched(ctx context.Context, userID string, externalID int, t media.Type, season int) (*Item, error) {
	return s.update(ctx, userID, externalID, t, "mark season unwatched", func(item *Item) error {
		if err := validateSeason(*item, season); err != nil {
			return err
		}
		if item.LastWatchedSeason >= season {
			item.LastWatchedSeason = season - 1
		}
		s.reclassifyProgress(item)
		return nil
	})
}

// MoveToLibrary takes an item out of the upcoming view. A movie still
// waiting for release becomes unwatched.
func (s *Service) MoveToLibrary(ctx context.Context, userID string, externalID int, t media.Type) (*Item, error) {
	return s.update(ctx, userID, externalID, t, "move to library", func(item *Item) error {
		item.Metadata.MovedToLibrary = true
		if item.Status == media.StatusMovieComingSoon || item.Status == media.StatusMovieOnOTT {
			item.Status = media.StatusMovieUnwatched
		}
		return nil
	})
}

// Drop moves an item to the dropped status for its type.
func (s *Service) Drop(ctx context.Context, userID string, externalID int, t media.Type) (*Item, error) {
	return s.update(ctx, userID, externalID, t, "drop", func(item *Item) error {
		item.Status = media.DroppedStatus(item.Type)
		return nil
	})
}

// Restore brings a dropped item back. Movies return to unwatched; shows
// are classified again from their progress.
func (s *Service) Restore(ctx context.Context, userID string, externalID int, t media.Type) (*Item, error) {
	return s.update(ctx, userID, externalID, t, "restore", func(item *Item) error {
		if item.Type == media.TypeMovie {
			item.Status = media.StatusMovieUnwatched
			return nil
		}
		item.Status = classify.DetermineShowStatusAt(item.Metadata, item.LastWatchedSeason, s.now())
		return nil
	})
}

// DismissFromUpcoming hides an item from the upcoming view.
func (s *Service) DismissFromUpcoming(ctx context.Context, userID string, externalID int, t media.Type) (*Item, error) {
	return s.update(ctx, userID, externalID, t, "dismiss from upcoming", func(item *Item) error {
		item.Metadata.DismissedFromUpcoming = true
		return nil
	})
}

// RestoreToUpcoming undoes DismissFromUpcoming and MoveToLibrary.
func (s *Service) RestoreToUpcoming(ctx context.Context, userID string, externalID int, t media.Type) (*Item, error) {
	return s.update(ctx, userID, externalID, t, "restore to upcoming", func(item *Item) error {
		item.Metadata.DismissedFromUpcoming = false
		item.Metadata.MovedToLibrary = false
		return nil
	})
}

// SetManualReleaseDate records a user-entered digital release date and
// classifies the movie again from its stored dates. An empty date removes
// the override.
func (s *Service) SetManualReleaseDate(ctx context.Context, userID string, externalID int, t media.Type, date string) (*Item, error) {
	if t != media.TypeMovie {
		return nil, ErrInvalidType
	}

	var normalized string
	if date != "" {
		d, ok := media.ParseDate(date)
		if !ok {
			return nil, ErrInvalidDate
		}
		normalized = d.String()
	}

	return s.update(ctx, userID, externalID, t, "set release date", func(item *Item) error {
		item.Metadata.ManualDateOverride = normalized != ""
		item.Metadata.DigitalReleaseDate = normalized
		if item.Status.IsDropped() || item.Status == media.StatusMovieWatched {
			return nil
		}

		res := classify.ClassifyMovie(classify.MovieInput{
			Details: item.Metadata,
			Dates: &classify.ReleaseDates{
				Theatrical: item.Metadata.TheatricalReleaseDate,
				Digital:    item.Metadata.DigitalReleaseDate,
			},
			Region:        s.region,
			CurrentStatus: item.Status,
			Existing:      &item.Metadata,
			Now:           s.now(),
		})
		item.Status = res.Status
		item.Metadata = res.Apply(item.Metadata)
		return nil
	})
}

// Refresh fetches fresh metadata, bypassing any catalog cache, and
// classifies the item again. Dropped items keep their status.
func (s *Service) Refresh(ctx context.Context, userID string, externalID int, t media.Type) (*Item, error) {
	if err := validateType(t); err != nil {
		return nil, err
	}

	if cs, ok := s.source.(cachedSource); ok {
		cs.Invalidate(externalID, t)
	}
	details, dates, err := s.fetch(ctx, externalID, t)
	if err != nil {
		return nil, err
	}

	key := Key{UserID: userID, ExternalID: externalID, Type: t}
	return s.mutate(ctx, key, "refresh", func(current *Item) (*Item, error) {
		if current == nil {
			return nil, ErrItemNotFound
		}
		item := *current
		s.classifyFetched(&item, details, dates, false)
		return &item, nil
	})
}

func (s *Service) fetch(ctx context.Context, externalID int, t media.Type) (media.Metadata, media.ReleaseDatesResponse, error) {
	details, err := s.source.Details(ctx, externalID, t, s.region)
	if err != nil {
		return media.Metadata{}, media.ReleaseDatesResponse{}, fmt.Errorf("%w: details: %w", ErrFetchFailed, err)
	}
	if t != media.TypeMovie {
		return details, media.ReleaseDatesResponse{}, nil
	}

	dates, err := s.source.ReleaseDates(ctx, externalID)
	if err != nil {
		return media.Metadata{}, media.ReleaseDatesResponse{}, fmt.Errorf("%w: release dates: %w", ErrFetchFailed, err)
	}
	return details, dates, nil
}

// classifyFetched stores freshly fetched details on item and sets its
// status. New items are classified with no history; existing ones keep their
// bookkeeping flags and, when dropped, their status.
func (s *Service) classifyFetched(item *Item, details media.Metadata, dates media.ReleaseDatesResponse, isNew bool) {
	now := s.now()
	pruned := media.Prune(details, s.region)

	var existing *media.Metadata
	currentStatus := media.Status("")
	if !isNew {
		prev := item.Metadata
		existing = &prev
		currentStatus = item.Status
		pruned = pruned.CarryBookkeeping(prev)
	}

	var status media.Status
	if item.Type == media.TypeMovie {
		res := classify.ClassifyMovie(classify.MovieInput{
			Details:       details,
			ReleaseDates:  dates,
			Region:        s.region,
			CurrentStatus: currentStatus,
			Existing:      existing,
			Now:           now,
		})
		pruned = res.Apply(pruned)
		status = res.Status
	} else {
		status = classify.DetermineShowStatusAt(pruned, item.LastWatchedSeason, now)
	}

	updated := now.UTC()
	pruned.LastUpdatedAt = &updated
	item.Metadata = pruned
	item.snapshotDisplay()

	if !isNew && currentStatus.IsDropped() {
		return
	}
	item.Status = status
}

// reclassifyProgress sets a show's status from its progress unless it was
// dropped.
func (s *Service) reclassifyProgress(item *Item) {
	if item.Status.IsDropped() {
		return
	}
	item.Status = classify.DetermineShowStatusAt(item.Metadata, item.LastWatchedSeason, s.now())
}

// update runs fn against a copy of an existing item and commits the result.
func (s *Service) update(ctx context.Context, userID string, externalID int, t media.Type, op string, fn func(item *Item) error) (*Item, error) {
	key := Key{UserID: userID, ExternalID: externalID, Type: t}
	return s.mutate(ctx, key, op, func(current *Item) (*Item, error) {
		if current == nil {
			return nil, ErrItemNotFound
		}
		item := *current
		if err := fn(&item); err != nil {
			return nil, err
		}
		return &item, nil
	})
}

// mutate is the optimistic write protocol shared by every operation:
// snapshot the cached entry, apply the change to the cache, persist it, and
// put the snapshot back if persisting fails. On success the cached entry is
// replaced with the stored item so temporary IDs are swapped for permanent
// ones. A nil item from fn removes the entry.
func (s *Service) mutate(ctx context.Context, key Key, op string, fn func(current *Item) (*Item, error)) (*Item, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	items, err := s.store.Get(ctx, key.UserID)
	if err != nil {
		return nil, err
	}

	var current *Item
	if idx := indexOf(items, key); idx >= 0 {
		current = &items[idx]
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next != nil {
		next.UserID = key.UserID
		next.UpdatedAt = s.now().UTC()
		if next.CreatedAt.IsZero() {
			next.CreatedAt = next.UpdatedAt
		}
	}

	cache := s.store.Cache()
	prev, index, cached := cache.put(key, next)

	// The durable write runs to completion even if the caller goes away.
	writeCtx := context.WithoutCancel(ctx)
	var saved Item
	if next == nil {
		err = s.store.Remove(writeCtx, key.UserID, key.ExternalID, key.Type)
	} else {
		saved, err = s.store.Upsert(writeCtx, *next)
	}

	if err != nil {
		if cached {
			cache.restore(key, prev, index)
		}
		s.logger.Warn().Err(err).
			Str("userId", key.UserID).
			Int("externalId", key.ExternalID).
			Str("type", string(key.Type)).
			Str("operation", op).
			Msg("Watchlist change reverted")
		s.broadcast(key.UserID, "watchlist:reverted", RevertedEvent{
			ExternalID: key.ExternalID,
			Type:       key.Type,
			Operation:  op,
			Error:      err.Error(),
		})
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	if next == nil {
		s.logger.Info().Str("userId", key.UserID).Int("externalId", key.ExternalID).Str("type", string(key.Type)).Msg("Removed from watchlist")
		s.broadcast(key.UserID, "watchlist:removed", RemovedEvent{ExternalID: key.ExternalID, Type: key.Type})
		return nil, nil
	}

	if cached {
		cache.put(key, &saved)
	}
	s.logger.Info().
		Str("userId", key.UserID).
		Int("externalId", key.ExternalID).
		Str("status", string(saved.Status)).
		Str("operation", op).
		Msg("Watchlist updated")
	s.broadcast(key.UserID, "watchlist:updated", saved)
	return &saved, nil
}

func (s *Service) broadcast(userID, msgType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToUser(userID, msgType, payload); err != nil {
		s.logger.Debug().Err(err).Str("type", msgType).Msg("Failed to broadcast watchlist event")
	}
}

func validateType(t media.Type) error {
	if t != media.TypeMovie && t != media.TypeShow {
		return ErrInvalidType
	}
	return nil
}

// validateSeason accepts regular seasons the show is known to have.
func validateSeason(item Item, season int) error {
	if item.Type != media.TypeShow {
		return ErrInvalidType
	}
	if season < 1 {
		return ErrInvalidSeason
	}

	known := item.Metadata.NumberOfSeasons
	for _, s := range item.Metadata.Seasons {
		known = max(known, s.SeasonNumber)
	}
	if season > known {
		return ErrInvalidSeason
	}
	return nil
}

// IsClientError reports whether err was caused by the request rather than
// the store or the catalog.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidSeason) ||
		errors.Is(err, ErrInvalidDate)
}
