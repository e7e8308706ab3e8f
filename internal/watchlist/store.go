package watchlist

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/cinetrack/cinetrack/internal/media"
)

// Backend is a durable watch list store.
type Backend interface {
	// List returns a user's items, newest first.
	List(ctx context.Context, userID string) ([]Item, error)
	// Upsert inserts or replaces the item with the same (user, external id,
	// type) and returns it as stored, with its permanent ID.
	Upsert(ctx context.Context, item Item) (Item, error)
	// Remove deletes an item. Removing a missing item is not an error.
	Remove(ctx context.Context, userID string, externalID int, t media.Type) error
	// ListActive returns up to limit items across all users whose status is
	// still subject to change, least recently updated first.
	ListActive(ctx context.Context, limit int) ([]Item, error)
}

// Store routes each user to a backend and reads through a per-user cache.
// The local backend serves LocalUserID, the remote one everybody else.
type Store struct {
	local  Backend
	remote Backend
	cache  *Cache
	logger zerolog.Logger
}

// NewStore creates a store. remote may be nil when only the local list is
// used.
func NewStore(local, remote Backend, logger zerolog.Logger) *Store {
	return &Store{
		local:  local,
		remote: remote,
		cache:  NewCache(),
		logger: logger.With().Str("component", "watchlist-store").Logger(),
	}
}

// Cache returns the read cache.
func (s *Store) Cache() *Cache {
	return s.cache
}

func (s *Store) backendFor(userID string) (Backend, error) {
	if userID == LocalUserID {
		return s.local, nil
	}
	if s.remote == nil {
		return nil, ErrStoreUnavailable
	}
	return s.remote, nil
}

// Get returns the user's items, loading them into the cache on a miss.
func (s *Store) Get(ctx context.Context, userID string) ([]Item, error) {
	if items, ok := s.cache.Get(userID); ok {
		return items, nil
	}

	backend, err := s.backendFor(userID)
	if err != nil {
		return nil, err
	}

	// A mutation that lands while the store is being read must not be
	// overwritten by the older list.
	version := s.cache.Version(userID)
	items, err := backend.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	items = s.cache.Fill(userID, items, version)
	s.logger.Debug().Str("userId", userID).Int("count", len(items)).Msg("Loaded watchlist")
	return items, nil
}

// Upsert writes item to its backend. The cache is left to the caller.
func (s *Store) Upsert(ctx context.Context, item Item) (Item, error) {
	backend, err := s.backendFor(item.UserID)
	if err != nil {
		return Item{}, err
	}
	return backend.Upsert(ctx, item)
}

// Remove deletes an item from its backend. The cache is left to the caller.
func (s *Store) Remove(ctx context.Context, userID string, externalID int, t media.Type) error {
	backend, err := s.backendFor(userID)
	if err != nil {
		return err
	}
	return backend.Remove(ctx, userID, externalID, t)
}

// ListActive merges the active items of both backends, least recently
// updated first, and keeps at most limit of them.
func (s *Store) ListActive(ctx context.Context, limit int) ([]Item, error) {
	var out []Item
	for _, backend := range []Backend{s.local, s.remote} {
		if backend == nil {
			continue
		}
		items, err := backend.ListActive(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list active items: %w", err)
		}
		out = append(out, items...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
