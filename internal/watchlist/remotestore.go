package watchlist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cinetrack/cinetrack/internal/database/sqlc"
	"github.com/cinetrack/cinetrack/internal/media"
)

// RemoteStore keeps signed-in users' lists in the watchlist_items table.
type RemoteStore struct {
	mu      sync.RWMutex
	queries *sqlc.Queries
	now     func() time.Time
}

// NewRemoteStore creates a store on db.
func NewRemoteStore(db *sql.DB) *RemoteStore {
	return &RemoteStore{
		queries: sqlc.New(db),
		now:     time.Now,
	}
}

// SetDB points the store at a different connection, e.g. after the
// developer-mode database switch.
func (s *RemoteStore) SetDB(db *sql.DB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = sqlc.New(db)
}

func (s *RemoteStore) q() *sqlc.Queries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries
}

func (s *RemoteStore) List(ctx context.Context, userID string) ([]Item, error) {
	rows, err := s.q().ListWatchlistItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist items: %w", err)
	}
	return rowsToItems(rows)
}

func (s *RemoteStore) Upsert(ctx context.Context, item Item) (Item, error) {
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return Item{}, fmt.Errorf("failed to encode metadata: %w", err)
	}

	now := s.now().UTC()
	createdAt := item.CreatedAt.UTC()
	if item.CreatedAt.IsZero() {
		createdAt = now
	}

	row, err := s.q().UpsertWatchlistItem(ctx, sqlc.UpsertWatchlistItemParams{
		UserID:            item.UserID,
		TmdbID:            int64(item.ExternalID),
		Type:              string(item.Type),
		Title:             item.Title,
		PosterPath:        sql.NullString{String: item.PosterPath, Valid: item.PosterPath != ""},
		VoteAverage:       item.VoteAverage,
		Status:            string(item.Status),
		Metadata:          string(metadata),
		LastWatchedSeason: int64(item.LastWatchedSeason),
		CreatedAt:         createdAt,
		UpdatedAt:         now,
	})
	if err != nil {
		return Item{}, fmt.Errorf("failed to save watchlist item: %w", err)
	}
	return rowToItem(row)
}

func (s *RemoteStore) Remove(ctx context.Context, userID string, externalID int, t media.Type) error {
	_, err := s.q().DeleteWatchlistItem(ctx, sqlc.DeleteWatchlistItemParams{
		UserID: userID,
		TmdbID: int64(externalID),
		Type:   string(t),
	})
	if err != nil {
		return fmt.Errorf("failed to delete watchlist item: %w", err)
	}
	return nil
}

func (s *RemoteStore) ListActive(ctx context.Context, limit int) ([]Item, error) {
	// SQLite treats a negative LIMIT as no limit.
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.q().ListActiveWatchlistItems(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list active items: %w", err)
	}
	return rowsToItems(rows)
}

func rowsToItems(rows []*sqlc.WatchlistItem) ([]Item, error) {
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		item, err := rowToItem(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func rowToItem(row *sqlc.WatchlistItem) (Item, error) {
	var metadata media.Metadata
	if row.Metadata != "" {
		if err := json.Unmarshal([]byte(row.Metadata), &metadata); err != nil {
			return Item{}, fmt.Errorf("failed to decode metadata of item %d: %w", row.ID, err)
		}
	}

	return Item{
		ID:                strconv.FormatInt(row.ID, 10),
		UserID:            row.UserID,
		ExternalID:        int(row.TmdbID),
		Type:              media.Type(row.Type),
		Title:             row.Title,
		PosterPath:        row.PosterPath.String,
		VoteAverage:       row.VoteAverage,
		Status:            media.Status(row.Status),
		Metadata:          metadata,
		LastWatchedSeason: int(row.LastWatchedSeason),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}, nil
}
