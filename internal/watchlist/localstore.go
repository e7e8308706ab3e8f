package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/cinetrack/cinetrack/internal/media"
)

// LocalFileName is the fixed key under which the anonymous list is saved.
const LocalFileName = "watchlist.json"

// localRecord is the on-disk shape: a remote row without the user column.
type localRecord struct {
	ID                string         `json:"id"`
	TmdbID            int            `json:"tmdb_id"`
	Type              media.Type     `json:"type"`
	Title             string         `json:"title"`
	PosterPath        string         `json:"poster_path,omitempty"`
	VoteAverage       float64        `json:"vote_average"`
	Status            media.Status   `json:"status"`
	Metadata          media.Metadata `json:"metadata"`
	LastWatchedSeason int            `json:"last_watched_season"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// LocalStore keeps the anonymous watch list as a single JSON array.
type LocalStore struct {
	fs        afero.Fs
	path      string
	mu        sync.Mutex
	now       func() time.Time
	lastWrite time.Time // mod time of our own last save
}

// NewLocalStore creates a store saving to dataDir/watchlist.json on fs.
func NewLocalStore(fs afero.Fs, dataDir string) *LocalStore {
	return &LocalStore{
		fs:   fs,
		path: filepath.Join(dataDir, LocalFileName),
		now:  time.Now,
	}
}

// Path returns the file the list is saved to.
func (s *LocalStore) Path() string {
	return s.path
}

func (s *LocalStore) List(ctx context.Context, userID string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(records))
	for _, r := range records {
		items = append(items, r.toItem())
	}
	return items, nil
}

func (s *LocalStore) Upsert(ctx context.Context, item Item) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return Item{}, err
	}

	now := s.now().UTC()
	rec := toLocalRecord(item)
	rec.UpdatedAt = now

	idx := slices.IndexFunc(records, func(r localRecord) bool {
		return r.TmdbID == item.ExternalID && r.Type == item.Type
	})
	if idx >= 0 {
		rec.ID = records[idx].ID
		rec.CreatedAt = records[idx].CreatedAt
		records[idx] = rec
	} else {
		if item.HasTempID() {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		records = slices.Insert(records, 0, rec)
	}

	if err := s.save(records); err != nil {
		return Item{}, err
	}
	return rec.toItem(), nil
}

func (s *LocalStore) Remove(ctx context.Context, userID string, externalID int, t media.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(records, func(r localRecord) bool {
		return r.TmdbID == externalID && r.Type == t
	})
	return s.save(kept)
}

func (s *LocalStore) ListActive(ctx context.Context, limit int) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, r := range records {
		if r.Status.IsActive() {
			items = append(items, r.toItem())
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.Before(items[j].UpdatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *LocalStore) load() ([]localRecord, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []localRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []localRecord{}, nil
	}

	var records []localRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return records, nil
}

// save writes to a temp file first so a failed write never truncates the
// existing list.
func (s *LocalStore) save(records []localRecord) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode watchlist: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write watchlist: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace watchlist: %w", err)
	}
	if info, err := s.fs.Stat(s.path); err == nil {
		s.lastWrite = info.ModTime()
	}
	return nil
}

// ChangedExternally reports whether the file differs from what this store
// last wrote.
func (s *LocalStore) ChangedExternally() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.fs.Stat(s.path)
	if err != nil {
		return !s.lastWrite.IsZero()
	}
	return !info.ModTime().Equal(s.lastWrite)
}

func toLocalRecord(i Item) localRecord {
	return localRecord{
		ID:                i.ID,
		TmdbID:            i.ExternalID,
		Type:              i.Type,
		Title:             i.Title,
		PosterPath:        i.PosterPath,
		VoteAverage:       i.VoteAverage,
		Status:            i.Status,
		Metadata:          i.Metadata,
		LastWatchedSeason: i.LastWatchedSeason,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

func (r localRecord) toItem() Item {
	return Item{
		ID:                r.ID,
		UserID:            LocalUserID,
		ExternalID:        r.TmdbID,
		Type:              r.Type,
		Title:             r.Title,
		PosterPath:        r.PosterPath,
		VoteAverage:       r.VoteAverage,
		Status:            r.Status,
		Metadata:          r.Metadata,
		LastWatchedSeason: r.LastWatchedSeason,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
