package watchlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/cinetrack/cinetrack/internal/media"
	"github.com/cinetrack/cinetrack/internal/testutil"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var errWriteFailed = errors.New("write failed")

func day(offset int) string {
	return fixedNow.AddDate(0, 0, offset).Format("2006-01-02")
}

type fakeSource struct {
	mu      sync.Mutex
	details map[string]media.Metadata
	dates   map[int]media.ReleaseDatesResponse
	err     error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		details: map[string]media.Metadata{},
		dates:   map[int]media.ReleaseDatesResponse{},
	}
}

func (f *fakeSource) put(t media.Type, m media.Metadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[fmt.Sprintf("%s:%d", t, m.ID)] = m
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSource) Details(ctx context.Context, externalID int, t media.Type, region string) (media.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return media.Metadata{}, f.err
	}
	m, ok := f.details[fmt.Sprintf("%s:%d", t, externalID)]
	if !ok {
		return media.Metadata{}, fmt.Errorf("no details for %d", externalID)
	}
	return m, nil
}

func (f *fakeSource) ReleaseDates(ctx context.Context, externalID int) (media.ReleaseDatesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return media.ReleaseDatesResponse{}, f.err
	}
	return f.dates[externalID], nil
}

type hubEvent struct {
	userID  string
	msgType string
	payload interface{}
}

type recordingHub struct {
	mu     sync.Mutex
	events []hubEvent
}

func (h *recordingHub) BroadcastToUser(userID, msgType string, payload interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, hubEvent{userID: userID, msgType: msgType, payload: payload})
	return nil
}

func (h *recordingHub) last() hubEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return hubEvent{}
	}
	return h.events[len(h.events)-1]
}

// failingBackend fails durable writes on demand.
type failingBackend struct {
	Backend
	mu         sync.Mutex
	failWrites bool
}

func (b *failingBackend) setFail(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrites = fail
}

func (b *failingBackend) failing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failWrites
}

func (b *failingBackend) Upsert(ctx context.Context, item Item) (Item, error) {
	if b.failing() {
		return Item{}, errWriteFailed
	}
	return b.Backend.Upsert(ctx, item)
}

func (b *failingBackend) Remove(ctx context.Context, userID string, externalID int, t media.Type) error {
	if b.failing() {
		return errWriteFailed
	}
	return b.Backend.Remove(ctx, userID, externalID, t)
}

type testEnv struct {
	svc    *Service
	source *fakeSource
	hub    *recordingHub
	local  *failingBackend
	file   *LocalStore
	remote *RemoteStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	t.Cleanup(tdb.Close)

	file := NewLocalStore(afero.NewMemMapFs(), "/data")
	local := &failingBackend{Backend: file}
	remote := NewRemoteStore(tdb.Conn)

	source := newFakeSource()
	source.put(media.TypeMovie, streamingMovie())
	source.put(media.TypeMovie, upcomingMovie())
	source.put(media.TypeShow, returningShow())

	hub := &recordingHub{}
	store := NewStore(local, remote, tdb.Logger)
	svc := NewService(store, source, hub, "us", tdb.Logger)
	svc.now = func() time.Time { return fixedNow }

	return &testEnv{
		svc:    svc,
		source: source,
		hub:    hub,
		local:  local,
		file:   file,
		remote: remote,
	}
}

func streamingMovie() media.Metadata {
	return media.Metadata{
		ID:          603,
		Title:       "The Matrix",
		ReleaseDate: "1999-03-30",
		PosterPath:  "/matrix.jpg",
		VoteAverage: 8.2,
		Tagline:     "Welcome to the Real World.",
		WatchProviders: &media.WatchProviders{Results: map[string]media.RegionProviders{
			"US": {Flatrate: []media.Provider{{ProviderID: 8, ProviderName: "Netflix"}}},
			"GB": {Rent: []media.Provider{{ProviderID: 2, ProviderName: "Apple TV"}}},
		}},
	}
}

func upcomingMovie() media.Metadata {
	return media.Metadata{
		ID:          1100002,
		Title:       "The Long Orbit",
		ReleaseDate: day(140),
		Status:      "Post Production",
	}
}

func returningShow() media.Metadata {
	return media.Metadata{
		ID:              95396,
		Name:            "Severance",
		Status:          "Returning Series",
		NumberOfSeasons: 2,
		Seasons: []media.Season{
			{SeasonNumber: 1, AirDate: day(-700)},
			{SeasonNumber: 2, AirDate: day(-300)},
		},
		LastEpisodeToAir: &media.Episode{SeasonNumber: 2, EpisodeNumber: 10, AirDate: day(-250)},
		NextEpisodeToAir: &media.Episode{SeasonNumber: 3, EpisodeNumber: 1, AirDate: day(30)},
	}
}
