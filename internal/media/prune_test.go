package media

import (
	"reflect"
	"testing"
	"time"
)

func fullMovieMetadata() Metadata {
	updated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return Metadata{
		ID:          603,
		ImdbID:      "tt0133093",
		Title:       "The Matrix",
		Overview:    "A computer hacker learns about the true nature of reality.",
		PosterPath:  "/poster.jpg",
		VoteAverage: 8.2,
		ReleaseDate: "1999-03-30",
		Runtime:     136,
		Status:      "Released",
		Genres:      []Genre{{ID: 28, Name: "Action"}},
		WatchProviders: &WatchProviders{Results: map[string]RegionProviders{
			"US": {Flatrate: []Provider{{ProviderID: 8, ProviderName: "Netflix"}}},
			"IN": {Rent: []Provider{{ProviderID: 2, ProviderName: "Apple TV"}}},
			"GB": {Buy: []Provider{{ProviderID: 3, ProviderName: "Google Play"}}},
		}},
		Videos: &Videos{Results: []Video{
			{Key: "a", Site: "YouTube", Type: "Teaser"},
			{Key: "b", Site: "Vimeo", Type: "Trailer"},
			{Key: "c", Site: "YouTube", Type: "Trailer"},
			{Key: "d", Site: "YouTube", Type: "Trailer"},
		}},
		DigitalReleaseDate:  "1999-09-21",
		ManualDateOverride:  true,
		LastUpdatedAt:       &updated,
		Tagline:             "Welcome to the Real World.",
		Homepage:            "https://example.com",
		Popularity:          99.5,
		Budget:              63000000,
		Revenue:             463517383,
		ProductionCompanies: []Company{{ID: 79, Name: "Village Roadshow"}},
	}
}

func TestPrune_RestrictsProvidersToRegion(t *testing.T) {
	got := Prune(fullMovieMetadata(), "IN")

	if got.WatchProviders == nil {
		t.Fatal("Prune() dropped the provider map entirely")
	}
	if len(got.WatchProviders.Results) != 1 {
		t.Fatalf("Prune() kept %d regions, want 1", len(got.WatchProviders.Results))
	}
	if _, ok := got.WatchProviders.Results["IN"]; !ok {
		t.Errorf("Prune() did not keep the requested region")
	}
}

func TestPrune_MissingRegionLeavesEmptyProviders(t *testing.T) {
	got := Prune(fullMovieMetadata(), "FR")
	if got.WatchProviders == nil || len(got.WatchProviders.Results) != 0 {
		t.Errorf("Prune() providers = %+v, want empty map", got.WatchProviders)
	}
}

func TestPrune_KeepsFirstYouTubeTrailer(t *testing.T) {
	got := Prune(fullMovieMetadata(), "US")

	if got.Videos == nil || len(got.Videos.Results) != 1 {
		t.Fatalf("Prune() videos = %+v, want exactly one", got.Videos)
	}
	if got.Videos.Results[0].Key != "c" {
		t.Errorf("Prune() kept video %q, want %q", got.Videos.Results[0].Key, "c")
	}
}

func TestPrune_NoTrailerEmptiesVideos(t *testing.T) {
	m := fullMovieMetadata()
	m.Videos = &Videos{Results: []Video{{Key: "x", Site: "YouTube", Type: "Featurette"}}}

	got := Prune(m, "US")
	if got.Videos == nil || len(got.Videos.Results) != 0 {
		t.Errorf("Prune() videos = %+v, want empty list", got.Videos)
	}
}

func TestPrune_DropsNonWhitelistedFields(t *testing.T) {
	got := Prune(fullMovieMetadata(), "US")

	if got.Tagline != "" || got.Homepage != "" || got.Popularity != 0 ||
		got.Budget != 0 || got.Revenue != 0 || got.ProductionCompanies != nil {
		t.Errorf("Prune() kept non-whitelisted fields: %+v", got)
	}
	if got.Overview == "" || got.ReleaseDate == "" || got.Runtime != 136 || got.ImdbID == "" {
		t.Errorf("Prune() dropped whitelisted fields: %+v", got)
	}
	if !got.ManualDateOverride || got.DigitalReleaseDate != "1999-09-21" || got.LastUpdatedAt == nil {
		t.Errorf("Prune() dropped bookkeeping fields: %+v", got)
	}
}

func TestPrune_CrossPopulatesTitleAndName(t *testing.T) {
	tests := []struct {
		name string
		in   Metadata
	}{
		{"movie title only", Metadata{Title: "Heat"}},
		{"show name only", Metadata{Name: "Heat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Prune(tt.in, "US")
			if got.Title != "Heat" || got.Name != "Heat" {
				t.Errorf("Prune() title=%q name=%q, want both %q", got.Title, got.Name, "Heat")
			}
		})
	}
}

func TestPrune_Idempotent(t *testing.T) {
	inputs := []Metadata{
		fullMovieMetadata(),
		{},
		{Name: "Severance", Seasons: []Season{{SeasonNumber: 1, AirDate: "2022-02-18"}},
			LastEpisodeToAir: &Episode{SeasonNumber: 2, EpisodeNumber: 10, AirDate: "2025-03-21"}},
		{Videos: &Videos{}, WatchProviders: &WatchProviders{}},
	}

	for i, in := range inputs {
		for _, region := range []string{"US", "IN", "fr", ""} {
			once := Prune(in, region)
			twice := Prune(once, region)
			if !reflect.DeepEqual(once, twice) {
				t.Errorf("input %d region %q: Prune(Prune(x)) != Prune(x)\n once=%+v\ntwice=%+v", i, region, once, twice)
			}
		}
	}
}

func TestPrune_DoesNotAliasInput(t *testing.T) {
	in := fullMovieMetadata()
	in.Seasons = []Season{{SeasonNumber: 1}}

	out := Prune(in, "US")
	out.Seasons[0].SeasonNumber = 99
	out.Genres[0].Name = "Changed"

	if in.Seasons[0].SeasonNumber != 1 || in.Genres[0].Name != "Action" {
		t.Error("Prune() output shares slices with its input")
	}
}
