package classify

import (
	"testing"

	"github.com/cinetrack/cinetrack/internal/media"
)

func providersIn(region string) *media.WatchProviders {
	return &media.WatchProviders{Results: map[string]media.RegionProviders{
		region: {Flatrate: []media.Provider{{ProviderID: 8, ProviderName: "Netflix"}}},
	}}
}

func regionalDates(region string, dates ...media.ReleaseDate) media.ReleaseDatesResponse {
	return media.ReleaseDatesResponse{Results: []media.ReleaseDatesByRegion{
		{Iso31661: region, ReleaseDates: dates},
	}}
}

func TestClassifyMovie(t *testing.T) {
	tests := []struct {
		name        string
		input       MovieInput
		wantStatus  media.Status
		wantLibrary bool
	}{
		{
			name: "streaming in region after release",
			input: MovieInput{
				Details: media.Metadata{ReleaseDate: day(-60), WatchProviders: providersIn("US")},
			},
			wantStatus:  media.StatusMovieUnwatched,
			wantLibrary: true,
		},
		{
			name: "no release date with regional providers",
			input: MovieInput{
				Details: media.Metadata{WatchProviders: providersIn("US")},
			},
			wantStatus:  media.StatusMovieUnwatched,
			wantLibrary: true,
		},
		{
			name: "coming soon becomes on ott once streaming",
			input: MovieInput{
				Details:       media.Metadata{ReleaseDate: day(-20), WatchProviders: providersIn("US")},
				CurrentStatus: media.StatusMovieComingSoon,
			},
			wantStatus: media.StatusMovieOnOTT,
		},
		{
			name: "on ott is never downgraded",
			input: MovieInput{
				Details:       media.Metadata{ReleaseDate: day(-200), WatchProviders: providersIn("US")},
				CurrentStatus: media.StatusMovieOnOTT,
			},
			wantStatus: media.StatusMovieOnOTT,
		},
		{
			name: "watched is preserved",
			input: MovieInput{
				Details:       media.Metadata{ReleaseDate: day(90)},
				CurrentStatus: media.StatusMovieWatched,
			},
			wantStatus:  media.StatusMovieWatched,
			wantLibrary: true,
		},
		{
			name: "unreleased without data",
			input: MovieInput{
				Details: media.Metadata{ReleaseDate: day(30)},
			},
			wantStatus: media.StatusMovieComingSoon,
		},
		{
			name: "regional providers before release",
			input: MovieInput{
				Details: media.Metadata{ReleaseDate: day(10), WatchProviders: providersIn("US")},
			},
			wantStatus: media.StatusMovieOnOTT,
		},
		{
			name: "future digital date for new item",
			input: MovieInput{
				Details: media.Metadata{ReleaseDate: day(-10)},
				ReleaseDates: regionalDates("US",
					media.ReleaseDate{Type: media.ReleaseTypeTheatrical, ReleaseDate: day(-10) + "T00:00:00.000Z"},
					media.ReleaseDate{Type: media.ReleaseTypeDigital, ReleaseDate: day(20) + "T00:00:00.000Z"},
				),
			},
			wantStatus: media.StatusMovieOnOTT,
		},
		{
			name: "future digital date for item already past coming soon",
			input: MovieInput{
				Details:       media.Metadata{ReleaseDate: day(-10)},
				CurrentStatus: media.StatusMovieUnwatched,
				ReleaseDates: regionalDates("US",
					media.ReleaseDate{Type: media.ReleaseTypeDigital, ReleaseDate: day(20)},
				),
			},
			wantStatus:  media.StatusMovieUnwatched,
			wantLibrary: true,
		},
		{
			name: "coming soon with past digital date",
			input: MovieInput{
				Details:       media.Metadata{ReleaseDate: day(-40)},
				CurrentStatus: media.StatusMovieComingSoon,
				ReleaseDates: regionalDates("US",
					media.ReleaseDate{Type: media.ReleaseTypeTheatrical, ReleaseDate: day(-40)},
					media.ReleaseDate{Type: media.ReleaseTypeDigital, ReleaseDate: day(-5)},
				),
			},
			wantStatus: media.StatusMovieOnOTT,
		},
		{
			name: "manual override keeps it on ott",
			input: MovieInput{
				Details:       media.Metadata{ReleaseDate: day(-40)},
				CurrentStatus: media.StatusMovieUnwatched,
				Existing:      &media.Metadata{ManualDateOverride: true, DigitalReleaseDate: day(-2)},
			},
			wantStatus: media.StatusMovieOnOTT,
		},
		{
			name: "available elsewhere after six months",
			input: MovieInput{
				Details: media.Metadata{ReleaseDate: day(-240), WatchProviders: providersIn("GB")},
			},
			wantStatus:  media.StatusMovieUnwatched,
			wantLibrary: true,
		},
		{
			name: "available elsewhere after six months from coming soon",
			input: MovieInput{
				Details:       media.Metadata{ReleaseDate: day(-240), WatchProviders: providersIn("GB")},
				CurrentStatus: media.StatusMovieComingSoon,
			},
			wantStatus: media.StatusMovieOnOTT,
		},
		{
			name: "no providers anywhere under a year",
			input: MovieInput{
				Details: media.Metadata{ReleaseDate: day(-240)},
			},
			wantStatus: media.StatusMovieComingSoon,
		},
		{
			name: "old release without providers",
			input: MovieInput{
				Details: media.Metadata{ReleaseDate: day(-800)},
			},
			wantStatus:  media.StatusMovieUnwatched,
			wantLibrary: true,
		},
		{
			name: "earlier theatrical date makes it released",
			input: MovieInput{
				Details: media.Metadata{ReleaseDate: day(10), WatchProviders: providersIn("US")},
				ReleaseDates: regionalDates("US",
					media.ReleaseDate{Type: media.ReleaseTypeTheatricalLimited, ReleaseDate: day(-5)},
				),
			},
			wantStatus:  media.StatusMovieUnwatched,
			wantLibrary: true,
		},
		{
			name: "moved to library is sticky",
			input: MovieInput{
				Details:       media.Metadata{ReleaseDate: day(-20), WatchProviders: providersIn("US")},
				CurrentStatus: media.StatusMovieOnOTT,
				Existing:      &media.Metadata{MovedToLibrary: true},
			},
			wantStatus:  media.StatusMovieOnOTT,
			wantLibrary: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			in.Region = "US"
			in.Now = fixedNow

			got := ClassifyMovie(in)
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.MovedToLibrary != tt.wantLibrary {
				t.Errorf("MovedToLibrary = %v, want %v", got.MovedToLibrary, tt.wantLibrary)
			}
		})
	}
}

func TestClassifyMovie_ManualDigitalDateWins(t *testing.T) {
	manual := day(60)
	got := ClassifyMovie(MovieInput{
		Details: media.Metadata{ReleaseDate: day(-10)},
		ReleaseDates: regionalDates("US",
			media.ReleaseDate{Type: media.ReleaseTypeDigital, ReleaseDate: day(5)},
		),
		Region:        "US",
		CurrentStatus: media.StatusMovieComingSoon,
		Existing:      &media.Metadata{ManualDateOverride: true, DigitalReleaseDate: manual},
		Now:           fixedNow,
	})

	if got.Dates.Digital != manual {
		t.Errorf("Dates.Digital = %q, want manual %q", got.Dates.Digital, manual)
	}

	stored := media.Metadata{ManualDateOverride: true, DigitalReleaseDate: manual}
	applied := got.Apply(stored)
	if applied.DigitalReleaseDate != manual {
		t.Errorf("Apply() overwrote manual date with %q", applied.DigitalReleaseDate)
	}
}

func TestMovieResult_Apply(t *testing.T) {
	res := MovieResult{
		Status:         media.StatusMovieOnOTT,
		MovedToLibrary: false,
		Dates:          ReleaseDates{Theatrical: "2025-01-10", Digital: "2025-03-01"},
	}

	got := res.Apply(media.Metadata{Title: "Sinners", MovedToLibrary: true})
	if got.TheatricalReleaseDate != "2025-01-10" || got.DigitalReleaseDate != "2025-03-01" {
		t.Errorf("Apply() dates = %q/%q", got.TheatricalReleaseDate, got.DigitalReleaseDate)
	}
	if got.MovedToLibrary {
		t.Error("Apply() should take MovedToLibrary from the result")
	}
	if got.Title != "Sinners" {
		t.Error("Apply() changed unrelated fields")
	}
}

func TestExtractReleaseDates(t *testing.T) {
	resp := media.ReleaseDatesResponse{Results: []media.ReleaseDatesByRegion{
		{Iso31661: "GB", ReleaseDates: []media.ReleaseDate{
			{Type: media.ReleaseTypeTheatrical, ReleaseDate: "2024-02-01T00:00:00.000Z"},
			{Type: media.ReleaseTypeDigital, ReleaseDate: "2024-01-15T00:00:00.000Z"},
		}},
		{Iso31661: "US", ReleaseDates: []media.ReleaseDate{
			{Type: media.ReleaseTypePremiere, ReleaseDate: "2023-12-01T00:00:00.000Z"},
			{Type: media.ReleaseTypeTheatrical, ReleaseDate: "2024-03-08T00:00:00.000Z"},
			{Type: media.ReleaseTypeTheatricalLimited, ReleaseDate: "2024-03-01T00:00:00.000Z"},
			{Type: media.ReleaseTypePhysical, ReleaseDate: "2024-06-01T00:00:00.000Z", Note: "4K UHD"},
		}},
	}}

	tests := []struct {
		name   string
		region string
		want   ReleaseDates
	}{
		{
			name:   "regional theatrical and physical fallback",
			region: "us",
			want:   ReleaseDates{Theatrical: "2024-03-01", Digital: "2024-06-01", DigitalNote: "4K UHD"},
		},
		{
			name:   "regional digital",
			region: "GB",
			want:   ReleaseDates{Theatrical: "2024-02-01", Digital: "2024-01-15"},
		},
		{
			name:   "unknown region falls back to earliest anywhere",
			region: "FR",
			want:   ReleaseDates{Theatrical: "2024-01-15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractReleaseDates(resp, tt.region); got != tt.want {
				t.Errorf("ExtractReleaseDates() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifyMovie_PrecomputedDates(t *testing.T) {
	got := ClassifyMovie(MovieInput{
		Details: media.Metadata{ReleaseDate: day(-40)},
		ReleaseDates: regionalDates("US",
			media.ReleaseDate{Type: media.ReleaseTypeDigital, ReleaseDate: day(-5)},
		),
		Dates:  &ReleaseDates{Theatrical: day(-40), Digital: day(20)},
		Region: "US",
		Now:    fixedNow,
	})

	if got.Dates.Digital != day(20) {
		t.Errorf("Dates.Digital = %q, want the precomputed %q", got.Dates.Digital, day(20))
	}
	if got.Status != media.StatusMovieOnOTT {
		t.Errorf("Status = %q, want %q", got.Status, media.StatusMovieOnOTT)
	}
}
