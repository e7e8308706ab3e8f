package media

import (
	"slices"
	"strings"
)

const (
	trailerType   = "Trailer"
	trailerSite   = "YouTube"
	defaultRegion = "US"
)

// Prune reduces m to the subset retained long-term. Provider listings are
// restricted to region, videos to the first YouTube trailer, and fields outside
// the whitelist are dropped. Prune is idempotent.
func Prune(m Metadata, region string) Metadata {
	out := Metadata{
		ID:               m.ID,
		ImdbID:           m.ImdbID,
		Title:            m.Title,
		Name:             m.Name,
		Overview:         m.Overview,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		VoteAverage:      m.VoteAverage,
		Genres:           slices.Clone(m.Genres),
		ReleaseDate:      m.ReleaseDate,
		FirstAirDate:     m.FirstAirDate,
		LastAirDate:      m.LastAirDate,
		Runtime:          m.Runtime,
		EpisodeRunTime:   slices.Clone(m.EpisodeRunTime),
		Status:           m.Status,
		Type:             m.Type,
		NumberOfSeasons:  m.NumberOfSeasons,
		NumberOfEpisodes: m.NumberOfEpisodes,
		Seasons:          slices.Clone(m.Seasons),

		DigitalReleaseDate:    m.DigitalReleaseDate,
		TheatricalReleaseDate: m.TheatricalReleaseDate,
		ManualDateOverride:    m.ManualDateOverride,
		MovedToLibrary:        m.MovedToLibrary,
		DismissedFromUpcoming: m.DismissedFromUpcoming,
	}

	if m.ExternalIDs != nil {
		ids := *m.ExternalIDs
		out.ExternalIDs = &ids
	}
	if m.NextEpisodeToAir != nil {
		ep := *m.NextEpisodeToAir
		out.NextEpisodeToAir = &ep
	}
	if m.LastEpisodeToAir != nil {
		ep := *m.LastEpisodeToAir
		out.LastEpisodeToAir = &ep
	}
	if m.LastUpdatedAt != nil {
		t := *m.LastUpdatedAt
		out.LastUpdatedAt = &t
	}

	if out.Title == "" {
		out.Title = out.Name
	}
	if out.Name == "" {
		out.Name = out.Title
	}

	if m.WatchProviders != nil {
		out.WatchProviders = &WatchProviders{Results: map[string]RegionProviders{}}
		key := NormalizeRegion(region)
		if rp, ok := m.WatchProviders.Results[key]; ok {
			out.WatchProviders.Results[key] = rp
		}
	}

	if m.Videos != nil {
		out.Videos = &Videos{Results: []Video{}}
		for _, v := range m.Videos.Results {
			if v.Type == trailerType && v.Site == trailerSite {
				out.Videos.Results = append(out.Videos.Results, v)
				break
			}
		}
	}

	return out
}

// ProvidersFor returns the provider listing for region, if any.
func (m Metadata) ProvidersFor(region string) (RegionProviders, bool) {
	if m.WatchProviders == nil {
		return RegionProviders{}, false
	}
	rp, ok := m.WatchProviders.Results[NormalizeRegion(region)]
	return rp, ok
}

// HasProvidersAnywhere reports whether any region lists a provider.
func (m Metadata) HasProvidersAnywhere() bool {
	if m.WatchProviders == nil {
		return false
	}
	for _, rp := range m.WatchProviders.Results {
		if rp.HasAny() {
			return true
		}
	}
	return false
}

// NormalizeRegion upper-cases a region code and defaults it to US.
func NormalizeRegion(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return defaultRegion
	}
	return region
}
