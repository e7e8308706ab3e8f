package media

import "time"

// Metadata is the catalog snapshot for a movie or show. The same structure is
// used for freshly fetched details and for the pruned copy persisted with an
// item; Prune decides which fields survive.
type Metadata struct {
	ID          int          `json:"id,omitempty"`
	ImdbID      string       `json:"imdb_id,omitempty"`
	ExternalIDs *ExternalIDs `json:"external_ids,omitempty"`

	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	Genres       []Genre `json:"genres,omitempty"`

	ReleaseDate  string `json:"release_date,omitempty"`
	FirstAirDate string `json:"first_air_date,omitempty"`
	LastAirDate  string `json:"last_air_date,omitempty"`

	Runtime        int   `json:"runtime,omitempty"`
	EpisodeRunTime []int `json:"episode_run_time,omitempty"`

	// Status is the catalog lifecycle string ("Released", "Ended",
	// "Returning Series", "Canceled", "In Production", ...).
	Status string `json:"status,omitempty"`
	// Type is the show format ("Scripted", "Miniseries", ...).
	Type string `json:"type,omitempty"`

	NumberOfSeasons  int      `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes int      `json:"number_of_episodes,omitempty"`
	Seasons          []Season `json:"seasons,omitempty"`
	NextEpisodeToAir *Episode `json:"next_episode_to_air,omitempty"`
	LastEpisodeToAir *Episode `json:"last_episode_to_air,omitempty"`

	WatchProviders *WatchProviders `json:"watch/providers,omitempty"`
	Videos         *Videos         `json:"videos,omitempty"`

	// Bookkeeping written by this application.
	DigitalReleaseDate    string     `json:"digital_release_date,omitempty"`
	TheatricalReleaseDate string     `json:"theatrical_release_date,omitempty"`
	ManualDateOverride    bool       `json:"manual_date_override,omitempty"`
	MovedToLibrary        bool       `json:"moved_to_library,omitempty"`
	DismissedFromUpcoming bool       `json:"dismissed_from_upcoming,omitempty"`
	LastUpdatedAt         *time.Time `json:"last_updated_at,omitempty"`

	// Decoded from the catalog but never persisted.
	Tagline             string    `json:"tagline,omitempty"`
	Homepage            string    `json:"homepage,omitempty"`
	OriginalLanguage    string    `json:"original_language,omitempty"`
	Popularity          float64   `json:"popularity,omitempty"`
	Budget              int64     `json:"budget,omitempty"`
	Revenue             int64     `json:"revenue,omitempty"`
	Adult               bool      `json:"adult,omitempty"`
	ProductionCompanies []Company `json:"production_companies,omitempty"`
	Networks            []Company `json:"networks,omitempty"`
}

// DisplayTitle returns the title for movies and the name for shows.
func (m Metadata) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// CarryBookkeeping copies the user-owned bookkeeping flags of prev onto m. A
// manual digital date survives together with its override flag.
func (m Metadata) CarryBookkeeping(prev Metadata) Metadata {
	m.ManualDateOverride = prev.ManualDateOverride
	m.MovedToLibrary = prev.MovedToLibrary
	m.DismissedFromUpcoming = prev.DismissedFromUpcoming
	if prev.ManualDateOverride {
		m.DigitalReleaseDate = prev.DigitalReleaseDate
	}
	return m
}

// ExternalIDs holds cross-catalog identifiers.
type ExternalIDs struct {
	ImdbID string `json:"imdb_id,omitempty"`
	TvdbID int    `json:"tvdb_id,omitempty"`
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Company is a production company or network.
type Company struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Season is an entry of a show's season list.
type Season struct {
	SeasonNumber int    `json:"season_number"`
	AirDate      string `json:"air_date,omitempty"`
	EpisodeCount int    `json:"episode_count,omitempty"`
	Name         string `json:"name,omitempty"`
}

// Episode is a last-aired or next-to-air episode pointer.
type Episode struct {
	AirDate       string `json:"air_date,omitempty"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	Runtime       int    `json:"runtime,omitempty"`
	Name          string `json:"name,omitempty"`
}

// WatchProviders maps region codes to provider listings.
type WatchProviders struct {
	Results map[string]RegionProviders `json:"results"`
}

// RegionProviders lists providers per availability kind for one region.
type RegionProviders struct {
	Link     string     `json:"link,omitempty"`
	Flatrate []Provider `json:"flatrate,omitempty"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
	Ads      []Provider `json:"ads,omitempty"`
	Free     []Provider `json:"free,omitempty"`
}

// HasAny reports whether any streaming, rental or purchase provider is listed.
func (r RegionProviders) HasAny() bool {
	return len(r.Flatrate) > 0 || len(r.Rent) > 0 || len(r.Buy) > 0 ||
		len(r.Ads) > 0 || len(r.Free) > 0
}

// Provider is a single streaming/rental/purchase service.
type Provider struct {
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path,omitempty"`
	DisplayPriority int    `json:"display_priority,omitempty"`
}

// Videos wraps the video listing.
type Videos struct {
	Results []Video `json:"results"`
}

// Video is a trailer, teaser or clip.
type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name,omitempty"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official,omitempty"`
}

// Release date types used by the catalog.
const (
	ReleaseTypePremiere          = 1
	ReleaseTypeTheatricalLimited = 2
	ReleaseTypeTheatrical        = 3
	ReleaseTypeDigital           = 4
	ReleaseTypePhysical          = 5
	ReleaseTypeTV                = 6
)

// ReleaseDatesResponse is the per-region release date listing of a movie.
type ReleaseDatesResponse struct {
	ID      int                    `json:"id,omitempty"`
	Results []ReleaseDatesByRegion `json:"results"`
}

// ReleaseDatesByRegion holds the release dates of one region.
type ReleaseDatesByRegion struct {
	Iso31661     string        `json:"iso_3166_1"`
	ReleaseDates []ReleaseDate `json:"release_dates"`
}

// ReleaseDate is one dated release event.
type ReleaseDate struct {
	Type          int    `json:"type"`
	ReleaseDate   string `json:"release_date"`
	Note          string `json:"note,omitempty"`
	Certification string `json:"certification,omitempty"`
}
