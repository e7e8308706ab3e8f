package tmdb

import "github.com/cinetrack/cinetrack/internal/media"

// ErrorResponse is the error body returned by the TMDB API.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}

// SeasonDetails is the season endpoint response.
type SeasonDetails struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	AirDate      string          `json:"air_date"`
	SeasonNumber int             `json:"season_number"`
	Episodes     []media.Episode `json:"episodes"`
}

// AverageRuntime returns the mean runtime of the season's episodes that
// report one, or 0.
func (s SeasonDetails) AverageRuntime() int {
	total, n := 0, 0
	for _, ep := range s.Episodes {
		if ep.Runtime > 0 {
			total += ep.Runtime
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / n
}

// detailsAppend is requested alongside movie and show details so a single
// call carries providers, trailers and cross ids.
const detailsAppend = "watch/providers,videos,external_ids"
