// Package media defines the shared watch-tracking vocabulary: item types,
// status values, the typed catalog metadata snapshot and the pruner that
// reduces it to what is stored long-term.
package media

import "fmt"

// Type is the kind of tracked item.
type Type string

const (
	TypeMovie Type = "movie"
	TypeShow  Type = "show"
)

// ParseType converts a string to a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeMovie, TypeShow:
		return Type(s), nil
	case "tv":
		return TypeShow, nil
	}
	return "", fmt.Errorf("unknown media type %q", s)
}

// Status is the lifecycle bucket of a tracked item.
type Status string

// Movie statuses.
const (
	StatusMovieComingSoon Status = "movie_coming_soon"
	StatusMovieOnOTT      Status = "movie_on_ott"
	StatusMovieUnwatched  Status = "movie_unwatched"
	StatusMovieWatched    Status = "movie_watched"
	StatusMovieDropped    Status = "movie_dropped"
)

// Show statuses.
const (
	StatusShowNew       Status = "show_new"
	StatusShowOngoing   Status = "show_ongoing"
	StatusShowFinished  Status = "show_finished"
	StatusShowWatching  Status = "show_watching"
	StatusShowWatched   Status = "show_watched"
	StatusShowReturning Status = "show_returning"
	StatusShowDropped   Status = "show_dropped"
)

var movieStatuses = map[Status]bool{
	StatusMovieComingSoon: true,
	StatusMovieOnOTT:      true,
	StatusMovieUnwatched:  true,
	StatusMovieWatched:    true,
	StatusMovieDropped:    true,
}

var showStatuses = map[Status]bool{
	StatusShowNew:       true,
	StatusShowOngoing:   true,
	StatusShowFinished:  true,
	StatusShowWatching:  true,
	StatusShowWatched:   true,
	StatusShowReturning: true,
	StatusShowDropped:   true,
}

// ActiveStatuses are eligible for periodic reclassification.
var ActiveStatuses = []Status{
	StatusMovieComingSoon,
	StatusMovieOnOTT,
	StatusShowReturning,
	StatusShowOngoing,
}

// ValidFor reports whether s belongs to the status set of t.
func (s Status) ValidFor(t Type) bool {
	switch t {
	case TypeMovie:
		return movieStatuses[s]
	case TypeShow:
		return showStatuses[s]
	}
	return false
}

// IsActive reports whether s is in the reclassification set.
func (s Status) IsActive() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// DroppedStatus returns the dropped status for t.
func DroppedStatus(t Type) Status {
	if t == TypeShow {
		return StatusShowDropped
	}
	return StatusMovieDropped
}

// IsDropped reports whether s is one of the dropped statuses.
func (s Status) IsDropped() bool {
	return s == StatusMovieDropped || s == StatusShowDropped
}
